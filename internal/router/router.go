package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"notebooklm-backend/internal/handlers"
	"notebooklm-backend/internal/middleware"
	"notebooklm-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	uploadLimiter *middleware.RateLimiter,
	aiHandler *handlers.AIHandler,
	notebookHandler *handlers.NotebookHandler,
	documentHandler *handlers.DocumentHandler,
	fileHandler *handlers.FileHandler,
	searchHandler *handlers.SearchHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	settingsHandler *handlers.SettingsHandler,
	youtubeHandler *handlers.YouTubeHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// token is checked by the hub itself
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			// ──── AI ────
			r.Post("/ai/features", aiHandler.Features)
			r.Post("/mindmap", aiHandler.MindMap)

			// ──── Notebooks & Notes ────
			r.Route("/notebooks", func(r chi.Router) {
				r.Get("/", notebookHandler.List)
				r.Post("/", notebookHandler.Create)
				r.Get("/{id}", notebookHandler.Get)
				r.Put("/{id}", notebookHandler.Update)
				r.Delete("/{id}", notebookHandler.Delete)
				r.Get("/{id}/export", notebookHandler.Export)
			})
			r.Get("/notes", notebookHandler.ListNotes)
			r.Post("/notes", notebookHandler.CreateNote)
			r.Post("/import", notebookHandler.Import)

			// ──── Folders & Documents ────
			r.Route("/folders", func(r chi.Router) {
				r.Get("/", documentHandler.ListFolders)
				r.Post("/", documentHandler.CreateFolder)
				r.Patch("/{id}", documentHandler.UpdateFolder)
				r.Delete("/{id}", documentHandler.DeleteFolder)
			})
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", documentHandler.List)
				r.Post("/", documentHandler.Create)
				r.With(uploadLimiter.Middleware).Post("/upload", documentHandler.Upload)
				r.Patch("/{id}", documentHandler.Update)
				r.Delete("/{id}", documentHandler.Delete)
				r.Post("/{id}/enrich", documentHandler.Enrich)
			})

			// ──── Files ────
			r.Route("/files", func(r chi.Router) {
				r.Use(uploadLimiter.Middleware)
				r.Post("/parse", fileHandler.Parse)
				r.Post("/summarize", fileHandler.Summarize)
			})

			// ──── Search, Analytics, Settings ────
			r.Get("/search", searchHandler.Search)
			r.Get("/analytics", analyticsHandler.Get)
			r.Get("/settings", settingsHandler.Get)
			r.Put("/settings", settingsHandler.Update)

			// ──── YouTube ────
			r.Get("/youtube/transcript", youtubeHandler.Transcript)
			r.Get("/youtube/video-info", youtubeHandler.VideoInfo)

			// ──── Jobs ────
			r.Get("/jobs/{id}", jobHandler.GetJob)
			r.Delete("/jobs/{id}", jobHandler.CancelJob)
		})
	})

	return r
}
