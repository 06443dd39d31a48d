package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"notebooklm-backend/internal/middleware"
	"notebooklm-backend/internal/models"
	"notebooklm-backend/internal/services"
)

type notebookRepository interface {
	CreateWithNotes(ctx context.Context, n *models.Notebook, notes []models.Note) ([]models.Note, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Notebook, error)
	ListByUser(ctx context.Context, userID string) ([]models.Notebook, error)
	Update(ctx context.Context, n *models.Notebook) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	CreateNote(ctx context.Context, note *models.Note) error
	ListNotes(ctx context.Context, userID string, notebookID *uuid.UUID) ([]models.Note, error)
	Import(ctx context.Context, userID string, req *models.ImportRequest) (*models.ImportResult, error)
}

type notebookExporter interface {
	Markdown(nb *models.Notebook, notes []models.Note) string
	HTML(nb *models.Notebook, notes []models.Note) (string, error)
}

type NotebookHandler struct {
	repo     notebookRepository
	exporter notebookExporter
}

func NewNotebookHandler(repo notebookRepository, exporter notebookExporter) *NotebookHandler {
	return &NotebookHandler{repo: repo, exporter: exporter}
}

func (h *NotebookHandler) List(w http.ResponseWriter, r *http.Request) {
	notebooks, err := h.repo.ListByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notebooks)
}

func (h *NotebookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNotebookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Title is required",
			map[string]string{"title": "is required"}, r))
		return
	}

	notes := make([]models.Note, 0, len(req.Notes))
	for _, n := range req.Notes {
		if strings.TrimSpace(n.Title) == "" {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Every note needs a title", r))
			return
		}
		notes = append(notes, models.Note{Title: strings.TrimSpace(n.Title), Content: n.Content})
	}
	if len(notes) == 0 && strings.TrimSpace(req.Summary) != "" {
		notes = append(notes, models.Note{Title: "Summary", Content: req.Summary})
	}

	nb := &models.Notebook{
		UserID:  middleware.GetUserID(r.Context()),
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
		Tags:    req.Tags,
	}
	created, err := h.repo.CreateWithNotes(r.Context(), nb, notes)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.NotebookWithNotes{Notebook: *nb, Notes: created})
}

func (h *NotebookHandler) Get(w http.ResponseWriter, r *http.Request) {
	nb, notes, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.NotebookWithNotes{Notebook: *nb, Notes: notes})
}

func (h *NotebookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid notebook ID", r))
		return
	}

	var req models.UpdateNotebookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	nb, err := h.repo.GetByID(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Title cannot be empty",
				map[string]string{"title": "is required"}, r))
			return
		}
		nb.Title = title
	}
	if req.Content != nil {
		nb.Content = *req.Content
	}
	if req.Tags != nil {
		nb.Tags = req.Tags
	}

	if err := h.repo.Update(r.Context(), nb); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

func (h *NotebookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid notebook ID", r))
		return
	}
	if err := h.repo.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notebook deleted"})
}

// Export renders the notebook as markdown (default) or HTML.
func (h *NotebookHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = services.ExportMarkdown
	}
	if format != services.ExportMarkdown && format != "md" && format != services.ExportHTML {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "format must be markdown or html", r))
		return
	}

	nb, notes, ok := h.load(w, r)
	if !ok {
		return
	}

	var body, contentType, ext string
	if format == services.ExportHTML {
		out, err := h.exporter.HTML(nb, notes)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		body, contentType, ext = out, "text/html; charset=utf-8", "html"
	} else {
		body, contentType, ext = h.exporter.Markdown(nb, notes), "text/markdown; charset=utf-8", "md"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="notebook-%s.%s"`, nb.ID, ext))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (h *NotebookHandler) load(w http.ResponseWriter, r *http.Request) (*models.Notebook, []models.Note, bool) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid notebook ID", r))
		return nil, nil, false
	}

	userID := middleware.GetUserID(r.Context())
	nb, err := h.repo.GetByID(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return nil, nil, false
	}
	notes, err := h.repo.ListNotes(r.Context(), userID, &nb.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return nil, nil, false
	}
	return nb, notes, true
}

// ─── Notes ───

func (h *NotebookHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	var notebookID *uuid.UUID
	if raw := r.URL.Query().Get("notebookId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid notebook ID", r))
			return
		}
		notebookID = &id
	}

	notes, err := h.repo.ListNotes(r.Context(), middleware.GetUserID(r.Context()), notebookID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NotebookHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := requireFields(map[string]string{"notebookId": req.NotebookID, "title": req.Title}); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}
	notebookID, err := uuid.Parse(req.NotebookID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid notebook ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if _, err := h.repo.GetByID(r.Context(), userID, notebookID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	note := &models.Note{
		NotebookID: notebookID,
		UserID:     userID,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
	}
	if err := h.repo.CreateNote(r.Context(), note); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Import loads an exported notebook archive.
func (h *NotebookHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid import payload", r))
		return
	}
	if len(req.Notebooks) == 0 && len(req.Notes) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Nothing to import", r))
		return
	}

	fields := map[string]string{}
	for i := range req.Notebooks {
		req.Notebooks[i].Title = strings.TrimSpace(req.Notebooks[i].Title)
		if req.Notebooks[i].Title == "" {
			fields[fmt.Sprintf("notebooks[%d].title", i)] = "is required"
		}
	}
	for i := range req.Notes {
		n := &req.Notes[i]
		n.Title = strings.TrimSpace(n.Title)
		n.NotebookTitle = strings.TrimSpace(n.NotebookTitle)
		if n.Title == "" {
			fields[fmt.Sprintf("notes[%d].title", i)] = "is required"
		}
		if n.NotebookTitle == "" {
			fields[fmt.Sprintf("notes[%d].notebookTitle", i)] = "is required"
		}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Invalid import payload", fields, r))
		return
	}

	res, err := h.repo.Import(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
