package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"notebooklm-backend/internal/middleware"
	"notebooklm-backend/internal/models"
)

// Search handler

type notebookSearcher interface {
	Search(ctx context.Context, userID, q, field string) ([]models.Notebook, error)
	SearchTags(ctx context.Context, userID, q string) ([]models.Notebook, error)
}

type SearchHandler struct {
	repo notebookSearcher
}

func NewSearchHandler(repo notebookSearcher) *SearchHandler {
	return &SearchHandler{repo: repo}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Search query is required", r))
		return
	}
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "all"
	}

	userID := middleware.GetUserID(r.Context())
	ctx := r.Context()

	switch kind {
	case "notebooks":
		h.respond(w, r)(h.repo.Search(ctx, userID, q, "title"))
	case "content":
		h.respond(w, r)(h.repo.Search(ctx, userID, q, "content"))
	case "tags":
		groups, err := h.tagGroups(ctx, userID, q)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, groups)
	case "all":
		notebooks, err := h.repo.Search(ctx, userID, q, "")
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		groups, err := h.tagGroups(ctx, userID, q)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"notebooks": notebooks,
			"tags":      groups,
		})
	default:
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "type must be one of all, notebooks, content, tags", r))
	}
}

func (h *SearchHandler) respond(w http.ResponseWriter, r *http.Request) func([]models.Notebook, error) {
	return func(notebooks []models.Notebook, err error) {
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, notebooks)
	}
}

// tagGroups buckets matching notebooks under every tag that contains q.
func (h *SearchHandler) tagGroups(ctx context.Context, userID, q string) ([]models.TagGroup, error) {
	notebooks, err := h.repo.SearchTags(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	return groupByTag(notebooks, q), nil
}

func groupByTag(notebooks []models.Notebook, q string) []models.TagGroup {
	needle := strings.ToLower(q)
	byName := map[string]*models.TagGroup{}
	for _, nb := range notebooks {
		for _, tag := range nb.Tags {
			if !strings.Contains(strings.ToLower(tag), needle) {
				continue
			}
			g, ok := byName[tag]
			if !ok {
				g = &models.TagGroup{Name: tag, Notebooks: []models.Notebook{}}
				byName[tag] = g
			}
			g.Notebooks = append(g.Notebooks, nb)
		}
	}

	groups := make([]models.TagGroup, 0, len(byName))
	for _, g := range byName {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}

// Analytics handler

type analyticsSource interface {
	ForUser(ctx context.Context, userID string) (*models.Analytics, error)
}

type AnalyticsHandler struct {
	analytics analyticsSource
}

func NewAnalyticsHandler(analytics analyticsSource) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.ForUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Settings handler

type settingsRepository interface {
	Get(ctx context.Context, userID string) (*models.UserSettings, error)
	Upsert(ctx context.Context, s *models.UserSettings) error
}

type SettingsHandler struct {
	repo settingsRepository
}

func NewSettingsHandler(repo settingsRepository) *SettingsHandler {
	return &SettingsHandler{repo: repo}
}

var validThemes = map[string]bool{"light": true, "dark": true, "system": true}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.repo.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Theme != nil && !validThemes[*req.Theme] {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"theme": "must be light, dark or system"}, r))
		return
	}

	settings, err := h.repo.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if req.Theme != nil {
		settings.Theme = *req.Theme
	}
	if req.Notifications != nil {
		settings.Notifications = *req.Notifications
	}

	if err := h.repo.Upsert(r.Context(), settings); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Job handler

type jobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type JobHandler struct {
	jobRepo jobRepository
}

func NewJobHandler(jobRepo jobRepository) *JobHandler {
	return &JobHandler{jobRepo: jobRepo}
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// CancelJob fails a job that has not started. The worker skips it when it
// is popped.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}
	if job.Status != "pending" {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Only pending jobs can be cancelled", r))
		return
	}
	if err := h.jobRepo.UpdateStatus(r.Context(), job.ID, "failed"); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
}

func (h *JobHandler) ownedJob(w http.ResponseWriter, r *http.Request) (*models.Job, bool) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return nil, false
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return nil, false
	}
	if job.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return nil, false
	}
	return job, true
}
