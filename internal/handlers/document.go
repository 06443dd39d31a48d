package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notebooklm-backend/internal/middleware"
	"notebooklm-backend/internal/models"
	"notebooklm-backend/internal/services"
	"notebooklm-backend/internal/storage"
)

// MaxUploadSize caps document uploads and parsed files.
const MaxUploadSize = 25 << 20

type documentRepository interface {
	Create(ctx context.Context, d *models.Document) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, userID string, f models.DocumentFilter) ([]models.Document, error)
	Update(ctx context.Context, d *models.Document) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, userID string, id uuid.UUID) (*models.Document, error)

	CreateFolder(ctx context.Context, f *models.Folder) error
	GetFolder(ctx context.Context, userID string, id uuid.UUID) (*models.Folder, error)
	ListFolders(ctx context.Context, userID string) ([]models.Folder, error)
	UpdateFolder(ctx context.Context, f *models.Folder) error
	DeleteFolder(ctx context.Context, userID string, id uuid.UUID) error
}

type jobSubmitter interface {
	Submit(ctx context.Context, job *models.Job) error
}

type fileKinds interface {
	Kind(filename, contentType string) (string, error)
}

type DocumentHandler struct {
	repo  documentRepository
	jobs  jobSubmitter
	store storage.Store
	kinds fileKinds
}

func NewDocumentHandler(repo documentRepository, jobs jobSubmitter, store storage.Store, kinds fileKinds) *DocumentHandler {
	return &DocumentHandler{repo: repo, jobs: jobs, store: store, kinds: kinds}
}

// ─── Folders ───

func (h *DocumentHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.repo.ListFolders(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *DocumentHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Folder name is required",
			map[string]string{"name": "is required"}, r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if req.ParentID != nil {
		if _, err := h.repo.GetFolder(r.Context(), userID, *req.ParentID); err != nil {
			handleServiceError(w, r, err)
			return
		}
	}

	folder := &models.Folder{UserID: userID, Name: strings.TrimSpace(req.Name), ParentID: req.ParentID}
	if err := h.repo.CreateFolder(r.Context(), folder); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

func (h *DocumentHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid folder ID", r))
		return
	}

	var req models.UpdateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Folder name is required",
			map[string]string{"name": "is required"}, r))
		return
	}
	if req.ParentID != nil && *req.ParentID == id {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "A folder cannot be its own parent", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	folder, err := h.repo.GetFolder(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if req.ParentID != nil {
		if _, err := h.repo.GetFolder(r.Context(), userID, *req.ParentID); err != nil {
			handleServiceError(w, r, err)
			return
		}
	}

	folder.Name = strings.TrimSpace(req.Name)
	folder.ParentID = req.ParentID
	if err := h.repo.UpdateFolder(r.Context(), folder); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

func (h *DocumentHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid folder ID", r))
		return
	}
	if err := h.repo.DeleteFolder(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Folder deleted"})
}

// ─── Documents ───

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.DocumentFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Tag:    strings.ToLower(strings.TrimSpace(q.Get("tag"))),
	}
	if raw := q.Get("folderId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid folder ID", r))
			return
		}
		filter.FolderID = &id
	}

	docs, err := h.repo.List(r.Context(), middleware.GetUserID(r.Context()), filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if fields := requireFields(map[string]string{"title": req.Title, "content": req.Content}); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if !h.folderVisible(w, r, userID, req.FolderID) {
		return
	}

	doc := &models.Document{
		UserID:   userID,
		FolderID: req.FolderID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Tags:     req.Tags,
	}
	if err := h.repo.Create(r.Context(), doc); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	var req models.UpdateDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	doc, err := h.repo.GetByID(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Title cannot be empty",
				map[string]string{"title": "is required"}, r))
			return
		}
		doc.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}
	if req.FolderID != nil {
		if !h.folderVisible(w, r, userID, req.FolderID) {
			return
		}
		doc.FolderID = req.FolderID
	}
	if req.Tags != nil {
		doc.Tags = req.Tags
	}

	if err := h.repo.Update(r.Context(), doc); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	doc, err := h.repo.Delete(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if doc.FileKey != nil && h.store != nil {
		if err := h.store.Delete(r.Context(), *doc.FileKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			zap.L().Warn("failed to delete stored upload", zap.String("key", *doc.FileKey), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted"})
}

// Upload stores the file and queues text extraction. The document stays in
// the processing state until the worker finishes.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	data, header, ok := readUpload(w, r)
	if !ok {
		return
	}

	kind, err := h.kinds.Kind(header.filename, header.contentType)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	var folderID *uuid.UUID
	if raw := strings.TrimSpace(r.FormValue("folderId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid folder ID", r))
			return
		}
		folderID = &id
	}
	if !h.folderVisible(w, r, userID, folderID) {
		return
	}

	key := storage.UploadKey(userID, uuid.New(), header.filename)
	if err := h.store.Put(r.Context(), key, data, kind); err != nil {
		zap.L().Error("failed to store upload", zap.String("key", key), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to store file", r))
		return
	}

	doc := &models.Document{
		UserID:   userID,
		FolderID: folderID,
		Title:    services.TitleFromFilename(header.filename),
		Status:   models.DocumentProcessing,
		FileKey:  &key,
		MimeType: &kind,
	}
	if err := h.repo.Create(r.Context(), doc); err != nil {
		handleServiceError(w, r, err)
		return
	}

	job := &models.Job{UserID: userID, Type: models.JobDocumentExtraction, ReferenceID: doc.ID}
	if err := h.jobs.Submit(r.Context(), job); err != nil {
		zap.L().Error("failed to queue extraction job", zap.String("document_id", doc.ID.String()), zap.Error(err))
		_ = h.repo.UpdateStatus(r.Context(), doc.ID, models.DocumentFailed)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue document processing", r))
		return
	}

	writeJSON(w, http.StatusAccepted, models.UploadAccepted{DocumentID: doc.ID, JobID: job.ID})
}

// Enrich queues a background summarize and tag pass over the document.
func (h *DocumentHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid document ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	doc, err := h.repo.GetByID(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if doc.Status == models.DocumentProcessing {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Document is still processing", r))
		return
	}
	if strings.TrimSpace(doc.Content) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Document has no content to enrich", r))
		return
	}

	job := &models.Job{UserID: userID, Type: models.JobDocumentEnrichment, ReferenceID: doc.ID}
	if err := h.jobs.Submit(r.Context(), job); err != nil {
		zap.L().Error("failed to queue enrichment job", zap.String("document_id", doc.ID.String()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue enrichment", r))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"job_id": job.ID, "document_id": doc.ID})
}

// folderVisible writes a response and returns false when folderID is set
// but not owned by the user.
func (h *DocumentHandler) folderVisible(w http.ResponseWriter, r *http.Request, userID string, folderID *uuid.UUID) bool {
	if folderID == nil {
		return true
	}
	if _, err := h.repo.GetFolder(r.Context(), userID, *folderID); err != nil {
		handleServiceError(w, r, err)
		return false
	}
	return true
}

type uploadHeader struct {
	filename    string
	contentType string
}

// readUpload reads the multipart "file" field, enforcing MaxUploadSize.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, uploadHeader, bool) {
	if r.ContentLength > MaxUploadSize+(1<<20) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 25MB limit", r))
		return nil, uploadHeader{}, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+(1<<20))

	file, fh, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 25MB limit", r))
			return nil, uploadHeader{}, false
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return nil, uploadHeader{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read file", r))
		return nil, uploadHeader{}, false
	}
	if len(data) > MaxUploadSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 25MB limit", r))
		return nil, uploadHeader{}, false
	}

	return data, uploadHeader{filename: fh.Filename, contentType: fh.Header.Get("Content-Type")}, true
}
