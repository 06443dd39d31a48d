package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebooklm-backend/internal/models"
	"notebooklm-backend/internal/repository"
	"notebooklm-backend/internal/services"
	"notebooklm-backend/internal/storage"
)

type stubDocumentRepo struct {
	docs     map[uuid.UUID]*models.Document
	folders  map[uuid.UUID]*models.Folder
	children map[uuid.UUID]bool
	statuses map[uuid.UUID]string
	filter   models.DocumentFilter
}

func newStubDocumentRepo() *stubDocumentRepo {
	return &stubDocumentRepo{
		docs:     map[uuid.UUID]*models.Document{},
		folders:  map[uuid.UUID]*models.Folder{},
		children: map[uuid.UUID]bool{},
		statuses: map[uuid.UUID]string{},
	}
}

func (s *stubDocumentRepo) Create(_ context.Context, d *models.Document) error {
	d.ID = uuid.New()
	d.Tags = models.NormalizeTags(d.Tags)
	if d.Status == "" {
		d.Status = models.DocumentReady
	}
	s.docs[d.ID] = d
	return nil
}

func (s *stubDocumentRepo) GetByID(_ context.Context, userID string, id uuid.UUID) (*models.Document, error) {
	d, ok := s.docs[id]
	if !ok || d.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (s *stubDocumentRepo) List(_ context.Context, _ string, f models.DocumentFilter) ([]models.Document, error) {
	s.filter = f
	return []models.Document{}, nil
}

func (s *stubDocumentRepo) Update(_ context.Context, d *models.Document) error {
	d.Tags = models.NormalizeTags(d.Tags)
	s.docs[d.ID] = d
	return nil
}

func (s *stubDocumentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	s.statuses[id] = status
	return nil
}

func (s *stubDocumentRepo) Delete(_ context.Context, userID string, id uuid.UUID) (*models.Document, error) {
	d, ok := s.docs[id]
	if !ok || d.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	delete(s.docs, id)
	return d, nil
}

func (s *stubDocumentRepo) CreateFolder(_ context.Context, f *models.Folder) error {
	f.ID = uuid.New()
	s.folders[f.ID] = f
	return nil
}

func (s *stubDocumentRepo) GetFolder(_ context.Context, userID string, id uuid.UUID) (*models.Folder, error) {
	f, ok := s.folders[id]
	if !ok || f.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *f
	return &cp, nil
}

func (s *stubDocumentRepo) ListFolders(context.Context, string) ([]models.Folder, error) {
	return []models.Folder{}, nil
}

func (s *stubDocumentRepo) UpdateFolder(_ context.Context, f *models.Folder) error {
	s.folders[f.ID] = f
	return nil
}

func (s *stubDocumentRepo) DeleteFolder(_ context.Context, userID string, id uuid.UUID) error {
	if s.children[id] {
		return repository.ErrFolderHasChildren
	}
	if _, ok := s.folders[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.folders, id)
	return nil
}

type stubSubmitter struct {
	jobs []*models.Job
	err  error
}

func (s *stubSubmitter) Submit(_ context.Context, job *models.Job) error {
	if s.err != nil {
		return s.err
	}
	job.ID = uuid.New()
	job.Status = "pending"
	s.jobs = append(s.jobs, job)
	return nil
}

func newDocumentHandler(t *testing.T) (*DocumentHandler, *stubDocumentRepo, *stubSubmitter, storage.Store) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	repo := newStubDocumentRepo()
	jobs := &stubSubmitter{}
	return NewDocumentHandler(repo, jobs, store, services.NewFileExtractService()), repo, jobs, store
}

func TestDocumentUpload_QueuesExtraction(t *testing.T) {
	h, repo, jobs, store := newDocumentHandler(t)

	rr := httptest.NewRecorder()
	h.Upload(rr, multipartRequest(t, "/api/v1/documents/upload", "lecture notes.txt", []byte("cells divide"), nil))

	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	var accepted models.UploadAccepted
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accepted))

	doc := repo.docs[accepted.DocumentID]
	require.NotNil(t, doc)
	assert.Equal(t, "lecture notes", doc.Title)
	assert.Equal(t, models.DocumentProcessing, doc.Status)
	require.NotNil(t, doc.FileKey)
	assert.True(t, strings.HasSuffix(*doc.FileKey, ".txt"))

	stored, err := store.Get(context.Background(), *doc.FileKey)
	require.NoError(t, err)
	assert.Equal(t, "cells divide", string(stored))

	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, models.JobDocumentExtraction, jobs.jobs[0].Type)
	assert.Equal(t, doc.ID, jobs.jobs[0].ReferenceID)
	assert.Equal(t, accepted.JobID, jobs.jobs[0].ID)
}

func TestDocumentUpload_Rejections(t *testing.T) {
	t.Run("unsupported type", func(t *testing.T) {
		h, repo, jobs, _ := newDocumentHandler(t)
		rr := httptest.NewRecorder()
		h.Upload(rr, multipartRequest(t, "/", "slides.pptx", []byte("x"), nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "UNSUPPORTED_TYPE", decodeError(t, rr).Code)
		assert.Empty(t, repo.docs)
		assert.Empty(t, jobs.jobs)
	})

	t.Run("foreign folder", func(t *testing.T) {
		h, repo, _, _ := newDocumentHandler(t)
		rr := httptest.NewRecorder()
		h.Upload(rr, multipartRequest(t, "/", "a.txt", []byte("x"), map[string]string{"folderId": uuid.NewString()}))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Empty(t, repo.docs)
	})

	t.Run("missing file", func(t *testing.T) {
		h, _, _, _ := newDocumentHandler(t)
		rr := httptest.NewRecorder()
		h.Upload(rr, newRequest(http.MethodPost, "/", `{}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("queue failure marks document failed", func(t *testing.T) {
		h, repo, jobs, _ := newDocumentHandler(t)
		jobs.err = errors.New("redis down")
		rr := httptest.NewRecorder()
		h.Upload(rr, multipartRequest(t, "/", "a.txt", []byte("x"), nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		require.Len(t, repo.statuses, 1)
		for _, status := range repo.statuses {
			assert.Equal(t, models.DocumentFailed, status)
		}
	})
}

func TestDocumentCreate_Validation(t *testing.T) {
	h, repo, _, _ := newDocumentHandler(t)

	rr := httptest.NewRecorder()
	h.Create(rr, newRequest(http.MethodPost, "/api/v1/documents", `{"title":"Only title"}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "is required", decodeError(t, rr).Fields["content"])

	rr = httptest.NewRecorder()
	h.Create(rr, newRequest(http.MethodPost, "/api/v1/documents", `{"title":"T","content":"C","tags":["A","a"]}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, repo.docs, 1)
	for _, d := range repo.docs {
		assert.Equal(t, []string{"a"}, d.Tags)
		assert.Equal(t, testUser, d.UserID)
	}
}

func TestDocumentUpdate_Partial(t *testing.T) {
	h, repo, _, _ := newDocumentHandler(t)
	doc := &models.Document{UserID: testUser, Title: "Old", Content: "body"}
	require.NoError(t, repo.Create(context.Background(), doc))

	rr := httptest.NewRecorder()
	h.Update(rr, newRequest(http.MethodPatch, "/", `{"title":"New"}`, "id", doc.ID.String()))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "New", repo.docs[doc.ID].Title)
	assert.Equal(t, "body", repo.docs[doc.ID].Content)
}

func TestDocumentDelete_RemovesStoredFile(t *testing.T) {
	h, repo, _, store := newDocumentHandler(t)
	key := "uploads/user-1/file.txt"
	require.NoError(t, store.Put(context.Background(), key, []byte("x"), "text/plain"))
	doc := &models.Document{UserID: testUser, Title: "T", FileKey: &key}
	require.NoError(t, repo.Create(context.Background(), doc))

	rr := httptest.NewRecorder()
	h.Delete(rr, newRequest(http.MethodDelete, "/", "", "id", doc.ID.String()))

	require.Equal(t, http.StatusOK, rr.Code)
	_, err := store.Get(context.Background(), key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentList_Filters(t *testing.T) {
	h, repo, _, _ := newDocumentHandler(t)
	folderID := uuid.New()

	rr := httptest.NewRecorder()
	h.List(rr, newRequest(http.MethodGet, "/api/v1/documents?folderId="+folderID.String()+"&search=+cell+&tag=Bio", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, repo.filter.FolderID)
	assert.Equal(t, folderID, *repo.filter.FolderID)
	assert.Equal(t, "cell", repo.filter.Search)
	assert.Equal(t, "bio", repo.filter.Tag)

	rr = httptest.NewRecorder()
	h.List(rr, newRequest(http.MethodGet, "/api/v1/documents?folderId=bad", ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDocumentEnrich(t *testing.T) {
	h, repo, jobs, _ := newDocumentHandler(t)
	ready := &models.Document{UserID: testUser, Title: "T", Content: "Mitochondria make energy."}
	busy := &models.Document{UserID: testUser, Title: "T", Status: models.DocumentProcessing}
	empty := &models.Document{UserID: testUser, Title: "T"}
	for _, d := range []*models.Document{ready, busy, empty} {
		require.NoError(t, repo.Create(context.Background(), d))
	}

	rr := httptest.NewRecorder()
	h.Enrich(rr, newRequest(http.MethodPost, "/", "", "id", ready.ID.String()))
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, models.JobDocumentEnrichment, jobs.jobs[0].Type)

	rr = httptest.NewRecorder()
	h.Enrich(rr, newRequest(http.MethodPost, "/", "", "id", busy.ID.String()))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = httptest.NewRecorder()
	h.Enrich(rr, newRequest(http.MethodPost, "/", "", "id", empty.ID.String()))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, jobs.jobs, 1)
}

func TestFolders(t *testing.T) {
	h, repo, _, _ := newDocumentHandler(t)

	rr := httptest.NewRecorder()
	h.CreateFolder(rr, newRequest(http.MethodPost, "/api/v1/folders", `{"name":" "}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.CreateFolder(rr, newRequest(http.MethodPost, "/api/v1/folders", `{"name":"Lectures"}`))
	require.Equal(t, http.StatusCreated, rr.Code)
	var parent models.Folder
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &parent))

	rr = httptest.NewRecorder()
	h.UpdateFolder(rr, newRequest(http.MethodPatch, "/", `{"name":"Loop","parentId":"`+parent.ID.String()+`"}`,
		"id", parent.ID.String()))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.UpdateFolder(rr, newRequest(http.MethodPatch, "/", `{"name":"Talks"}`, "id", parent.ID.String()))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Talks", repo.folders[parent.ID].Name)

	repo.children[parent.ID] = true
	rr = httptest.NewRecorder()
	h.DeleteFolder(rr, newRequest(http.MethodDelete, "/", "", "id", parent.ID.String()))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "FOLDER_NOT_EMPTY", decodeError(t, rr).Code)

	repo.children[parent.ID] = false
	rr = httptest.NewRecorder()
	h.DeleteFolder(rr, newRequest(http.MethodDelete, "/", "", "id", parent.ID.String()))
	assert.Equal(t, http.StatusOK, rr.Code)
}
