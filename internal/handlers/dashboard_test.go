package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebooklm-backend/internal/models"
	"notebooklm-backend/internal/services"
)

type stubSearcher struct {
	field     string
	notebooks []models.Notebook
	tagged    []models.Notebook
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ string, field string) ([]models.Notebook, error) {
	s.field = field
	return s.notebooks, nil
}

func (s *stubSearcher) SearchTags(context.Context, string, string) ([]models.Notebook, error) {
	return s.tagged, nil
}

func TestSearch(t *testing.T) {
	bio := models.Notebook{ID: uuid.New(), Title: "Biology", Tags: []string{"cell biology", "exam"}}
	chem := models.Notebook{ID: uuid.New(), Title: "Chemistry", Tags: []string{"cells", "biology"}}
	searcher := &stubSearcher{notebooks: []models.Notebook{bio}, tagged: []models.Notebook{bio, chem}}
	h := NewSearchHandler(searcher)

	rr := httptest.NewRecorder()
	h.Search(rr, newRequest(http.MethodGet, "/api/v1/search?q=CELL&type=tags", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	var groups []models.TagGroup
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "cell biology", groups[0].Name)
	assert.Equal(t, "cells", groups[1].Name)
	assert.Equal(t, "Chemistry", groups[1].Notebooks[0].Title)

	rr = httptest.NewRecorder()
	h.Search(rr, newRequest(http.MethodGet, "/api/v1/search?q=bio&type=content", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "content", searcher.field)

	rr = httptest.NewRecorder()
	h.Search(rr, newRequest(http.MethodGet, "/api/v1/search?q=bio", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "", searcher.field)
	var all map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	assert.Contains(t, all, "notebooks")
	assert.Contains(t, all, "tags")
}

func TestSearch_Validation(t *testing.T) {
	h := NewSearchHandler(&stubSearcher{})

	rr := httptest.NewRecorder()
	h.Search(rr, newRequest(http.MethodGet, "/api/v1/search?q=+", ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.Search(rr, newRequest(http.MethodGet, "/api/v1/search?q=x&type=folders", ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

type stubAnalytics struct{ err error }

func (s stubAnalytics) ForUser(_ context.Context, userID string) (*models.Analytics, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Analytics{TotalNotebooks: 2, AIByFeature: []models.FeatureCount{{Feature: "summarize", Count: 4}}}, nil
}

func TestAnalytics(t *testing.T) {
	rr := httptest.NewRecorder()
	NewAnalyticsHandler(stubAnalytics{}).Get(rr, newRequest(http.MethodGet, "/api/v1/analytics", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total_notebooks":2`)

	rr = httptest.NewRecorder()
	NewAnalyticsHandler(stubAnalytics{err: errors.New("boom")}).Get(rr, newRequest(http.MethodGet, "/api/v1/analytics", ""))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rr).Code)
}

type stubSettingsRepo struct {
	stored *models.UserSettings
}

func (s *stubSettingsRepo) Get(_ context.Context, userID string) (*models.UserSettings, error) {
	if s.stored == nil {
		return models.DefaultSettings(userID), nil
	}
	cp := *s.stored
	return &cp, nil
}

func (s *stubSettingsRepo) Upsert(_ context.Context, settings *models.UserSettings) error {
	s.stored = settings
	return nil
}

func TestSettings(t *testing.T) {
	repo := &stubSettingsRepo{}
	h := NewSettingsHandler(repo)

	rr := httptest.NewRecorder()
	h.Get(rr, newRequest(http.MethodGet, "/api/v1/settings", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user_id":"user-1","theme":"system","notifications":{"email":true,"browser":true,"updates":true},"updated_at":"0001-01-01T00:00:00Z"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.Update(rr, newRequest(http.MethodPut, "/api/v1/settings", `{"theme":"dark"}`))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, repo.stored)
	assert.Equal(t, "dark", repo.stored.Theme)
	assert.True(t, repo.stored.Notifications.Email, "omitted notifications keep their values")

	rr = httptest.NewRecorder()
	h.Update(rr, newRequest(http.MethodPut, "/api/v1/settings", `{"theme":"neon"}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.NotEmpty(t, decodeError(t, rr).Fields["theme"])
	assert.Equal(t, "dark", repo.stored.Theme)
}

type stubJobRepo struct {
	job    *models.Job
	status string
}

func (s *stubJobRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Job, error) {
	if s.job == nil || s.job.ID != id {
		return nil, pgx.ErrNoRows
	}
	return s.job, nil
}

func (s *stubJobRepo) UpdateStatus(_ context.Context, _ uuid.UUID, status string) error {
	s.status = status
	return nil
}

func TestJobs(t *testing.T) {
	job := &models.Job{ID: uuid.New(), UserID: testUser, Status: "pending"}
	repo := &stubJobRepo{job: job}
	h := NewJobHandler(repo)

	rr := httptest.NewRecorder()
	h.GetJob(rr, newRequest(http.MethodGet, "/", "", "id", job.ID.String()))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.CancelJob(rr, newRequest(http.MethodDelete, "/", "", "id", job.ID.String()))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "failed", repo.status)

	job.Status = "processing"
	rr = httptest.NewRecorder()
	h.CancelJob(rr, newRequest(http.MethodDelete, "/", "", "id", job.ID.String()))
	assert.Equal(t, http.StatusConflict, rr.Code)

	job.UserID = "someone-else"
	rr = httptest.NewRecorder()
	h.GetJob(rr, newRequest(http.MethodGet, "/", "", "id", job.ID.String()))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type stubYouTube struct {
	transcript string
	err        error
	videoID    string
}

func (s *stubYouTube) GetTranscript(_ context.Context, videoID string) (string, error) {
	s.videoID = videoID
	return s.transcript, s.err
}

func (s *stubYouTube) GetVideoInfo(_ context.Context, videoID string) (*services.VideoInfo, error) {
	s.videoID = videoID
	return &services.VideoInfo{VideoID: videoID, Title: "Intro", Channel: "Lab", DurationSeconds: 90}, nil
}

func TestYouTubeHandlers(t *testing.T) {
	yt := &stubYouTube{transcript: "hello world"}
	h := NewYouTubeHandler(yt)

	rr := httptest.NewRecorder()
	h.Transcript(rr, newRequest(http.MethodGet, "/api/v1/youtube/transcript?url=https://youtu.be/dQw4w9WgXcQ", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "dQw4w9WgXcQ", yt.videoID)
	assert.Contains(t, rr.Body.String(), "hello world")

	rr = httptest.NewRecorder()
	h.VideoInfo(rr, newRequest(http.MethodGet, "/api/v1/youtube/video-info?videoId=dQw4w9WgXcQ", ""))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"duration_seconds":90`)

	rr = httptest.NewRecorder()
	h.Transcript(rr, newRequest(http.MethodGet, "/api/v1/youtube/transcript", ""))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	yt.err = services.ErrNoTranscript
	rr = httptest.NewRecorder()
	h.Transcript(rr, newRequest(http.MethodGet, "/api/v1/youtube/transcript?videoId=dQw4w9WgXcQ", ""))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NO_TRANSCRIPT", decodeError(t, rr).Code)
}
