package handlers

import (
	"context"
	"net/http"

	"notebooklm-backend/internal/services"
)

type youtubeSource interface {
	GetTranscript(ctx context.Context, videoID string) (string, error)
	GetVideoInfo(ctx context.Context, videoID string) (*services.VideoInfo, error)
}

type YouTubeHandler struct {
	youtube youtubeSource
}

func NewYouTubeHandler(youtube youtubeSource) *YouTubeHandler {
	return &YouTubeHandler{youtube: youtube}
}

func (h *YouTubeHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}

	transcript, err := h.youtube.GetTranscript(r.Context(), videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"video_id": videoID, "transcript": transcript})
}

// VideoInfo returns metadata shaped for options.videoInfo of youtube-summarize.
func (h *YouTubeHandler) VideoInfo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}

	info, err := h.youtube.GetVideoInfo(r.Context(), videoID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// videoIDParam accepts videoId or url and normalizes either to a bare id.
func videoIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("videoId")
	if raw == "" {
		raw = r.URL.Query().Get("url")
	}
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "videoId is required", r))
		return "", false
	}
	id, err := services.ParseVideoID(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid YouTube video ID or URL", r))
		return "", false
	}
	return id, true
}
