package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"notebooklm-backend/internal/ai"
	"notebooklm-backend/internal/middleware"
)

type featureDispatcher interface {
	Handle(ctx context.Context, req ai.Request) (any, error)
}

type interactionRecorder interface {
	Record(ctx context.Context, userID, feature string) error
}

type AIHandler struct {
	dispatcher featureDispatcher
	recorder   interactionRecorder
}

// NewAIHandler wires the feature endpoints. recorder may be nil.
func NewAIHandler(dispatcher featureDispatcher, recorder interactionRecorder) *AIHandler {
	return &AIHandler{dispatcher: dispatcher, recorder: recorder}
}

// Features runs any AI feature named by the request's type field.
func (h *AIHandler) Features(w http.ResponseWriter, r *http.Request) {
	var req ai.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(string(ai.KindInvalidRequest), "Invalid request body", r))
		return
	}
	h.dispatch(w, r, req)
}

// MindMap is the features endpoint with the type fixed to mindmap.
func (h *AIHandler) MindMap(w http.ResponseWriter, r *http.Request) {
	var req ai.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(string(ai.KindInvalidRequest), "Invalid request body", r))
		return
	}
	req.Type = ai.FeatureMindMap.String()
	h.dispatch(w, r, req)
}

func (h *AIHandler) dispatch(w http.ResponseWriter, r *http.Request, req ai.Request) {
	out, err := h.dispatcher.Handle(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if h.recorder != nil {
		userID := middleware.GetUserID(r.Context())
		feature := strings.TrimSpace(req.Type)
		if err := h.recorder.Record(r.Context(), userID, feature); err != nil {
			zap.L().Warn("failed to record AI interaction",
				zap.String("user_id", userID),
				zap.String("feature", feature),
				zap.Error(err),
			)
		}
	}

	writeJSON(w, http.StatusOK, out)
}
