package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"notebooklm-backend/internal/ai"
	"notebooklm-backend/internal/models"
	"notebooklm-backend/internal/repository"
	"notebooklm-backend/internal/services"
	"notebooklm-backend/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.APIError {
	return models.APIError{
		Error:     message,
		Code:      code,
		RequestID: chimiddleware.GetReqID(r.Context()),
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.APIError {
	resp := errorResp(code, message, r)
	resp.Fields = fields
	return resp
}

// decodeJSON reads a JSON body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func uuidParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var aiErr *ai.Error
	switch {
	case errors.As(err, &aiErr):
		writeJSON(w, aiErr.Status(), errorResp(aiErr.Code(), aiErr.Message, r))
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Resource not found", r))
	case errors.Is(err, services.ErrUnsupportedType):
		writeJSON(w, http.StatusBadRequest, errorResp("UNSUPPORTED_TYPE", "Unsupported file type. Use PDF, DOCX or TXT", r))
	case errors.Is(err, services.ErrNoText):
		writeJSON(w, http.StatusBadRequest, errorResp("NO_TEXT", "No text could be extracted from the file", r))
	case errors.Is(err, services.ErrNoTranscript):
		writeJSON(w, http.StatusNotFound, errorResp("NO_TRANSCRIPT", "No transcript available for this video", r))
	case errors.Is(err, repository.ErrFolderHasChildren):
		writeJSON(w, http.StatusBadRequest, errorResp("FOLDER_NOT_EMPTY", "Folder has subfolders", r))
	default:
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// requireFields returns a field error map for every blank value.
func requireFields(values map[string]string) map[string]string {
	missing := map[string]string{}
	for name, v := range values {
		if strings.TrimSpace(v) == "" {
			missing[name] = "is required"
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return missing
}
