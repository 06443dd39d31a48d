package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"

	"notebooklm-backend/internal/ai"
	"notebooklm-backend/internal/repository"
	"notebooklm-backend/internal/services"
	"notebooklm-backend/internal/storage"
)

// ─── JSON Response Tests ───

func TestJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]interface{}{
		"message": "Success",
		"user_id": "test-user",
	})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", rr.Header().Get("Content-Type"))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["message"] != "Success" {
		t.Errorf("Expected message 'Success', got %v", result["message"])
	}
}

func TestErrorResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notebooks", nil)
	resp := errorRespWithFields("VALIDATION_ERROR", "Invalid input", map[string]string{"title": "is required"}, req)

	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusBadRequest, resp)

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if _, ok := body["error"].(string); !ok {
		t.Errorf("Expected error to be a display string, got %T", body["error"])
	}
	if body["code"] != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %v", body["code"])
	}
	if _, ok := body["request_id"]; ok {
		t.Errorf("request_id must be omitted when no id is assigned")
	}
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{ai.ErrMissingContent, http.StatusBadRequest, "INVALID_REQUEST"},
		{ai.ErrNotConfigured, http.StatusInternalServerError, "CONFIGURATION"},
		{ai.RemoteError("quota", nil), http.StatusInternalServerError, "UPSTREAM_FAILURE"},
		{fmt.Errorf("load: %w", pgx.ErrNoRows), http.StatusNotFound, "NOT_FOUND"},
		{storage.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: .png", services.ErrUnsupportedType), http.StatusBadRequest, "UNSUPPORTED_TYPE"},
		{services.ErrNoText, http.StatusBadRequest, "NO_TEXT"},
		{services.ErrNoTranscript, http.StatusNotFound, "NO_TRANSCRIPT"},
		{repository.ErrFolderHasChildren, http.StatusBadRequest, "FOLDER_NOT_EMPTY"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.code+"/"+tc.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			handleServiceError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

			if rr.Code != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, rr.Code)
			}
			if code := decodeError(t, rr).Code; code != tc.code {
				t.Errorf("Expected code %s, got %s", tc.code, code)
			}
		})
	}
}

func TestRequireFields(t *testing.T) {
	if got := requireFields(map[string]string{"title": "Cells"}); got != nil {
		t.Errorf("Expected no field errors, got %v", got)
	}

	got := requireFields(map[string]string{"title": "  ", "content": "x", "notebookId": ""})
	if len(got) != 2 || got["title"] == "" || got["notebookId"] == "" {
		t.Errorf("Expected title and notebookId errors, got %v", got)
	}
}
