package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"notebooklm-backend/internal/ai"
	"notebooklm-backend/internal/models"
	"notebooklm-backend/internal/services"
)

const minSummarizeChars = 20

type textExtractor interface {
	Extract(filename, contentType string, data []byte) (string, error)
}

type FileHandler struct {
	extractor  textExtractor
	dispatcher featureDispatcher
}

func NewFileHandler(extractor textExtractor, dispatcher featureDispatcher) *FileHandler {
	return &FileHandler{extractor: extractor, dispatcher: dispatcher}
}

// Parse returns the text of an uploaded file without storing it.
func (h *FileHandler) Parse(w http.ResponseWriter, r *http.Request) {
	data, header, ok := readUpload(w, r)
	if !ok {
		return
	}

	text, err := h.extractor.Extract(header.filename, header.contentType, data)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ParsedFile{
		Title:   services.TitleFromFilename(header.filename),
		Content: text,
	})
}

// Summarize extracts an uploaded file and runs it through the summarize feature.
func (h *FileHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	data, header, ok := readUpload(w, r)
	if !ok {
		return
	}

	text, err := h.extractor.Extract(header.filename, header.contentType, data)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minSummarizeChars {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Not enough text in the file to summarize", r))
		return
	}

	out, err := h.dispatcher.Handle(r.Context(), ai.Request{
		Type:    ai.FeatureSummarize.String(),
		Content: text,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"title":   services.TitleFromFilename(header.filename),
		"summary": ai.SummaryText(out),
	})
}
