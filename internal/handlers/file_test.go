package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"notebooklm-backend/internal/ai"
	"notebooklm-backend/internal/services"
)

func TestFileParse(t *testing.T) {
	h := NewFileHandler(services.NewFileExtractService(), ai.NewDispatcher(&stubCompleter{}))

	rr := httptest.NewRecorder()
	h.Parse(rr, multipartRequest(t, "/api/v1/files/parse", "chapter-1.txt", []byte("  Photosynthesis  \n"), nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got map[string]string
	json.Unmarshal(rr.Body.Bytes(), &got)
	if got["title"] != "chapter-1" {
		t.Fatalf("expected title chapter-1, got %q", got["title"])
	}
	if got["content"] != "Photosynthesis" {
		t.Fatalf("expected extracted content, got %q", got["content"])
	}
}

func TestFileParse_Unsupported(t *testing.T) {
	h := NewFileHandler(services.NewFileExtractService(), ai.NewDispatcher(&stubCompleter{}))

	rr := httptest.NewRecorder()
	h.Parse(rr, multipartRequest(t, "/api/v1/files/parse", "image.png", []byte{0x89, 'P', 'N', 'G'}, nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if code := decodeError(t, rr).Code; code != "UNSUPPORTED_TYPE" {
		t.Fatalf("expected UNSUPPORTED_TYPE, got %s", code)
	}
}

func TestFileSummarize(t *testing.T) {
	completer := &stubCompleter{reply: `{"summary":"Plants turn light into sugar.","keyPoints":[]}`, configured: true}
	h := NewFileHandler(services.NewFileExtractService(), ai.NewDispatcher(completer))

	rr := httptest.NewRecorder()
	h.Summarize(rr, multipartRequest(t, "/api/v1/files/summarize", "notes.txt",
		[]byte("Photosynthesis converts light energy into chemical energy."), nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got map[string]string
	json.Unmarshal(rr.Body.Bytes(), &got)
	if got["summary"] != "Plants turn light into sugar." {
		t.Fatalf("unexpected summary %q", got["summary"])
	}
	if completer.calls != 1 {
		t.Fatalf("expected one completion call, got %d", completer.calls)
	}
}

func TestFileSummarize_TooShort(t *testing.T) {
	completer := &stubCompleter{reply: "x", configured: true}
	h := NewFileHandler(services.NewFileExtractService(), ai.NewDispatcher(completer))

	rr := httptest.NewRecorder()
	h.Summarize(rr, multipartRequest(t, "/api/v1/files/summarize", "notes.txt", []byte("too short"), nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if completer.calls != 0 {
		t.Fatalf("completion must not run for short input")
	}
}
