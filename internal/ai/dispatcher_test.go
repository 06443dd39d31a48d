package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	configured bool
	reply      string
	err        error

	calls   int
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func (s *stubCompleter) Configured() bool { return s.configured }

func requireAIError(t *testing.T, err error, kind Kind, status int) *Error {
	t.Helper()
	var aiErr *Error
	require.True(t, errors.As(err, &aiErr), "expected *ai.Error, got %T", err)
	assert.Equal(t, kind, aiErr.Kind)
	assert.Equal(t, status, aiErr.Status())
	return aiErr
}

func TestDispatcherAutoTagPassThrough(t *testing.T) {
	stub := &stubCompleter{configured: true, reply: `["animals","nature"]`}
	d := NewDispatcher(stub)

	out, err := d.Handle(context.Background(), Request{Type: "auto-tag", Content: "The quick brown fox jumps."})
	require.NoError(t, err)

	body, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Equal(t, `["animals","nature"]`, string(body))
	require.Equal(t, 1, stub.calls)
	assert.Contains(t, stub.prompts[0], "The quick brown fox jumps.")
}

func TestDispatcherEmptyContent(t *testing.T) {
	for _, content := range []string{"", "   \n\t"} {
		stub := &stubCompleter{configured: true, reply: "unused"}
		_, err := NewDispatcher(stub).Handle(context.Background(), Request{Type: "summarize", Content: content})

		aiErr := requireAIError(t, err, KindInvalidRequest, http.StatusBadRequest)
		assert.Equal(t, "INVALID_REQUEST", aiErr.Code())
		assert.Zero(t, stub.calls)
	}
}

func TestDispatcherUnknownFeature(t *testing.T) {
	stub := &stubCompleter{configured: true, reply: "unused"}
	_, err := NewDispatcher(stub).Handle(context.Background(), Request{Type: "haiku", Content: "text"})

	requireAIError(t, err, KindInvalidRequest, http.StatusBadRequest)
	assert.Zero(t, stub.calls)
}

func TestDispatcherMissingCredential(t *testing.T) {
	stub := &stubCompleter{configured: false, reply: "unused"}
	_, err := NewDispatcher(stub).Handle(context.Background(), Request{Type: "summarize", Content: "text"})

	aiErr := requireAIError(t, err, KindConfiguration, http.StatusInternalServerError)
	assert.Equal(t, "Server configuration error: missing API key", aiErr.Message)
	assert.Zero(t, stub.calls)

	_, err = NewDispatcher(nil).Handle(context.Background(), Request{Type: "summarize", Content: "text"})
	requireAIError(t, err, KindConfiguration, http.StatusInternalServerError)
}

func TestDispatcherRemoteFailures(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		kind    Kind
		message string
	}{
		{"remote envelope", RemoteError("API key not valid", nil), KindRemote, "API key not valid"},
		{"empty completion", ErrEmptyCompletion, KindEmptyCompletion, "AI response does not contain any text"},
		{"plain transport error", errors.New("dial tcp: connection refused"), KindRemote, "dial tcp: connection refused"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubCompleter{configured: true, err: tc.err}
			_, err := NewDispatcher(stub).Handle(context.Background(), Request{Type: "keywords", Content: "text"})

			aiErr := requireAIError(t, err, tc.kind, http.StatusInternalServerError)
			assert.Equal(t, "UPSTREAM_FAILURE", aiErr.Code())
			assert.Equal(t, tc.message, aiErr.Message)
			assert.Equal(t, 1, stub.calls)
		})
	}
}

func TestDispatcherMalformedMindMap(t *testing.T) {
	stub := &stubCompleter{configured: true, reply: "I could not build a graph."}
	_, err := NewDispatcher(stub).Handle(context.Background(), Request{Type: "mindmap", Content: "text"})

	aiErr := requireAIError(t, err, KindMalformedOutput, http.StatusInternalServerError)
	assert.Equal(t, "UPSTREAM_FAILURE", aiErr.Code())
}

func TestDispatcherPassesOptions(t *testing.T) {
	stub := &stubCompleter{configured: true, reply: `{"translatedText":"Hallo"}`}
	out, err := NewDispatcher(stub).Handle(context.Background(), Request{
		Type:    "translate",
		Content: "Hello",
		Options: Options{TargetLanguage: "German"},
	})
	require.NoError(t, err)
	assert.Contains(t, stub.prompts[0], "to German.")

	body, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"translatedText":"Hallo"}`, string(body))
}

func TestRequestDecodesWireShape(t *testing.T) {
	var req Request
	err := json.Unmarshal([]byte(`{"type":"summarize","content":"c","options":{"type":"bullet","length":"short","videoInfo":{"title":"t"}}}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "summarize", req.Type)
	assert.Equal(t, "bullet", req.Options.Type)
	assert.Equal(t, "short", req.Options.Length)
	assert.Equal(t, map[string]any{"title": "t"}, req.Options.VideoInfo)
}

func TestRequestDecodesLooseOptions(t *testing.T) {
	cases := []struct {
		name string
		body string
		want Options
	}{
		{"numeric length", `{"options":{"length":200}}`, Options{Length: "200"}},
		{"bool type", `{"options":{"type":true}}`, Options{Type: "true"}},
		{"string video info", `{"options":{"videoInfo":"My talk"}}`, Options{VideoInfo: "My talk"}},
		{"null options", `{"options":null}`, Options{}},
		{"non-object options", `{"options":"fast"}`, Options{}},
		{"null knob", `{"options":{"targetLanguage":null}}`, Options{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req Request
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			assert.Equal(t, tc.want, req.Options)
		})
	}
}
