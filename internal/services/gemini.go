package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"notebooklm-backend/internal/ai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// contentGenerator is the slice of *genai.GenerativeModel the service uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiService sends prompts to Gemini. A service built without an API key
// stays usable but reports itself unconfigured and never dials out.
type GeminiService struct {
	client    *genai.Client
	model     contentGenerator
	modelName string
}

func NewGeminiService(apiKey, modelName string) (*GeminiService, error) {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	if strings.TrimSpace(apiKey) == "" {
		zap.L().Warn("GEMINI_API_KEY not set, AI features will answer with a configuration error")
		return &GeminiService{modelName: modelName}, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	return &GeminiService{
		client:    client,
		model:     model,
		modelName: modelName,
	}, nil
}

func newGeminiServiceWithGenerator(gen contentGenerator) *GeminiService {
	return &GeminiService{model: gen, modelName: DefaultGeminiModel}
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *GeminiService) Configured() bool {
	return s.model != nil
}

func (s *GeminiService) ModelName() string {
	return s.modelName
}

// Complete makes exactly one GenerateContent call and returns the text of
// the first part of the first candidate.
func (s *GeminiService) Complete(ctx context.Context, prompt string) (string, error) {
	if !s.Configured() {
		return "", ai.ErrNotConfigured
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", ai.RemoteError("AI request was blocked: "+blocked.Error(), err)
		}
		return "", ai.RemoteError(err.Error(), err)
	}

	text, ok := firstText(resp)
	if !ok {
		return "", ai.ErrEmptyCompletion
	}

	if cand := resp.Candidates[0]; cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
		zap.L().Warn("Gemini stopped early",
			zap.String("finish_reason", cand.FinishReason.String()),
			zap.Int32("token_count", cand.TokenCount),
		)
	}
	return text, nil
}

func firstText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", false
	}
	t, ok := cand.Content.Parts[0].(genai.Text)
	if !ok || strings.TrimSpace(string(t)) == "" {
		return "", false
	}
	return string(t), true
}
