package ai

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Completer turns a prompt into raw model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Configured reports whether a credential is available. It must not
	// touch the network.
	Configured() bool
}

// Request is the inbound AI feature call.
type Request struct {
	Type    string  `json:"type"`
	Content string  `json:"content"`
	Options Options `json:"options"`
}

// Dispatcher runs validate, build, complete and normalize for one request.
// It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	completer Completer
}

func NewDispatcher(completer Completer) *Dispatcher {
	return &Dispatcher{completer: completer}
}

// Handle returns the normalized payload, or an *Error whose Status and Code
// describe the failure.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (any, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrMissingContent
	}
	feature, ok := ParseFeature(req.Type)
	if !ok {
		return nil, ErrUnknownFeature
	}
	if d.completer == nil || !d.completer.Configured() {
		return nil, ErrNotConfigured
	}

	prompt, err := BuildPrompt(feature, req.Content, req.Options)
	if err != nil {
		return nil, err
	}

	raw, err := d.completer.Complete(ctx, prompt)
	if err != nil {
		var aiErr *Error
		if !errors.As(err, &aiErr) {
			aiErr = RemoteError(err.Error(), err)
		}
		zap.L().Warn("AI completion failed",
			zap.String("feature", feature.String()),
			zap.String("kind", string(aiErr.Kind)),
			zap.Error(err),
		)
		return nil, aiErr
	}

	out, err := Normalize(feature, raw)
	if err != nil {
		zap.L().Warn("AI response could not be normalized",
			zap.String("feature", feature.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return out, nil
}
