package ai

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// Tag is one entry of a tagging result.
type Tag struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

type TagList struct {
	Tags []Tag `json:"tags"`
}

// TextResult is the plain-text result shape.
type TextResult struct {
	Result string `json:"result"`
}

var (
	markdownChars  = regexp.MustCompile("[*#`]")
	extraNewlines  = regexp.MustCompile(`\n{3,}`)
	bulletGlyphs   = regexp.MustCompile(`â€¢|[•◦▪]`)
	repeatedBlanks = regexp.MustCompile(`[ \t]+`)
	lineEdges      = regexp.MustCompile(`(?m)^[ \t]+|[ \t]+$`)
	tagSeparators  = regexp.MustCompile(`[,\r\n]+`)
)

// Normalize turns raw completion text into the result payload for f.
// Structured features pass well-formed JSON through untouched as a
// json.RawMessage. Only the mind map can fail on well-formed input.
func Normalize(f Feature, raw string) (any, error) {
	if !f.Valid() {
		return nil, ErrUnknownFeature
	}
	if !f.Structured() {
		return TextResult{Result: CleanProse(raw)}, nil
	}

	out, err := decodeOrFallback(raw, f.Fallback())
	if err != nil {
		return nil, err
	}
	if f == FeatureMindMap {
		if msg, ok := out.(json.RawMessage); !ok || !isGraph(msg) {
			return nil, ErrMalformedOutput
		}
	}
	return out, nil
}

// decodeOrFallback tries a strict JSON decode of raw and, when that fails,
// degrades according to fallback.
func decodeOrFallback(raw string, fallback Fallback) (any, error) {
	if msg, ok := strictDecode(raw); ok {
		return msg, nil
	}

	switch fallback {
	case FallbackCommaSplit:
		return SplitTags(raw), nil
	case FallbackWrapAsText:
		return TextResult{Result: raw}, nil
	default:
		return nil, ErrMalformedOutput
	}
}

func strictDecode(raw string) (json.RawMessage, bool) {
	text := stripCodeFence(raw)
	if text == "" || !json.Valid([]byte(text)) {
		return nil, false
	}
	return json.RawMessage(text), true
}

func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// isGraph reports whether msg is an object carrying nodes and edges arrays.
func isGraph(msg json.RawMessage) bool {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(msg, &shape); err != nil || shape == nil {
		return false
	}
	for _, key := range []string{"nodes", "edges"} {
		v, ok := shape[key]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(v), []byte("[")) {
			return false
		}
	}
	return true
}

// SplitTags reads a loose comma or newline separated list. Order and
// duplicates are preserved.
func SplitTags(raw string) TagList {
	tags := make([]Tag, 0)
	for _, seg := range tagSeparators.Split(raw, -1) {
		name := strings.TrimSpace(seg)
		if name == "" {
			continue
		}
		tags = append(tags, Tag{Name: name})
	}
	return TagList{Tags: tags}
}

// CleanProse removes markdown and bullet residue from model prose.
func CleanProse(raw string) string {
	text := markdownChars.ReplaceAllString(raw, "")
	text = extraNewlines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	text = bulletGlyphs.ReplaceAllString(text, "")
	text = repeatedBlanks.ReplaceAllString(text, " ")
	text = lineEdges.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
