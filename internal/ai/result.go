package ai

import (
	"encoding/json"
	"strings"
)

// SummaryText reduces a normalized summarize payload to display text. It
// understands {result}, {summary} and bare JSON strings; any other JSON is
// returned as-is.
func SummaryText(out any) string {
	switch v := out.(type) {
	case TextResult:
		return v.Result
	case json.RawMessage:
		var s string
		if json.Unmarshal(v, &s) == nil {
			return strings.TrimSpace(s)
		}
		var obj struct {
			Summary string `json:"summary"`
			Result  string `json:"result"`
		}
		if json.Unmarshal(v, &obj) == nil {
			if obj.Summary != "" {
				return strings.TrimSpace(obj.Summary)
			}
			if obj.Result != "" {
				return strings.TrimSpace(obj.Result)
			}
		}
		return string(v)
	case string:
		return v
	}
	return ""
}

// TagNames flattens a normalized tagging payload. Accepted shapes are
// ["a","b"], {"tags":["a"]} and {"tags":[{"name":"a"}]}.
func TagNames(out any) []string {
	var raw json.RawMessage
	switch v := out.(type) {
	case TagList:
		return tagListNames(v.Tags)
	case json.RawMessage:
		raw = v
	default:
		return []string{}
	}

	var flat []string
	if json.Unmarshal(raw, &flat) == nil {
		return compact(flat)
	}

	var wrapped struct {
		Tags []json.RawMessage `json:"tags"`
	}
	if json.Unmarshal(raw, &wrapped) != nil {
		return []string{}
	}
	names := make([]string, 0, len(wrapped.Tags))
	for _, t := range wrapped.Tags {
		var name string
		if json.Unmarshal(t, &name) == nil {
			names = append(names, name)
			continue
		}
		var tag Tag
		if json.Unmarshal(t, &tag) == nil {
			names = append(names, tag.Name)
		}
	}
	return compact(names)
}

func tagListNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return compact(names)
}

func compact(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
