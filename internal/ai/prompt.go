package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const contentDelimiter = "\n\n---CONTENT---\n"

// Options carries the recognized per-feature knobs of a request. On the wire
// options is a free-form object: scalar knobs of any JSON type are read as
// text and VideoInfo keeps whatever value was sent.
type Options struct {
	Type           string `json:"type,omitempty"`
	Length         string `json:"length,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
	VideoInfo      any    `json:"videoInfo,omitempty"`
}

// UnmarshalJSON accepts any options value. Non-objects and null leave the
// defaults in place.
func (o *Options) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*o = Options{}
		return nil
	}
	*o = Options{
		Type:           optionText(raw["type"]),
		Length:         optionText(raw["length"]),
		TargetLanguage: optionText(raw["targetLanguage"]),
		VideoInfo:      raw["videoInfo"],
	}
	return nil
}

// optionText renders a decoded JSON value as prompt text.
func optionText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// videoDetails renders VideoInfo for the prompt. Strings are used as sent,
// anything else as JSON with sorted object keys.
func (o Options) videoDetails() (string, error) {
	switch v := o.VideoInfo.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case map[string]any:
		if len(v) == 0 {
			return "", nil
		}
	}
	b, err := json.Marshal(o.VideoInfo)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (o Options) summaryType() string {
	if t := strings.TrimSpace(o.Type); t != "" {
		return t
	}
	return "concise"
}

func (o Options) summaryLength() string {
	if l := strings.TrimSpace(o.Length); l != "" {
		return l
	}
	return "medium"
}

func (o Options) targetLanguage() string {
	if l := strings.TrimSpace(o.TargetLanguage); l != "" {
		return l
	}
	return "English"
}

const jsonOnly = "CRITICAL: Return ONLY valid JSON. No preamble, no markdown, no backticks.\n"

const plainOnly = "Write in clean paragraphs. Do not use markdown, headings, bullet points or special characters.\n"

// BuildPrompt renders the prompt for f. The user content is appended
// verbatim after the delimiter and is never escaped.
func BuildPrompt(f Feature, content string, opts Options) (string, error) {
	instruction, err := instructionFor(f, opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString(contentDelimiter)
	b.WriteString(content)
	return b.String(), nil
}

func instructionFor(f Feature, opts Options) (string, error) {
	var b strings.Builder

	switch f {
	case FeatureAutoTag:
		b.WriteString("Analyze the following text and suggest relevant tags. Focus on key topics, themes, and concepts.\n")
		b.WriteString("Return a JSON array of strings, for example: [\"tag1\", \"tag2\"]\n")
		b.WriteString(jsonOnly)

	case FeatureSuggestTags:
		b.WriteString("Suggest 3 to 8 short tags that categorize the following note. Use lowercase words. A tag may name a broader parent tag.\n")
		b.WriteString(`Return a JSON object: {"tags": [{"name": "string", "parent": "string (optional)"}]}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureSuggest:
		b.WriteString("Based on the following text, suggest related topics or ideas to explore.\n")
		b.WriteString(`Return a JSON object: {"suggestions": [{"title": "string", "description": "string"}]}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureSummarize:
		b.WriteString(fmt.Sprintf("Create a %s summary of the following text with %s length. Focus on key points and main ideas.\n",
			opts.summaryType(), opts.summaryLength()))
		b.WriteString(`Return a JSON object: {"summary": "string", "keyPoints": ["string"], "mainTopics": ["string"], "readingTime": "string"}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureEnhance:
		b.WriteString("Enhance the following text by adding more details, examples, and explanations while keeping its original meaning.\n")
		b.WriteString(plainOnly)

	case FeatureAnalyze:
		b.WriteString("Analyze the following text: key themes and topics, writing style and tone, complexity level, main arguments, and areas for improvement.\n")
		b.WriteString(`Return a JSON object: {"themes": ["string"], "style": "string", "tone": "string", "complexity": "string", "mainPoints": ["string"], "improvements": ["string"]}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureSentiment:
		b.WriteString("Analyze the sentiment of the following text.\n")
		b.WriteString(`Return a JSON object: {"sentiment": "positive"|"negative"|"neutral", "score": number (-1 to 1), "indicators": ["string"], "confidence": number (0 to 1)}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureKeywords:
		b.WriteString("Extract key phrases and important terms from the following text.\n")
		b.WriteString(`Return a JSON object: {"keywords": ["string"], "phrases": ["string"], "frequency": {"term": count}, "relevance": {"term": score}}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureTranslate:
		b.WriteString(fmt.Sprintf("Translate the following text to %s. Keep the original meaning, tone, and formatting.\n", opts.targetLanguage()))
		b.WriteString(`Return a JSON object: {"translatedText": "string", "sourceLanguage": "string", "confidence": number (0 to 1), "culturalNotes": ["string"]}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureAdvancedSummarize:
		b.WriteString("Create an advanced summary of the following text.\n")
		b.WriteString(`Return a JSON object: {"executiveSummary": "2-3 sentences", "detailedSummary": "paragraph", "keyTakeaways": ["string"], "actionItems": ["string"], "relatedConcepts": ["string"], "readingLevel": "string"}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureContentImprove:
		b.WriteString("Improve the following text: clarity and readability, grammar and style, relevant examples, structure and flow. Keep the original meaning.\n")
		b.WriteString(`Return a JSON object: {"improvedText": "string", "changes": ["string"], "suggestions": ["string"]}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureYouTubeSummarize:
		b.WriteString("Analyze and summarize the following YouTube video content.\n")
		info, err := opts.videoDetails()
		if err != nil {
			return "", &Error{Kind: KindInvalidRequest, Message: "Invalid 'videoInfo' option", Err: err}
		}
		if info != "" {
			b.WriteString("Video details: ")
			b.WriteString(info)
			b.WriteString("\n")
		}
		b.WriteString(`Return a JSON object: {"summary": "2-3 paragraphs", "keyPoints": ["string"], "mainTopics": ["string"], "timestamps": [{"time": "string", "description": "string"}], "actionItems": ["string"], "relatedTopics": ["string"]}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureRoadmap:
		b.WriteString("Create a detailed roadmap for the following topic.\n")
		b.WriteString(`Return a JSON object: {"goal": "string", "phases": [{"name": "string", "duration": "string", "tasks": ["string"]}], "milestones": ["string"], "resources": ["string"], "dependencies": ["string"], "successMetrics": ["string"], "risks": [{"risk": "string", "mitigation": "string"}]}` + "\n")
		b.WriteString(jsonOnly)

	case FeatureContinue:
		b.WriteString("Continue writing based on the following text.\n")
		b.WriteString(plainOnly)

	case FeatureExplain:
		b.WriteString("Explain the following text in simple, clear language.\n")
		b.WriteString(plainOnly)

	case FeatureMindMap:
		b.WriteString("Analyze the following text and create a mind map of its main topics, subtopics, and key details.\n")
		b.WriteString("Each node has an id, a label and a type (main, subtopic, or detail). Each edge has source and target node ids.\n")
		b.WriteString(`Return a JSON object: {"nodes": [{"id": "string", "label": "string", "type": "main"|"subtopic"|"detail"}], "edges": [{"source": "string", "target": "string"}]}` + "\n")
		b.WriteString(jsonOnly)

	default:
		return "", ErrUnknownFeature
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
