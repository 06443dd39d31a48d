package ai

import "strings"

// Feature is the closed set of AI transformations the pipeline accepts.
type Feature string

const (
	FeatureAutoTag           Feature = "auto-tag"
	FeatureSuggest           Feature = "suggest"
	FeatureSummarize         Feature = "summarize"
	FeatureEnhance           Feature = "enhance"
	FeatureAnalyze           Feature = "analyze"
	FeatureSentiment         Feature = "sentiment"
	FeatureKeywords          Feature = "keywords"
	FeatureTranslate         Feature = "translate"
	FeatureAdvancedSummarize Feature = "advanced-summarize"
	FeatureContentImprove    Feature = "content-improve"
	FeatureYouTubeSummarize  Feature = "youtube-summarize"
	FeatureRoadmap           Feature = "roadmap"
	FeatureSuggestTags       Feature = "suggest-tags"
	FeatureContinue          Feature = "continue"
	FeatureExplain           Feature = "explain"
	FeatureMindMap           Feature = "mindmap"
)

// Fallback selects what Normalize does when structured output fails to decode.
type Fallback int

const (
	FallbackNone Fallback = iota
	FallbackCommaSplit
	FallbackWrapAsText
)

type featureSpec struct {
	structured bool
	fallback   Fallback
}

var features = map[Feature]featureSpec{
	FeatureAutoTag:           {structured: true, fallback: FallbackCommaSplit},
	FeatureSuggestTags:       {structured: true, fallback: FallbackCommaSplit},
	FeatureSuggest:           {structured: true, fallback: FallbackWrapAsText},
	FeatureSummarize:         {structured: true, fallback: FallbackWrapAsText},
	FeatureAnalyze:           {structured: true, fallback: FallbackWrapAsText},
	FeatureSentiment:         {structured: true, fallback: FallbackWrapAsText},
	FeatureKeywords:          {structured: true, fallback: FallbackWrapAsText},
	FeatureTranslate:         {structured: true, fallback: FallbackWrapAsText},
	FeatureAdvancedSummarize: {structured: true, fallback: FallbackWrapAsText},
	FeatureContentImprove:    {structured: true, fallback: FallbackWrapAsText},
	FeatureYouTubeSummarize:  {structured: true, fallback: FallbackWrapAsText},
	FeatureRoadmap:           {structured: true, fallback: FallbackWrapAsText},
	FeatureMindMap:           {structured: true, fallback: FallbackNone},
	FeatureEnhance:           {structured: false},
	FeatureContinue:          {structured: false},
	FeatureExplain:           {structured: false},
}

// ParseFeature maps a wire value onto a known Feature. Surrounding whitespace
// is ignored; case is not.
func ParseFeature(s string) (Feature, bool) {
	f := Feature(strings.TrimSpace(s))
	_, ok := features[f]
	return f, ok
}

// Features lists every known feature in a stable order.
func Features() []Feature {
	return []Feature{
		FeatureAutoTag, FeatureSuggest, FeatureSummarize, FeatureEnhance,
		FeatureAnalyze, FeatureSentiment, FeatureKeywords, FeatureTranslate,
		FeatureAdvancedSummarize, FeatureContentImprove, FeatureYouTubeSummarize,
		FeatureRoadmap, FeatureSuggestTags, FeatureContinue, FeatureExplain,
		FeatureMindMap,
	}
}

func (f Feature) Valid() bool {
	_, ok := features[f]
	return ok
}

// Structured reports whether the feature expects JSON output.
func (f Feature) Structured() bool {
	return features[f].structured
}

func (f Feature) Fallback() Fallback {
	return features[f].fallback
}

func (f Feature) String() string { return string(f) }
