package models

import (
	"time"

	"github.com/google/uuid"
)

// AIInteraction records one successful AI feature call.
type AIInteraction struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Feature   string    `json:"feature"`
	CreatedAt time.Time `json:"created_at"`
}

type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

type FeatureCount struct {
	Feature string `json:"feature"`
	Count   int    `json:"count"`
}

type Analytics struct {
	TotalNotebooks   int            `json:"total_notebooks"`
	NotebookActivity []DailyCount   `json:"notebook_activity"`
	TotalWords       int            `json:"total_words"`
	WordGrowth       []DailyCount   `json:"word_growth"`
	TotalAIRequests  int            `json:"total_ai_requests"`
	AIByFeature      []FeatureCount `json:"ai_by_feature"`
	AIUsage          []DailyCount   `json:"ai_usage"`
}
