package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"notebooklm-backend/internal/models"
)

const analyticsWindowDays = 30

type notebookStats interface {
	CountByUser(ctx context.Context, userID string) (int, error)
	ActivityByDay(ctx context.Context, userID string, days int) ([]models.DailyCount, error)
	WordTotals(ctx context.Context, userID string, days int) (int, []models.DailyCount, error)
}

type interactionStats interface {
	CountByUser(ctx context.Context, userID string) (int, error)
	CountByFeature(ctx context.Context, userID string) ([]models.FeatureCount, error)
	UsageByDay(ctx context.Context, userID string, days int) ([]models.DailyCount, error)
}

// AnalyticsService assembles the dashboard numbers. The queries are
// independent and run concurrently; the first failure cancels the rest.
type AnalyticsService struct {
	notebooks    notebookStats
	interactions interactionStats
}

func NewAnalyticsService(notebooks notebookStats, interactions interactionStats) *AnalyticsService {
	return &AnalyticsService{notebooks: notebooks, interactions: interactions}
}

func (s *AnalyticsService) ForUser(ctx context.Context, userID string) (*models.Analytics, error) {
	out := &models.Analytics{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.TotalNotebooks, err = s.notebooks.CountByUser(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.NotebookActivity, err = s.notebooks.ActivityByDay(ctx, userID, analyticsWindowDays)
		return err
	})
	g.Go(func() (err error) {
		out.TotalWords, out.WordGrowth, err = s.notebooks.WordTotals(ctx, userID, analyticsWindowDays)
		return err
	})
	g.Go(func() (err error) {
		out.TotalAIRequests, err = s.interactions.CountByUser(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.AIByFeature, err = s.interactions.CountByFeature(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.AIUsage, err = s.interactions.UsageByDay(ctx, userID, analyticsWindowDays)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
