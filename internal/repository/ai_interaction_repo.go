package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"notebooklm-backend/internal/models"
)

type AIInteractionRepo struct {
	pool *pgxpool.Pool
}

func NewAIInteractionRepo(pool *pgxpool.Pool) *AIInteractionRepo {
	return &AIInteractionRepo{pool: pool}
}

func (r *AIInteractionRepo) Record(ctx context.Context, userID, feature string) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO ai_interactions (id, user_id, feature) VALUES ($1, $2, $3)",
		uuid.New(), userID, feature)
	return err
}

func (r *AIInteractionRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM ai_interactions WHERE user_id = $1", userID).Scan(&n)
	return n, err
}

func (r *AIInteractionRepo) CountByFeature(ctx context.Context, userID string) ([]models.FeatureCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT feature, COUNT(*) FROM ai_interactions
		WHERE user_id = $1
		GROUP BY feature
		ORDER BY COUNT(*) DESC, feature
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.FeatureCount{}
	for rows.Next() {
		var fc models.FeatureCount
		if err := rows.Scan(&fc.Feature, &fc.Count); err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}

func (r *AIInteractionRepo) UsageByDay(ctx context.Context, userID string, days int) ([]models.DailyCount, error) {
	return dailyCounts(ctx, r.pool, `
		SELECT to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM ai_interactions
		WHERE user_id = $1 AND created_at >= NOW() - make_interval(days => $2)
		GROUP BY day ORDER BY day
	`, userID, days)
}
