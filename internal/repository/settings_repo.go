package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"notebooklm-backend/internal/models"
)

type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

// Get returns stored settings, or the defaults when the user has none yet.
func (r *SettingsRepo) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	s := models.DefaultSettings(userID)
	var notifications []byte
	err := r.pool.QueryRow(ctx,
		"SELECT theme, notifications_json, updated_at FROM user_settings WHERE user_id = $1", userID,
	).Scan(&s.Theme, &notifications, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if len(notifications) > 0 {
		if err := json.Unmarshal(notifications, &s.Notifications); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (r *SettingsRepo) Upsert(ctx context.Context, s *models.UserSettings) error {
	notifications, err := json.Marshal(s.Notifications)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO user_settings (user_id, theme, notifications_json, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET theme = EXCLUDED.theme,
			notifications_json = EXCLUDED.notifications_json,
			updated_at = NOW()
		RETURNING updated_at
	`, s.UserID, s.Theme, notifications).Scan(&s.UpdatedAt)
}
