package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type PreferenceRepositoryInterface interface {
	// GetEmailPreferences returns only keys the user has set explicitly.
	GetEmailPreferences(ctx context.Context, userID string) (map[string]bool, error)
	SetEmailPreferences(ctx context.Context, userID string, prefs map[string]bool) error
}

type PreferenceRepository struct {
	DB *sqlx.DB
}

var _ PreferenceRepositoryInterface = (*PreferenceRepository)(nil)

func (r *PreferenceRepository) GetEmailPreferences(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := conn(ctx, r.DB).QueryxContext(ctx,
		`SELECT key, enabled FROM email_preferences WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prefs := map[string]bool{}
	for rows.Next() {
		var key string
		var enabled bool
		if err := rows.Scan(&key, &enabled); err != nil {
			return nil, err
		}
		prefs[key] = enabled
	}
	return prefs, rows.Err()
}

func (r *PreferenceRepository) SetEmailPreferences(ctx context.Context, userID string, prefs map[string]bool) error {
	db := conn(ctx, r.DB)
	for key, enabled := range prefs {
		_, err := db.ExecContext(ctx, `
			INSERT INTO email_preferences (user_id, key, enabled) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, key) DO UPDATE SET enabled = EXCLUDED.enabled
		`, userID, key, enabled)
		if err != nil {
			return err
		}
	}
	return nil
}
