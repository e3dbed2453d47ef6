package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
)

type ProfileRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	Upsert(ctx context.Context, p *model.Profile) error
}

type ProfileRepository struct {
	DB *sqlx.DB
}

var _ ProfileRepositoryInterface = (*ProfileRepository)(nil)

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := conn(ctx, r.DB).GetContext(ctx, &p, `SELECT id, role, email, display_name FROM profiles WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("profile %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert records the identity the gate resolved, so templates can address the user.
func (r *ProfileRepository) Upsert(ctx context.Context, p *model.Profile) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx, `
		INSERT INTO profiles (id, role, email, display_name) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role, email = EXCLUDED.email, display_name = EXCLUDED.display_name
	`, p.ID, p.Role, p.Email, p.DisplayName)
	return err
}
