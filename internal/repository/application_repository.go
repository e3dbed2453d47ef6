package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
)

type ApplicationRepositoryInterface interface {
	Create(ctx context.Context, a *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	GetByCampaignAndCreator(ctx context.Context, campaignID, creatorID string) (*model.Application, error)
	UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus, at time.Time) error
	ListByCampaign(ctx context.Context, campaignID string, status model.ApplicationStatus) ([]model.Application, error)
	ListByCreator(ctx context.Context, creatorID string) ([]model.Application, error)
	CountByStatus(ctx context.Context, campaignID string) (map[model.ApplicationStatus]int, error)
}

type ApplicationRepository struct {
	DB *sqlx.DB
}

var _ ApplicationRepositoryInterface = (*ApplicationRepository)(nil)

const applicationColumns = `id, campaign_id, creator_id, message, quote, status, created_at, updated_at`

// Create relies on the (campaign_id, creator_id) unique index for the one-application rule.
func (r *ApplicationRepository) Create(ctx context.Context, a *model.Application) error {
	query := `
		INSERT INTO applications (id, campaign_id, creator_id, message, quote, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		a.ID, a.CampaignID, a.CreatorID, a.Message, a.Quote, a.Status, a.CreatedAt)
	if isUniqueViolation(err) {
		return appErrors.NewConflict("creator %s already applied to campaign %s", a.CreatorID, a.CampaignID)
	}
	return err
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var a model.Application
	err := conn(ctx, r.DB).GetContext(ctx, &a, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("application %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApplicationRepository) GetByCampaignAndCreator(ctx context.Context, campaignID, creatorID string) (*model.Application, error) {
	var a model.Application
	err := conn(ctx, r.DB).GetContext(ctx, &a,
		`SELECT `+applicationColumns+` FROM applications WHERE campaign_id = $1 AND creator_id = $2`, campaignID, creatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("no application by %s on campaign %s", creatorID, campaignID)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus, at time.Time) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3`, status, at, id)
	if err != nil {
		return err
	}
	return rowsAffected(res, "application", id)
}

// ListByCampaign filters by status when status is non-empty.
func (r *ApplicationRepository) ListByCampaign(ctx context.Context, campaignID string, status model.ApplicationStatus) ([]model.Application, error) {
	apps := []model.Application{}
	var err error
	if status == "" {
		err = conn(ctx, r.DB).SelectContext(ctx, &apps,
			`SELECT `+applicationColumns+` FROM applications WHERE campaign_id = $1 ORDER BY created_at, id`, campaignID)
	} else {
		err = conn(ctx, r.DB).SelectContext(ctx, &apps,
			`SELECT `+applicationColumns+` FROM applications WHERE campaign_id = $1 AND status = $2 ORDER BY created_at, id`,
			campaignID, status)
	}
	return apps, err
}

func (r *ApplicationRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.Application, error) {
	apps := []model.Application{}
	err := conn(ctx, r.DB).SelectContext(ctx, &apps,
		`SELECT `+applicationColumns+` FROM applications WHERE creator_id = $1 ORDER BY created_at DESC, id`, creatorID)
	return apps, err
}

func (r *ApplicationRepository) CountByStatus(ctx context.Context, campaignID string) (map[model.ApplicationStatus]int, error) {
	rows, err := conn(ctx, r.DB).QueryxContext(ctx,
		`SELECT status, COUNT(*) FROM applications WHERE campaign_id = $1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.ApplicationStatus]int{}
	for rows.Next() {
		var status model.ApplicationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
