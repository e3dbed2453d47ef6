package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, offset, limit int, brandID, status string) ([]*model.Campaign, int, error)
	UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error
	UpdateRequirements(ctx context.Context, id string, reqs model.Requirements) error
	IncrementApplicantCount(ctx context.Context, id string) error
}

type CampaignRepository struct {
	DB *sqlx.DB
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

const campaignColumns = `id, brand_id, name, description, budget_type, status, content_requirements,
	applicant_count, created_at, updated_at`

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	query := `
		INSERT INTO campaigns (id, brand_id, name, description, budget_type, status, content_requirements, applicant_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		c.ID, c.BrandID, c.Name, c.Description, c.BudgetType, c.Status, c.Requirements, c.ApplicantCount, c.CreatedAt)
	return err
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	err := conn(ctx, r.DB).GetContext(ctx, &c, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("campaign %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCampaigns returns one page plus the total count matching the filters.
func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, brandID, status string) ([]*model.Campaign, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argIdx := 1

	if brandID != "" {
		where += fmt.Sprintf(" AND brand_id = $%d", argIdx)
		args = append(args, brandID)
		argIdx++
	}
	if status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	db := conn(ctx, r.DB)

	var total int
	if err := db.GetContext(ctx, &total, "SELECT COUNT(*) FROM campaigns "+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM campaigns %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		campaignColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	campaigns := []*model.Campaign{}
	if err := db.SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE campaigns SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return rowsAffected(res, "campaign", id)
}

func (r *CampaignRepository) UpdateRequirements(ctx context.Context, id string, reqs model.Requirements) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE campaigns SET content_requirements = $1, updated_at = $2 WHERE id = $3`, reqs, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return rowsAffected(res, "campaign", id)
}

// IncrementApplicantCount bumps the advisory counter shown on listings.
func (r *CampaignRepository) IncrementApplicantCount(ctx context.Context, id string) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE campaigns SET applicant_count = applicant_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return rowsAffected(res, "campaign", id)
}
