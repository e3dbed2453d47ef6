package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
)

type SubmissionRepositoryInterface interface {
	Create(ctx context.Context, s *model.Submission) error
	AddAsset(ctx context.Context, a *model.Asset) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	UpdateReview(ctx context.Context, s *model.Submission) error
	// ListByCampaign filters by creator when creatorID is non-empty.
	ListByCampaign(ctx context.Context, campaignID, creatorID string) ([]model.Submission, error)
	ListByCreator(ctx context.Context, creatorID string) ([]model.Submission, error)
	// ListApproved returns approved submissions without assets, for the matcher.
	ListApproved(ctx context.Context, campaignID, creatorID string) ([]model.Submission, error)
}

type SubmissionRepository struct {
	DB *sqlx.DB
}

var _ SubmissionRepositoryInterface = (*SubmissionRepository)(nil)

const submissionColumns = `id, campaign_id, creator_id, task_id, content_type, social_channel, quantity,
	status, rejection_comment, submitted_date, approved_date`

const assetColumns = `id, submission_id, type, url, thumbnail_url, title, width, height, duration, file_size, tags`

func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	query := `
		INSERT INTO submissions (id, campaign_id, creator_id, task_id, content_type, social_channel, quantity, status, submitted_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		s.ID, s.CampaignID, s.CreatorID, s.TaskID, s.ContentType, s.SocialChannel, s.Quantity, s.Status, s.SubmittedDate)
	return err
}

// AddAsset inserts one asset. A nil tag list is stored as an empty array.
func (r *SubmissionRepository) AddAsset(ctx context.Context, a *model.Asset) error {
	if a.Tags == nil {
		a.Tags = pq.StringArray{}
	}
	query := `
		INSERT INTO submission_assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		a.ID, a.SubmissionID, a.Type, a.URL, a.ThumbnailURL, a.Title, a.Width, a.Height, a.Duration, a.FileSize, a.Tags)
	return err
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var s model.Submission
	err := conn(ctx, r.DB).GetContext(ctx, &s, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("submission %s not found", id)
	}
	if err != nil {
		return nil, err
	}

	subs := []model.Submission{s}
	if err := r.attachAssets(ctx, subs); err != nil {
		return nil, err
	}
	return &subs[0], nil
}

// UpdateReview writes status, rejection comment and approval date together.
func (r *SubmissionRepository) UpdateReview(ctx context.Context, s *model.Submission) error {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE submissions SET status = $1, rejection_comment = $2, approved_date = $3 WHERE id = $4`,
		s.Status, s.RejectionComment, s.ApprovedDate, s.ID)
	if err != nil {
		return err
	}
	return rowsAffected(res, "submission", s.ID)
}

func (r *SubmissionRepository) ListByCampaign(ctx context.Context, campaignID, creatorID string) ([]model.Submission, error) {
	subs := []model.Submission{}
	var err error
	if creatorID == "" {
		err = conn(ctx, r.DB).SelectContext(ctx, &subs,
			`SELECT `+submissionColumns+` FROM submissions WHERE campaign_id = $1 ORDER BY submitted_date, id`, campaignID)
	} else {
		err = conn(ctx, r.DB).SelectContext(ctx, &subs,
			`SELECT `+submissionColumns+` FROM submissions WHERE campaign_id = $1 AND creator_id = $2 ORDER BY submitted_date, id`,
			campaignID, creatorID)
	}
	if err != nil {
		return nil, err
	}
	return subs, r.attachAssets(ctx, subs)
}

func (r *SubmissionRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.Submission, error) {
	subs := []model.Submission{}
	err := conn(ctx, r.DB).SelectContext(ctx, &subs,
		`SELECT `+submissionColumns+` FROM submissions WHERE creator_id = $1 ORDER BY submitted_date DESC, id`, creatorID)
	if err != nil {
		return nil, err
	}
	return subs, r.attachAssets(ctx, subs)
}

func (r *SubmissionRepository) ListApproved(ctx context.Context, campaignID, creatorID string) ([]model.Submission, error) {
	subs := []model.Submission{}
	var err error
	if creatorID == "" {
		err = conn(ctx, r.DB).SelectContext(ctx, &subs,
			`SELECT `+submissionColumns+` FROM submissions WHERE campaign_id = $1 AND status = 'approved'`, campaignID)
	} else {
		err = conn(ctx, r.DB).SelectContext(ctx, &subs,
			`SELECT `+submissionColumns+` FROM submissions WHERE campaign_id = $1 AND creator_id = $2 AND status = 'approved'`,
			campaignID, creatorID)
	}
	return subs, err
}

func (r *SubmissionRepository) attachAssets(ctx context.Context, subs []model.Submission) error {
	if len(subs) == 0 {
		return nil
	}

	ids := make([]string, len(subs))
	index := make(map[string]int, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
		index[s.ID] = i
		subs[i].Assets = []model.Asset{}
	}

	query, args, err := sqlx.In(`SELECT `+assetColumns+` FROM submission_assets WHERE submission_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	db := conn(ctx, r.DB)

	var assets []model.Asset
	if err := db.SelectContext(ctx, &assets, db.Rebind(query), args...); err != nil {
		return err
	}
	for _, a := range assets {
		i := index[a.SubmissionID]
		subs[i].Assets = append(subs[i].Assets, a)
	}
	return nil
}
