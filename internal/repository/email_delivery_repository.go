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

type EmailDeliveryRepositoryInterface interface {
	Create(ctx context.Context, d *model.EmailDelivery) error
	GetByID(ctx context.Context, id string) (*model.EmailDelivery, error)
	Update(ctx context.Context, d *model.EmailDelivery) error
}

type EmailDeliveryRepository struct {
	DB *sqlx.DB
}

var _ EmailDeliveryRepositoryInterface = (*EmailDeliveryRepository)(nil)

const deliveryColumns = `id, user_id, to_address, template_key, template_data, status, last_error, retry_count, created_at, updated_at`

// Create inserts a new outbox row
func (r *EmailDeliveryRepository) Create(ctx context.Context, d *model.EmailDelivery) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO email_deliveries (`+deliveryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.UserID, d.ToAddress, d.TemplateKey, d.TemplateData, d.Status, d.LastError, d.RetryCount, d.CreatedAt, d.UpdatedAt)
	return err
}

// GetByID fetches an outbox row by its ID
func (r *EmailDeliveryRepository) GetByID(ctx context.Context, id string) (*model.EmailDelivery, error) {
	var d model.EmailDelivery
	err := conn(ctx, r.DB).GetContext(ctx, &d, `SELECT `+deliveryColumns+` FROM email_deliveries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("email delivery %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Update writes status, last_error and retry_count
func (r *EmailDeliveryRepository) Update(ctx context.Context, d *model.EmailDelivery) error {
	d.UpdatedAt = time.Now().UTC()
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE email_deliveries SET status = $1, last_error = $2, retry_count = $3, updated_at = $4 WHERE id = $5`,
		d.Status, d.LastError, d.RetryCount, d.UpdatedAt, d.ID)
	if err != nil {
		return err
	}
	return rowsAffected(res, "email delivery", d.ID)
}
