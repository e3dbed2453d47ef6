package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/collab-engine/internal/model"
)

type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *model.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkRead only touches rows owned by userID.
	MarkRead(ctx context.Context, userID string, ids []string) (int, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type NotificationRepository struct {
	DB *sqlx.DB
}

var _ NotificationRepositoryInterface = (*NotificationRepository)(nil)

const notificationColumns = `id, user_id, type, title, message, data, is_read, created_at`

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Data, n.IsRead, n.CreatedAt)
	return err
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	items := []model.Notification{}
	err := conn(ctx, r.DB).SelectContext(ctx, &items, query, userID, limit, offset)
	return items, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := conn(ctx, r.DB).GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID)
	return n, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`UPDATE notifications SET is_read = true WHERE user_id = ? AND NOT is_read AND id IN (?)`, userID, ids)
	if err != nil {
		return 0, err
	}
	db := conn(ctx, r.DB)
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
