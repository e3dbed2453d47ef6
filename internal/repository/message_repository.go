package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/collab-engine/internal/model"
)

type MessageRepositoryInterface interface {
	Create(ctx context.Context, m *model.Message) error
	AddRecipient(ctx context.Context, r model.MessageRecipient) error
	// ListByCampaign returns every message on the campaign, oldest first.
	ListByCampaign(ctx context.Context, campaignID string) ([]model.Message, error)
	// ListVisibleTo returns what a creator may see. Broadcast read state comes from the recipient row.
	ListVisibleTo(ctx context.Context, campaignID, userID string) ([]model.Message, error)
	MarkDirectRead(ctx context.Context, campaignID, recipientID string, at time.Time) (int, error)
	MarkRecipientRowsRead(ctx context.Context, campaignID, recipientID string, at time.Time) (int, error)
}

type MessageRepository struct {
	DB *sqlx.DB
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)

const messageColumns = `m.id, m.campaign_id, m.sender_id, m.recipient_id, m.body, m.attachments,
	m.is_broadcast, m.is_read, m.created_at, m.updated_at`

func (r *MessageRepository) Create(ctx context.Context, m *model.Message) error {
	query := `
		INSERT INTO messages (id, campaign_id, sender_id, recipient_id, body, attachments, is_broadcast, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		m.ID, m.CampaignID, m.SenderID, m.RecipientID, m.Body, m.Attachments, m.IsBroadcast, m.IsRead, m.CreatedAt)
	return err
}

func (r *MessageRepository) AddRecipient(ctx context.Context, rec model.MessageRecipient) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx,
		`INSERT INTO message_recipients (message_id, recipient_id, is_read, read_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (message_id, recipient_id) DO NOTHING`,
		rec.MessageID, rec.RecipientID, rec.IsRead, rec.ReadAt)
	return err
}

func (r *MessageRepository) ListByCampaign(ctx context.Context, campaignID string) ([]model.Message, error) {
	msgs := []model.Message{}
	err := conn(ctx, r.DB).SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages m WHERE m.campaign_id = $1 ORDER BY m.created_at, m.id`, campaignID)
	return msgs, err
}

func (r *MessageRepository) ListVisibleTo(ctx context.Context, campaignID, userID string) ([]model.Message, error) {
	query := `
		SELECT m.id, m.campaign_id, m.sender_id, m.recipient_id, m.body, m.attachments, m.is_broadcast,
		       CASE WHEN m.is_broadcast THEN COALESCE(mr.is_read, false) ELSE m.is_read END AS is_read,
		       m.created_at, m.updated_at
		FROM messages m
		LEFT JOIN message_recipients mr ON mr.message_id = m.id AND mr.recipient_id = $2
		WHERE m.campaign_id = $1
		  AND (m.sender_id = $2
		       OR (NOT m.is_broadcast AND m.recipient_id = $2)
		       OR (m.is_broadcast AND mr.recipient_id IS NOT NULL))
		ORDER BY m.created_at, m.id
	`
	msgs := []model.Message{}
	err := conn(ctx, r.DB).SelectContext(ctx, &msgs, query, campaignID, userID)
	return msgs, err
}

func (r *MessageRepository) MarkDirectRead(ctx context.Context, campaignID, recipientID string, at time.Time) (int, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE messages SET is_read = true, updated_at = $3
		 WHERE campaign_id = $1 AND recipient_id = $2 AND NOT is_broadcast AND NOT is_read`,
		campaignID, recipientID, at)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *MessageRepository) MarkRecipientRowsRead(ctx context.Context, campaignID, recipientID string, at time.Time) (int, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE message_recipients mr SET is_read = true, read_at = $3
		 FROM messages m
		 WHERE mr.message_id = m.id AND m.campaign_id = $1 AND mr.recipient_id = $2 AND NOT mr.is_read`,
		campaignID, recipientID, at)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
