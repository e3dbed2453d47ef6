package model

import (
	"time"

	"github.com/lib/pq"
)

// Message is either direct (RecipientID set) or a broadcast from the brand.
type Message struct {
	ID          string         `db:"id" json:"id"`
	CampaignID  string         `db:"campaign_id" json:"campaign_id"`
	SenderID    string         `db:"sender_id" json:"sender_id"`
	RecipientID *string        `db:"recipient_id" json:"recipient_id,omitempty"`
	Body        string         `db:"body" json:"body"`
	Attachments pq.StringArray `db:"attachments" json:"attachments"`
	IsBroadcast bool           `db:"is_broadcast" json:"is_broadcast"`
	IsRead      bool           `db:"is_read" json:"is_read"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

// MessageRecipient tracks per-creator read state of a broadcast.
type MessageRecipient struct {
	MessageID   string     `db:"message_id" json:"message_id"`
	RecipientID string     `db:"recipient_id" json:"recipient_id"`
	IsRead      bool       `db:"is_read" json:"is_read"`
	ReadAt      *time.Time `db:"read_at" json:"read_at,omitempty"`
}
