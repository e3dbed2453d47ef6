package model

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a creator's request to join a campaign. One per (campaign, creator).
type Application struct {
	ID         string            `db:"id" json:"id"`
	CampaignID string            `db:"campaign_id" json:"campaign_id"`
	CreatorID  string            `db:"creator_id" json:"creator_id"`
	Message    string            `db:"message" json:"message"`
	Quote      *float64          `db:"quote" json:"quote,omitempty"`
	Status     ApplicationStatus `db:"status" json:"status"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time        `db:"updated_at" json:"updated_at,omitempty"`
}
