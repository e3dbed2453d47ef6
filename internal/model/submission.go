package model

import (
	"time"

	"github.com/lib/pq"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission is a batch of assets delivered against one requirement.
// TaskID carries either a requirement id or, for legacy rows, a 1-based index.
type Submission struct {
	ID               string           `db:"id" json:"id"`
	CampaignID       string           `db:"campaign_id" json:"campaign_id"`
	CreatorID        string           `db:"creator_id" json:"creator_id"`
	TaskID           string           `db:"task_id" json:"requirement_id"`
	ContentType      string           `db:"content_type" json:"content_type"`
	SocialChannel    string           `db:"social_channel" json:"social_channel"`
	Quantity         int              `db:"quantity" json:"quantity"`
	Status           SubmissionStatus `db:"status" json:"status"`
	RejectionComment *string          `db:"rejection_comment" json:"rejection_comment,omitempty"`
	SubmittedDate    time.Time        `db:"submitted_date" json:"submitted_date"`
	ApprovedDate     *time.Time       `db:"approved_date" json:"approved_date,omitempty"`
	Assets           []Asset          `db:"-" json:"assets"`
}

// Delivered returns the quantity, defaulting to 1 when unset.
func (s Submission) Delivered() int {
	if s.Quantity <= 0 {
		return 1
	}
	return s.Quantity
}

// CompletionTime is when the submission counts as delivered.
func (s Submission) CompletionTime() time.Time {
	if s.ApprovedDate != nil {
		return *s.ApprovedDate
	}
	return s.SubmittedDate
}

type AssetType string

const (
	AssetImage AssetType = "image"
	AssetVideo AssetType = "video"
)

type Asset struct {
	ID           string         `db:"id" json:"id"`
	SubmissionID string         `db:"submission_id" json:"submission_id"`
	Type         AssetType      `db:"type" json:"type"`
	URL          string         `db:"url" json:"url"`
	ThumbnailURL string         `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	Title        string         `db:"title" json:"title,omitempty"`
	Width        int            `db:"width" json:"width,omitempty"`
	Height       int            `db:"height" json:"height,omitempty"`
	Duration     float64        `db:"duration" json:"duration,omitempty"`
	FileSize     int64          `db:"file_size" json:"file_size,omitempty"`
	Tags         pq.StringArray `db:"tags" json:"tags,omitempty"`
}
