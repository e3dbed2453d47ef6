// internal/model/campaign.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// ContentRequirement is one deliverable an accepted creator owes the brand.
type ContentRequirement struct {
	ID            string `json:"id"`
	SocialChannel string `json:"social_channel"`
	ContentType   string `json:"content_type"`
	Quantity      int    `json:"quantity"`
	Description   string `json:"description,omitempty"`
}

// Required returns the quantity, defaulting to 1 when unset.
func (r ContentRequirement) Required() int {
	if r.Quantity <= 0 {
		return 1
	}
	return r.Quantity
}

// Requirements is stored as a JSONB column.
type Requirements []ContentRequirement

func (r Requirements) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *Requirements) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = Requirements{}
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("requirements: unsupported scan type %T", src)
	}
}

type Campaign struct {
	ID             string         `db:"id" json:"id"`
	BrandID        string         `db:"brand_id" json:"brand_id"`
	Name           string         `db:"name" json:"name"`
	Description    string         `db:"description" json:"description"`
	BudgetType     string         `db:"budget_type" json:"budget_type"`
	Status         CampaignStatus `db:"status" json:"status"`
	Requirements   Requirements   `db:"content_requirements" json:"content_requirements"`
	ApplicantCount int            `db:"applicant_count" json:"applicant_count"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}
