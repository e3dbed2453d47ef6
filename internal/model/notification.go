package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventApplicationCreated      EventType = "application_created"
	EventApplicationConfirmation EventType = "application_confirmation"
	EventApplicationAccepted     EventType = "application_accepted"
	EventApplicationRejected     EventType = "application_rejected"
	EventSubmissionCreated       EventType = "submission_created"
	EventSubmissionApproved      EventType = "submission_approved"
	EventSubmissionRejected      EventType = "submission_rejected"
	EventRequirementsCompleted   EventType = "requirements_completed"
	EventMessageReceived         EventType = "message_received"
	EventBroadcastReceived       EventType = "broadcast_received"
)

// JSONMap is stored as a JSONB column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("jsonmap: unsupported scan type %T", src)
	}
}

type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Type      EventType `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Data      JSONMap   `db:"data" json:"data"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
