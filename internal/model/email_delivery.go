package model

import "time"

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// EmailDelivery is an outbox row; the worker moves it to sent or failed.
type EmailDelivery struct {
	ID           string         `db:"id" json:"id"`
	UserID       string         `db:"user_id" json:"user_id"`
	ToAddress    string         `db:"to_address" json:"to_address"`
	TemplateKey  string         `db:"template_key" json:"template_key"`
	TemplateData JSONMap        `db:"template_data" json:"template_data"`
	Status       DeliveryStatus `db:"status" json:"status"`
	LastError    string         `db:"last_error" json:"last_error,omitempty"`
	RetryCount   int            `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
