package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/unclebandit/collab-engine/internal/email"
	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/metrics"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

// EmailWorker drains the email outbox. Each job is a delivery id.
type EmailWorker struct {
	Outbox     repository.EmailDeliveryRepositoryInterface
	Gateway    email.Gateway
	MaxRetries int
	Timeout    time.Duration
	Logger     *slog.Logger
}

func NewEmailWorker(outbox repository.EmailDeliveryRepositoryInterface, gateway email.Gateway, maxRetries int, logger *slog.Logger) *EmailWorker {
	return &EmailWorker{
		Outbox:     outbox,
		Gateway:    gateway,
		MaxRetries: maxRetries,
		Timeout:    30 * time.Second,
		Logger:     loggerOr(logger, "emailWorker"),
	}
}

// Handle adapts Process to the queue's handler signature.
func (w *EmailWorker) Handle(payload any) error {
	id, ok := payload.(string)
	if !ok {
		w.Logger.Error("dropping email job with unexpected payload", "payload", payload)
		return nil
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return w.Process(ctx, id)
}

// Process sends one delivery. A returned error asks the queue to retry;
// once the row has used up its retries the failure is recorded and swallowed.
func (w *EmailWorker) Process(ctx context.Context, deliveryID string) (err error) {
	ctx, span := startSpan(ctx, "EmailWorker.Process", attribute.String("delivery.id", deliveryID))
	defer func() { endSpan(span, err) }()

	d, err := w.Outbox.GetByID(ctx, deliveryID)
	if appErrors.IsNotFound(err) {
		w.Logger.Warn("email delivery vanished", "delivery_id", deliveryID)
		return nil
	}
	if err != nil {
		return err
	}
	if d.Status == model.DeliverySent {
		return nil
	}

	data := make(map[string]any, len(d.TemplateData))
	for k, v := range d.TemplateData {
		data[k] = v
	}

	if sendErr := w.Gateway.Send(ctx, d.ToAddress, d.TemplateKey, data); sendErr != nil {
		d.Status = model.DeliveryFailed
		d.RetryCount++
		d.LastError = sendErr.Error()
		if err := w.Outbox.Update(ctx, d); err != nil {
			return fmt.Errorf("record failed delivery %s: %w", d.ID, err)
		}
		metrics.Emails.WithLabelValues(string(model.DeliveryFailed)).Inc()

		if d.RetryCount > w.MaxRetries {
			w.Logger.Error("email delivery gave up", "delivery_id", d.ID, "template", d.TemplateKey, "attempts", d.RetryCount, "error", sendErr)
			return nil
		}
		w.Logger.Warn("email delivery failed", "delivery_id", d.ID, "template", d.TemplateKey, "attempt", d.RetryCount, "error", sendErr)
		return sendErr
	}

	d.Status = model.DeliverySent
	d.LastError = ""
	if err := w.Outbox.Update(ctx, d); err != nil {
		return fmt.Errorf("record sent delivery %s: %w", d.ID, err)
	}
	metrics.Emails.WithLabelValues(string(model.DeliverySent)).Inc()
	w.Logger.Info("email sent", "delivery_id", d.ID, "template", d.TemplateKey)
	return nil
}
