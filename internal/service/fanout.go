package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/unclebandit/collab-engine/internal/metrics"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/queue"
	"github.com/unclebandit/collab-engine/internal/repository"
)

// Event is one notification-worthy thing that happened to RecipientID.
type Event struct {
	Type        model.EventType
	RecipientID string
	ActorID     string
	Campaign    *model.Campaign
	Data        map[string]string
}

// Notifier delivers events. Implementations never report failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Fanout writes the in-app notification for an event, then queues an email
// unless the recipient turned that category off.
type Fanout struct {
	Notifications repository.NotificationRepositoryInterface
	Profiles      repository.ProfileRepositoryInterface
	Preferences   repository.PreferenceRepositoryInterface
	Outbox        repository.EmailDeliveryRepositoryInterface
	Queue         queue.Queue
	Topic         string
	Logger        *slog.Logger
	Clock         func() time.Time
}

var _ Notifier = (*Fanout)(nil)

func (f *Fanout) log() *slog.Logger {
	return loggerOr(f.Logger, "fanout")
}

func (f *Fanout) Notify(ctx context.Context, ev Event) {
	ctx, span := startSpan(context.WithoutCancel(ctx), "Fanout.Notify",
		attribute.String("event.type", string(ev.Type)),
		attribute.String("recipient.id", ev.RecipientID),
	)
	defer span.End()

	desc, ok := Registry[ev.Type]
	if !ok {
		f.fail("registry", ev, nil)
		return
	}

	data := f.templateData(ctx, ev)

	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    ev.RecipientID,
		Type:      ev.Type,
		Title:     RenderTemplate(desc.Title, data),
		Message:   RenderTemplate(desc.Message, data),
		Data:      toJSONMap(data),
		CreatedAt: nowFrom(f.Clock),
	}
	if err := f.Notifications.Create(ctx, n); err != nil {
		span.RecordError(err)
		f.fail("notification", ev, err)
	} else {
		metrics.NotificationsCreated.WithLabelValues(string(ev.Type)).Inc()
	}

	f.email(ctx, ev, desc, data)
}

func (f *Fanout) email(ctx context.Context, ev Event, desc EventDescriptor, data map[string]string) {
	if f.Outbox == nil || f.Queue == nil {
		return
	}

	if f.Preferences != nil {
		prefs, err := f.Preferences.GetEmailPreferences(ctx, ev.RecipientID)
		if err != nil {
			f.fail("preferences", ev, err)
			return
		}
		if enabled, set := prefs[desc.PreferenceKey]; set && !enabled {
			f.log().Debug("email skipped by preference", "event", ev.Type, "user_id", ev.RecipientID, "preference", desc.PreferenceKey)
			return
		}
	}

	profile, err := f.Profiles.GetByID(ctx, ev.RecipientID)
	if err != nil || profile.Email == "" {
		f.fail("profile", ev, err)
		return
	}

	delivery := &model.EmailDelivery{
		ID:           uuid.NewString(),
		UserID:       ev.RecipientID,
		ToAddress:    profile.Email,
		TemplateKey:  desc.TemplateKey,
		TemplateData: toJSONMap(data),
		Status:       model.DeliveryPending,
	}
	if err := f.Outbox.Create(ctx, delivery); err != nil {
		f.fail("outbox", ev, err)
		return
	}
	if err := f.Queue.Publish(f.Topic, delivery.ID); err != nil {
		f.fail("queue", ev, err)
	}
}

// templateData merges caller data with names resolved from profiles.
func (f *Fanout) templateData(ctx context.Context, ev Event) map[string]string {
	data := map[string]string{}
	if ev.Campaign != nil {
		data["campaign_id"] = ev.Campaign.ID
		data["campaign_name"] = ev.Campaign.Name
	}
	if ev.ActorID != "" {
		data["actor_id"] = ev.ActorID
		data["actor_name"] = f.displayName(ctx, ev.ActorID)
	}
	data["recipient_name"] = f.displayName(ctx, ev.RecipientID)
	for k, v := range ev.Data {
		data[k] = v
	}
	return data
}

func (f *Fanout) displayName(ctx context.Context, userID string) string {
	if f.Profiles != nil {
		if p, err := f.Profiles.GetByID(ctx, userID); err == nil && strings.TrimSpace(p.DisplayName) != "" {
			return p.DisplayName
		}
	}
	return "Someone"
}

func (f *Fanout) fail(stage string, ev Event, err error) {
	metrics.FanoutFailures.WithLabelValues(stage).Inc()
	campaignID := ""
	if ev.Campaign != nil {
		campaignID = ev.Campaign.ID
	}
	f.log().Error("notification fan-out failed",
		"stage", stage,
		"event", ev.Type,
		"user_id", ev.RecipientID,
		"campaign_id", campaignID,
		"error", err,
	)
}

func toJSONMap(data map[string]string) model.JSONMap {
	m := make(model.JSONMap, len(data))
	for k, v := range data {
		m[k] = v
	}
	return m
}

// preview shortens a message body for notification text.
func preview(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	const limit = 80
	if r := []rune(body); len(r) > limit {
		return string(r[:limit-1]) + "…"
	}
	return body
}
