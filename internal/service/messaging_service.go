package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/collab-engine/internal/access"
	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/metrics"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

// MessagingService runs the per-campaign channel between a brand and its accepted creators.
type MessagingService struct {
	MessageRepo     repository.MessageRepositoryInterface
	ApplicationRepo repository.ApplicationRepositoryInterface
	Access          *access.Resolver
	Notifier        Notifier
	// Concurrency bounds broadcast fan-out.
	Concurrency int
	Logger      *slog.Logger
	Clock       func() time.Time
}

type SendInput struct {
	Body        string   `json:"body"`
	RecipientID *string  `json:"recipient_id,omitempty"`
	IsBroadcast bool     `json:"is_broadcast"`
	Attachments []string `json:"attachments"`
}

func (s *MessagingService) log() *slog.Logger {
	return loggerOr(s.Logger, "messagingService")
}

// Send posts a direct message or, for the owning brand, a broadcast to every
// creator accepted at this moment.
func (s *MessagingService) Send(ctx context.Context, actor model.Actor, campaignID string, in SendInput) (msg *model.Message, err error) {
	ctx, span := startSpan(ctx, "MessagingService.Send",
		attribute.String("campaign.id", campaignID), attribute.Bool("broadcast", in.IsBroadcast))
	defer func() { endSpan(span, err) }()

	grant, err := s.Access.Resolve(ctx, actor, campaignID)
	if err != nil {
		return nil, err
	}
	if err := grant.Require(access.ChannelParticipant); err != nil {
		return nil, err
	}
	if in.IsBroadcast && !grant.IsOwner() {
		return nil, appErrors.NewForbidden("only the campaign owner may broadcast")
	}

	body := strings.TrimSpace(in.Body)
	attachments := make([]string, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		if a = strings.TrimSpace(a); a != "" {
			attachments = append(attachments, a)
		}
	}
	if body == "" && len(attachments) == 0 {
		return nil, appErrors.NewInvalidInput("message needs a body or an attachment")
	}

	msg = &model.Message{
		ID:          uuid.NewString(),
		CampaignID:  campaignID,
		SenderID:    actor.UserID,
		Body:        body,
		Attachments: attachments,
		IsBroadcast: in.IsBroadcast,
		CreatedAt:   nowFrom(s.Clock),
	}

	if in.IsBroadcast {
		return msg, s.broadcast(ctx, grant, msg)
	}
	return msg, s.direct(ctx, grant, msg, in.RecipientID)
}

func (s *MessagingService) direct(ctx context.Context, grant *access.Grant, msg *model.Message, recipientID *string) error {
	campaign := grant.Campaign

	to := ""
	if recipientID != nil {
		to = strings.TrimSpace(*recipientID)
	}
	if to == "" {
		if grant.IsOwner() {
			return appErrors.NewInvalidInput("recipient_id is required")
		}
		to = campaign.BrandID
	}
	if to == msg.SenderID {
		return appErrors.NewInvalidInput("cannot message yourself")
	}

	if to != campaign.BrandID {
		app, err := s.ApplicationRepo.GetByCampaignAndCreator(ctx, campaign.ID, to)
		if appErrors.IsNotFound(err) || (err == nil && app.Status != model.ApplicationAccepted) {
			return appErrors.NewNotFound("recipient %s is not on campaign %s", to, campaign.ID)
		}
		if err != nil {
			return appErrors.Internal("look up recipient", err)
		}
	}

	msg.RecipientID = &to
	if err := s.MessageRepo.Create(ctx, msg); err != nil {
		return appErrors.Internal("create message", err)
	}

	s.Notifier.Notify(ctx, Event{
		Type:        model.EventMessageReceived,
		RecipientID: to,
		ActorID:     msg.SenderID,
		Campaign:    campaign,
		Data:        map[string]string{"message_id": msg.ID, "preview": preview(msg.Body)},
	})
	s.log().Info("message sent", "message_id", msg.ID, "campaign_id", campaign.ID, "recipient_id", to)
	return nil
}

// broadcast stores the message, then fans out recipient rows and notifications.
// A failed recipient is logged and skipped; the message stays sent.
func (s *MessagingService) broadcast(ctx context.Context, grant *access.Grant, msg *model.Message) error {
	campaign := grant.Campaign

	accepted, err := s.ApplicationRepo.ListByCampaign(ctx, campaign.ID, model.ApplicationAccepted)
	if err != nil {
		return appErrors.Internal("snapshot accepted creators", err)
	}
	if err := s.MessageRepo.Create(ctx, msg); err != nil {
		return appErrors.Internal("create message", err)
	}

	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}

	fanCtx := context.WithoutCancel(ctx)
	g, gctx := errgroup.WithContext(fanCtx)
	g.SetLimit(limit)
	for _, app := range accepted {
		creatorID := app.CreatorID
		g.Go(func() error {
			err := s.MessageRepo.AddRecipient(gctx, model.MessageRecipient{MessageID: msg.ID, RecipientID: creatorID})
			if err != nil {
				metrics.FanoutFailures.WithLabelValues("recipient").Inc()
				s.log().Error("failed to add broadcast recipient", "message_id", msg.ID, "recipient_id", creatorID, "error", err)
				return nil
			}
			s.Notifier.Notify(gctx, Event{
				Type:        model.EventBroadcastReceived,
				RecipientID: creatorID,
				ActorID:     msg.SenderID,
				Campaign:    campaign,
				Data:        map[string]string{"message_id": msg.ID, "preview": preview(msg.Body)},
			})
			return nil
		})
	}
	_ = g.Wait()

	s.log().Info("broadcast sent", "message_id", msg.ID, "campaign_id", campaign.ID, "recipients", len(accepted))
	return nil
}

// List returns the messages the actor can see, oldest first, then marks the
// actor's unread direct messages and broadcast rows as read. The returned
// slice reflects read state before marking.
func (s *MessagingService) List(ctx context.Context, actor model.Actor, campaignID string) (msgs []model.Message, err error) {
	ctx, span := startSpan(ctx, "MessagingService.List", attribute.String("campaign.id", campaignID))
	defer func() { endSpan(span, err) }()

	grant, err := s.Access.Resolve(ctx, actor, campaignID)
	if err != nil {
		return nil, err
	}
	if err := grant.Require(access.ChannelParticipant); err != nil {
		return nil, err
	}

	if grant.IsOwner() {
		msgs, err = s.MessageRepo.ListByCampaign(ctx, campaignID)
	} else {
		msgs, err = s.MessageRepo.ListVisibleTo(ctx, campaignID, actor.UserID)
	}
	if err != nil {
		return nil, appErrors.Internal("list messages", err)
	}

	now := nowFrom(s.Clock)
	if _, err := s.MessageRepo.MarkDirectRead(ctx, campaignID, actor.UserID, now); err != nil {
		s.log().Error("failed to mark direct messages read", "campaign_id", campaignID, "user_id", actor.UserID, "error", err)
	}
	if _, err := s.MessageRepo.MarkRecipientRowsRead(ctx, campaignID, actor.UserID, now); err != nil {
		s.log().Error("failed to mark broadcasts read", "campaign_id", campaignID, "user_id", actor.UserID, "error", err)
	}
	return msgs, nil
}
