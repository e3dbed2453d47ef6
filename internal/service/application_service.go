package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/unclebandit/collab-engine/internal/access"
	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

// ApplicationService is the ledger of creator applications.
type ApplicationService struct {
	Tx              repository.Transactor
	CampaignRepo    repository.CampaignRepositoryInterface
	ApplicationRepo repository.ApplicationRepositoryInterface
	Access          *access.Resolver
	Notifier        Notifier
	Logger          *slog.Logger
	Clock           func() time.Time
}

type ApplyInput struct {
	Message string   `json:"message"`
	Quote   *float64 `json:"quote,omitempty"`
}

func (s *ApplicationService) log() *slog.Logger {
	return loggerOr(s.Logger, "applicationService")
}

// Apply records a pending application. The campaign must be active and the
// creator must not have applied before, whatever the outcome of that application.
func (s *ApplicationService) Apply(ctx context.Context, actor model.Actor, campaignID string, in ApplyInput) (app *model.Application, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.Apply",
		attribute.String("campaign.id", campaignID), attribute.String("creator.id", actor.UserID))
	defer func() { endSpan(span, err) }()

	if in.Quote != nil && *in.Quote < 0 {
		return nil, appErrors.NewInvalidInput("quote must not be negative")
	}

	var campaign *model.Campaign
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		grant, err := s.Access.Resolve(ctx, actor, campaignID)
		if err != nil {
			return err
		}
		if err := grant.Require(access.Applicant); err != nil {
			return err
		}
		campaign = grant.Campaign
		if campaign.Status != model.CampaignActive {
			return appErrors.NewInvalidState("campaign %s is %s, not accepting applications", campaignID, campaign.Status)
		}
		if grant.Application != nil {
			return appErrors.NewConflict("creator %s already applied to campaign %s", actor.UserID, campaignID)
		}

		app = &model.Application{
			ID:         uuid.NewString(),
			CampaignID: campaignID,
			CreatorID:  actor.UserID,
			Message:    strings.TrimSpace(in.Message),
			Quote:      in.Quote,
			Status:     model.ApplicationPending,
			CreatedAt:  nowFrom(s.Clock),
		}
		if err := s.ApplicationRepo.Create(ctx, app); err != nil {
			return appErrors.Internal("create application", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	access.Forget(ctx, campaignID, actor.UserID)

	// The counter is advisory, so it is bumped outside the unit of work.
	if err := s.CampaignRepo.IncrementApplicantCount(ctx, campaignID); err != nil {
		s.log().Warn("failed to bump applicant count", "campaign_id", campaignID, "error", err)
	}

	s.Notifier.Notify(ctx, Event{
		Type:        model.EventApplicationCreated,
		RecipientID: campaign.BrandID,
		ActorID:     actor.UserID,
		Campaign:    campaign,
		Data:        map[string]string{"application_id": app.ID},
	})
	s.Notifier.Notify(ctx, Event{
		Type:        model.EventApplicationConfirmation,
		RecipientID: actor.UserID,
		ActorID:     campaign.BrandID,
		Campaign:    campaign,
		Data:        map[string]string{"application_id": app.ID},
	})

	s.log().Info("application created", "application_id", app.ID, "campaign_id", campaignID, "creator_id", actor.UserID)
	return app, nil
}

// Decide accepts or rejects a pending application. Only the owning brand may decide.
func (s *ApplicationService) Decide(ctx context.Context, actor model.Actor, campaignID, applicationID string, decision model.ApplicationStatus) (app *model.Application, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.Decide",
		attribute.String("campaign.id", campaignID), attribute.String("application.id", applicationID))
	defer func() { endSpan(span, err) }()

	if decision != model.ApplicationAccepted && decision != model.ApplicationRejected {
		return nil, appErrors.NewInvalidInput("decision must be accepted or rejected")
	}

	var campaign *model.Campaign
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		grant, err := s.Access.Resolve(ctx, actor, campaignID)
		if err != nil {
			return err
		}
		if err := grant.Require(access.CampaignOwner); err != nil {
			return err
		}
		campaign = grant.Campaign

		app, err = s.ApplicationRepo.GetByID(ctx, applicationID)
		if err != nil {
			return err
		}
		if app.CampaignID != campaignID {
			return appErrors.NewNotFound("application %s not found on campaign %s", applicationID, campaignID)
		}
		if app.Status != model.ApplicationPending {
			return appErrors.NewInvalidState("application %s is already %s", applicationID, app.Status)
		}

		now := nowFrom(s.Clock)
		if err := s.ApplicationRepo.UpdateStatus(ctx, app.ID, decision, now); err != nil {
			return appErrors.Internal("update application", err)
		}
		app.Status = decision
		app.UpdatedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	access.Forget(ctx, campaignID, app.CreatorID)

	eventType := model.EventApplicationAccepted
	if decision == model.ApplicationRejected {
		eventType = model.EventApplicationRejected
	}
	s.Notifier.Notify(ctx, Event{
		Type:        eventType,
		RecipientID: app.CreatorID,
		ActorID:     actor.UserID,
		Campaign:    campaign,
		Data:        map[string]string{"application_id": app.ID, "decision": string(decision)},
	})

	s.log().Info("application decided", "application_id", app.ID, "campaign_id", campaignID, "decision", decision)
	return app, nil
}

// ListForCampaign returns applications on a campaign, optionally filtered by status. Owner only.
func (s *ApplicationService) ListForCampaign(ctx context.Context, actor model.Actor, campaignID string, status model.ApplicationStatus) ([]model.Application, error) {
	grant, err := s.Access.Resolve(ctx, actor, campaignID)
	if err != nil {
		return nil, err
	}
	if err := grant.Require(access.CampaignOwner); err != nil {
		return nil, err
	}
	apps, err := s.ApplicationRepo.ListByCampaign(ctx, campaignID, status)
	if err != nil {
		return nil, appErrors.Internal("list applications", err)
	}
	return apps, nil
}

// ListForCreator returns the caller's own applications, newest first.
func (s *ApplicationService) ListForCreator(ctx context.Context, actor model.Actor) ([]model.Application, error) {
	apps, err := s.ApplicationRepo.ListByCreator(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal("list applications", err)
	}
	return apps, nil
}
