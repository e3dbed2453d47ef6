package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/unclebandit/collab-engine/internal/access"
	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/fulfillment"
	"github.com/unclebandit/collab-engine/internal/metrics"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

type EligibilityService struct {
	ApplicationRepo repository.ApplicationRepositoryInterface
	SubmissionRepo  repository.SubmissionRepositoryInterface
	Access          *access.Resolver
	Logger          *slog.Logger
}

// EvaluateEligibility reports payment eligibility on a campaign. The owner sees
// every accepted creator; an accepted creator sees only themselves.
func (s *EligibilityService) EvaluateEligibility(ctx context.Context, actor model.Actor, campaignID string) (reports []fulfillment.Report, err error) {
	ctx, span := startSpan(ctx, "EligibilityService.EvaluateEligibility", attribute.String("campaign.id", campaignID))
	defer func() { endSpan(span, err) }()

	grant, err := s.Access.Resolve(ctx, actor, campaignID)
	if err != nil {
		return nil, err
	}

	var creatorIDs []string
	var creatorFilter string
	switch {
	case grant.IsOwner():
		apps, err := s.ApplicationRepo.ListByCampaign(ctx, campaignID, model.ApplicationAccepted)
		if err != nil {
			return nil, appErrors.Internal("list accepted creators", err)
		}
		for _, a := range apps {
			creatorIDs = append(creatorIDs, a.CreatorID)
		}
	case grant.Has(access.Collaborator):
		creatorIDs = []string{actor.UserID}
		creatorFilter = actor.UserID
	default:
		return nil, appErrors.NewForbidden("%s may not view eligibility on campaign %s", actor.UserID, campaignID)
	}

	subs, err := s.SubmissionRepo.ListApproved(ctx, campaignID, creatorFilter)
	if err != nil {
		return nil, appErrors.Internal("list approved submissions", err)
	}

	return fulfillment.EvaluateAll(grant.Campaign.Requirements, creatorIDs, subs), nil
}

// ForCreator evaluates one creator. It runs inside the caller's unit of work.
func (s *EligibilityService) ForCreator(ctx context.Context, campaign *model.Campaign, creatorID string) (fulfillment.Report, error) {
	subs, err := s.SubmissionRepo.ListApproved(ctx, campaign.ID, creatorID)
	if err != nil {
		return fulfillment.Report{}, appErrors.Internal("list approved submissions", err)
	}
	report := fulfillment.Evaluate(creatorID, campaign.Requirements, subs)

	result := "not_eligible"
	if report.Eligible {
		result = "eligible"
	}
	metrics.EligibilityEvaluations.WithLabelValues(result).Inc()
	return report, nil
}
