package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"github.com/unclebandit/collab-engine/internal/access"
	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/events"
	"github.com/unclebandit/collab-engine/internal/fulfillment"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

// SubmissionService is the ledger of content submissions and their review.
type SubmissionService struct {
	Tx             repository.Transactor
	SubmissionRepo repository.SubmissionRepositoryInterface
	Access         *access.Resolver
	Eligibility    *EligibilityService
	Notifier       Notifier
	Events         events.Publisher
	Logger         *slog.Logger
	Clock          func() time.Time
}

type AssetInput struct {
	Type         model.AssetType `json:"type"`
	URL          string          `json:"url"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Title        string          `json:"title"`
	Width        int             `json:"width"`
	Height       int             `json:"height"`
	Duration     float64         `json:"duration"`
	FileSize     int64           `json:"file_size"`
	Tags         []string        `json:"tags"`
}

type SubmitInput struct {
	RequirementID string       `json:"requirement_id"`
	ContentType   string       `json:"content_type"`
	SocialChannel string       `json:"social_channel"`
	Quantity      int          `json:"quantity"`
	Assets        []AssetInput `json:"assets"`
}

type ReviewInput struct {
	Decision         model.SubmissionStatus `json:"decision"`
	RejectionComment string                 `json:"rejection_comment"`
}

// ReviewResult carries the reviewed submission and the creator's eligibility after it.
type ReviewResult struct {
	Submission  *model.Submission   `json:"submission"`
	Eligibility *fulfillment.Report `json:"eligibility"`
}

func (s *SubmissionService) log() *slog.Logger {
	return loggerOr(s.Logger, "submissionService")
}

// Submit stores a submission and all of its assets in one unit of work.
// A failed asset insert leaves nothing behind.
func (s *SubmissionService) Submit(ctx context.Context, actor model.Actor, campaignID string, in SubmitInput) (sub *model.Submission, err error) {
	ctx, span := startSpan(ctx, "SubmissionService.Submit",
		attribute.String("campaign.id", campaignID), attribute.Int("assets", len(in.Assets)))
	defer func() { endSpan(span, err) }()

	var campaign *model.Campaign
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		grant, err := s.Access.Resolve(ctx, actor, campaignID)
		if err != nil {
			return err
		}
		if err := grant.Require(access.Collaborator); err != nil {
			return err
		}
		campaign = grant.Campaign

		if campaign.Status == model.CampaignCompleted || campaign.Status == model.CampaignCancelled {
			return appErrors.NewInvalidState("campaign %s is %s", campaignID, campaign.Status)
		}
		if err := validateSubmission(campaign, in); err != nil {
			return err
		}

		sub = &model.Submission{
			ID:            uuid.NewString(),
			CampaignID:    campaignID,
			CreatorID:     actor.UserID,
			TaskID:        strings.TrimSpace(in.RequirementID),
			ContentType:   strings.TrimSpace(in.ContentType),
			SocialChannel: strings.TrimSpace(in.SocialChannel),
			Quantity:      in.Quantity,
			Status:        model.SubmissionPending,
			SubmittedDate: nowFrom(s.Clock),
		}
		if sub.Quantity == 0 {
			sub.Quantity = 1
		}
		if err := s.SubmissionRepo.Create(ctx, sub); err != nil {
			return appErrors.Internal("create submission", err)
		}

		for _, a := range in.Assets {
			tags := pq.StringArray(a.Tags)
			if tags == nil {
				tags = pq.StringArray{}
			}
			asset := model.Asset{
				ID:           uuid.NewString(),
				SubmissionID: sub.ID,
				Type:         a.Type,
				URL:          strings.TrimSpace(a.URL),
				ThumbnailURL: a.ThumbnailURL,
				Title:        a.Title,
				Width:        a.Width,
				Height:       a.Height,
				Duration:     a.Duration,
				FileSize:     a.FileSize,
				Tags:         tags,
			}
			if err := s.SubmissionRepo.AddAsset(ctx, &asset); err != nil {
				return appErrors.Internal("create submission asset", err)
			}
			sub.Assets = append(sub.Assets, asset)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, Event{
		Type:        model.EventSubmissionCreated,
		RecipientID: campaign.BrandID,
		ActorID:     actor.UserID,
		Campaign:    campaign,
		Data: map[string]string{
			"submission_id":  sub.ID,
			"requirement_id": sub.TaskID,
			"asset_count":    strconv.Itoa(len(sub.Assets)),
		},
	})

	s.log().Info("submission created", "submission_id", sub.ID, "campaign_id", campaignID, "creator_id", actor.UserID, "assets", len(sub.Assets))
	return sub, nil
}

// Review approves or rejects a submission and re-evaluates the creator's eligibility.
// Approval clears any rejection comment; rejection clears the approval date.
func (s *SubmissionService) Review(ctx context.Context, actor model.Actor, submissionID string, in ReviewInput) (result *ReviewResult, err error) {
	ctx, span := startSpan(ctx, "SubmissionService.Review",
		attribute.String("submission.id", submissionID), attribute.String("decision", string(in.Decision)))
	defer func() { endSpan(span, err) }()

	if in.Decision != model.SubmissionApproved && in.Decision != model.SubmissionRejected {
		return nil, appErrors.NewInvalidInput("decision must be approved or rejected")
	}

	var (
		campaign *model.Campaign
		sub      *model.Submission
		before   fulfillment.Report
		after    fulfillment.Report
	)
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.SubmissionRepo.GetByID(ctx, submissionID)
		if err != nil {
			return err
		}
		grant, err := s.Access.Resolve(ctx, actor, sub.CampaignID)
		if err != nil {
			return err
		}
		if err := grant.Require(access.CampaignOwner); err != nil {
			return err
		}
		campaign = grant.Campaign

		before, err = s.Eligibility.ForCreator(ctx, campaign, sub.CreatorID)
		if err != nil {
			return err
		}

		sub.Status = in.Decision
		if in.Decision == model.SubmissionApproved {
			now := nowFrom(s.Clock)
			sub.ApprovedDate = &now
			sub.RejectionComment = nil
		} else {
			sub.ApprovedDate = nil
			sub.RejectionComment = nil
			if comment := strings.TrimSpace(in.RejectionComment); comment != "" {
				sub.RejectionComment = &comment
			}
		}
		if err := s.SubmissionRepo.UpdateReview(ctx, sub); err != nil {
			return appErrors.Internal("update submission review", err)
		}

		after, err = s.Eligibility.ForCreator(ctx, campaign, sub.CreatorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	data := map[string]string{"submission_id": sub.ID, "requirement_id": sub.TaskID}
	eventType := model.EventSubmissionApproved
	if in.Decision == model.SubmissionRejected {
		eventType = model.EventSubmissionRejected
		if sub.RejectionComment != nil {
			data["rejection_reason"] = *sub.RejectionComment
			data["rejection_note"] = "Reason: " + *sub.RejectionComment
		}
	}
	s.Notifier.Notify(ctx, Event{
		Type:        eventType,
		RecipientID: sub.CreatorID,
		ActorID:     actor.UserID,
		Campaign:    campaign,
		Data:        data,
	})

	if after.Eligible && !before.Eligible {
		s.completed(ctx, campaign, after)
	}

	s.log().Info("submission reviewed", "submission_id", sub.ID, "decision", in.Decision, "eligible", after.Eligible)
	return &ReviewResult{Submission: sub, Eligibility: &after}, nil
}

// completed announces that a creator just became payment-eligible.
func (s *SubmissionService) completed(ctx context.Context, campaign *model.Campaign, report fulfillment.Report) {
	completedAt := nowFrom(s.Clock)
	if report.CompletedAt != nil {
		completedAt = *report.CompletedAt
	}

	s.Notifier.Notify(ctx, Event{
		Type:        model.EventRequirementsCompleted,
		RecipientID: campaign.BrandID,
		ActorID:     report.CreatorID,
		Campaign:    campaign,
		Data:        map[string]string{"completed_at": completedAt.Format(time.RFC3339)},
	})

	if s.Events == nil {
		return
	}
	err := s.Events.PublishEligibility(context.WithoutCancel(ctx), events.EligibilityEvent{
		CampaignID:  campaign.ID,
		BrandID:     campaign.BrandID,
		CreatorID:   report.CreatorID,
		Eligible:    true,
		CompletedAt: completedAt,
		EmittedAt:   nowFrom(s.Clock),
	})
	if err != nil {
		s.log().Error("failed to publish eligibility event", "campaign_id", campaign.ID, "creator_id", report.CreatorID, "error", err)
	}
}

// ListForCampaign returns every submission to the owner and only their own to a collaborator.
func (s *SubmissionService) ListForCampaign(ctx context.Context, actor model.Actor, campaignID string) ([]model.Submission, error) {
	grant, err := s.Access.Resolve(ctx, actor, campaignID)
	if err != nil {
		return nil, err
	}

	creatorID := ""
	switch {
	case grant.IsOwner():
	case grant.Has(access.Collaborator):
		creatorID = actor.UserID
	default:
		return nil, appErrors.NewForbidden("%s may not view submissions on campaign %s", actor.UserID, campaignID)
	}

	subs, err := s.SubmissionRepo.ListByCampaign(ctx, campaignID, creatorID)
	if err != nil {
		return nil, appErrors.Internal("list submissions", err)
	}
	return subs, nil
}

func (s *SubmissionService) ListForCreator(ctx context.Context, actor model.Actor) ([]model.Submission, error) {
	subs, err := s.SubmissionRepo.ListByCreator(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Internal("list submissions", err)
	}
	return subs, nil
}

func validateSubmission(campaign *model.Campaign, in SubmitInput) error {
	if len(in.Assets) == 0 {
		return appErrors.NewInvalidInput("a submission needs at least one asset")
	}
	for i, a := range in.Assets {
		if a.Type != model.AssetImage && a.Type != model.AssetVideo {
			return appErrors.NewInvalidInput("asset %d: type must be image or video", i+1)
		}
		if strings.TrimSpace(a.URL) == "" {
			return appErrors.NewInvalidInput("asset %d: url is required", i+1)
		}
	}
	if in.Quantity < 0 {
		return appErrors.NewInvalidInput("quantity must not be negative")
	}

	ref := strings.TrimSpace(in.RequirementID)
	if ref == "" {
		return appErrors.NewInvalidInput("requirement_id is required")
	}
	for i, r := range campaign.Requirements {
		if r.ID == ref || strconv.Itoa(i+1) == ref {
			return nil
		}
	}
	return appErrors.NewInvalidInput("requirement %s does not exist on campaign %s", ref, campaign.ID)
}
