// internal/service/campaign_service.go
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

type CampaignService struct {
	CampaignRepo    repository.CampaignRepositoryInterface
	ApplicationRepo repository.ApplicationRepositoryInterface
	Access          *access.Resolver
	Logger          *slog.Logger
	Clock           func() time.Time
}

type CreateCampaignInput struct {
	Name         string                     `json:"name"`
	Description  string                     `json:"description"`
	BudgetType   string                     `json:"budget_type"`
	Requirements []model.ContentRequirement `json:"content_requirements"`
}

type CampaignDetails struct {
	model.Campaign
	Stats map[string]int `json:"stats"`
}

// allowedTransitions lists every legal campaign status change.
var allowedTransitions = map[model.CampaignStatus][]model.CampaignStatus{
	model.CampaignDraft:  {model.CampaignActive, model.CampaignCancelled},
	model.CampaignActive: {model.CampaignPaused, model.CampaignCompleted, model.CampaignCancelled},
	model.CampaignPaused: {model.CampaignActive, model.CampaignCompleted, model.CampaignCancelled},
}

func canTransition(from, to model.CampaignStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *CampaignService) CreateCampaign(ctx context.Context, actor model.Actor, in CreateCampaignInput) (c *model.Campaign, err error) {
	ctx, span := startSpan(ctx, "CampaignService.CreateCampaign")
	defer func() { endSpan(span, err) }()

	if !actor.IsBrand() {
		return nil, appErrors.NewForbidden("only brands can create campaigns")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, appErrors.NewInvalidInput("campaign name is required")
	}
	reqs, err := normalizeRequirements(in.Requirements)
	if err != nil {
		return nil, err
	}

	c = &model.Campaign{
		ID:           uuid.NewString(),
		BrandID:      actor.UserID,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		BudgetType:   strings.TrimSpace(in.BudgetType),
		Status:       model.CampaignDraft,
		Requirements: reqs,
		CreatedAt:    nowFrom(s.Clock),
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, appErrors.Internal("create campaign", err)
	}

	loggerOr(s.Logger, "campaignService").Info("campaign created", "campaign_id", c.ID, "brand_id", c.BrandID)
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, brandID, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, brandID, status)
	if err != nil {
		return nil, nil, appErrors.Internal("list campaigns", err)
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetails fetches a campaign by ID
func (s *CampaignService) GetCampaignDetails(ctx context.Context, id string) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// GetCampaignDetailsWithStats adds application counts by status. Owner only.
func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, actor model.Actor, id string) (*CampaignDetails, error) {
	grant, err := s.Access.Resolve(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := grant.Require(access.CampaignOwner); err != nil {
		return nil, err
	}

	counts, err := s.ApplicationRepo.CountByStatus(ctx, id)
	if err != nil {
		return nil, appErrors.Internal("count applications", err)
	}

	stats := map[string]int{
		"total":    0,
		"pending":  0,
		"accepted": 0,
		"rejected": 0,
	}
	for status, n := range counts {
		stats[string(status)] = n
		stats["total"] += n
	}

	return &CampaignDetails{Campaign: *grant.Campaign, Stats: stats}, nil
}

// UpdateRequirements replaces the requirement list. Only drafts may change, so
// positions stay stable once creators can deliver against them.
func (s *CampaignService) UpdateRequirements(ctx context.Context, actor model.Actor, id string, reqs []model.ContentRequirement) (c *model.Campaign, err error) {
	ctx, span := startSpan(ctx, "CampaignService.UpdateRequirements", attribute.String("campaign.id", id))
	defer func() { endSpan(span, err) }()

	grant, err := s.Access.Resolve(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := grant.Require(access.CampaignOwner); err != nil {
		return nil, err
	}
	if grant.Campaign.Status != model.CampaignDraft {
		return nil, appErrors.NewInvalidState("requirements are locked once campaign is %s", grant.Campaign.Status)
	}

	normalized, err := normalizeRequirements(reqs)
	if err != nil {
		return nil, err
	}
	if err := s.CampaignRepo.UpdateRequirements(ctx, id, normalized); err != nil {
		return nil, appErrors.Internal("update requirements", err)
	}

	updated := *grant.Campaign
	updated.Requirements = normalized
	return &updated, nil
}

func (s *CampaignService) UpdateStatus(ctx context.Context, actor model.Actor, id string, status model.CampaignStatus) (c *model.Campaign, err error) {
	ctx, span := startSpan(ctx, "CampaignService.UpdateStatus",
		attribute.String("campaign.id", id), attribute.String("campaign.status", string(status)))
	defer func() { endSpan(span, err) }()

	grant, err := s.Access.Resolve(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := grant.Require(access.CampaignOwner); err != nil {
		return nil, err
	}

	from := grant.Campaign.Status
	if !canTransition(from, status) {
		return nil, appErrors.NewInvalidState("campaign cannot move from %s to %s", from, status)
	}
	if err := s.CampaignRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Internal("update campaign status", err)
	}

	loggerOr(s.Logger, "campaignService").Info("campaign status changed", "campaign_id", id, "from", from, "to", status)

	updated := *grant.Campaign
	updated.Status = status
	now := nowFrom(s.Clock)
	updated.UpdatedAt = &now
	return &updated, nil
}

// normalizeRequirements validates requirements and assigns missing ids.
func normalizeRequirements(reqs []model.ContentRequirement) (model.Requirements, error) {
	out := make(model.Requirements, 0, len(reqs))
	seen := map[string]bool{}
	for i, r := range reqs {
		r.ContentType = strings.TrimSpace(r.ContentType)
		r.SocialChannel = strings.TrimSpace(r.SocialChannel)
		if r.ContentType == "" || r.SocialChannel == "" {
			return nil, appErrors.NewInvalidInput("requirement %d needs a content type and a social channel", i+1)
		}
		if r.Quantity < 0 {
			return nil, appErrors.NewInvalidInput("requirement %d has a negative quantity", i+1)
		}
		if r.Quantity == 0 {
			r.Quantity = 1
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if seen[r.ID] {
			return nil, appErrors.NewInvalidInput("requirement id %s is used twice", r.ID)
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out, nil
}
