// Package access resolves what an actor may do on a campaign.
package access

import (
	"context"
	"fmt"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

type Capability string

const (
	// Applicant may apply to the campaign.
	Applicant Capability = "applicant"
	// CampaignOwner is the brand that authored the campaign.
	CampaignOwner Capability = "campaign_owner"
	// ChannelParticipant may read and write the campaign's messages.
	ChannelParticipant Capability = "channel_participant"
	// Collaborator is a creator whose application was accepted; they may submit content.
	Collaborator Capability = "collaborator"
)

// Grant is the resolved capability set of one actor on one campaign.
type Grant struct {
	Actor       model.Actor
	Campaign    *model.Campaign
	Application *model.Application
	caps        map[Capability]bool
}

func (g *Grant) Has(c Capability) bool {
	return g.caps[c]
}

// Require returns Forbidden unless the grant holds c.
func (g *Grant) Require(c Capability) error {
	if g.Has(c) {
		return nil
	}
	return appErrors.NewForbidden("%s lacks %s on campaign %s", g.Actor.UserID, c, g.Campaign.ID)
}

func (g *Grant) IsOwner() bool {
	return g.Has(CampaignOwner)
}

type Resolver struct {
	Campaigns    repository.CampaignRepositoryInterface
	Applications repository.ApplicationRepositoryInterface
}

type grantKey struct {
	campaignID string
	userID     string
}

type grantCache map[grantKey]*Grant

type cacheKey struct{}

// WithCache makes Resolve reuse grants for the lifetime of ctx.
func WithCache(ctx context.Context) context.Context {
	if _, ok := ctx.Value(cacheKey{}).(grantCache); ok {
		return ctx
	}
	return context.WithValue(ctx, cacheKey{}, grantCache{})
}

// Forget drops a cached grant, for callers that just changed it.
func Forget(ctx context.Context, campaignID, userID string) {
	if cache, ok := ctx.Value(cacheKey{}).(grantCache); ok {
		delete(cache, grantKey{campaignID, userID})
	}
}

// Resolve loads the campaign and derives the actor's capabilities on it.
// A missing campaign is NotFound.
func (r *Resolver) Resolve(ctx context.Context, actor model.Actor, campaignID string) (*Grant, error) {
	cache, _ := ctx.Value(cacheKey{}).(grantCache)
	key := grantKey{campaignID, actor.UserID}
	if g, ok := cache[key]; ok && g.Actor == actor {
		return g, nil
	}

	campaign, err := r.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	g, err := r.grant(ctx, actor, campaign)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache[key] = g
	}
	return g, nil
}

// ForCampaign derives capabilities when the caller already holds the campaign.
func (r *Resolver) ForCampaign(ctx context.Context, actor model.Actor, campaign *model.Campaign) (*Grant, error) {
	return r.grant(ctx, actor, campaign)
}

func (r *Resolver) grant(ctx context.Context, actor model.Actor, campaign *model.Campaign) (*Grant, error) {
	g := &Grant{Actor: actor, Campaign: campaign, caps: map[Capability]bool{}}

	if actor.UserID != "" && campaign.BrandID == actor.UserID {
		g.caps[CampaignOwner] = true
		g.caps[ChannelParticipant] = true
		return g, nil
	}

	if !actor.IsCreator() {
		return g, nil
	}
	g.caps[Applicant] = true

	app, err := r.Applications.GetByCampaignAndCreator(ctx, campaign.ID, actor.UserID)
	if appErrors.IsNotFound(err) {
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	g.Application = app
	if app.Status == model.ApplicationAccepted {
		g.caps[ChannelParticipant] = true
		g.caps[Collaborator] = true
	}
	return g, nil
}
