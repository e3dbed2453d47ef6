package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository/memory"
)

func setup(t *testing.T) (*memory.Store, *Resolver) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Campaigns.Create(ctx, &model.Campaign{ID: "camp", BrandID: "brand", Status: model.CampaignActive}))
	require.NoError(t, store.Applications.Create(ctx, &model.Application{ID: "a1", CampaignID: "camp", CreatorID: "accepted", Status: model.ApplicationAccepted}))
	require.NoError(t, store.Applications.Create(ctx, &model.Application{ID: "a2", CampaignID: "camp", CreatorID: "pending", Status: model.ApplicationPending}))
	return store, &Resolver{Campaigns: store.Campaigns, Applications: store.Applications}
}

func TestResolveCapabilities(t *testing.T) {
	_, resolver := setup(t)

	tests := []struct {
		name  string
		actor model.Actor
		has   []Capability
		lacks []Capability
	}{
		{"owner", model.Actor{UserID: "brand", Role: model.RoleBrand}, []Capability{CampaignOwner, ChannelParticipant}, []Capability{Applicant, Collaborator}},
		{"other brand", model.Actor{UserID: "brand-2", Role: model.RoleBrand}, nil, []Capability{CampaignOwner, ChannelParticipant, Applicant}},
		{"accepted creator", model.Actor{UserID: "accepted", Role: model.RoleCreator}, []Capability{Applicant, ChannelParticipant, Collaborator}, []Capability{CampaignOwner}},
		{"pending creator", model.Actor{UserID: "pending", Role: model.RoleCreator}, []Capability{Applicant}, []Capability{ChannelParticipant, Collaborator}},
		{"stranger creator", model.Actor{UserID: "new", Role: model.RoleCreator}, []Capability{Applicant}, []Capability{ChannelParticipant, Collaborator}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := resolver.Resolve(context.Background(), tt.actor, "camp")
			require.NoError(t, err)
			for _, c := range tt.has {
				assert.True(t, g.Has(c), c)
			}
			for _, c := range tt.lacks {
				assert.False(t, g.Has(c), c)
				assert.ErrorIs(t, g.Require(c), appErrors.ErrForbidden)
			}
		})
	}
}

func TestResolveMissingCampaign(t *testing.T) {
	_, resolver := setup(t)

	_, err := resolver.Resolve(context.Background(), model.Actor{UserID: "brand", Role: model.RoleBrand}, "nope")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestResolveCachesPerContext(t *testing.T) {
	store, resolver := setup(t)
	ctx := WithCache(context.Background())
	actor := model.Actor{UserID: "pending", Role: model.RoleCreator}

	first, err := resolver.Resolve(ctx, actor, "camp")
	require.NoError(t, err)
	require.NoError(t, store.Applications.UpdateStatus(ctx, "a2", model.ApplicationAccepted, time.Now()))

	cached, err := resolver.Resolve(ctx, actor, "camp")
	require.NoError(t, err)
	assert.Same(t, first, cached)
	assert.False(t, cached.Has(Collaborator))

	Forget(ctx, "camp", "pending")
	fresh, err := resolver.Resolve(ctx, actor, "camp")
	require.NoError(t, err)
	assert.True(t, fresh.Has(Collaborator))
}
