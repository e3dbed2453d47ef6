package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	store := New()
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, store.Submissions.Create(ctx, &model.Submission{ID: "s1", CampaignID: "c1"}))
		require.NoError(t, store.Submissions.AddAsset(ctx, &model.Asset{ID: "a1", SubmissionID: "s1"}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	_, err = store.Submissions.GetByID(ctx, "s1")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestWithinTxNestedJoinsOuter(t *testing.T) {
	store := New()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		return store.WithinTx(ctx, func(ctx context.Context) error {
			return store.Campaigns.Create(ctx, &model.Campaign{ID: "c1"})
		})
	})

	require.NoError(t, err)
	_, err = store.Campaigns.GetByID(ctx, "c1")
	assert.NoError(t, err)
}

func TestFailOnSkipsThenFailsOnce(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.Submissions.Create(ctx, &model.Submission{ID: "s1"}))

	boom := errors.New("disk full")
	store.FailOn(OpAddAsset, 1, boom)

	assert.NoError(t, store.Submissions.AddAsset(ctx, &model.Asset{ID: "a1", SubmissionID: "s1"}))
	assert.ErrorIs(t, store.Submissions.AddAsset(ctx, &model.Asset{ID: "a2", SubmissionID: "s1"}), boom)
	assert.NoError(t, store.Submissions.AddAsset(ctx, &model.Asset{ID: "a3", SubmissionID: "s1"}))
}

func TestApplicationUniqueness(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Applications.Create(ctx, &model.Application{ID: "a1", CampaignID: "c1", CreatorID: "u1"}))
	err := store.Applications.Create(ctx, &model.Application{ID: "a2", CampaignID: "c1", CreatorID: "u1"})

	assert.True(t, appErrors.IsConflict(err))
}

func TestListVisibleToUsesRecipientRows(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Now().UTC()
	brand := "brand"
	creator := "creator"

	require.NoError(t, store.Messages.Create(ctx, &model.Message{ID: "m1", CampaignID: "c1", SenderID: brand, IsBroadcast: true, CreatedAt: now}))
	require.NoError(t, store.Messages.Create(ctx, &model.Message{ID: "m2", CampaignID: "c1", SenderID: brand, IsBroadcast: true, CreatedAt: now.Add(time.Second)}))
	require.NoError(t, store.Messages.AddRecipient(ctx, model.MessageRecipient{MessageID: "m2", RecipientID: creator}))
	require.NoError(t, store.Messages.Create(ctx, &model.Message{ID: "m3", CampaignID: "c1", SenderID: brand, RecipientID: &creator, CreatedAt: now.Add(2 * time.Second)}))
	other := "someone-else"
	require.NoError(t, store.Messages.Create(ctx, &model.Message{ID: "m4", CampaignID: "c1", SenderID: brand, RecipientID: &other, CreatedAt: now.Add(3 * time.Second)}))

	msgs, err := store.Messages.ListVisibleTo(ctx, "c1", creator)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m2", msgs[0].ID)
	assert.Equal(t, "m3", msgs[1].ID)

	n, err := store.Messages.MarkRecipientRowsRead(ctx, "c1", creator, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	msgs, err = store.Messages.ListVisibleTo(ctx, "c1", creator)
	require.NoError(t, err)
	assert.True(t, msgs[0].IsRead)
	assert.False(t, msgs[1].IsRead)
}
