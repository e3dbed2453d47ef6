package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository/memory"
)

func TestEmailPreferencesDefaultToEnabled(t *testing.T) {
	e := newEnv(t)

	prefs, err := e.svc.Notifications.GetEmailPreferences(e.ctx, creatorA.UserID)
	require.NoError(t, err)
	assert.Len(t, prefs, len(PreferenceKeys()))
	for key, enabled := range prefs {
		assert.True(t, enabled, key)
	}

	prefs, err = e.svc.Notifications.SetEmailPreferences(e.ctx, creatorA.UserID, map[string]bool{PrefMessages: false})
	require.NoError(t, err)
	assert.False(t, prefs[PrefMessages])
	assert.True(t, prefs[PrefContentReviews])

	_, err = e.svc.Notifications.SetEmailPreferences(e.ctx, creatorA.UserID, map[string]bool{"marketing": true})
	assert.Equal(t, appErrors.KindInvalidInput, appErrors.KindOf(err))
	_, err = e.svc.Notifications.SetEmailPreferences(e.ctx, creatorA.UserID, nil)
	assert.Equal(t, appErrors.KindInvalidInput, appErrors.KindOf(err))
}

func TestDisabledPreferenceSkipsEmailButKeepsNotification(t *testing.T) {
	e := newEnv(t)
	c := e.activeCampaign(reel(1))

	_, err := e.svc.Notifications.SetEmailPreferences(e.ctx, brand.UserID, map[string]bool{PrefNewApplications: false})
	require.NoError(t, err)

	_, err = e.svc.Applications.Apply(e.ctx, creatorA, c.ID, ApplyInput{})
	require.NoError(t, err)
	e.queue.Wait()

	assert.Len(t, e.notificationsOf(brand.UserID, model.EventApplicationCreated), 1)

	var templates []string
	for _, d := range e.store.Deliveries.All() {
		templates = append(templates, d.TemplateKey)
	}
	assert.NotContains(t, templates, "brand_creator_applied")
	assert.Contains(t, templates, "creator_application_received")

	sent := e.gateway.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "creator-a@example.com", sent[0].To)
	assert.Equal(t, "Spring Launch", sent[0].Data["campaign_name"])
}

func TestPreferenceLookupFailureOnlySkipsEmail(t *testing.T) {
	e := newEnv(t)
	c := e.activeCampaign(reel(1))

	e.store.FailOn(memory.OpGetPreferences, 0, errors.New("timeout"))
	_, err := e.svc.Applications.Apply(e.ctx, creatorA, c.ID, ApplyInput{})
	require.NoError(t, err)
	e.queue.Wait()

	assert.Len(t, e.notificationsOf(brand.UserID, model.EventApplicationCreated), 1)
	assert.Len(t, e.store.Deliveries.All(), 1)
}

func TestSetEmailPreferencesIsAllOrNothing(t *testing.T) {
	e := newEnv(t)

	e.store.FailOn(memory.OpSetPreference, 1, errors.New("connection reset"))
	_, err := e.svc.Notifications.SetEmailPreferences(e.ctx, creatorA.UserID, map[string]bool{
		PrefMessages:       false,
		PrefContentReviews: false,
	})
	assert.Equal(t, appErrors.KindInternal, appErrors.KindOf(err))

	prefs, err := e.svc.Notifications.GetEmailPreferences(e.ctx, creatorA.UserID)
	require.NoError(t, err)
	assert.True(t, prefs[PrefMessages])
	assert.True(t, prefs[PrefContentReviews])
}

func TestNotificationInbox(t *testing.T) {
	e := newEnv(t)
	c := e.activeCampaign(reel(1))
	for _, creator := range []model.Actor{creatorA, creatorB} {
		_, err := e.svc.Applications.Apply(e.ctx, creator, c.ID, ApplyInput{})
		require.NoError(t, err)
	}

	page, err := e.svc.Notifications.ListForUser(e.ctx, brand.UserID, false, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, defaultNotificationLimit, page.Limit)
	assert.Equal(t, 0, page.Offset)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.UnreadCount)

	n, err := e.svc.Notifications.MarkRead(e.ctx, brand.UserID, []string{page.Items[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// another user's ids are ignored
	n, err = e.svc.Notifications.MarkRead(e.ctx, creatorA.UserID, []string{page.Items[1].ID})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	unread, err := e.svc.Notifications.ListForUser(e.ctx, brand.UserID, true, 500, 0)
	require.NoError(t, err)
	assert.Equal(t, maxNotificationLimit, unread.Limit)
	require.Len(t, unread.Items, 1)
	assert.Equal(t, 1, unread.UnreadCount)

	_, err = e.svc.Notifications.MarkRead(e.ctx, brand.UserID, nil)
	assert.Equal(t, appErrors.KindInvalidInput, appErrors.KindOf(err))

	n, err = e.svc.Notifications.MarkAllRead(e.ctx, brand.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	page, err = e.svc.Notifications.ListForUser(e.ctx, brand.UserID, false, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, page.UnreadCount)
}
