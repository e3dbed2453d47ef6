package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository/memory"
)

func pendingDelivery(t *testing.T, store *memory.Store) *model.EmailDelivery {
	t.Helper()
	d := &model.EmailDelivery{
		ID:           "d-1",
		UserID:       creatorA.UserID,
		ToAddress:    "creator-a@example.com",
		TemplateKey:  "new_message",
		TemplateData: model.JSONMap{"preview": "hello"},
		Status:       model.DeliveryPending,
	}
	require.NoError(t, store.Deliveries.Create(context.Background(), d))
	return d
}

func TestWorkerRetriesUntilSent(t *testing.T) {
	store := memory.New()
	gateway := &fakeGateway{Failures: 2}
	w := NewEmailWorker(store.Deliveries, gateway, 3, quietLogger())
	d := pendingDelivery(t, store)

	assert.Error(t, w.Handle(d.ID))
	assert.Error(t, w.Handle(d.ID))
	assert.NoError(t, w.Handle(d.ID))

	stored, err := store.Deliveries.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeliverySent, stored.Status)
	assert.Equal(t, 2, stored.RetryCount)
	assert.Empty(t, stored.LastError)

	// a sent row is not sent twice
	assert.NoError(t, w.Handle(d.ID))
	assert.Equal(t, 3, gateway.Calls())
}

func TestWorkerGivesUpAfterMaxRetries(t *testing.T) {
	store := memory.New()
	gateway := &fakeGateway{Failures: 100}
	w := NewEmailWorker(store.Deliveries, gateway, 1, quietLogger())
	d := pendingDelivery(t, store)

	assert.Error(t, w.Handle(d.ID))
	assert.NoError(t, w.Handle(d.ID))

	stored, err := store.Deliveries.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryFailed, stored.Status)
	assert.Equal(t, 2, stored.RetryCount)
	assert.Equal(t, "smtp relay unavailable", stored.LastError)
}

func TestWorkerDropsUnknownJobs(t *testing.T) {
	store := memory.New()
	gateway := &fakeGateway{}
	w := NewEmailWorker(store.Deliveries, gateway, 3, quietLogger())

	assert.NoError(t, w.Handle("missing"))
	assert.NoError(t, w.Handle(42))
	assert.Zero(t, gateway.Calls())
}

func TestQueuedEmailIsDeliveredThroughWorker(t *testing.T) {
	e := newEnv(t)
	e.gateway.Failures = 1
	c := e.activeCampaign(reel(1))
	e.accepted(c, creatorA)

	_, err := e.svc.Messaging.Send(e.ctx, creatorA, c.ID, SendInput{Body: "Draft attached"})
	require.NoError(t, err)
	e.queue.Wait()

	for _, d := range e.store.Deliveries.All() {
		assert.Equal(t, model.DeliverySent, d.Status, d.TemplateKey)
	}

	var found bool
	for _, s := range e.gateway.Sent() {
		if s.Template == "new_message" {
			found = true
			assert.Equal(t, "brand-1@example.com", s.To)
			assert.Equal(t, "Draft attached", s.Data["preview"])
		}
	}
	assert.True(t, found)
}
