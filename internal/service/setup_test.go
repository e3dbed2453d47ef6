package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unclebandit/collab-engine/internal/events"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/queue"
	"github.com/unclebandit/collab-engine/internal/repository/memory"
)

const emailTopic = "email_deliveries"

var (
	brand    = model.Actor{UserID: "brand-1", Role: model.RoleBrand}
	rival    = model.Actor{UserID: "brand-2", Role: model.RoleBrand}
	creatorA = model.Actor{UserID: "creator-a", Role: model.RoleCreator}
	creatorB = model.Actor{UserID: "creator-b", Role: model.RoleCreator}
)

// stepClock advances one second per call so ordering by time is stable.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.EligibilityEvent
	err    error
}

func (p *recordingPublisher) PublishEligibility(_ context.Context, ev events.EligibilityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Events() []events.EligibilityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.EligibilityEvent(nil), p.events...)
}

type sentEmail struct {
	To       string
	Template string
	Data     map[string]any
}

// fakeGateway fails the first Failures sends, then succeeds.
type fakeGateway struct {
	mu       sync.Mutex
	Failures int
	calls    int
	sent     []sentEmail
}

func (g *fakeGateway) Send(_ context.Context, to, templateKey string, data map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls <= g.Failures {
		return errors.New("smtp relay unavailable")
	}
	g.sent = append(g.sent, sentEmail{To: to, Template: templateKey, Data: data})
	return nil
}

func (g *fakeGateway) Sent() []sentEmail {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentEmail(nil), g.sent...)
}

func (g *fakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type env struct {
	t         *testing.T
	ctx       context.Context
	store     *memory.Store
	svc       *Services
	publisher *recordingPublisher
	gateway   *fakeGateway
	queue     *queue.InMemoryQueue
	logger    *slog.Logger
	clock     *stepClock
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := memory.New()
	logger := quietLogger()
	clock := &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	gateway := &fakeGateway{}
	publisher := &recordingPublisher{}

	q := queue.NewInMemoryQueue(logger)
	q.Backoff = time.Millisecond
	worker := NewEmailWorker(store.Deliveries, gateway, 3, logger)
	require.NoError(t, q.Subscribe(emailTopic, worker.Handle))

	svc := New(Deps{
		Tx:                store,
		Campaigns:         store.Campaigns,
		Applications:      store.Applications,
		Submissions:       store.Submissions,
		Messages:          store.Messages,
		Notifications:     store.Notifications,
		Profiles:          store.Profiles,
		Preferences:       store.Preferences,
		Outbox:            store.Deliveries,
		Queue:             q,
		EmailTopic:        emailTopic,
		Events:            publisher,
		FanoutConcurrency: 4,
		Logger:            logger,
		Clock:             clock.Now,
	})

	e := &env{
		t:         t,
		ctx:       context.Background(),
		store:     store,
		svc:       svc,
		publisher: publisher,
		gateway:   gateway,
		queue:     q,
		logger:    logger,
		clock:     clock,
	}
	for _, a := range []model.Actor{brand, rival, creatorA, creatorB} {
		e.profile(a)
	}
	return e
}

func (e *env) profile(a model.Actor) {
	e.t.Helper()
	require.NoError(e.t, e.store.Profiles.Upsert(e.ctx, &model.Profile{
		ID:          a.UserID,
		Role:        a.Role,
		Email:       a.UserID + "@example.com",
		DisplayName: "Name " + a.UserID,
	}))
}

// activeCampaign creates a campaign owned by brand with the given requirements and activates it.
func (e *env) activeCampaign(reqs ...model.ContentRequirement) *model.Campaign {
	e.t.Helper()
	c, err := e.svc.Campaigns.CreateCampaign(e.ctx, brand, CreateCampaignInput{
		Name:         "Spring Launch",
		Description:  "New sneaker line",
		BudgetType:   "fixed",
		Requirements: reqs,
	})
	require.NoError(e.t, err)
	c, err = e.svc.Campaigns.UpdateStatus(e.ctx, brand, c.ID, model.CampaignActive)
	require.NoError(e.t, err)
	return c
}

// accepted applies as the creator and has the brand accept them.
func (e *env) accepted(c *model.Campaign, creator model.Actor) *model.Application {
	e.t.Helper()
	app, err := e.svc.Applications.Apply(e.ctx, creator, c.ID, ApplyInput{Message: "pick me"})
	require.NoError(e.t, err)
	app, err = e.svc.Applications.Decide(e.ctx, brand, c.ID, app.ID, model.ApplicationAccepted)
	require.NoError(e.t, err)
	return app
}

func (e *env) notificationsOf(userID string, typ model.EventType) []model.Notification {
	var out []model.Notification
	for _, n := range e.store.Notifications.All(userID) {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func image(url string) AssetInput {
	return AssetInput{Type: model.AssetImage, URL: url}
}

func reel(qty int) model.ContentRequirement {
	return model.ContentRequirement{SocialChannel: "instagram", ContentType: "reel", Quantity: qty}
}

func story() model.ContentRequirement {
	return model.ContentRequirement{SocialChannel: "instagram", ContentType: "story"}
}
