// Package memory is an in-process implementation of the repository interfaces.
// The server falls back to it when no database is configured, and service tests
// use its fault hooks to exercise partial-failure paths.
package memory

import (
	"context"
	"sync"

	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

// Operation names accepted by FailOn.
const (
	OpCreateApplication  = "applications.create"
	OpIncrementApplicant = "campaigns.increment_applicants"
	OpCreateSubmission   = "submissions.create"
	OpAddAsset           = "submissions.add_asset"
	OpUpdateReview       = "submissions.update_review"
	OpCreateMessage      = "messages.create"
	OpAddRecipient       = "messages.add_recipient"
	OpCreateNotification = "notifications.create"
	OpCreateDelivery     = "deliveries.create"
	OpUpdateDelivery     = "deliveries.update"
	OpGetPreferences     = "preferences.get"
	OpSetPreference      = "preferences.set"
)

type fault struct {
	skip int
	err  error
}

type data struct {
	seq           int64
	order         map[string]int64
	campaigns     map[string]model.Campaign
	applications  map[string]model.Application
	submissions   map[string]model.Submission
	assets        map[string][]model.Asset
	messages      map[string]model.Message
	recipients    map[string]map[string]model.MessageRecipient
	notifications map[string]model.Notification
	profiles      map[string]model.Profile
	prefs         map[string]map[string]bool
	deliveries    map[string]model.EmailDelivery
}

func newData() *data {
	return &data{
		order:         map[string]int64{},
		campaigns:     map[string]model.Campaign{},
		applications:  map[string]model.Application{},
		submissions:   map[string]model.Submission{},
		assets:        map[string][]model.Asset{},
		messages:      map[string]model.Message{},
		recipients:    map[string]map[string]model.MessageRecipient{},
		notifications: map[string]model.Notification{},
		profiles:      map[string]model.Profile{},
		prefs:         map[string]map[string]bool{},
		deliveries:    map[string]model.EmailDelivery{},
	}
}

func (d *data) clone() *data {
	c := newData()
	c.seq = d.seq
	for k, v := range d.order {
		c.order[k] = v
	}
	for k, v := range d.campaigns {
		v.Requirements = append(model.Requirements(nil), v.Requirements...)
		c.campaigns[k] = v
	}
	for k, v := range d.applications {
		c.applications[k] = v
	}
	for k, v := range d.submissions {
		c.submissions[k] = v
	}
	for k, v := range d.assets {
		c.assets[k] = append([]model.Asset(nil), v...)
	}
	for k, v := range d.messages {
		c.messages[k] = v
	}
	for k, v := range d.recipients {
		rows := make(map[string]model.MessageRecipient, len(v))
		for rk, rv := range v {
			rows[rk] = rv
		}
		c.recipients[k] = rows
	}
	for k, v := range d.notifications {
		c.notifications[k] = v
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.prefs {
		p := make(map[string]bool, len(v))
		for pk, pv := range v {
			p[pk] = pv
		}
		c.prefs[k] = p
	}
	for k, v := range d.deliveries {
		c.deliveries[k] = v
	}
	return c
}

func (d *data) stamp(id string) {
	if _, ok := d.order[id]; ok {
		return
	}
	d.seq++
	d.order[id] = d.seq
}

// Store holds all entities behind one mutex.
type Store struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	data   *data
	faults map[string]*fault

	Campaigns     *CampaignRepo
	Applications  *ApplicationRepo
	Submissions   *SubmissionRepo
	Messages      *MessageRepo
	Notifications *NotificationRepo
	Profiles      *ProfileRepo
	Preferences   *PreferenceRepo
	Deliveries    *DeliveryRepo
}

var _ repository.Transactor = (*Store)(nil)

func New() *Store {
	s := &Store{data: newData(), faults: map[string]*fault{}}
	s.Campaigns = &CampaignRepo{s: s}
	s.Applications = &ApplicationRepo{s: s}
	s.Submissions = &SubmissionRepo{s: s}
	s.Messages = &MessageRepo{s: s}
	s.Notifications = &NotificationRepo{s: s}
	s.Profiles = &ProfileRepo{s: s}
	s.Preferences = &PreferenceRepo{s: s}
	s.Deliveries = &DeliveryRepo{s: s}
	return s
}

type txKey struct{}

// WithinTx snapshots the store and restores it if fn fails.
// Outermost transactions are serialized.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// FailOn makes op return err once, after skip successful calls.
func (s *Store) FailOn(op string, skip int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{skip: skip, err: err}
}

// ClearFaults removes all injected failures.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]*fault{}
}

// inject must be called with s.mu held.
func (s *Store) inject(op string) error {
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	delete(s.faults, op)
	return f.err
}

// lock takes the data mutex. Calls outside a transaction also take txMu so a
// rollback cannot discard their writes.
func (s *Store) lock(ctx context.Context) *data {
	if ctx.Value(txKey{}) == nil {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return s.data
}

func (s *Store) unlock(ctx context.Context) {
	s.mu.Unlock()
	if ctx.Value(txKey{}) == nil {
		s.txMu.Unlock()
	}
}
