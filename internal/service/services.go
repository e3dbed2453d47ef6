package service

import (
	"log/slog"
	"time"

	"github.com/unclebandit/collab-engine/internal/access"
	"github.com/unclebandit/collab-engine/internal/events"
	"github.com/unclebandit/collab-engine/internal/queue"
	"github.com/unclebandit/collab-engine/internal/repository"
)

// Deps is everything the services need from the outside world.
type Deps struct {
	Tx            repository.Transactor
	Campaigns     repository.CampaignRepositoryInterface
	Applications  repository.ApplicationRepositoryInterface
	Submissions   repository.SubmissionRepositoryInterface
	Messages      repository.MessageRepositoryInterface
	Notifications repository.NotificationRepositoryInterface
	Profiles      repository.ProfileRepositoryInterface
	Preferences   repository.PreferenceRepositoryInterface
	Outbox        repository.EmailDeliveryRepositoryInterface

	// Queue and EmailTopic carry outbox ids to the email worker. A nil Queue disables email.
	Queue      queue.Queue
	EmailTopic string
	Events     events.Publisher

	FanoutConcurrency int
	Logger            *slog.Logger
	Clock             func() time.Time
}

type Services struct {
	Access        *access.Resolver
	Fanout        *Fanout
	Campaigns     *CampaignService
	Applications  *ApplicationService
	Submissions   *SubmissionService
	Eligibility   *EligibilityService
	Messaging     *MessagingService
	Notifications *NotificationService
}

func New(d Deps) *Services {
	if d.Events == nil {
		d.Events = events.NoopPublisher{}
	}

	resolver := &access.Resolver{Campaigns: d.Campaigns, Applications: d.Applications}
	fanout := &Fanout{
		Notifications: d.Notifications,
		Profiles:      d.Profiles,
		Preferences:   d.Preferences,
		Outbox:        d.Outbox,
		Queue:         d.Queue,
		Topic:         d.EmailTopic,
		Logger:        d.Logger,
		Clock:         d.Clock,
	}
	eligibility := &EligibilityService{
		ApplicationRepo: d.Applications,
		SubmissionRepo:  d.Submissions,
		Access:          resolver,
		Logger:          d.Logger,
	}

	return &Services{
		Access: resolver,
		Fanout: fanout,
		Campaigns: &CampaignService{
			CampaignRepo:    d.Campaigns,
			ApplicationRepo: d.Applications,
			Access:          resolver,
			Logger:          d.Logger,
			Clock:           d.Clock,
		},
		Applications: &ApplicationService{
			Tx:              d.Tx,
			CampaignRepo:    d.Campaigns,
			ApplicationRepo: d.Applications,
			Access:          resolver,
			Notifier:        fanout,
			Logger:          d.Logger,
			Clock:           d.Clock,
		},
		Submissions: &SubmissionService{
			Tx:             d.Tx,
			SubmissionRepo: d.Submissions,
			Access:         resolver,
			Eligibility:    eligibility,
			Notifier:       fanout,
			Events:         d.Events,
			Logger:         d.Logger,
			Clock:          d.Clock,
		},
		Eligibility: eligibility,
		Messaging: &MessagingService{
			MessageRepo:     d.Messages,
			ApplicationRepo: d.Applications,
			Access:          resolver,
			Notifier:        fanout,
			Concurrency:     d.FanoutConcurrency,
			Logger:          d.Logger,
			Clock:           d.Clock,
		},
		Notifications: &NotificationService{
			Tx:               d.Tx,
			NotificationRepo: d.Notifications,
			PreferenceRepo:   d.Preferences,
			Logger:           d.Logger,
		},
	}
}
