package controller

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/collab-engine/internal/access"
	"github.com/unclebandit/collab-engine/internal/auth"
	"github.com/unclebandit/collab-engine/internal/handler"
	"github.com/unclebandit/collab-engine/internal/middleware"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
	"github.com/unclebandit/collab-engine/internal/service"
	"github.com/unclebandit/collab-engine/internal/storage"
)

type RouterDeps struct {
	Services *service.Services
	Gate     *auth.Gate
	Profiles repository.ProfileRepositoryInterface
	Storage  storage.ObjectStore
	// DB backs /readyz; nil skips the ping.
	DB      handler.Pinger
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewRouter wires every endpoint behind the shared middleware stack.
func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	campaigns := &CampaignController{CampaignService: d.Services.Campaigns}
	applications := &ApplicationController{ApplicationService: d.Services.Applications}
	submissions := &SubmissionController{
		SubmissionService:  d.Services.Submissions,
		EligibilityService: d.Services.Eligibility,
	}
	messages := &MessageController{MessagingService: d.Services.Messaging}
	notifications := &NotificationController{NotificationService: d.Services.Notifications}
	health := &handler.HealthHandler{DB: d.DB}
	uploads := &handler.UploadHandler{
		Store:  d.Storage,
		Access: d.Services.Access,
		Actor: func(r *http.Request) (model.Actor, bool) {
			id, ok := auth.FromContext(r.Context())
			return id.Actor(), ok
		},
		Logger: logger.With("component", "uploads"),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.RequestLogger(logger))

	r.Get("/healthz", health.Live)
	r.Get("/readyz", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))
		r.Use(auth.Middleware(d.Gate, d.Profiles, logger))
		r.Use(grantCache)

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", campaigns.CreateCampaign)
			r.Get("/", campaigns.ListCampaigns)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", campaigns.GetCampaignDetails)
				r.Get("/stats", campaigns.GetCampaignStats)
				r.Put("/requirements", campaigns.UpdateRequirements)
				r.Post("/status", campaigns.UpdateStatus)

				r.Post("/applications", applications.Apply)
				r.Get("/applications", applications.ListForCampaign)
				r.Post("/applications/{applicationID}/decision", applications.Decide)

				r.Post("/submissions", submissions.Submit)
				r.Get("/submissions", submissions.ListForCampaign)
				r.Get("/eligibility", submissions.Eligibility)

				r.Post("/messages", messages.Send)
				r.Get("/messages", messages.List)
			})
		})

		r.Post("/submissions/{id}/review", submissions.Review)

		r.Route("/me", func(r chi.Router) {
			r.Get("/applications", applications.ListMine)
			r.Get("/submissions", submissions.ListMine)
			r.Get("/notifications", notifications.List)
			r.Post("/notifications/read", notifications.MarkRead)
			r.Post("/notifications/read-all", notifications.MarkAllRead)
			r.Get("/email-preferences", notifications.GetPreferences)
			r.Put("/email-preferences", notifications.SetPreferences)
		})

		r.Post("/uploads", uploads.Upload)
	})

	return r
}

// grantCache scopes capability lookups to one request.
func grantCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(access.WithCache(r.Context())))
	})
}
