package service

import (
	"sort"

	"github.com/unclebandit/collab-engine/internal/model"
)

// EventDescriptor says how an event becomes an in-app notification and an email.
type EventDescriptor struct {
	TemplateKey   string
	PreferenceKey string
	Title         string
	Message       string
}

// Email preference keys.
const (
	PrefNewApplications    = "new_applications"
	PrefApplicationUpdates = "application_updates"
	PrefContentSubmissions = "content_submissions"
	PrefContentReviews     = "content_reviews"
	PrefMessages           = "messages"
)

// Registry maps every event the engine emits to its descriptor.
var Registry = map[model.EventType]EventDescriptor{
	model.EventApplicationCreated: {
		TemplateKey:   "brand_creator_applied",
		PreferenceKey: PrefNewApplications,
		Title:         "New application",
		Message:       "{actor_name} applied to {campaign_name}.",
	},
	model.EventApplicationConfirmation: {
		TemplateKey:   "creator_application_received",
		PreferenceKey: PrefApplicationUpdates,
		Title:         "Application received",
		Message:       "Your application to {campaign_name} was sent to the brand.",
	},
	model.EventApplicationAccepted: {
		TemplateKey:   "creator_application_accepted",
		PreferenceKey: PrefApplicationUpdates,
		Title:         "Application accepted",
		Message:       "{actor_name} accepted your application to {campaign_name}.",
	},
	model.EventApplicationRejected: {
		TemplateKey:   "creator_application_rejected",
		PreferenceKey: PrefApplicationUpdates,
		Title:         "Application declined",
		Message:       "{actor_name} declined your application to {campaign_name}.",
	},
	model.EventSubmissionCreated: {
		TemplateKey:   "brand_content_submitted",
		PreferenceKey: PrefContentSubmissions,
		Title:         "New content submitted",
		Message:       "{actor_name} submitted {asset_count} asset(s) for {campaign_name}.",
	},
	model.EventSubmissionApproved: {
		TemplateKey:   "creator_content_approved",
		PreferenceKey: PrefContentReviews,
		Title:         "Content approved",
		Message:       "Your submission for {campaign_name} was approved.",
	},
	model.EventSubmissionRejected: {
		TemplateKey:   "creator_content_rejected",
		PreferenceKey: PrefContentReviews,
		Title:         "Content needs changes",
		Message:       "Your submission for {campaign_name} was rejected. {rejection_note}",
	},
	model.EventRequirementsCompleted: {
		TemplateKey:   "brand_creator_completed",
		PreferenceKey: PrefContentSubmissions,
		Title:         "Creator completed all deliverables",
		Message:       "{actor_name} has delivered everything for {campaign_name} and is ready for payment.",
	},
	model.EventMessageReceived: {
		TemplateKey:   "new_message",
		PreferenceKey: PrefMessages,
		Title:         "New message",
		Message:       "{actor_name} sent you a message on {campaign_name}: {preview}",
	},
	model.EventBroadcastReceived: {
		TemplateKey:   "new_broadcast",
		PreferenceKey: PrefMessages,
		Title:         "New announcement",
		Message:       "{actor_name} posted an update to {campaign_name}: {preview}",
	},
}

// PreferenceKeys lists every email preference a user can set.
func PreferenceKeys() []string {
	seen := map[string]bool{}
	keys := []string{}
	for _, d := range Registry {
		if !seen[d.PreferenceKey] {
			seen[d.PreferenceKey] = true
			keys = append(keys, d.PreferenceKey)
		}
	}
	sort.Strings(keys)
	return keys
}
