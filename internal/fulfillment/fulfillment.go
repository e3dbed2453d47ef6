// Package fulfillment decides whether a creator has delivered everything a campaign asks for.
package fulfillment

import (
	"strconv"
	"strings"
	"time"

	"github.com/unclebandit/collab-engine/internal/model"
)

// RequirementProgress is the delivery state of a single requirement.
type RequirementProgress struct {
	RequirementID string `json:"requirement_id"`
	Position      int    `json:"position"`
	Required      int    `json:"required"`
	Delivered     int    `json:"delivered"`
	LegacyMatches int    `json:"legacy_matches"`
	Satisfied     bool   `json:"satisfied"`
}

// Report is the eligibility of one creator on one campaign.
type Report struct {
	CreatorID    string                `json:"creator_id"`
	Eligible     bool                  `json:"eligible"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	Requirements []RequirementProgress `json:"requirements"`
}

// Evaluate matches approved submissions to requirements.
//
// A submission counts toward a requirement when its content type and channel
// match (case-insensitively) and its task id equals the requirement id or, for
// older rows, the requirement's 1-based position. Requirements are matched
// independently, so one submission may count toward several. Non-approved
// submissions are ignored. A campaign without requirements is never satisfied.
func Evaluate(creatorID string, reqs []model.ContentRequirement, subs []model.Submission) Report {
	report := Report{
		CreatorID:    creatorID,
		Requirements: make([]RequirementProgress, len(reqs)),
	}

	approved := make([]model.Submission, 0, len(subs))
	for _, s := range subs {
		if s.Status == model.SubmissionApproved {
			approved = append(approved, s)
		}
	}

	for i, req := range reqs {
		p := &report.Requirements[i]
		p.RequirementID = req.ID
		p.Position = i + 1
		p.Required = req.Required()

		legacyID := strconv.Itoa(i + 1)
		for _, s := range approved {
			if !sameKind(req, s) {
				continue
			}
			switch {
			case req.ID != "" && s.TaskID == req.ID:
				p.Delivered += s.Delivered()
			case s.TaskID == legacyID:
				p.Delivered += s.Delivered()
				p.LegacyMatches++
			}
		}
	}

	if len(reqs) == 0 {
		return report
	}

	report.Eligible = true
	for i := range report.Requirements {
		p := &report.Requirements[i]
		p.Satisfied = p.Delivered >= p.Required
		if !p.Satisfied {
			report.Eligible = false
		}
	}

	if report.Eligible {
		var latest time.Time
		for _, s := range approved {
			if t := s.CompletionTime(); t.After(latest) {
				latest = t
			}
		}
		if !latest.IsZero() {
			report.CompletedAt = &latest
		}
	}

	return report
}

// EvaluateAll evaluates each creator against their own approved submissions.
func EvaluateAll(reqs []model.ContentRequirement, creatorIDs []string, subs []model.Submission) []Report {
	byCreator := make(map[string][]model.Submission)
	for _, s := range subs {
		byCreator[s.CreatorID] = append(byCreator[s.CreatorID], s)
	}

	reports := make([]Report, 0, len(creatorIDs))
	for _, id := range creatorIDs {
		reports = append(reports, Evaluate(id, reqs, byCreator[id]))
	}
	return reports
}

func sameKind(req model.ContentRequirement, s model.Submission) bool {
	return strings.EqualFold(strings.TrimSpace(req.ContentType), strings.TrimSpace(s.ContentType)) &&
		strings.EqualFold(strings.TrimSpace(req.SocialChannel), strings.TrimSpace(s.SocialChannel))
}
