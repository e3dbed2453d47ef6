package fulfillment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/collab-engine/internal/model"
)

var reel = model.ContentRequirement{ID: "r1", ContentType: "Reel", SocialChannel: "Instagram", Quantity: 2}

func approved(taskID, contentType, channel string, qty int, at time.Time) model.Submission {
	return model.Submission{
		CreatorID:     "c1",
		TaskID:        taskID,
		ContentType:   contentType,
		SocialChannel: channel,
		Quantity:      qty,
		Status:        model.SubmissionApproved,
		SubmittedDate: at.Add(-time.Hour),
		ApprovedDate:  &at,
	}
}

func TestEvaluate(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	tests := []struct {
		name     string
		reqs     []model.ContentRequirement
		subs     []model.Submission
		eligible bool
	}{
		{
			name:     "two matching by id",
			reqs:     []model.ContentRequirement{reel},
			subs:     []model.Submission{approved("r1", "reel", "instagram", 1, t1), approved("r1", "REEL", "INSTAGRAM", 1, t2)},
			eligible: true,
		},
		{
			name:     "two matching by legacy position",
			reqs:     []model.ContentRequirement{reel},
			subs:     []model.Submission{approved("1", "reel", "instagram", 1, t1), approved("1", "reel", "instagram", 1, t2)},
			eligible: true,
		},
		{
			name:     "mixed id and legacy",
			reqs:     []model.ContentRequirement{reel},
			subs:     []model.Submission{approved("r1", "reel", "instagram", 1, t1), approved("1", "reel", "instagram", 1, t2)},
			eligible: true,
		},
		{
			name:     "one submission is short",
			reqs:     []model.ContentRequirement{reel},
			subs:     []model.Submission{approved("r1", "reel", "instagram", 1, t1)},
			eligible: false,
		},
		{
			name:     "quantity on a single submission",
			reqs:     []model.ContentRequirement{reel},
			subs:     []model.Submission{approved("r1", "reel", "instagram", 2, t1)},
			eligible: true,
		},
		{
			name:     "wrong channel does not count",
			reqs:     []model.ContentRequirement{reel},
			subs:     []model.Submission{approved("r1", "reel", "tiktok", 1, t1), approved("r1", "reel", "instagram", 1, t2)},
			eligible: false,
		},
		{
			name:     "wrong content type does not count",
			reqs:     []model.ContentRequirement{reel},
			subs:     []model.Submission{approved("r1", "story", "instagram", 5, t1)},
			eligible: false,
		},
		{
			name: "pending submissions are ignored",
			reqs: []model.ContentRequirement{reel},
			subs: []model.Submission{
				approved("r1", "reel", "instagram", 1, t1),
				{TaskID: "r1", ContentType: "reel", SocialChannel: "instagram", Quantity: 1, Status: model.SubmissionPending},
			},
			eligible: false,
		},
		{
			name: "every requirement must be met",
			reqs: []model.ContentRequirement{reel, {ID: "r2", ContentType: "Post", SocialChannel: "TikTok"}},
			subs: []model.Submission{
				approved("r1", "reel", "instagram", 2, t1),
			},
			eligible: false,
		},
		{
			name: "missing quantity defaults to one",
			reqs: []model.ContentRequirement{{ID: "r2", ContentType: "Post", SocialChannel: "TikTok"}},
			subs: []model.Submission{
				approved("r2", "post", "tiktok", 0, t1),
			},
			eligible: true,
		},
		{
			name:     "empty requirements never qualify",
			reqs:     nil,
			subs:     []model.Submission{approved("r1", "reel", "instagram", 10, t1)},
			eligible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Evaluate("c1", tt.reqs, tt.subs)
			assert.Equal(t, tt.eligible, report.Eligible)
			if !tt.eligible {
				assert.Nil(t, report.CompletedAt)
			}
		})
	}
}

func TestEvaluateCompletedAtIsLatestApproval(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)

	report := Evaluate("c1", []model.ContentRequirement{reel}, []model.Submission{
		approved("r1", "reel", "instagram", 1, t2),
		approved("r1", "reel", "instagram", 1, t1),
	})

	require.True(t, report.Eligible)
	require.NotNil(t, report.CompletedAt)
	assert.Equal(t, t2, *report.CompletedAt)
}

func TestEvaluateCompletedAtFallsBackToSubmittedDate(t *testing.T) {
	submitted := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	sub := model.Submission{
		TaskID: "r1", ContentType: "reel", SocialChannel: "instagram", Quantity: 2,
		Status: model.SubmissionApproved, SubmittedDate: submitted,
	}

	report := Evaluate("c1", []model.ContentRequirement{reel}, []model.Submission{sub})

	require.True(t, report.Eligible)
	assert.Equal(t, submitted, *report.CompletedAt)
}

func TestEvaluateMatchesRequirementsIndependently(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// "2" is the id of the first requirement and also the legacy position of the second.
	reqs := []model.ContentRequirement{
		{ID: "2", ContentType: "reel", SocialChannel: "instagram", Quantity: 1},
		{ID: "b", ContentType: "reel", SocialChannel: "instagram", Quantity: 1},
	}

	report := Evaluate("c1", reqs, []model.Submission{approved("2", "reel", "instagram", 1, t1)})

	assert.True(t, report.Eligible)
	assert.Equal(t, 1, report.Requirements[0].Delivered)
	assert.Equal(t, 0, report.Requirements[0].LegacyMatches)
	assert.Equal(t, 1, report.Requirements[1].Delivered)
	assert.Equal(t, 1, report.Requirements[1].LegacyMatches)
}

func TestEvaluateReportsLegacyMatches(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	report := Evaluate("c1", []model.ContentRequirement{reel}, []model.Submission{
		approved("r1", "reel", "instagram", 1, t1),
		approved("1", "reel", "instagram", 1, t1),
	})

	require.Len(t, report.Requirements, 1)
	p := report.Requirements[0]
	assert.Equal(t, "r1", p.RequirementID)
	assert.Equal(t, 1, p.Position)
	assert.Equal(t, 2, p.Required)
	assert.Equal(t, 2, p.Delivered)
	assert.Equal(t, 1, p.LegacyMatches)
	assert.True(t, p.Satisfied)
}

func TestEvaluateAllKeepsCreatorsApart(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := approved("r1", "reel", "instagram", 2, t1)
	a.CreatorID = "alice"
	b := approved("r1", "reel", "instagram", 1, t1)
	b.CreatorID = "bob"

	reports := EvaluateAll([]model.ContentRequirement{reel}, []string{"alice", "bob", "carol"}, []model.Submission{a, b})

	require.Len(t, reports, 3)
	assert.True(t, reports[0].Eligible)
	assert.False(t, reports[1].Eligible)
	assert.False(t, reports[2].Eligible)
	assert.Equal(t, "carol", reports[2].CreatorID)
}
