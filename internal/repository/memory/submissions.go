package memory

import (
	"context"
	"sort"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

type SubmissionRepo struct{ s *Store }

var _ repository.SubmissionRepositoryInterface = (*SubmissionRepo)(nil)

func (r *SubmissionRepo) Create(ctx context.Context, sub *model.Submission) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpCreateSubmission); err != nil {
		return err
	}
	cp := *sub
	cp.Assets = nil
	d.submissions[sub.ID] = cp
	d.stamp(sub.ID)
	return nil
}

func (r *SubmissionRepo) AddAsset(ctx context.Context, a *model.Asset) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpAddAsset); err != nil {
		return err
	}
	if _, ok := d.submissions[a.SubmissionID]; !ok {
		return appErrors.NewNotFound("submission %s not found", a.SubmissionID)
	}
	d.assets[a.SubmissionID] = append(d.assets[a.SubmissionID], *a)
	return nil
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	sub, ok := d.submissions[id]
	if !ok {
		return nil, appErrors.NewNotFound("submission %s not found", id)
	}
	sub.Assets = append([]model.Asset{}, d.assets[id]...)
	return &sub, nil
}

func (r *SubmissionRepo) UpdateReview(ctx context.Context, sub *model.Submission) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpUpdateReview); err != nil {
		return err
	}
	existing, ok := d.submissions[sub.ID]
	if !ok {
		return appErrors.NewNotFound("submission %s not found", sub.ID)
	}
	existing.Status = sub.Status
	existing.RejectionComment = sub.RejectionComment
	existing.ApprovedDate = sub.ApprovedDate
	d.submissions[sub.ID] = existing
	return nil
}

func (r *SubmissionRepo) ListByCampaign(ctx context.Context, campaignID, creatorID string) ([]model.Submission, error) {
	return r.filter(ctx, func(s model.Submission) bool {
		return s.CampaignID == campaignID && (creatorID == "" || s.CreatorID == creatorID)
	}, true, false), nil
}

func (r *SubmissionRepo) ListByCreator(ctx context.Context, creatorID string) ([]model.Submission, error) {
	return r.filter(ctx, func(s model.Submission) bool { return s.CreatorID == creatorID }, true, true), nil
}

func (r *SubmissionRepo) ListApproved(ctx context.Context, campaignID, creatorID string) ([]model.Submission, error) {
	return r.filter(ctx, func(s model.Submission) bool {
		return s.CampaignID == campaignID && s.Status == model.SubmissionApproved &&
			(creatorID == "" || s.CreatorID == creatorID)
	}, false, false), nil
}

func (r *SubmissionRepo) filter(ctx context.Context, keep func(model.Submission) bool, withAssets, newestFirst bool) []model.Submission {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	out := []model.Submission{}
	for _, sub := range d.submissions {
		if !keep(sub) {
			continue
		}
		if withAssets {
			sub.Assets = append([]model.Asset{}, d.assets[sub.ID]...)
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool {
		less := d.order[out[i].ID] < d.order[out[j].ID]
		if newestFirst {
			return !less
		}
		return less
	})
	return out
}
