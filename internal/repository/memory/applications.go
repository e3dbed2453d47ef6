package memory

import (
	"context"
	"sort"
	"time"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

type ApplicationRepo struct{ s *Store }

var _ repository.ApplicationRepositoryInterface = (*ApplicationRepo)(nil)

// Create enforces one application per (campaign, creator).
func (r *ApplicationRepo) Create(ctx context.Context, a *model.Application) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpCreateApplication); err != nil {
		return err
	}
	for _, existing := range d.applications {
		if existing.CampaignID == a.CampaignID && existing.CreatorID == a.CreatorID {
			return appErrors.NewConflict("creator %s already applied to campaign %s", a.CreatorID, a.CampaignID)
		}
	}
	d.applications[a.ID] = *a
	d.stamp(a.ID)
	return nil
}

func (r *ApplicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	a, ok := d.applications[id]
	if !ok {
		return nil, appErrors.NewNotFound("application %s not found", id)
	}
	return &a, nil
}

func (r *ApplicationRepo) GetByCampaignAndCreator(ctx context.Context, campaignID, creatorID string) (*model.Application, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	for _, a := range d.applications {
		if a.CampaignID == campaignID && a.CreatorID == creatorID {
			return &a, nil
		}
	}
	return nil, appErrors.NewNotFound("no application by %s on campaign %s", creatorID, campaignID)
}

func (r *ApplicationRepo) UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus, at time.Time) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	a, ok := d.applications[id]
	if !ok {
		return appErrors.NewNotFound("application %s not found", id)
	}
	a.Status = status
	a.UpdatedAt = &at
	d.applications[id] = a
	return nil
}

func (r *ApplicationRepo) ListByCampaign(ctx context.Context, campaignID string, status model.ApplicationStatus) ([]model.Application, error) {
	return r.filter(ctx, func(a model.Application) bool {
		return a.CampaignID == campaignID && (status == "" || a.Status == status)
	}, false), nil
}

func (r *ApplicationRepo) ListByCreator(ctx context.Context, creatorID string) ([]model.Application, error) {
	return r.filter(ctx, func(a model.Application) bool { return a.CreatorID == creatorID }, true), nil
}

func (r *ApplicationRepo) CountByStatus(ctx context.Context, campaignID string) (map[model.ApplicationStatus]int, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	counts := map[model.ApplicationStatus]int{}
	for _, a := range d.applications {
		if a.CampaignID == campaignID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (r *ApplicationRepo) filter(ctx context.Context, keep func(model.Application) bool, newestFirst bool) []model.Application {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	out := []model.Application{}
	for _, a := range d.applications {
		if keep(a) {
			out = append(out, a)
		}
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
