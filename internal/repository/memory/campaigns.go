package memory

import (
	"context"
	"sort"
	"time"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

type CampaignRepo struct{ s *Store }

var _ repository.CampaignRepositoryInterface = (*CampaignRepo)(nil)

func (r *CampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if _, ok := d.campaigns[c.ID]; ok {
		return appErrors.NewConflict("campaign %s already exists", c.ID)
	}
	cp := *c
	cp.Requirements = append(model.Requirements(nil), c.Requirements...)
	d.campaigns[c.ID] = cp
	d.stamp(c.ID)
	return nil
}

func (r *CampaignRepo) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	c, ok := d.campaigns[id]
	if !ok {
		return nil, appErrors.NewNotFound("campaign %s not found", id)
	}
	c.Requirements = append(model.Requirements(nil), c.Requirements...)
	return &c, nil
}

func (r *CampaignRepo) ListCampaigns(ctx context.Context, offset, limit int, brandID, status string) ([]*model.Campaign, int, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	matched := []model.Campaign{}
	for _, c := range d.campaigns {
		if brandID != "" && c.BrandID != brandID {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return d.order[matched[i].ID] > d.order[matched[j].ID]
	})

	total := len(matched)
	page := []*model.Campaign{}
	for i := offset; i < total && i < offset+limit; i++ {
		c := matched[i]
		page = append(page, &c)
	}
	return page, total, nil
}

func (r *CampaignRepo) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	return r.update(ctx, id, func(c *model.Campaign) { c.Status = status })
}

func (r *CampaignRepo) UpdateRequirements(ctx context.Context, id string, reqs model.Requirements) error {
	return r.update(ctx, id, func(c *model.Campaign) {
		c.Requirements = append(model.Requirements(nil), reqs...)
	})
}

func (r *CampaignRepo) IncrementApplicantCount(ctx context.Context, id string) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpIncrementApplicant); err != nil {
		return err
	}
	c, ok := d.campaigns[id]
	if !ok {
		return appErrors.NewNotFound("campaign %s not found", id)
	}
	c.ApplicantCount++
	d.campaigns[id] = c
	return nil
}

func (r *CampaignRepo) update(ctx context.Context, id string, fn func(c *model.Campaign)) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	c, ok := d.campaigns[id]
	if !ok {
		return appErrors.NewNotFound("campaign %s not found", id)
	}
	fn(&c)
	now := time.Now().UTC()
	c.UpdatedAt = &now
	d.campaigns[id] = c
	return nil
}
