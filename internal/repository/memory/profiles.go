package memory

import (
	"context"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

type ProfileRepo struct{ s *Store }

var _ repository.ProfileRepositoryInterface = (*ProfileRepo)(nil)

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	p, ok := d.profiles[id]
	if !ok {
		return nil, appErrors.NewNotFound("profile %s not found", id)
	}
	return &p, nil
}

func (r *ProfileRepo) Upsert(ctx context.Context, p *model.Profile) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	d.profiles[p.ID] = *p
	return nil
}

type PreferenceRepo struct{ s *Store }

var _ repository.PreferenceRepositoryInterface = (*PreferenceRepo)(nil)

func (r *PreferenceRepo) GetEmailPreferences(ctx context.Context, userID string) (map[string]bool, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpGetPreferences); err != nil {
		return nil, err
	}
	out := map[string]bool{}
	for k, v := range d.prefs[userID] {
		out[k] = v
	}
	return out, nil
}

func (r *PreferenceRepo) SetEmailPreferences(ctx context.Context, userID string, prefs map[string]bool) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	existing := d.prefs[userID]
	if existing == nil {
		existing = map[string]bool{}
		d.prefs[userID] = existing
	}
	for k, v := range prefs {
		if err := r.s.inject(OpSetPreference); err != nil {
			return err
		}
		existing[k] = v
	}
	return nil
}
