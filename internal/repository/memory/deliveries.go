package memory

import (
	"context"
	"sort"
	"time"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

type DeliveryRepo struct{ s *Store }

var _ repository.EmailDeliveryRepositoryInterface = (*DeliveryRepo)(nil)

func (r *DeliveryRepo) Create(ctx context.Context, del *model.EmailDelivery) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpCreateDelivery); err != nil {
		return err
	}
	now := time.Now().UTC()
	del.CreatedAt = now
	del.UpdatedAt = now
	d.deliveries[del.ID] = *del
	d.stamp(del.ID)
	return nil
}

func (r *DeliveryRepo) GetByID(ctx context.Context, id string) (*model.EmailDelivery, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	del, ok := d.deliveries[id]
	if !ok {
		return nil, appErrors.NewNotFound("email delivery %s not found", id)
	}
	return &del, nil
}

func (r *DeliveryRepo) Update(ctx context.Context, del *model.EmailDelivery) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpUpdateDelivery); err != nil {
		return err
	}
	if _, ok := d.deliveries[del.ID]; !ok {
		return appErrors.NewNotFound("email delivery %s not found", del.ID)
	}
	del.UpdatedAt = time.Now().UTC()
	d.deliveries[del.ID] = *del
	return nil
}

// All returns every outbox row, oldest first.
func (r *DeliveryRepo) All() []model.EmailDelivery {
	ctx := context.Background()
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	out := []model.EmailDelivery{}
	for _, del := range d.deliveries {
		out = append(out, del)
	}
	sort.Slice(out, func(i, j int) bool { return d.order[out[i].ID] < d.order[out[j].ID] })
	return out
}
