package memory

import (
	"context"
	"sort"

	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

type NotificationRepo struct{ s *Store }

var _ repository.NotificationRepositoryInterface = (*NotificationRepo)(nil)

func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpCreateNotification); err != nil {
		return err
	}
	d.notifications[n.ID] = *n
	d.stamp(n.ID)
	return nil
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	all := []model.Notification{}
	for _, n := range d.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return d.order[all[i].ID] > d.order[all[j].ID]
	})

	out := []model.Notification{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	n := 0
	for _, notif := range d.notifications {
		if notif.UserID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID string, ids []string) (int, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	n := 0
	for _, id := range ids {
		notif, ok := d.notifications[id]
		if !ok || notif.UserID != userID || notif.IsRead {
			continue
		}
		notif.IsRead = true
		d.notifications[id] = notif
		n++
	}
	return n, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	n := 0
	for id, notif := range d.notifications {
		if notif.UserID == userID && !notif.IsRead {
			notif.IsRead = true
			d.notifications[id] = notif
			n++
		}
	}
	return n, nil
}

// All returns every notification addressed to userID, oldest first.
func (r *NotificationRepo) All(userID string) []model.Notification {
	ctx := context.Background()
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	out := []model.Notification{}
	for _, n := range d.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return d.order[out[i].ID] < d.order[out[j].ID] })
	return out
}
