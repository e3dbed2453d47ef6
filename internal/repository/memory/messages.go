package memory

import (
	"context"
	"sort"
	"time"

	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository"
)

type MessageRepo struct{ s *Store }

var _ repository.MessageRepositoryInterface = (*MessageRepo)(nil)

func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpCreateMessage); err != nil {
		return err
	}
	cp := *m
	cp.Attachments = append([]string(nil), m.Attachments...)
	d.messages[m.ID] = cp
	d.stamp(m.ID)
	return nil
}

func (r *MessageRepo) AddRecipient(ctx context.Context, rec model.MessageRecipient) error {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	if err := r.s.inject(OpAddRecipient); err != nil {
		return err
	}
	rows := d.recipients[rec.MessageID]
	if rows == nil {
		rows = map[string]model.MessageRecipient{}
		d.recipients[rec.MessageID] = rows
	}
	if _, ok := rows[rec.RecipientID]; ok {
		return nil
	}
	rows[rec.RecipientID] = rec
	return nil
}

func (r *MessageRepo) ListByCampaign(ctx context.Context, campaignID string) ([]model.Message, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	out := []model.Message{}
	for _, m := range d.messages {
		if m.CampaignID == campaignID {
			out = append(out, m)
		}
	}
	sortMessages(d, out)
	return out, nil
}

func (r *MessageRepo) ListVisibleTo(ctx context.Context, campaignID, userID string) ([]model.Message, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	out := []model.Message{}
	for _, m := range d.messages {
		if m.CampaignID != campaignID {
			continue
		}
		switch {
		case m.IsBroadcast:
			rec, ok := d.recipients[m.ID][userID]
			if !ok && m.SenderID != userID {
				continue
			}
			m.IsRead = ok && rec.IsRead
		case m.SenderID == userID:
		case m.RecipientID != nil && *m.RecipientID == userID:
		default:
			continue
		}
		out = append(out, m)
	}
	sortMessages(d, out)
	return out, nil
}

func (r *MessageRepo) MarkDirectRead(ctx context.Context, campaignID, recipientID string, at time.Time) (int, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	n := 0
	for id, m := range d.messages {
		if m.CampaignID != campaignID || m.IsBroadcast || m.IsRead || m.RecipientID == nil || *m.RecipientID != recipientID {
			continue
		}
		m.IsRead = true
		m.UpdatedAt = &at
		d.messages[id] = m
		n++
	}
	return n, nil
}

func (r *MessageRepo) MarkRecipientRowsRead(ctx context.Context, campaignID, recipientID string, at time.Time) (int, error) {
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	n := 0
	for msgID, rows := range d.recipients {
		if d.messages[msgID].CampaignID != campaignID {
			continue
		}
		rec, ok := rows[recipientID]
		if !ok || rec.IsRead {
			continue
		}
		rec.IsRead = true
		rec.ReadAt = &at
		rows[recipientID] = rec
		n++
	}
	return n, nil
}

// Recipients returns the broadcast rows of a message, for assertions.
func (r *MessageRepo) Recipients(messageID string) []model.MessageRecipient {
	ctx := context.Background()
	d := r.s.lock(ctx)
	defer r.s.unlock(ctx)

	out := []model.MessageRecipient{}
	for _, rec := range d.recipients[messageID] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecipientID < out[j].RecipientID })
	return out
}

func sortMessages(d *data, msgs []model.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return d.order[msgs[i].ID] < d.order[msgs[j].ID]
	})
}
