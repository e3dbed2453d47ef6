package auth

import (
	"context"

	"github.com/unclebandit/collab-engine/internal/model"
)

// Identity is what the gate knows about the caller.
type Identity struct {
	UserID      string     `json:"user_id"`
	Role        model.Role `json:"role"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
}

func (i Identity) Actor() model.Actor {
	return model.Actor{UserID: i.UserID, Role: i.Role}
}

func (i Identity) Profile() *model.Profile {
	return &model.Profile{ID: i.UserID, Role: i.Role, Email: i.Email, DisplayName: i.DisplayName}
}

type identityKey struct{}

func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
