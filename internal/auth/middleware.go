package auth

import (
	"log/slog"
	"net/http"

	"github.com/unclebandit/collab-engine/internal/handler"
	"github.com/unclebandit/collab-engine/internal/repository"
)

// Middleware rejects unauthenticated requests and stores the identity in the request context.
// When profiles is set, the caller's profile is refreshed so fan-out can address them.
func Middleware(gate *Gate, profiles repository.ProfileRepositoryInterface, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := gate.Resolve(r)
			if err != nil {
				handler.WriteError(w, err)
				return
			}

			if profiles != nil {
				if err := profiles.Upsert(r.Context(), id.Profile()); err != nil {
					logger.Warn("failed to sync profile", "user_id", id.UserID, "error", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
		})
	}
}
