package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository/memory"
)

var brand = Identity{UserID: "brand-1", Role: model.RoleBrand, Email: "brand@example.com", DisplayName: "Acme"}

func TestIssueAndParse(t *testing.T) {
	gate := NewGate("secret")

	token, err := gate.IssueToken(brand, time.Hour)
	require.NoError(t, err)

	id, err := gate.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, brand, id)
}

func TestParseRejects(t *testing.T) {
	gate := NewGate("secret")

	expired, err := gate.IssueToken(brand, -time.Minute)
	require.NoError(t, err)

	wrongKey, err := NewGate("other").IssueToken(brand, time.Hour)
	require.NoError(t, err)

	noRole, err := gate.IssueToken(Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"wrong key": wrongKey,
		"no role":   noRole,
		"alg none":  none,
		"garbage":   "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := gate.ParseToken(token)
			assert.Equal(t, appErrors.KindUnauthorized, appErrors.KindOf(err))
		})
	}
}

func TestMiddleware(t *testing.T) {
	gate := NewGate("secret")
	store := memory.New()
	token, err := gate.IssueToken(brand, time.Hour)
	require.NoError(t, err)

	var seen Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := Middleware(gate, store.Profiles, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/me/notifications", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), `"unauthorized"`)

	req = httptest.NewRequest(http.MethodGet, "/me/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, brand, seen)

	profile, err := store.Profiles.GetByID(req.Context(), brand.UserID)
	require.NoError(t, err)
	assert.Equal(t, "brand@example.com", profile.Email)
}
