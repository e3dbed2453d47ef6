package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/collab-engine/internal/auth"
	"github.com/unclebandit/collab-engine/internal/controller"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/repository/memory"
	"github.com/unclebandit/collab-engine/internal/service"
	"github.com/unclebandit/collab-engine/internal/storage"
)

var (
	brandID   = auth.Identity{UserID: "brand-1", Role: model.RoleBrand, Email: "brand@example.com", DisplayName: "Acme"}
	creatorID = auth.Identity{UserID: "creator-1", Role: model.RoleCreator, Email: "ada@example.com", DisplayName: "Ada"}
	otherID   = auth.Identity{UserID: "creator-2", Role: model.RoleCreator, Email: "bo@example.com", DisplayName: "Bo"}
)

type api struct {
	t      *testing.T
	server *httptest.Server
	gate   *auth.Gate
	store  *memory.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	gate := auth.NewGate("test-secret")

	svc := service.New(service.Deps{
		Tx:                store,
		Campaigns:         store.Campaigns,
		Applications:      store.Applications,
		Submissions:       store.Submissions,
		Messages:          store.Messages,
		Notifications:     store.Notifications,
		Profiles:          store.Profiles,
		Preferences:       store.Preferences,
		FanoutConcurrency: 2,
		Logger:            logger,
	})

	router := controller.NewRouter(controller.RouterDeps{
		Services: svc,
		Gate:     gate,
		Profiles: store.Profiles,
		Storage:  storage.NewMemoryStore("assets"),
		Logger:   logger,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &api{t: t, server: server, gate: gate, store: store}
}

func (a *api) do(who *auth.Identity, method, path string, body any) (int, map[string]any) {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if who != nil {
		token, err := a.gate.IssueToken(*who, time.Hour)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.send(req)
}

func (a *api) send(req *http.Request) (int, map[string]any) {
	a.t.Helper()
	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func list(body map[string]any, key string) []any {
	items, _ := body[key].([]any)
	return items
}

func TestCollaborationOverHTTP(t *testing.T) {
	a := newAPI(t)

	status, campaign := a.do(&brandID, http.MethodPost, "/campaigns", map[string]any{
		"name": "Spring Launch",
		"content_requirements": []map[string]any{
			{"social_channel": "instagram", "content_type": "reel", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, status, campaign)
	campaignID := campaign["id"].(string)
	reqID := campaign["content_requirements"].([]any)[0].(map[string]any)["id"].(string)

	status, _ = a.do(&brandID, http.MethodPost, "/campaigns/"+campaignID+"/status", map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, status)

	status, app := a.do(&creatorID, http.MethodPost, "/campaigns/"+campaignID+"/applications", map[string]any{"message": "hello"})
	require.Equal(t, http.StatusCreated, status, app)
	assert.Equal(t, "pending", app["status"])

	status, body := a.do(&creatorID, http.MethodPost, "/campaigns/"+campaignID+"/applications", map[string]any{})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body["error"])

	status, body = a.do(&creatorID, http.MethodPost, "/campaigns/"+campaignID+"/submissions", map[string]any{
		"requirement_id": reqID, "assets": []map[string]any{{"type": "video", "url": "https://cdn/v.mp4"}},
	})
	assert.Equal(t, http.StatusForbidden, status, body)

	status, body = a.do(&creatorID, http.MethodPost, "/campaigns/"+campaignID+"/applications/"+app["id"].(string)+"/decision", map[string]any{"decision": "accepted"})
	assert.Equal(t, http.StatusForbidden, status, body)

	status, body = a.do(&brandID, http.MethodPost, "/campaigns/"+campaignID+"/applications/"+app["id"].(string)+"/decision", map[string]any{"decision": "accepted"})
	require.Equal(t, http.StatusOK, status, body)

	status, sub := a.do(&creatorID, http.MethodPost, "/campaigns/"+campaignID+"/submissions", map[string]any{
		"requirement_id": reqID, "content_type": "reel", "social_channel": "instagram",
		"assets": []map[string]any{{"type": "video", "url": "https://cdn/v.mp4"}},
	})
	require.Equal(t, http.StatusCreated, status, sub)

	status, review := a.do(&brandID, http.MethodPost, "/submissions/"+sub["id"].(string)+"/review", map[string]any{"decision": "approved"})
	require.Equal(t, http.StatusOK, status, review)
	assert.Equal(t, true, review["eligibility"].(map[string]any)["eligible"])

	status, elig := a.do(&brandID, http.MethodGet, "/campaigns/"+campaignID+"/eligibility", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list(elig, "data"), 1)

	status, stats := a.do(&brandID, http.MethodGet, "/campaigns/"+campaignID+"/stats", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), stats["stats"].(map[string]any)["accepted"])

	status, inbox := a.do(&brandID, http.MethodGet, "/me/notifications?unread_only=true", nil)
	require.Equal(t, http.StatusOK, status)
	var types []string
	for _, n := range list(inbox, "items") {
		types = append(types, n.(map[string]any)["type"].(string))
	}
	assert.ElementsMatch(t, []string{"application_created", "submission_created", "requirements_completed"}, types)

	status, body = a.do(&brandID, http.MethodPost, "/me/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), body["updated"])
}

func TestMessagingOverHTTP(t *testing.T) {
	a := newAPI(t)

	_, campaign := a.do(&brandID, http.MethodPost, "/campaigns", map[string]any{"name": "Chat"})
	campaignID := campaign["id"].(string)
	a.do(&brandID, http.MethodPost, "/campaigns/"+campaignID+"/status", map[string]any{"status": "active"})
	_, app := a.do(&creatorID, http.MethodPost, "/campaigns/"+campaignID+"/applications", map[string]any{})
	a.do(&brandID, http.MethodPost, "/campaigns/"+campaignID+"/applications/"+app["id"].(string)+"/decision", map[string]any{"decision": "accepted"})

	status, body := a.do(&creatorID, http.MethodPost, "/campaigns/"+campaignID+"/messages", map[string]any{"body": "hi all", "is_broadcast": true})
	assert.Equal(t, http.StatusForbidden, status, body)

	status, msg := a.do(&creatorID, http.MethodPost, "/campaigns/"+campaignID+"/messages", map[string]any{"body": "hello brand"})
	require.Equal(t, http.StatusCreated, status, msg)
	assert.Equal(t, brandID.UserID, msg["recipient_id"])

	status, _ = a.do(&brandID, http.MethodPost, "/campaigns/"+campaignID+"/messages", map[string]any{"body": "welcome", "is_broadcast": true})
	require.Equal(t, http.StatusCreated, status)

	status, body = a.do(&otherID, http.MethodGet, "/campaigns/"+campaignID+"/messages", nil)
	assert.Equal(t, http.StatusForbidden, status, body)

	status, body = a.do(&creatorID, http.MethodGet, "/campaigns/"+campaignID+"/messages", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list(body, "data"), 2)

	status, body = a.do(&brandID, http.MethodGet, "/campaigns/"+campaignID+"/messages", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list(body, "data"), 2)
}

func TestPreferencesOverHTTP(t *testing.T) {
	a := newAPI(t)

	status, prefs := a.do(&creatorID, http.MethodPut, "/me/email-preferences", map[string]bool{"messages": false})
	require.Equal(t, http.StatusOK, status, prefs)
	assert.Equal(t, false, prefs["messages"])
	assert.Equal(t, true, prefs["content_reviews"])

	status, body := a.do(&creatorID, http.MethodPut, "/me/email-preferences", map[string]bool{"newsletter": true})
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, prefs = a.do(&creatorID, http.MethodGet, "/me/email-preferences", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, prefs["messages"])
}

func TestAuthAndErrors(t *testing.T) {
	a := newAPI(t)

	status, body := a.do(nil, http.MethodGet, "/campaigns", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])

	status, body = a.do(&brandID, http.MethodGet, "/campaigns/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])

	status, body = a.do(&brandID, http.MethodPost, "/campaigns", map[string]any{"name": "x", "unknown": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", body["error"])

	status, body = a.do(&creatorID, http.MethodPost, "/campaigns", map[string]any{"name": "mine"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = a.do(&brandID, http.MethodGet, "/campaigns?page=1&page_size=5", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(5), body["pagination"].(map[string]any)["page_size"])

	status, _ = a.do(nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = a.do(nil, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUploadOverHTTP(t *testing.T) {
	a := newAPI(t)
	_, campaign := a.do(&brandID, http.MethodPost, "/campaigns", map[string]any{"name": "Assets"})
	campaignID := campaign["id"].(string)

	upload := func(who auth.Identity, campaign string) (int, map[string]any) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("campaign_id", campaign))
		fw, err := mw.CreateFormFile("file", "../brief.txt")
		require.NoError(t, err)
		_, err = fw.Write([]byte("shoot at golden hour"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, err := http.NewRequest(http.MethodPost, a.server.URL+"/uploads", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		token, err := a.gate.IssueToken(who, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		return a.send(req)
	}

	status, body := upload(brandID, campaignID)
	require.Equal(t, http.StatusCreated, status, body)
	path := body["path"].(string)
	assert.True(t, strings.HasPrefix(path, "campaigns/"+campaignID+"/"+brandID.UserID+"/"))
	assert.True(t, strings.HasSuffix(path, "-brief.txt"))
	assert.True(t, strings.HasPrefix(body["url"].(string), "memory://assets/"))

	status, _ = upload(creatorID, campaignID)
	assert.Equal(t, http.StatusForbidden, status)
}
