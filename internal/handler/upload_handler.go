package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/unclebandit/collab-engine/internal/access"
	appErrors "github.com/unclebandit/collab-engine/internal/errors"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/storage"
)

const defaultMaxUpload = 50 << 20

// UploadHandler stores one multipart file for a campaign participant and returns its URL.
type UploadHandler struct {
	Store  storage.ObjectStore
	Access *access.Resolver
	// Actor extracts the authenticated caller from the request.
	Actor    func(r *http.Request) (model.Actor, bool)
	MaxBytes int64
	Logger   *slog.Logger
}

type UploadResult struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		WriteError(w, appErrors.NewUnauthorized("authentication required"))
		return
	}

	limit := h.MaxBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		WriteError(w, appErrors.NewInvalidInput("invalid multipart upload: %v", err))
		return
	}

	campaignID := strings.TrimSpace(r.FormValue("campaign_id"))
	if campaignID == "" {
		WriteError(w, appErrors.NewInvalidInput("campaign_id is required"))
		return
	}
	grant, err := h.Access.Resolve(r.Context(), actor, campaignID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := grant.Require(access.ChannelParticipant); err != nil {
		WriteError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, appErrors.NewInvalidInput("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, appErrors.NewInvalidInput("could not read upload: %v", err))
		return
	}
	if len(data) == 0 {
		WriteError(w, appErrors.NewInvalidInput("file is empty"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	objectPath := storage.AssetPath(campaignID, actor.UserID, uuid.NewString(), header.Filename)
	url, err := h.Store.Upload(r.Context(), data, contentType, objectPath)
	if err != nil {
		WriteError(w, appErrors.Internal("upload object", err))
		return
	}

	if h.Logger != nil {
		h.Logger.Info("file uploaded", "campaign_id", campaignID, "user_id", actor.UserID, "path", objectPath, "size", len(data))
	}
	WriteJSON(w, http.StatusCreated, UploadResult{URL: url, Path: objectPath, ContentType: contentType, Size: len(data)})
}
