package controller

import (
	"net/http"

	"github.com/unclebandit/collab-engine/internal/handler"
	"github.com/unclebandit/collab-engine/internal/service"
)

type NotificationController struct {
	NotificationService *service.NotificationService
}

func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	page, err := c.NotificationService.ListForUser(r.Context(), a.UserID, unreadOnly,
		queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, page)
}

func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	n, err := c.NotificationService.MarkRead(r.Context(), a.UserID, body.IDs)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (c *NotificationController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	n, err := c.NotificationService.MarkAllRead(r.Context(), a.UserID)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (c *NotificationController) GetPreferences(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	prefs, err := c.NotificationService.GetEmailPreferences(r.Context(), a.UserID)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, prefs)
}

func (c *NotificationController) SetPreferences(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body map[string]bool
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	prefs, err := c.NotificationService.SetEmailPreferences(r.Context(), a.UserID, body)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, prefs)
}
