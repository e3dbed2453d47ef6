package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/collab-engine/internal/handler"
	"github.com/unclebandit/collab-engine/internal/service"
)

type MessageController struct {
	MessagingService *service.MessagingService
}

func (c *MessageController) Send(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body service.SendInput
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	msg, err := c.MessagingService.Send(r.Context(), a, chi.URLParam(r, "id"), body)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, msg)
}

// List returns the channel as the caller sees it. Viewing marks it read.
func (c *MessageController) List(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	msgs, err := c.MessagingService.List(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"data": msgs})
}
