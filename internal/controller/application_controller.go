package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/collab-engine/internal/handler"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/service"
)

type ApplicationController struct {
	ApplicationService *service.ApplicationService
}

func (c *ApplicationController) Apply(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body service.ApplyInput
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	app, err := c.ApplicationService.Apply(r.Context(), a, chi.URLParam(r, "id"), body)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, app)
}

func (c *ApplicationController) Decide(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body struct {
		Decision model.ApplicationStatus `json:"decision"`
	}
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	app, err := c.ApplicationService.Decide(r.Context(), a, chi.URLParam(r, "id"), chi.URLParam(r, "applicationID"), body.Decision)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, app)
}

func (c *ApplicationController) ListForCampaign(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	status := model.ApplicationStatus(r.URL.Query().Get("status"))
	apps, err := c.ApplicationService.ListForCampaign(r.Context(), a, chi.URLParam(r, "id"), status)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"data": apps})
}

func (c *ApplicationController) ListMine(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	apps, err := c.ApplicationService.ListForCreator(r.Context(), a)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"data": apps})
}
