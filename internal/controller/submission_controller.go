package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/collab-engine/internal/handler"
	"github.com/unclebandit/collab-engine/internal/service"
)

type SubmissionController struct {
	SubmissionService  *service.SubmissionService
	EligibilityService *service.EligibilityService
}

func (c *SubmissionController) Submit(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body service.SubmitInput
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	sub, err := c.SubmissionService.Submit(r.Context(), a, chi.URLParam(r, "id"), body)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, sub)
}

func (c *SubmissionController) Review(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body service.ReviewInput
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	result, err := c.SubmissionService.Review(r.Context(), a, chi.URLParam(r, "id"), body)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, result)
}

func (c *SubmissionController) ListForCampaign(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	subs, err := c.SubmissionService.ListForCampaign(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"data": subs})
}

func (c *SubmissionController) ListMine(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	subs, err := c.SubmissionService.ListForCreator(r.Context(), a)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"data": subs})
}

// Eligibility reports payment eligibility for the campaign's accepted creators.
func (c *SubmissionController) Eligibility(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	reports, err := c.EligibilityService.EvaluateEligibility(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"data": reports})
}
