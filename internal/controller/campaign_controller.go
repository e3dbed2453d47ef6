// internal/controller/campaign_controller.go
package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/collab-engine/internal/handler"
	"github.com/unclebandit/collab-engine/internal/model"
	"github.com/unclebandit/collab-engine/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body service.CreateCampaignInput
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), a, body)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 20)
	brandID := r.URL.Query().Get("brand_id")
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, brandID, status)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]any{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.GetCampaignDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	details, err := c.CampaignService.GetCampaignDetailsWithStats(r.Context(), a, chi.URLParam(r, "id"))
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, details)
}

func (c *CampaignController) UpdateRequirements(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body struct {
		Requirements []model.ContentRequirement `json:"content_requirements"`
	}
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	campaign, err := c.CampaignService.UpdateRequirements(r.Context(), a, chi.URLParam(r, "id"), body.Requirements)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	a, err := actor(r)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	var body struct {
		Status model.CampaignStatus `json:"status"`
	}
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, err)
		return
	}

	campaign, err := c.CampaignService.UpdateStatus(r.Context(), a, chi.URLParam(r, "id"), body.Status)
	if err != nil {
		handler.WriteError(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, campaign)
}
