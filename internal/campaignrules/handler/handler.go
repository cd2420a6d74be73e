package handler

import (
	"net/http"
	"time"

	"admissions_crm_backend/internal/campaignrules/repository"
	"admissions_crm_backend/internal/campaignrules/service"
	"admissions_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type saveRequest struct {
	CampaignIDs []string `json:"campaign_id"`
}

type rulesetResponse struct {
	CampaignIDs []string                  `json:"campaign_id"`
	CreatedBy   *string                   `json:"createdBy"`
	History     []repository.HistoryEntry `json:"history"`
	CreatedAt   string                    `json:"created_at"`
	UpdatedAt   string                    `json:"updated_at"`
}

func (h *Handler) Get(c *gin.Context) {
	rs, err := h.svc.Get(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(rs))
}

func (h *Handler) Save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "campaign_id must be an array of strings", nil)
		return
	}
	rs, err := h.svc.Save(c.Request.Context(), req.CampaignIDs, httpkit.MustGetIdentity(c).CounsellorID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "Ruleset saved successfully", "ruleset": toResponse(rs)})
}

func toResponse(rs repository.Ruleset) rulesetResponse {
	history := rs.History
	if history == nil {
		history = []repository.HistoryEntry{}
	}
	return rulesetResponse{
		CampaignIDs: rs.CampaignIDs,
		CreatedBy:   rs.CreatedBy,
		History:     history,
		CreatedAt:   rs.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   rs.UpdatedAt.Format(time.RFC3339),
	}
}
