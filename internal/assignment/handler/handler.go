package handler

import (
	"net/http"
	"strings"

	"admissions_crm_backend/internal/assignment/service"
	"admissions_crm_backend/internal/assignment/transport"
	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// Handler handles HTTP requests for counsellor assignment.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts routes available to every authenticated counsellor.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/l3", h.AssignL3)
	rg.GET("/l3/rulesets", h.ListL3Rulesets)
	rg.GET("/l3/rulesets/:id", h.GetL3Ruleset)
}

// RegisterAdminRoutes mounts rule administration.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/l3/rulesets", h.CreateL3Ruleset)
	rg.PUT("/l3/rulesets/:id", h.UpdateL3Ruleset)
	rg.DELETE("/l3/rulesets/:id", h.DeleteL3Ruleset)
	rg.PATCH("/l3/rulesets/:id/toggle", h.ToggleL3Ruleset)

	rg.GET("/l2/rules", h.ListL2Rules)
	rg.POST("/l2/rules", h.CreateL2Rule)
	rg.PATCH("/l2/rules/:id/toggle", h.ToggleL2Rule)
	rg.DELETE("/l2/rules/:id", h.DeleteL2Rule)
	rg.POST("/l2/evaluate", h.EvaluateL2)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// AssignL3 handles POST /api/v1/assignment/l3
func (h *Handler) AssignL3(c *gin.Context) {
	var req transport.L3AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if strings.TrimSpace(req.StudentID) == "" {
		httpkit.Error(c, http.StatusBadRequest, "studentId is required", nil)
		return
	}
	studentID, err := uuid.Parse(req.StudentID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "studentId must be a valid id", nil)
		return
	}

	result, err := h.svc.AssignL3(c.Request.Context(), service.L3Input{
		StudentID:      studentID,
		CollegeName:    req.CollegeName,
		Course:         req.Course,
		Degree:         req.Degree,
		Specialization: req.Specialization,
		Level:          req.Level,
		Source:         req.Source,
		Stream:         req.Stream,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListL3Rulesets(c *gin.Context) {
	result, err := h.svc.ListL3Rulesets(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetL3Ruleset(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.GetL3Ruleset(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CreateL3Ruleset(c *gin.Context) {
	var req transport.L3RulesetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	result, err := h.svc.CreateL3Ruleset(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) UpdateL3Ruleset(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.L3RulesetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	result, err := h.svc.UpdateL3Ruleset(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) DeleteL3Ruleset(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.DeleteL3Ruleset(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ToggleL3Ruleset(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.ToggleL3Ruleset(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListL2Rules(c *gin.Context) {
	result, err := h.svc.ListL2Rules(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CreateL2Rule(c *gin.Context) {
	var req transport.L2RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	result, err := h.svc.CreateL2Rule(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) ToggleL2Rule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.ToggleL2Rule(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) DeleteL2Rule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteL2Rule(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "Rule deleted successfully"})
}

// EvaluateL2 handles POST /api/v1/admin/assignment/l2/evaluate. It scores a
// sample lead against the active rules without assigning anyone.
func (h *Handler) EvaluateL2(c *gin.Context) {
	var lead map[string]any
	if err := c.ShouldBindJSON(&lead); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	matches, err := h.svc.EvaluateL2(c.Request.Context(), service.Lead(lead))
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.L2EvaluateResponse{Matches: make([]transport.L2EvaluatedRule, 0, len(matches))}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, transport.L2EvaluatedRule{
			RuleID:       m.Rule.ID,
			RuleName:     m.Details.RuleName,
			Score:        m.Score,
			MatchDetails: m.Details,
		})
	}
	httpkit.OK(c, resp)
}
