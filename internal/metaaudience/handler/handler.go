package handler

import (
	"net/http"

	"admissions_crm_backend/internal/metaaudience/repository"
	"admissions_crm_backend/internal/metaaudience/service"
	"admissions_crm_backend/internal/metaaudience/transport"
	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/:id/students", h.AddStudents)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateAudienceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	a, err := h.svc.Create(c.Request.Context(), req.Name, httpkit.MustGetIdentity(c).CounsellorID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toResponse(a))
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.AudienceResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toResponse(a))
	}
	httpkit.OK(c, out)
}

// AddStudents handles POST /api/v1/meta/audiences/:id/students where :id is our audience id.
func (h *Handler) AddStudents(c *gin.Context) {
	audienceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid audience id", nil)
		return
	}
	var req transport.AddStudentsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ids := make([]uuid.UUID, 0, len(req.StudentIDs))
	for _, raw := range req.StudentIDs {
		ids = append(ids, uuid.MustParse(raw))
	}
	res, err := h.svc.AddStudents(c.Request.Context(), audienceID, ids)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, res)
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func toResponse(a repository.Audience) transport.AudienceResponse {
	return transport.AudienceResponse{
		ID:             a.ID.String(),
		Name:           a.Name,
		MetaAudienceID: a.MetaAudienceID,
		CreatedBy:      a.CreatedBy,
		CreatedAt:      a.CreatedAt,
	}
}
