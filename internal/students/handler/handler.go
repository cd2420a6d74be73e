package handler

import (
	"net/http"

	"admissions_crm_backend/internal/students/repository"
	"admissions_crm_backend/internal/students/service"
	"admissions_crm_backend/internal/students/transport"
	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid student id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads", h.IntakeLead)
	rg.GET("", h.ListAssigned)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/remarks", h.ListRemarks)
	rg.POST("/:id/remarks", h.AddRemark)
}

// IntakeLead handles POST /api/v1/students/leads. The body is a free-form lead payload.
func (h *Handler) IntakeLead(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ProcessLead(c.Request.Context(), raw)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.LeadIntakeResponse{
		Success:            true,
		Student:            toStudentResponse(result.Student),
		LeadActivity:       toActivityResponse(result.LeadActivity),
		AssignedCounsellor: result.AssignedCounsellor,
		StudentStatus:      result.StudentStatus,
	}
	if result.Transcript.TotalMessages > 0 {
		resp.Transcript = result.Transcript
	}
	status := http.StatusOK
	if result.StudentStatus == service.StatusCreated {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, resp)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	student, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toStudentResponse(student))
}

// ListAssigned returns the caller's students.
func (h *Handler) ListAssigned(c *gin.Context) {
	var req transport.ListStudentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Limit == 0 {
		req.Limit = 10
	}

	identity := httpkit.MustGetIdentity(c)
	items, total, err := h.svc.ListAssigned(c.Request.Context(), identity.CounsellorID(), req.Page, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.StudentResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toStudentResponse(s))
	}
	httpkit.OK(c, transport.StudentListResponse{
		Items:      out,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: (total + req.Limit - 1) / req.Limit,
	})
}

func (h *Handler) AddRemark(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.CreateRemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	remark, err := h.svc.AddRemark(c.Request.Context(), id, identity.CounsellorID(), req.Remark)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toRemarkResponse(remark))
}

func (h *Handler) ListRemarks(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	remarks, err := h.svc.ListRemarks(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.RemarkResponse, 0, len(remarks))
	for _, r := range remarks {
		out = append(out, toRemarkResponse(r))
	}
	httpkit.OK(c, out)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func toStudentResponse(s repository.Student) transport.StudentResponse {
	return transport.StudentResponse{
		ID:                      s.ID,
		Name:                    s.Name,
		Email:                   s.Email,
		Phone:                   s.Phone,
		ParentsNumber:           s.ParentsNumber,
		WhatsApp:                s.WhatsApp,
		AssignedCounsellorID:    s.AssignedCounsellorID,
		AssignedCounsellorL3ID:  s.AssignedCounsellorL3ID,
		Mode:                    s.Mode,
		PreferredStream:         s.PreferredStream,
		PreferredBudget:         s.PreferredBudget,
		PreferredDegree:         s.PreferredDegree,
		PreferredLevel:          s.PreferredLevel,
		PreferredSpecialization: s.PreferredSpecialization,
		PreferredCity:           s.PreferredCity,
		PreferredState:          s.PreferredState,
		PreferredUniversity:     s.PreferredUniversity,
		Source:                  s.Source,
		FirstSourceURL:          s.FirstSourceURL,
		UTMCampaign:             s.UTMCampaign,
		UTMSource:               s.UTMSource,
		UTMMedium:               s.UTMMedium,
		CurrentProfession:       s.CurrentProfession,
		IsTransfered:            s.IsTransfered,
		IsReactivity:            s.IsReactivity,
		FirstFormFilledDate:     s.FirstFormFilledDate,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}
}

func toActivityResponse(a repository.LeadActivity) transport.LeadActivityResponse {
	return transport.LeadActivityResponse{
		ID:          a.ID,
		StudentID:   a.StudentID,
		Source:      a.Source,
		UTMCampaign: a.UTMCampaign,
		SourceURL:   a.SourceURL,
		Payload:     a.Payload,
		CreatedAt:   a.CreatedAt,
	}
}

func toRemarkResponse(r repository.Remark) transport.RemarkResponse {
	return transport.RemarkResponse{
		ID:           r.ID,
		StudentID:    r.StudentID,
		CounsellorID: r.CounsellorID,
		Remark:       r.Remark,
		CreatedAt:    r.CreatedAt,
	}
}
