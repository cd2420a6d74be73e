package handler

import (
	"net/http"

	"admissions_crm_backend/internal/payments/repository"
	"admissions_crm_backend/internal/payments/service"
	"admissions_crm_backend/internal/payments/transport"
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
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/reports", h.Reports)
	rg.GET("/student/:id", h.ListByStudent)
	rg.GET("/student-details/:id", h.StudentDetails)
	rg.PUT("/:id/status", h.UpdateStatus)
	rg.POST("/:id/receipt", h.ReceiptUploadURL)
	rg.GET("/:id/receipt", h.ReceiptDownloadURL)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		SnapshotID:  req.SnapshotID,
		Email:       req.Email,
		Phone:       req.Phone,
		CollegeName: req.CollegeName,
		CourseName:  req.CourseName,
		Amount:      req.Amount,
		FinalAmount: req.FinalAmount,
		Status:      req.Status,
		Remarks:     req.Remarks,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toPaymentResponse(p))
}

// UpdateStatus handles PUT /api/v1/payments/:id/status where :id is the snapshot id.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req transport.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Remarks)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.StatusUpdateResponse{Message: res.Message}
	if res.Changed {
		p := toPaymentResponse(res.Payment)
		resp.Payment = &p
	}
	httpkit.OK(c, resp)
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListPaymentsRequest
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

	items, total, err := h.svc.List(c.Request.Context(), req.Page, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.PaymentListResponse{
		Count:      total,
		Rows:       toPaymentResponses(items),
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: (total + req.Limit - 1) / req.Limit,
	})
}

func (h *Handler) ListByStudent(c *gin.Context) {
	id, ok := parseUUID(c, "invalid student id")
	if !ok {
		return
	}
	items, err := h.svc.ListByStudent(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toPaymentResponses(items))
}

func (h *Handler) StudentDetails(c *gin.Context) {
	id, ok := parseUUID(c, "invalid student id")
	if !ok {
		return
	}
	details, err := h.svc.StudentDetails(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.StudentDetailsResponse{
		Student:  details.Student,
		Payments: toPaymentResponses(details.Payments),
	})
}

// Reports limits L2 and L3 counsellors to payments of their own students.
func (h *Handler) Reports(c *gin.Context) {
	var req transport.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	from, to, err := service.ParseReportDates(req.FromDate, req.ToDate)
	if httpkit.HandleError(c, err) {
		return
	}

	filter := repository.ReportFilter{From: from, To: to, Status: req.Status, CollegeName: req.CollegeName}
	identity := httpkit.MustGetIdentity(c)
	if identity.HasRole(httpkit.RoleL2, httpkit.RoleL3) {
		filter.CounsellorID = identity.CounsellorID()
	}

	report, err := h.svc.Report(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	rows := make([]transport.ReportRowResponse, 0, len(report.Rows))
	for _, r := range report.Rows {
		rows = append(rows, transport.ReportRowResponse{
			PaymentResponse:      toPaymentResponse(r.Payment),
			StudentName:          r.StudentName,
			AssignedCounsellorID: r.AssignedCounsellorID,
		})
	}
	colleges := make([]transport.CollegeTotalResponse, 0, len(report.Colleges))
	for _, t := range report.Colleges {
		colleges = append(colleges, transport.CollegeTotalResponse{CollegeName: t.CollegeName, Payments: t.Payments, Revenue: t.Revenue})
	}
	httpkit.OK(c, transport.ReportResponse{Analytics: report.Analytics, Colleges: colleges, Data: rows})
}

func (h *Handler) ReceiptUploadURL(c *gin.Context) {
	id, ok := parseUUID(c, "invalid payment id")
	if !ok {
		return
	}
	var req transport.ReceiptUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}
	presigned, err := h.svc.ReceiptUploadURL(c.Request.Context(), id, req.FileName, req.ContentType, req.SizeBytes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, presigned)
}

func (h *Handler) ReceiptDownloadURL(c *gin.Context) {
	id, ok := parseUUID(c, "invalid payment id")
	if !ok {
		return
	}
	presigned, err := h.svc.ReceiptDownloadURL(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, presigned)
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

func parseUUID(c *gin.Context, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msg, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func toPaymentResponse(p repository.Payment) transport.PaymentResponse {
	return transport.PaymentResponse{
		ID:          p.ID,
		SnapshotID:  p.SnapshotID,
		StudentID:   p.StudentID,
		Email:       p.Email,
		Phone:       p.Phone,
		CollegeName: p.CollegeName,
		CourseName:  p.CourseName,
		Amount:      p.Amount,
		FinalAmount: p.FinalAmount,
		Status:      p.Status,
		Remarks:     p.Remarks,
		HasReceipt:  p.ReceiptKey != "",
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toPaymentResponses(items []repository.Payment) []transport.PaymentResponse {
	out := make([]transport.PaymentResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPaymentResponse(p))
	}
	return out
}
