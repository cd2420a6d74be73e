package handler

import (
	"net/http"

	"admissions_crm_backend/internal/coursestatus/service"
	"admissions_crm_backend/internal/coursestatus/transport"
	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgLogCreated       = "Status log created successfully"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/colleges", h.ListColleges)
	rg.GET("/student/:id", h.StudentHistory)
	rg.POST("/:courseId", h.CreateLog)
}

// CreateLog handles POST /api/v1/course-status/:courseId.
func (h *Handler) CreateLog(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid course id", nil)
		return
	}
	var req transport.CreateStatusLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	res, err := h.svc.LogStatus(c.Request.Context(), service.LogInput{
		StudentID:         req.StudentID,
		CourseID:          courseID,
		CounsellorID:      identity.CounsellorID(),
		Status:            req.Status,
		Notes:             req.Notes,
		DepositAmount:     req.DepositAmount,
		ExamInterviewDate: req.ExamInterviewDate,
		LastAdmissionDate: req.LastAdmissionDate,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.CreateStatusLogResponse{
		Message:     msgLogCreated,
		LogID:       res.Entry.ID,
		L3Requested: res.L3Requested,
	})
}

func (h *Handler) ListColleges(c *gin.Context) {
	courses, err := h.svc.ListCourses(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, transport.CourseResponse{
			ID:             course.ID,
			UniversityName: course.UniversityName,
			CourseName:     course.CourseName,
			DegreeName:     course.DegreeName,
			Specialization: course.Specialization,
			Level:          course.Level,
			Stream:         course.Stream,
		})
	}
	httpkit.OK(c, out)
}

func (h *Handler) StudentHistory(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid student id", nil)
		return
	}
	entries, err := h.svc.History(c.Request.Context(), studentID)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, transport.HistoryResponse{
			ID:                e.ID,
			StudentID:         e.StudentID,
			CourseID:          e.CourseID,
			CounsellorID:      e.CounsellorID,
			Status:            e.Status,
			DepositAmount:     e.DepositAmount,
			Currency:          e.Currency,
			ExamInterviewDate: e.ExamInterviewDate,
			LastAdmissionDate: e.LastAdmissionDate,
			Notes:             e.Notes,
			UniversityName:    e.UniversityName,
			CourseName:        e.CourseName,
			CreatedAt:         e.CreatedAt,
		})
	}
	httpkit.OK(c, out)
}
