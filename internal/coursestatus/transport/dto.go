package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateStatusLogRequest struct {
	StudentID         uuid.UUID  `json:"studentId" validate:"required"`
	Status            string     `json:"status" validate:"required,max=200"`
	Notes             string     `json:"notes" validate:"max=4000"`
	DepositAmount     float64    `json:"depositAmount" validate:"min=0"`
	ExamInterviewDate *time.Time `json:"examInterviewDate"`
	LastAdmissionDate *time.Time `json:"lastAdmissionDate"`
}

type CreateStatusLogResponse struct {
	Message     string    `json:"message"`
	LogID       uuid.UUID `json:"logId"`
	L3Requested bool      `json:"l3Requested"`
}

type CourseResponse struct {
	ID             uuid.UUID `json:"course_id"`
	UniversityName string    `json:"university_name"`
	CourseName     string    `json:"course_name"`
	DegreeName     string    `json:"degree_name"`
	Specialization string    `json:"specialization"`
	Level          string    `json:"level"`
	Stream         string    `json:"stream"`
}

type HistoryResponse struct {
	ID                uuid.UUID  `json:"status_history_id"`
	StudentID         uuid.UUID  `json:"student_id"`
	CourseID          uuid.UUID  `json:"course_id"`
	CounsellorID      *string    `json:"counsellor_id"`
	Status            string     `json:"course_status"`
	DepositAmount     float64    `json:"deposit_amount"`
	Currency          string     `json:"currency"`
	ExamInterviewDate *time.Time `json:"exam_interview_date"`
	LastAdmissionDate *time.Time `json:"last_admission_date"`
	Notes             string     `json:"notes"`
	UniversityName    string     `json:"university_name"`
	CourseName        string     `json:"course_name"`
	CreatedAt         time.Time  `json:"created_at"`
}
