package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreatePaymentRequest struct {
	SnapshotID  string  `json:"snapshot_id" validate:"required,max=200"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Phone       string  `json:"phone" validate:"max=32"`
	CollegeName string  `json:"college_name" validate:"max=300"`
	CourseName  string  `json:"course_name" validate:"max=300"`
	Amount      float64 `json:"amount" validate:"min=0"`
	FinalAmount float64 `json:"final_amount" validate:"min=0"`
	Status      string  `json:"status" validate:"max=50"`
	Remarks     string  `json:"remarks" validate:"max=2000"`
}

type UpdateStatusRequest struct {
	Status  string `json:"status" validate:"required,max=50"`
	Remarks string `json:"remarks" validate:"max=2000"`
}

type ListPaymentsRequest struct {
	Page  int `form:"page" validate:"omitempty,min=1"`
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

type ReportRequest struct {
	FromDate    string `form:"from_date"`
	ToDate      string `form:"to_date"`
	Status      string `form:"status"`
	CollegeName string `form:"college_name"`
}

type ReceiptUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

type PaymentResponse struct {
	ID          uuid.UUID  `json:"payment_id"`
	SnapshotID  string     `json:"snapshot_id"`
	StudentID   *uuid.UUID `json:"student_id"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	CollegeName string     `json:"college_name"`
	CourseName  string     `json:"course_name"`
	Amount      float64    `json:"amount"`
	FinalAmount float64    `json:"final_amount"`
	Status      string     `json:"status"`
	Remarks     string     `json:"remarks"`
	HasReceipt  bool       `json:"has_receipt"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type StatusUpdateResponse struct {
	Message string           `json:"message"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

type PaymentListResponse struct {
	Count      int               `json:"count"`
	Rows       []PaymentResponse `json:"rows"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

type StudentDetailsResponse struct {
	Student  any               `json:"student"`
	Payments []PaymentResponse `json:"payments"`
}

type ReportRowResponse struct {
	PaymentResponse
	StudentName          *string `json:"student_name"`
	AssignedCounsellorID *string `json:"assigned_counsellor_id"`
}

type CollegeTotalResponse struct {
	CollegeName string  `json:"college_name"`
	Payments    int     `json:"payments"`
	Revenue     float64 `json:"revenue"`
}

type ReportResponse struct {
	Analytics any                    `json:"analytics"`
	Colleges  []CollegeTotalResponse `json:"colleges"`
	Data      []ReportRowResponse    `json:"data"`
}
