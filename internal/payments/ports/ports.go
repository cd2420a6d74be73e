// Package ports declares what payments needs from students and object storage.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrStudentNotFound = errors.New("student not found")

type StudentSummary struct {
	ID                     uuid.UUID `json:"student_id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Phone                  string    `json:"phone"`
	CounsellorID           *string   `json:"counsellor_id"`
	AssignedCounsellorL3ID *string   `json:"counsellor_l3_id"`
}

// StudentLookup links payments to students. Lookups return ErrStudentNotFound on a miss.
type StudentLookup interface {
	FindStudentByEmail(ctx context.Context, email string) (uuid.UUID, error)
	FindStudentByPhone(ctx context.Context, phone string) (uuid.UUID, error)
	GetStudentSummary(ctx context.Context, id uuid.UUID) (StudentSummary, error)
}

type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ReceiptStorage presigns receipt transfers.
type ReceiptStorage interface {
	PresignUpload(ctx context.Context, paymentID uuid.UUID, fileName, contentType string, sizeBytes int64) (PresignedURL, error)
	PresignDownload(ctx context.Context, fileKey string) (PresignedURL, error)
}
