// Package ports declares what audience sync needs from other modules.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// Contact is the identifiers uploaded to Meta for a student.
type Contact struct {
	StudentID uuid.UUID
	Email     string
	Phone     string
}

type StudentContacts interface {
	// Contact returns apperr NotFound for an unknown student.
	Contact(ctx context.Context, studentID uuid.UUID) (Contact, error)
}

// UploadJob is one student queued for upload to an audience.
type UploadJob struct {
	AudienceID string
	Contact    Contact
}

// UploadQueue defers uploads to the background worker.
type UploadQueue interface {
	EnqueueUpload(ctx context.Context, job UploadJob) error
}
