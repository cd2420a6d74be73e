// Package ports defines what the assignment domain needs from other modules.
package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrStudentNotFound is returned by StudentDirectory implementations for unknown ids.
var ErrStudentNotFound = errors.New("student not found")

// StudentContact is the minimal student data used in assignment notifications.
type StudentContact struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
}

// StudentDirectory reads and updates students on behalf of L3 assignment.
type StudentDirectory interface {
	GetStudentContact(ctx context.Context, studentID uuid.UUID) (StudentContact, error)
	SetL3Counsellor(ctx context.Context, studentID uuid.UUID, counsellorID string) error
}
