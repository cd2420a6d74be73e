package adapters

import (
	"context"
	"errors"
	"fmt"

	assignmentports "admissions_crm_backend/internal/assignment/ports"
	studentsrepo "admissions_crm_backend/internal/students/repository"

	"github.com/google/uuid"
)

// StudentRecords is the narrow view of the students repository shared by adapters.
type StudentRecords interface {
	GetByID(ctx context.Context, id uuid.UUID) (studentsrepo.Student, error)
	SetL3Counsellor(ctx context.Context, id uuid.UUID, counsellorID string) error
}

// StudentDirectory exposes student contacts to the assignment module.
// It implements assignment/ports.StudentDirectory.
type StudentDirectory struct {
	students StudentRecords
}

func NewStudentDirectory(students StudentRecords) *StudentDirectory {
	return &StudentDirectory{students: students}
}

func (d *StudentDirectory) GetStudentContact(ctx context.Context, id uuid.UUID) (assignmentports.StudentContact, error) {
	s, err := d.students.GetByID(ctx, id)
	if errors.Is(err, studentsrepo.ErrNotFound) {
		return assignmentports.StudentContact{}, assignmentports.ErrStudentNotFound
	}
	if err != nil {
		return assignmentports.StudentContact{}, fmt.Errorf("look up student for assignment: %w", err)
	}
	return assignmentports.StudentContact{ID: s.ID, Name: s.Name, Email: s.Email, Phone: s.Phone}, nil
}

func (d *StudentDirectory) SetL3Counsellor(ctx context.Context, id uuid.UUID, counsellorID string) error {
	err := d.students.SetL3Counsellor(ctx, id, counsellorID)
	if errors.Is(err, studentsrepo.ErrNotFound) {
		return assignmentports.ErrStudentNotFound
	}
	return err
}

var _ assignmentports.StudentDirectory = (*StudentDirectory)(nil)
