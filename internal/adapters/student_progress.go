package adapters

import (
	"context"
	"errors"
	"time"

	coursestatusports "admissions_crm_backend/internal/coursestatus/ports"
	studentsrepo "admissions_crm_backend/internal/students/repository"

	"github.com/google/uuid"
)

// StudentProgressRecords is the part of the students repository that course
// status logging touches.
type StudentProgressRecords interface {
	GetByID(ctx context.Context, id uuid.UUID) (studentsrepo.Student, error)
	MarkFirstFormFilled(ctx context.Context, id uuid.UUID, at time.Time) error
}

type StudentProgress struct {
	students StudentProgressRecords
}

func NewStudentProgress(students StudentProgressRecords) *StudentProgress {
	return &StudentProgress{students: students}
}

// LeadSource returns the student's lead source, or "" for an unknown student.
func (p *StudentProgress) LeadSource(ctx context.Context, studentID uuid.UUID) (string, error) {
	s, err := p.students.GetByID(ctx, studentID)
	if errors.Is(err, studentsrepo.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Source, nil
}

func (p *StudentProgress) MarkFirstFormFilled(ctx context.Context, studentID uuid.UUID, at time.Time) error {
	return p.students.MarkFirstFormFilled(ctx, studentID, at)
}

var _ coursestatusports.StudentProgress = (*StudentProgress)(nil)
