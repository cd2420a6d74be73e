package adapters

import (
	"context"
	"errors"

	paymentsports "admissions_crm_backend/internal/payments/ports"
	studentsrepo "admissions_crm_backend/internal/students/repository"

	"github.com/google/uuid"
)

type PaymentStudentRecords interface {
	GetByID(ctx context.Context, id uuid.UUID) (studentsrepo.Student, error)
	FindIDByEmail(ctx context.Context, email string) (uuid.UUID, error)
	FindIDByPhone(ctx context.Context, phone string) (uuid.UUID, error)
}

// PaymentStudents implements payments/ports.StudentLookup over the students repository.
type PaymentStudents struct {
	students PaymentStudentRecords
}

func NewPaymentStudents(students PaymentStudentRecords) *PaymentStudents {
	return &PaymentStudents{students: students}
}

func (a *PaymentStudents) FindStudentByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	return mapStudentMiss(a.students.FindIDByEmail(ctx, email))
}

func (a *PaymentStudents) FindStudentByPhone(ctx context.Context, phone string) (uuid.UUID, error) {
	return mapStudentMiss(a.students.FindIDByPhone(ctx, phone))
}

func (a *PaymentStudents) GetStudentSummary(ctx context.Context, id uuid.UUID) (paymentsports.StudentSummary, error) {
	s, err := a.students.GetByID(ctx, id)
	if errors.Is(err, studentsrepo.ErrNotFound) {
		return paymentsports.StudentSummary{}, paymentsports.ErrStudentNotFound
	}
	if err != nil {
		return paymentsports.StudentSummary{}, err
	}
	return paymentsports.StudentSummary{
		ID:                     s.ID,
		Name:                   s.Name,
		Email:                  s.Email,
		Phone:                  s.Phone,
		CounsellorID:           s.AssignedCounsellorID,
		AssignedCounsellorL3ID: s.AssignedCounsellorL3ID,
	}, nil
}

func mapStudentMiss(id uuid.UUID, err error) (uuid.UUID, error) {
	if errors.Is(err, studentsrepo.ErrNotFound) {
		return uuid.Nil, paymentsports.ErrStudentNotFound
	}
	return id, err
}

var _ paymentsports.StudentLookup = (*PaymentStudents)(nil)
