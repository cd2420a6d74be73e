package adapters

import (
	"context"

	assignmentsvc "admissions_crm_backend/internal/assignment/service"
	studentports "admissions_crm_backend/internal/students/ports"
	"admissions_crm_backend/platform/apperr"
)

// L2Assigner is the part of the assignment service used for new leads.
type L2Assigner interface {
	AssignL2(ctx context.Context, lead assignmentsvc.Lead) assignmentsvc.L2Result
}

// LeadAssigner lets the students module run L2 assignment.
// It implements students/ports.LeadAssigner.
type LeadAssigner struct {
	assignment L2Assigner
}

func NewLeadAssigner(assignment L2Assigner) *LeadAssigner {
	return &LeadAssigner{assignment: assignment}
}

func (a *LeadAssigner) AssignLead(ctx context.Context, fields map[string]any) (studentports.AssignedCounsellor, error) {
	res := a.assignment.AssignL2(ctx, assignmentsvc.Lead(fields))
	if !res.Success {
		return studentports.AssignedCounsellor{}, apperr.BadRequest(res.Message)
	}
	c := res.AssignedCounsellor
	return studentports.AssignedCounsellor{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		PreferredMode:  res.PreferredMode,
		AssignmentType: res.AssignmentType,
	}, nil
}

var _ studentports.LeadAssigner = (*LeadAssigner)(nil)
