package service

import (
	"context"
	"errors"
	"fmt"

	"admissions_crm_backend/internal/assignment/ports"
	"admissions_crm_backend/internal/assignment/repository"
	"admissions_crm_backend/internal/assignment/transport"
	counsellorsrepo "admissions_crm_backend/internal/counsellors/repository"
	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	DummyL3CounsellorID   = "CNS-119C84E3"
	DummyL3CounsellorName = "DummyDegreeFyd"

	MethodDirect        = "direct"
	MethodRoundRobin    = "round-robin"
	MethodDummyFallback = "dummy_fallback"
)

// AssignL3 chooses an L3 counsellor for the student's course and records it.
func (s *Service) AssignL3(ctx context.Context, in L3Input) (transport.L3AssignmentResponse, error) {
	if in.StudentID == uuid.Nil {
		return transport.L3AssignmentResponse{}, apperr.BadRequest("studentId is required")
	}
	if s.students == nil {
		return transport.L3AssignmentResponse{}, apperr.Unavailable("student directory not configured")
	}

	student, err := s.students.GetStudentContact(ctx, in.StudentID)
	if errors.Is(err, ports.ErrStudentNotFound) {
		return transport.L3AssignmentResponse{}, apperr.NotFound("Student not found")
	}
	if err != nil {
		return transport.L3AssignmentResponse{}, err
	}

	rulesets, err := s.rules.ListActiveL3Rulesets(ctx)
	if err != nil {
		return transport.L3AssignmentResponse{}, err
	}
	if len(rulesets) == 0 {
		return transport.L3AssignmentResponse{}, apperr.NotFound("No active ruleset found")
	}

	candidates := FilterRulesets(rulesets, in)
	if len(candidates) == 0 {
		return s.assignL3Fallback(ctx, in, student)
	}

	selected, matchedAt, courseMatched := SelectRuleset(candidates, in)
	ids := selected.AssignedCounsellorIDs
	if len(ids) == 0 {
		return transport.L3AssignmentResponse{}, apperr.NotFound("No counsellors assigned to the selected ruleset")
	}

	method := MethodDirect
	counsellorID := ids[0]
	var rr *transport.RoundRobinInfo
	if len(ids) > 1 {
		used, err := s.rules.AdvanceL3Cursor(ctx, selected.ID, len(ids))
		if err != nil {
			return transport.L3AssignmentResponse{}, fmt.Errorf("advance cursor of ruleset %s: %w", selected.ID, err)
		}
		method = MethodRoundRobin
		counsellorID = ids[used]
		rr = &transport.RoundRobinInfo{
			UsedIndex:        used,
			TotalCounsellors: len(ids),
			NextIndex:        (used + 1) % len(ids),
		}
	}

	counsellor, err := s.counsellors.GetByID(ctx, counsellorID)
	if errors.Is(err, counsellorsrepo.ErrNotFound) {
		return transport.L3AssignmentResponse{}, apperr.NotFound("Selected counsellor not found")
	}
	if err != nil {
		return transport.L3AssignmentResponse{}, err
	}

	if err := s.recordL3(ctx, in, student, counsellor, method, selected.Name); err != nil {
		return transport.L3AssignmentResponse{}, err
	}
	s.log.WithContext(ctx).Assignment("l3", method, counsellor.ID, selected.Name, selected.Priority)

	message := "L3 counsellor assigned successfully"
	if !courseMatched {
		message = "L3 counsellor assigned based on college name match (no course criteria matched)"
	}
	return transport.L3AssignmentResponse{
		Message:                message,
		StudentID:              in.StudentID,
		AssignedL3CounsellorID: counsellor.ID,
		CounsellorNameL3:       counsellor.Name,
		AssignmentMethod:       method,
		CourseFieldsMatched:    &courseMatched,
		MatchedRuleset: &transport.MatchedRuleset{
			ID:             selected.ID,
			Name:           selected.Name,
			MatchedAtLevel: matchedAt,
			Priority:       selected.Priority,
		},
		RoundRobinInfo: rr,
	}, nil
}

// assignL3Fallback uses the dummy L3 agent, or any L3 counsellor when it is missing.
func (s *Service) assignL3Fallback(ctx context.Context, in L3Input, student ports.StudentContact) (transport.L3AssignmentResponse, error) {
	counsellor, err := s.counsellors.GetByID(ctx, DummyL3CounsellorID)
	if errors.Is(err, counsellorsrepo.ErrNotFound) {
		counsellor, err = s.counsellors.FindFirstByRole(ctx, "l3")
		if errors.Is(err, counsellorsrepo.ErrNotFound) {
			return transport.L3AssignmentResponse{}, apperr.NotFound("No active rulesets and no L3 agents found for fallback")
		}
	}
	if err != nil {
		return transport.L3AssignmentResponse{}, err
	}
	if counsellor.ID == DummyL3CounsellorID && counsellor.Name == "" {
		counsellor.Name = DummyL3CounsellorName
	}

	if err := s.recordL3(ctx, in, student, counsellor, MethodDummyFallback, ""); err != nil {
		return transport.L3AssignmentResponse{}, err
	}
	s.log.WithContext(ctx).Assignment("l3", MethodDummyFallback, counsellor.ID, "None", -1)

	return transport.L3AssignmentResponse{
		Message:                "No matching ruleset found, assigned fallback L3 counsellor",
		StudentID:              in.StudentID,
		AssignedL3CounsellorID: counsellor.ID,
		CounsellorNameL3:       counsellor.Name,
		AssignmentMethod:       MethodDummyFallback,
		Reason:                 "No ruleset found matching collegeName and source criteria",
	}, nil
}

func (s *Service) recordL3(ctx context.Context, in L3Input, student ports.StudentContact, counsellor counsellorsrepo.Counsellor, method, rulesetName string) error {
	if err := s.students.SetL3Counsellor(ctx, in.StudentID, counsellor.ID); err != nil {
		return fmt.Errorf("record l3 counsellor: %w", err)
	}
	if s.eventBus == nil {
		return nil
	}
	s.eventBus.Publish(ctx, events.L3CounsellorAssigned{
		BaseEvent:        events.NewBaseEvent(),
		StudentID:        student.ID,
		StudentName:      student.Name,
		StudentEmail:     student.Email,
		StudentPhone:     student.Phone,
		CounsellorID:     counsellor.ID,
		CounsellorName:   counsellor.Name,
		CounsellorEmail:  counsellor.Email,
		CollegeName:      in.CollegeName,
		CourseName:       in.Course,
		AssignmentMethod: method,
		RulesetName:      rulesetName,
	})
	return nil
}

// ensure the repository satisfies the store used by the service
var _ RuleStore = (*repository.Repository)(nil)
