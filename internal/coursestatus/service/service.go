// Package service records course status changes and hands progressed students to L3.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"admissions_crm_backend/internal/coursestatus/ports"
	"admissions_crm_backend/internal/coursestatus/repository"
	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// L3TriggerStatuses are the statuses that move a student to L3 counselling.
var L3TriggerStatuses = map[string]bool{
	"Form Submitted – Portal Pending": true,
	"Form Submitted – Completed":      true,
	"Walkin Completed":                true,
	"Exam Interview Pending":          true,
	"Offer Letter/Results Pending":    true,
	"Offer Letter/Results Released":   true,
}

type Store interface {
	GetCourse(ctx context.Context, id uuid.UUID) (repository.Course, error)
	ListCourses(ctx context.Context) ([]repository.Course, error)
	CreateHistory(ctx context.Context, h repository.HistoryEntry) (repository.HistoryEntry, error)
	ListHistory(ctx context.Context, studentID uuid.UUID) ([]repository.HistoryEntry, error)
}

type Service struct {
	repo     Store
	students ports.StudentProgress
	l3       ports.L3Requester
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func New(repo Store, students ports.StudentProgress, l3 ports.L3Requester, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, students: students, l3: l3, eventBus: eventBus, log: log, now: time.Now}
}

// LogInput is a status change recorded by a counsellor.
type LogInput struct {
	StudentID         uuid.UUID
	CourseID          uuid.UUID
	CounsellorID      string
	Status            string
	Notes             string
	DepositAmount     float64
	ExamInterviewDate *time.Time
	LastAdmissionDate *time.Time
}

type LogResult struct {
	Entry       repository.HistoryEntry
	L3Requested bool
}

// LogStatus stores the entry. Trigger statuses also request an L3 assignment
// and stamp the student's first form date.
func (s *Service) LogStatus(ctx context.Context, in LogInput) (LogResult, error) {
	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		return LogResult{}, apperr.Validation("status is required")
	}
	if in.StudentID == uuid.Nil {
		return LogResult{}, apperr.Validation("studentId is required")
	}

	course, err := s.repo.GetCourse(ctx, in.CourseID)
	if errors.Is(err, repository.ErrCourseNotFound) {
		return LogResult{}, apperr.NotFound("Course not found")
	}
	if err != nil {
		return LogResult{}, err
	}

	var counsellorID *string
	if in.CounsellorID != "" {
		counsellorID = &in.CounsellorID
	}
	entry, err := s.repo.CreateHistory(ctx, repository.HistoryEntry{
		StudentID:         in.StudentID,
		CourseID:          in.CourseID,
		CounsellorID:      counsellorID,
		Status:            in.Status,
		DepositAmount:     in.DepositAmount,
		Currency:          "INR",
		ExamInterviewDate: in.ExamInterviewDate,
		LastAdmissionDate: in.LastAdmissionDate,
		Notes:             in.Notes,
	})
	if err != nil {
		return LogResult{}, err
	}
	result := LogResult{Entry: entry}

	if L3TriggerStatuses[in.Status] {
		result.L3Requested = s.requestL3(ctx, in.StudentID, course)
		if err := s.students.MarkFirstFormFilled(ctx, in.StudentID, s.now().UTC()); err != nil {
			return result, err
		}
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.CourseStatusLogged{
			BaseEvent:    events.NewBaseEvent(),
			StudentID:    in.StudentID,
			CourseID:     in.CourseID,
			CounsellorID: in.CounsellorID,
			Status:       in.Status,
			CollegeName:  course.UniversityName,
		})
	}
	return result, nil
}

// requestL3 reports whether the request was accepted. Failures are logged;
// the status entry is already stored.
func (s *Service) requestL3(ctx context.Context, studentID uuid.UUID, course repository.Course) bool {
	log := s.log.WithContext(ctx)
	source, err := s.students.LeadSource(ctx, studentID)
	if err != nil {
		log.Warn("student source unavailable for l3 request", slog.String("studentId", studentID.String()), slog.String("error", err.Error()))
	}

	err = s.l3.RequestL3(ctx, ports.L3Request{
		StudentID:      studentID,
		CollegeName:    course.UniversityName,
		Course:         course.CourseName,
		Degree:         course.DegreeName,
		Specialization: course.Specialization,
		Level:          course.Level,
		Stream:         course.Stream,
		Source:         source,
	})
	if err != nil {
		log.Error("l3 assignment request failed", slog.String("studentId", studentID.String()), slog.String("error", err.Error()))
		return false
	}
	return true
}

func (s *Service) ListCourses(ctx context.Context) ([]repository.Course, error) {
	return s.repo.ListCourses(ctx)
}

func (s *Service) History(ctx context.Context, studentID uuid.UUID) ([]repository.HistoryEntry, error) {
	return s.repo.ListHistory(ctx, studentID)
}
