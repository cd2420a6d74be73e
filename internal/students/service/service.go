// Package service implements lead intake and student lookups.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/internal/students/intake"
	"admissions_crm_backend/internal/students/ports"
	"admissions_crm_backend/internal/students/repository"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	StatusCreated       = "created"
	StatusAlreadyExists = "already_exists"

	assignedByRuleset = "Ruleset Based"
	defaultMode       = "Regular"
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, s repository.Student) (repository.Student, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Student, error)
	FindExisting(ctx context.Context, email, phone string) (repository.Existing, error)
	MarkReactivated(ctx context.Context, id uuid.UUID) error
	ListByCounsellor(ctx context.Context, p repository.ListParams) ([]repository.Student, int, error)
	CreateLeadActivity(ctx context.Context, a repository.LeadActivity) (repository.LeadActivity, error)
	CreateAssignmentLog(ctx context.Context, studentID uuid.UUID, counsellorID, assignedBy string) error
	CreateRemark(ctx context.Context, studentID uuid.UUID, counsellorID, remark string) (repository.Remark, error)
	ListRemarks(ctx context.Context, studentID uuid.UUID) ([]repository.Remark, error)
	TranscriptStore
}

type Service struct {
	repo           Store
	assigner       ports.LeadAssigner
	load           ports.CounsellorLoad
	eventBus       events.Bus
	businessNumber string
	log            *logger.Logger
	now            func() time.Time
}

// New creates the service. businessNumber is the WhatsApp number used when a
// transcript does not reveal it.
func New(repo Store, assigner ports.LeadAssigner, load ports.CounsellorLoad, eventBus events.Bus, businessNumber string, log *logger.Logger) *Service {
	return &Service{
		repo:           repo,
		assigner:       assigner,
		load:           load,
		eventBus:       eventBus,
		businessNumber: businessNumber,
		log:            log,
		now:            time.Now,
	}
}

// LeadResult is the outcome of ProcessLead.
type LeadResult struct {
	Student            repository.Student
	LeadActivity       repository.LeadActivity
	AssignedCounsellor ports.AssignedCounsellor
	StudentStatus      string
	Transcript         TranscriptResult
}

// ProcessLead imports a lead: transcript, L2 assignment, student dedupe and activity.
func (s *Service) ProcessLead(ctx context.Context, raw map[string]any) (LeadResult, error) {
	lead := intake.Normalize(raw)
	if lead.Email == "" || lead.Phone == "" {
		return LeadResult{}, apperr.Validation("Email and phone number are required")
	}
	log := s.log.WithContext(ctx)

	transcript, err := s.ImportTranscript(ctx, lead.Phone, lead.WhatsAppMessages)
	if err != nil {
		// A broken transcript never blocks the lead itself.
		log.Warn("whatsapp transcript import failed", slog.String("error", err.Error()))
	}

	assigned, err := s.assigner.AssignLead(ctx, lead.AssignmentFields())
	if err != nil {
		return LeadResult{}, err
	}

	result := LeadResult{AssignedCounsellor: assigned, Transcript: transcript}

	existing, err := s.repo.FindExisting(ctx, lead.Email, lead.Phone)
	switch {
	case err == nil:
		result.Student = existing.Student
		result.StudentStatus = StatusAlreadyExists
		if shouldReactivate(existing) {
			if err := s.repo.MarkReactivated(ctx, existing.Student.ID); err != nil {
				return LeadResult{}, err
			}
			result.Student.IsReactivity = true
			s.publish(ctx, events.StudentReactivated{
				BaseEvent:    events.NewBaseEvent(),
				StudentID:    existing.Student.ID,
				StudentName:  existing.Student.Name,
				CounsellorID: deref(existing.Student.AssignedCounsellorID),
				Source:       lead.Source,
			})
		}
	case errors.Is(err, repository.ErrNotFound):
		created, err := s.createStudent(ctx, lead, assigned)
		if err != nil {
			return LeadResult{}, err
		}
		result.Student = created
		result.StudentStatus = StatusCreated
	default:
		return LeadResult{}, err
	}

	activity, err := s.repo.CreateLeadActivity(ctx, repository.LeadActivity{
		StudentID:   result.Student.ID,
		Source:      lead.Source,
		UTMCampaign: lead.UTMCampaign,
		SourceURL:   lead.SourceURL,
		Payload:     lead.ActivityPayload(),
	})
	if err != nil {
		return LeadResult{}, apperr.Internal("Failed to create lead activity", err)
	}
	result.LeadActivity = activity

	log.Info("lead processed",
		slog.String("studentId", result.Student.ID.String()),
		slog.String("status", result.StudentStatus),
		slog.String("counsellorId", assigned.ID),
	)
	return result, nil
}

// shouldReactivate flags students nobody has remarked on, or whose last remark
// predates their last lead activity.
func shouldReactivate(e repository.Existing) bool {
	if e.LastRemarkAt == nil {
		return true
	}
	return e.LastActivityAt != nil && e.LastRemarkAt.Before(*e.LastActivityAt)
}

func (s *Service) createStudent(ctx context.Context, lead intake.Lead, assigned ports.AssignedCounsellor) (repository.Student, error) {
	mode := lead.Mode
	if mode == "" {
		mode = defaultMode
	}
	var counsellorID *string
	if assigned.ID != "" {
		counsellorID = &assigned.ID
	}

	student, err := s.repo.Create(ctx, repository.Student{
		ID:                      uuid.New(),
		Name:                    lead.Name,
		Email:                   lead.Email,
		Phone:                   lead.Phone,
		ParentsNumber:           lead.ParentsNumber,
		WhatsApp:                lead.WhatsApp,
		AssignedCounsellorID:    counsellorID,
		Mode:                    mode,
		PreferredStream:         lead.Stream,
		PreferredBudget:         lead.Budget,
		PreferredDegree:         lead.Degree,
		PreferredLevel:          lead.Level,
		PreferredSpecialization: lead.Specialization,
		PreferredCity:           lead.City,
		PreferredState:          lead.State,
		PreferredUniversity:     lead.University,
		Source:                  lead.Source,
		FirstSourceURL:          lead.SourceURL,
		UTMCampaign:             lead.UTMCampaign,
		UTMCampaignID:           lead.UTMCampaignID,
		UTMSource:               lead.UTMSource,
		UTMMedium:               lead.UTMMedium,
		SecondaryEmail:          lead.SecondaryEmail,
		CurrentCity:             lead.CurrentCity,
		CurrentState:            lead.CurrentState,
		CurrentProfession:       lead.CurrentProfession,
		CurrentRole:             lead.CurrentRole,
		WorkExperience:          lead.WorkExperience,
		Age:                     lead.Age,
		Objective:               lead.Objective,
		IsTransfered:            lead.IsTransfered,
	})
	if err != nil {
		return repository.Student{}, err
	}
	if counsellorID == nil {
		return student, nil
	}

	log := s.log.WithContext(ctx)
	if err := s.load.IncrementLeadCounters(ctx, assigned.ID); err != nil {
		log.Warn("counsellor lead counters not updated", slog.String("counsellorId", assigned.ID), slog.String("error", err.Error()))
	}
	if err := s.repo.CreateAssignmentLog(ctx, student.ID, assigned.ID, assignedByRuleset); err != nil {
		log.Warn("lead assignment log not written", slog.String("studentId", student.ID.String()), slog.String("error", err.Error()))
	}

	s.publish(ctx, events.LeadAssigned{
		BaseEvent:      events.NewBaseEvent(),
		StudentID:      student.ID,
		StudentName:    student.Name,
		StudentPhone:   student.Phone,
		CounsellorID:   assigned.ID,
		CounsellorName: assigned.Name,
		AssignmentType: assigned.AssignmentType,
		Source:         student.Source,
	})
	return student, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, e)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Student{}, apperr.NotFound("Student not found")
	}
	return student, err
}

// ListAssigned returns a page of the counsellor's students.
func (s *Service) ListAssigned(ctx context.Context, counsellorID string, page, limit int) ([]repository.Student, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.repo.ListByCounsellor(ctx, repository.ListParams{
		CounsellorID: counsellorID,
		Limit:        limit,
		Offset:       (page - 1) * limit,
	})
}

func (s *Service) AddRemark(ctx context.Context, studentID uuid.UUID, counsellorID, remark string) (repository.Remark, error) {
	remark = strings.TrimSpace(remark)
	if remark == "" || len(remark) > 2000 {
		return repository.Remark{}, apperr.Validation("remark must be between 1 and 2000 characters")
	}
	if _, err := s.Get(ctx, studentID); err != nil {
		return repository.Remark{}, err
	}
	return s.repo.CreateRemark(ctx, studentID, counsellorID, remark)
}

func (s *Service) ListRemarks(ctx context.Context, studentID uuid.UUID) ([]repository.Remark, error) {
	if _, err := s.Get(ctx, studentID); err != nil {
		return nil, err
	}
	return s.repo.ListRemarks(ctx, studentID)
}
