// Package service implements counsellor assignment: the L2 rule scorer with
// round-robin and fallback, the L3 hierarchy matcher, and rule administration.
package service

import (
	"context"

	"admissions_crm_backend/internal/assignment/ports"
	"admissions_crm_backend/internal/assignment/repository"
	counsellorsrepo "admissions_crm_backend/internal/counsellors/repository"
	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// RuleStore persists L2 rules, L3 rulesets and their round-robin cursors.
type RuleStore interface {
	ListActiveL2Rules(ctx context.Context) ([]repository.L2Rule, error)
	ListL2Rules(ctx context.Context) ([]repository.L2Rule, error)
	CreateL2Rule(ctx context.Context, rule repository.L2Rule) (repository.L2Rule, error)
	ToggleL2Rule(ctx context.Context, id uuid.UUID) (repository.L2Rule, error)
	DeleteL2Rule(ctx context.Context, id uuid.UUID) error
	AdvanceL2Cursor(ctx context.Context, ruleID uuid.UUID, size int) (int, error)

	ListActiveL3Rulesets(ctx context.Context) ([]repository.L3Ruleset, error)
	ListL3Rulesets(ctx context.Context) ([]repository.L3Ruleset, error)
	GetL3Ruleset(ctx context.Context, id uuid.UUID) (repository.L3Ruleset, error)
	CreateL3Ruleset(ctx context.Context, rs repository.L3Ruleset) (repository.L3Ruleset, error)
	UpdateL3Ruleset(ctx context.Context, rs repository.L3Ruleset) (repository.L3Ruleset, error)
	DeleteL3Ruleset(ctx context.Context, id uuid.UUID) (repository.L3Ruleset, error)
	ToggleL3Ruleset(ctx context.Context, id uuid.UUID) (repository.L3Ruleset, error)
	AdvanceL3Cursor(ctx context.Context, rulesetID uuid.UUID, size int) (int, error)
}

// CounsellorDirectory is the subset of the counsellor repository used here.
type CounsellorDirectory interface {
	GetByID(ctx context.Context, id string) (counsellorsrepo.Counsellor, error)
	ListByIDs(ctx context.Context, ids []string) ([]counsellorsrepo.Counsellor, error)
	ListActiveByIDs(ctx context.Context, ids []string) ([]counsellorsrepo.Counsellor, error)
	FindActiveByID(ctx context.Context, id string) (counsellorsrepo.Counsellor, error)
	FindActiveByEmail(ctx context.Context, email string) (counsellorsrepo.Counsellor, error)
	FindFirstByRole(ctx context.Context, role string) (counsellorsrepo.Counsellor, error)
	EnsureDefault(ctx context.Context, c counsellorsrepo.Counsellor) (counsellorsrepo.Counsellor, error)
	CountByRole(ctx context.Context, ids []string, role string) (int, error)
}

type Service struct {
	rules       RuleStore
	counsellors CounsellorDirectory
	students    ports.StudentDirectory
	eventBus    events.Bus
	log         *logger.Logger
}

func New(rules RuleStore, counsellors CounsellorDirectory, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		rules:       rules,
		counsellors: counsellors,
		eventBus:    eventBus,
		log:         log,
	}
}

// SetStudentDirectory wires the students module. L3 assignment fails without it.
func (s *Service) SetStudentDirectory(students ports.StudentDirectory) {
	s.students = students
}
