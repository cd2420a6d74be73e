package service

import (
	"context"
	"errors"
	"strings"

	"admissions_crm_backend/internal/counsellors/repository"
	"admissions_crm_backend/internal/counsellors/transport"
	"admissions_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultPreferredMode = "Regular"

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, c repository.Counsellor) (repository.Counsellor, error)
	GetByID(ctx context.Context, id string) (repository.Counsellor, error)
	List(ctx context.Context, filter repository.ListFilter) ([]repository.Counsellor, error)
	UpdateStatus(ctx context.Context, id, status string) (repository.Counsellor, error)
}

type Service struct {
	repo Store
}

func New(repo Store) *Service {
	return &Service{repo: repo}
}

// NewCounsellorID returns an id of the form CNS-XXXXXXXX (upper-case hex).
func NewCounsellorID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CNS-" + strings.ToUpper(raw[:8])
}

// HashPassword hashes a plaintext password with bcrypt's default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) Create(ctx context.Context, req transport.CreateCounsellorRequest) (transport.CounsellorResponse, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return transport.CounsellorResponse{}, apperr.Internal("failed to hash password", err)
	}

	mode := strings.TrimSpace(req.PreferredMode)
	if mode == "" {
		mode = defaultPreferredMode
	}

	created, err := s.repo.Create(ctx, repository.Counsellor{
		ID:            NewCounsellorID(),
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:  hash,
		Role:          req.Role,
		Status:        repository.StatusActive,
		PreferredMode: mode,
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		return transport.CounsellorResponse{}, apperr.Conflict("email already in use")
	}
	if err != nil {
		return transport.CounsellorResponse{}, err
	}
	return ToResponse(created), nil
}

func (s *Service) Get(ctx context.Context, id string) (transport.CounsellorResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.CounsellorResponse{}, apperr.NotFound("counsellor not found")
	}
	if err != nil {
		return transport.CounsellorResponse{}, err
	}
	return ToResponse(c), nil
}

func (s *Service) List(ctx context.Context, req transport.ListCounsellorsRequest) ([]transport.CounsellorResponse, error) {
	items, err := s.repo.List(ctx, repository.ListFilter{Role: req.Role, Status: req.Status})
	if err != nil {
		return nil, err
	}
	out := make([]transport.CounsellorResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ToResponse(c))
	}
	return out, nil
}

// ToggleStatus flips a counsellor between active and inactive.
func (s *Service) ToggleStatus(ctx context.Context, id string) (transport.CounsellorResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.CounsellorResponse{}, apperr.NotFound("counsellor not found")
	}
	if err != nil {
		return transport.CounsellorResponse{}, err
	}

	next := repository.StatusActive
	if c.IsActive() {
		next = repository.StatusInactive
	}
	updated, err := s.repo.UpdateStatus(ctx, id, next)
	if err != nil {
		return transport.CounsellorResponse{}, err
	}
	return ToResponse(updated), nil
}

func ToResponse(c repository.Counsellor) transport.CounsellorResponse {
	return transport.CounsellorResponse{
		ID:                  c.ID,
		Name:                c.Name,
		Email:               c.Email,
		Role:                c.Role,
		Status:              c.Status,
		PreferredMode:       c.PreferredMode,
		CurrentLeadCapacity: c.CurrentLeadCapacity,
		TotalLeads:          c.TotalLeads,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// ToSummary converts counsellors into the short form used by other modules.
func ToSummary(items []repository.Counsellor) []transport.CounsellorSummary {
	out := make([]transport.CounsellorSummary, 0, len(items))
	for _, c := range items {
		out = append(out, transport.CounsellorSummary{ID: c.ID, Name: c.Name, Email: c.Email, Role: c.Role})
	}
	return out
}
