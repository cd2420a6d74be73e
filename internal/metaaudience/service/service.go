// Package service creates Meta custom audiences and uploads students to them.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"admissions_crm_backend/internal/metaaudience/client"
	"admissions_crm_backend/internal/metaaudience/ports"
	"admissions_crm_backend/internal/metaaudience/repository"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

const maxStudentsPerRequest = 500

type Store interface {
	Create(ctx context.Context, a repository.Audience) (repository.Audience, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Audience, error)
	List(ctx context.Context) ([]repository.Audience, error)
}

// Graph is the Meta API surface. *client.Client implements it.
type Graph interface {
	CreateAudience(ctx context.Context, name string) (string, error)
	AddUser(ctx context.Context, audienceID, email, phone string) (client.AddUsersResult, error)
}

type Service struct {
	repo     Store
	graph    Graph
	contacts ports.StudentContacts
	queue    ports.UploadQueue
	log      *logger.Logger
}

// New builds the service. graph is nil when Meta is not configured; queue is
// nil when uploads run inline.
func New(repo Store, graph Graph, contacts ports.StudentContacts, queue ports.UploadQueue, log *logger.Logger) *Service {
	return &Service{repo: repo, graph: graph, contacts: contacts, queue: queue, log: log}
}

func (s *Service) Create(ctx context.Context, name, createdBy string) (repository.Audience, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repository.Audience{}, apperr.Validation("audience name is required")
	}
	if s.graph == nil {
		return repository.Audience{}, apperr.Unavailable("Meta integration is not configured")
	}
	metaID, err := s.graph.CreateAudience(ctx, name)
	if err != nil {
		return repository.Audience{}, graphFailure("create audience", err)
	}
	a, err := s.repo.Create(ctx, repository.Audience{Name: client.SanitizeAudienceName(name), MetaAudienceID: metaID, CreatedBy: createdBy})
	if err != nil {
		return repository.Audience{}, err
	}
	s.log.WithContext(ctx).Info("meta audience created", slog.String("audience_id", a.ID.String()), slog.String("meta_audience_id", metaID))
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]repository.Audience, error) {
	return s.repo.List(ctx)
}

// FailedStudent is a student that could not be queued or uploaded.
type FailedStudent struct {
	StudentID uuid.UUID `json:"studentId"`
	Reason    string    `json:"reason"`
}

type AddResult struct {
	Queued   int             `json:"queued"`
	Uploaded int             `json:"uploaded"`
	Failed   []FailedStudent `json:"failed"`
}

// AddStudents queues every student for upload, or uploads them one by one when
// no queue is configured. Per-student failures are reported, not returned.
func (s *Service) AddStudents(ctx context.Context, audienceID uuid.UUID, studentIDs []uuid.UUID) (AddResult, error) {
	if len(studentIDs) == 0 {
		return AddResult{}, apperr.Validation("studentIds must not be empty")
	}
	if len(studentIDs) > maxStudentsPerRequest {
		return AddResult{}, apperr.Validation("too many students in one request")
	}
	if s.queue == nil && s.graph == nil {
		return AddResult{}, apperr.Unavailable("Meta integration is not configured")
	}
	audience, err := s.repo.GetByID(ctx, audienceID)
	if errors.Is(err, repository.ErrNotFound) {
		return AddResult{}, apperr.NotFound("Audience not found")
	}
	if err != nil {
		return AddResult{}, err
	}

	result := AddResult{Failed: []FailedStudent{}}
	seen := make(map[uuid.UUID]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		contact, err := s.contacts.Contact(ctx, id)
		if err != nil {
			result.Failed = append(result.Failed, FailedStudent{StudentID: id, Reason: reasonFor(err)})
			continue
		}
		if contact.Email == "" && contact.Phone == "" {
			result.Failed = append(result.Failed, FailedStudent{StudentID: id, Reason: client.ErrNoIdentifiers.Error()})
			continue
		}

		if s.queue != nil {
			if err := s.queue.EnqueueUpload(ctx, ports.UploadJob{AudienceID: audience.MetaAudienceID, Contact: contact}); err != nil {
				s.log.WithContext(ctx).Error("meta upload enqueue failed", slog.String("student_id", id.String()), slog.String("error", err.Error()))
				result.Failed = append(result.Failed, FailedStudent{StudentID: id, Reason: "could not queue upload"})
				continue
			}
			result.Queued++
			continue
		}
		if err := s.Upload(ctx, audience.MetaAudienceID, contact); err != nil {
			result.Failed = append(result.Failed, FailedStudent{StudentID: id, Reason: reasonFor(err)})
			continue
		}
		result.Uploaded++
	}
	return result, nil
}

// Upload sends one contact to a Meta audience. The worker calls it for queued jobs.
func (s *Service) Upload(ctx context.Context, metaAudienceID string, contact ports.Contact) error {
	if s.graph == nil {
		return apperr.Unavailable("Meta integration is not configured")
	}
	res, err := s.graph.AddUser(ctx, metaAudienceID, contact.Email, contact.Phone)
	if errors.Is(err, client.ErrNoIdentifiers) {
		return apperr.Validation(err.Error())
	}
	if err != nil {
		return graphFailure("add user", err)
	}
	s.log.WithContext(ctx).Info("meta audience user uploaded",
		slog.String("meta_audience_id", metaAudienceID),
		slog.String("student_id", contact.StudentID.String()),
		slog.Int("invalid_entries", res.NumInvalidEntries),
	)
	return nil
}

// graphFailure keeps rate limits and outages retryable and turns Meta's
// rejections into bad requests.
func graphFailure(op string, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && !apiErr.Retryable() {
		return apperr.Wrap(apperr.KindBadRequest, "Meta rejected the request: "+apiErr.Message, err).WithOp(op)
	}
	return apperr.Wrap(apperr.KindUnavailable, "Meta API unavailable", err).WithOp(op)
}

func reasonFor(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
