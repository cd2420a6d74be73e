package inapp

import (
	"context"
	"log/slog"

	"admissions_crm_backend/internal/notification/sse"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Notification, error)
	List(ctx context.Context, counsellorID string, limit, offset int) ([]Notification, int, error)
	CountUnread(ctx context.Context, counsellorID string) (int, error)
	MarkRead(ctx context.Context, counsellorID string, id uuid.UUID) error
	MarkAllRead(ctx context.Context, counsellorID string) error
	Delete(ctx context.Context, counsellorID string, id uuid.UUID) error
}

// Publisher pushes a live event to a counsellor. *sse.Service implements it.
type Publisher interface {
	Publish(counsellorID string, event sse.Event) int
}

type Service struct {
	repo Store
	sse  Publisher
	log  *logger.Logger
}

// NewService builds the service. live may be nil.
func NewService(repo Store, live Publisher, log *logger.Logger) *Service {
	return &Service{repo: repo, sse: live, log: log}
}

type SendParams struct {
	CounsellorID string
	Title        string
	Content      string
	ResourceID   *uuid.UUID
	ResourceType string
	Category     string // info, success, warning, error
}

// Send persists the notification and pushes it to the counsellor's open streams.
func (s *Service) Send(ctx context.Context, p SendParams) (Notification, error) {
	if p.Category == "" {
		p.Category = "info"
	}
	var resourceType *string
	if p.ResourceType != "" {
		resourceType = &p.ResourceType
	}

	n, err := s.repo.Create(ctx, CreateParams{
		CounsellorID: p.CounsellorID,
		Title:        p.Title,
		Content:      p.Content,
		ResourceID:   p.ResourceID,
		ResourceType: resourceType,
		Category:     p.Category,
	})
	if err != nil {
		s.log.WithContext(ctx).Error("failed to persist in-app notification", slog.String("error", err.Error()), slog.String("counsellor_id", p.CounsellorID))
		return Notification{}, err
	}

	if s.sse != nil {
		s.sse.Publish(p.CounsellorID, sse.Event{Type: sse.EventInAppNotification, Message: n.Title, Data: n})
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, counsellorID string, page, pageSize int) ([]Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return s.repo.List(ctx, counsellorID, pageSize, (page-1)*pageSize)
}

func (s *Service) CountUnread(ctx context.Context, counsellorID string) (int, error) {
	return s.repo.CountUnread(ctx, counsellorID)
}

func (s *Service) MarkRead(ctx context.Context, counsellorID string, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, counsellorID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, counsellorID string) error {
	return s.repo.MarkAllRead(ctx, counsellorID)
}

func (s *Service) Delete(ctx context.Context, counsellorID string, id uuid.UUID) error {
	return s.repo.Delete(ctx, counsellorID, id)
}
