// Package service runs website chats between students and counsellors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"admissions_crm_backend/internal/events"
	"admissions_crm_backend/internal/websitechat/cache"
	"admissions_crm_backend/internal/websitechat/ports"
	"admissions_crm_backend/internal/websitechat/repository"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	StatusClosedByStudent    = "CLOSED_BY_STUDENT"
	StatusClosedByCounsellor = "CLOSED_BY_COUNSELLOR"
	StatusClosedBySupervisor = "CLOSED_BY_SUPERVISOR"

	maxMessageLength = 2000

	msgChatNotFound = "Chat not found"
)

type Store interface {
	CreateChat(ctx context.Context, c repository.Chat) (repository.Chat, error)
	GetChat(ctx context.Context, id uuid.UUID) (repository.Chat, error)
	FindOpenChat(ctx context.Context, studentID uuid.UUID) (repository.Chat, error)
	AddMessage(ctx context.Context, m repository.Message) (repository.Message, error)
	MarkRead(ctx context.Context, chatID uuid.UUID, reader string) (int64, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]repository.Message, error)
	ListStudentMessages(ctx context.Context, studentID uuid.UUID) ([]repository.Message, error)
	ListLatestPerStudent(ctx context.Context, counsellorID string) ([]repository.Chat, error)
	Close(ctx context.Context, id uuid.UUID, status, closedBy, reason string) (repository.Chat, error)
}

// Presence is the Redis side of the chat. *cache.Cache implements it.
type Presence interface {
	RecordMessage(ctx context.Context, m cache.Message) error
	TrackChat(ctx context.Context, chatID uuid.UUID, counsellorID string, at time.Time) error
	MarkRead(ctx context.Context, chatID uuid.UUID, reader string) error
	Forget(ctx context.Context, chatID uuid.UUID, counsellorID string) error
	UnreadForCounsellor(ctx context.Context, counsellorID string) (int, error)
	Publish(ctx context.Context, event string, data any) error
}

type Service struct {
	repo     Store
	presence Presence
	leads    ports.LeadProcessor
	hours    BusinessHours
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New builds the service. presence may be nil; the chat then runs on Postgres alone.
func New(repo Store, presence Presence, leads ports.LeadProcessor, hours BusinessHours, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, presence: presence, leads: leads, hours: hours, eventBus: eventBus, log: log, now: time.Now}
}

type InitiateResult struct {
	Chat     repository.Chat
	Created  bool
	IsOnline bool
}

// Initiate runs lead intake for the visitor and opens a chat, reusing the
// student's open chat when there is one. Outside business hours the chat starts OFFLINE.
func (s *Service) Initiate(ctx context.Context, raw map[string]any, platform map[string]any) (InitiateResult, error) {
	lead, err := s.leads.ProcessChatLead(ctx, raw)
	if err != nil {
		return InitiateResult{}, err
	}
	online := s.hours.IsOpen(s.now())

	existing, err := s.repo.FindOpenChat(ctx, lead.StudentID)
	if err == nil {
		return InitiateResult{Chat: existing, IsOnline: online}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return InitiateResult{}, err
	}

	status := repository.StatusActive
	if !online {
		status = repository.StatusOffline
	}
	var counsellorID *string
	if lead.CounsellorID != "" {
		counsellorID = &lead.CounsellorID
	}
	chat, err := s.repo.CreateChat(ctx, repository.Chat{
		StudentID:       lead.StudentID,
		StudentName:     lead.StudentName,
		StudentPhone:    lead.StudentPhone,
		CounsellorID:    counsellorID,
		DisplayName:     lead.StudentName,
		PlatformDetails: platform,
		Status:          status,
	})
	if err != nil {
		return InitiateResult{}, err
	}

	if s.presence != nil {
		if err := s.presence.TrackChat(ctx, chat.ID, lead.CounsellorID, chat.CreatedAt); err != nil {
			s.presenceFailed(ctx, "track chat", err)
		}
	}
	s.stream(ctx, "chat_created", map[string]any{"chatId": chat.ID, "studentId": chat.StudentID, "counsellorId": lead.CounsellorID, "status": status})
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.WebsiteChatCreated{
			BaseEvent:    events.NewBaseEvent(),
			ChatID:       chat.ID,
			StudentID:    chat.StudentID,
			StudentName:  chat.StudentName,
			CounsellorID: lead.CounsellorID,
		})
	}
	return InitiateResult{Chat: chat, Created: true, IsOnline: online}, nil
}

// Sender identifies who writes a message.
type Sender struct {
	Type   string
	UserID string
	Name   string
}

func (s *Service) AddMessage(ctx context.Context, chatID uuid.UUID, sender Sender, content string) (repository.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return repository.Message{}, apperr.Validation("message content is required")
	}
	if len([]rune(content)) > maxMessageLength {
		return repository.Message{}, apperr.Validation("message content is too long")
	}

	chat, err := s.getChat(ctx, chatID)
	if err != nil {
		return repository.Message{}, err
	}
	if !chat.IsOpen() {
		return repository.Message{}, apperr.Conflict("Chat is closed")
	}

	msg, err := s.repo.AddMessage(ctx, repository.Message{
		ChatID:       chatID,
		SenderType:   sender.Type,
		SenderUserID: sender.UserID,
		DisplayName:  sender.Name,
		Content:      content,
	})
	if err != nil {
		return repository.Message{}, err
	}

	counsellorID := derefString(chat.CounsellorID)
	if s.presence != nil {
		err := s.presence.RecordMessage(ctx, cache.Message{
			ChatID:       chatID,
			CounsellorID: counsellorID,
			SenderType:   sender.Type,
			SenderName:   sender.Name,
			Content:      content,
			CreatedAt:    msg.CreatedAt,
		})
		if err != nil {
			s.presenceFailed(ctx, "record message", err)
		}
	}
	s.stream(ctx, "message", map[string]any{"chatId": chatID, "messageId": msg.ID, "senderType": sender.Type, "content": cache.Preview(content)})
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.WebsiteChatMessage{
			BaseEvent:    events.NewBaseEvent(),
			ChatID:       chatID,
			MessageID:    msg.ID,
			CounsellorID: counsellorID,
			SenderType:   sender.Type,
			SenderName:   sender.Name,
			Content:      content,
		})
	}
	return msg, nil
}

// MarkRead marks messages addressed to reader as read and returns how many changed.
func (s *Service) MarkRead(ctx context.Context, chatID uuid.UUID, reader string) (int64, error) {
	if _, err := s.getChat(ctx, chatID); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkRead(ctx, chatID, reader)
	if err != nil {
		return 0, err
	}
	if s.presence != nil {
		if err := s.presence.MarkRead(ctx, chatID, reader); err != nil {
			s.presenceFailed(ctx, "mark read", err)
		}
	}
	return n, nil
}

// History returns the chat's messages, or with aggregate every message the
// student exchanged across chats.
func (s *Service) History(ctx context.Context, chatID uuid.UUID, aggregate bool) ([]repository.Message, error) {
	chat, err := s.getChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if aggregate {
		return s.repo.ListStudentMessages(ctx, chat.StudentID)
	}
	return s.repo.ListMessages(ctx, chatID)
}

// seesAllChats lists the roles that supervise every counsellor's chats.
var seesAllChats = []string{httpkit.RoleSupervisor, httpkit.RoleAdmin, httpkit.RoleAnalyser, httpkit.RoleSuperAdmin}

// ChatsFor returns one chat per student for the operator.
func (s *Service) ChatsFor(ctx context.Context, identity httpkit.Identity) ([]repository.Chat, error) {
	if identity.HasRole(seesAllChats...) {
		return s.repo.ListLatestPerStudent(ctx, "")
	}
	return s.repo.ListLatestPerStudent(ctx, identity.CounsellorID())
}

// UnreadCount reads the caller's timeline, the global one for supervisors, and
// is 0 for every other role.
func (s *Service) UnreadCount(ctx context.Context, identity httpkit.Identity) (int, error) {
	if s.presence == nil {
		return 0, nil
	}
	switch {
	case identity.HasRole(seesAllChats...):
		return s.presence.UnreadForCounsellor(ctx, "")
	case identity.HasRole(httpkit.RoleL2, httpkit.RoleL3, httpkit.RoleTO):
		return s.presence.UnreadForCounsellor(ctx, identity.CounsellorID())
	default:
		return 0, nil
	}
}

// CloseStatus maps the closing side to the stored status. An empty role is the student.
func CloseStatus(role string) string {
	switch role {
	case "":
		return StatusClosedByStudent
	case httpkit.RoleSupervisor, httpkit.RoleAdmin, httpkit.RoleSuperAdmin, httpkit.RoleAnalyser:
		return StatusClosedBySupervisor
	default:
		return StatusClosedByCounsellor
	}
}

// Close ends the chat. closedBy is the counsellor id, or "student".
func (s *Service) Close(ctx context.Context, chatID uuid.UUID, role, closedBy, reason string) (repository.Chat, error) {
	chat, err := s.getChat(ctx, chatID)
	if err != nil {
		return repository.Chat{}, err
	}
	if !chat.IsOpen() {
		return chat, nil
	}

	status := CloseStatus(role)
	closed, err := s.repo.Close(ctx, chatID, status, closedBy, strings.TrimSpace(reason))
	if err != nil {
		return repository.Chat{}, err
	}

	counsellorID := derefString(chat.CounsellorID)
	if s.presence != nil {
		if err := s.presence.Forget(ctx, chatID, counsellorID); err != nil {
			s.presenceFailed(ctx, "forget chat", err)
		}
	}
	s.stream(ctx, "chat_closed", map[string]any{"chatId": chatID, "status": status, "closedBy": closedBy})
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.WebsiteChatClosed{
			BaseEvent:    events.NewBaseEvent(),
			ChatID:       chatID,
			CounsellorID: counsellorID,
			Status:       status,
		})
	}
	return closed, nil
}

// CanAccess reports whether the operator may read or write the chat.
func (s *Service) CanAccess(ctx context.Context, chatID uuid.UUID, identity httpkit.Identity) error {
	chat, err := s.getChat(ctx, chatID)
	if err != nil {
		return err
	}
	if identity.HasRole(seesAllChats...) || derefString(chat.CounsellorID) == identity.CounsellorID() {
		return nil
	}
	return apperr.Forbidden("chat belongs to another counsellor")
}

func (s *Service) getChat(ctx context.Context, id uuid.UUID) (repository.Chat, error) {
	chat, err := s.repo.GetChat(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Chat{}, apperr.NotFound(msgChatNotFound)
	}
	return chat, err
}

func (s *Service) stream(ctx context.Context, event string, data map[string]any) {
	if s.presence == nil {
		return
	}
	if err := s.presence.Publish(ctx, event, data); err != nil {
		s.presenceFailed(ctx, "publish "+event, err)
	}
}

func (s *Service) presenceFailed(ctx context.Context, op string, err error) {
	s.log.WithContext(ctx).Warn("website chat presence update failed", slog.String("op", op), slog.String("error", err.Error()))
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
