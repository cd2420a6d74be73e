package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"admissions_crm_backend/internal/students/intake"
	"admissions_crm_backend/internal/students/repository"
	"admissions_crm_backend/platform/phone"

	"github.com/google/uuid"
)

// TranscriptStore persists imported WhatsApp conversations.
type TranscriptStore interface {
	FindChatByParticipants(ctx context.Context, a, b string) (repository.Chat, error)
	CreateChat(ctx context.Context, participants []string, initiatedBy string) (repository.Chat, error)
	MessageExists(ctx context.Context, chatID uuid.UUID, messageID, text string, sentAt time.Time) (bool, error)
	InsertMessage(ctx context.Context, m repository.ChatMessage) error
	TouchChat(ctx context.Context, chatID uuid.UUID, lastMessage time.Time) error
}

type TranscriptResult struct {
	ChatID           uuid.UUID `json:"chatId"`
	MessagesImported int       `json:"messagesImported"`
	TotalMessages    int       `json:"totalMessages"`
	ChatCreated      bool      `json:"chatCreated"`
	BusinessNumber   string    `json:"businessNumber"`
}

// businessNumberFor returns the first sender or receiver that is not the student.
func businessNumberFor(student string, msgs []intake.TranscriptMessage, fallback string) string {
	for _, m := range msgs {
		if m.Sender != "" && m.Sender != student {
			return m.Sender
		}
		if m.Receiver != "" && m.Receiver != student {
			return m.Receiver
		}
	}
	return fallback
}

// route fills sender, receiver and direction for one message.
func route(m intake.TranscriptMessage, student, business string) (sender, receiver, direction string) {
	switch {
	case m.Sender != "" && m.Receiver != "":
		direction = "received"
		if m.Sender == business {
			direction = "sent"
		}
		return m.Sender, m.Receiver, direction
	case m.Direction == "sent":
		return business, student, "sent"
	case m.Direction != "":
		return student, business, m.Direction
	default:
		return student, business, "received"
	}
}

// ImportTranscript stores the WhatsApp messages that came with a lead. Messages
// already present, by id or by text and time, are skipped.
func (s *Service) ImportTranscript(ctx context.Context, studentPhone string, msgs []intake.TranscriptMessage) (TranscriptResult, error) {
	if len(msgs) == 0 {
		return TranscriptResult{}, nil
	}
	student := phone.WithCountryCode(studentPhone)
	business := businessNumberFor(student, msgs, s.businessNumber)
	result := TranscriptResult{TotalMessages: len(msgs), BusinessNumber: business}

	chat, err := s.repo.FindChatByParticipants(ctx, student, business)
	if errors.Is(err, repository.ErrChatNotFound) {
		chat, err = s.repo.CreateChat(ctx, []string{student, business}, student)
		result.ChatCreated = true
	}
	if err != nil {
		return TranscriptResult{}, fmt.Errorf("resolve chat: %w", err)
	}
	result.ChatID = chat.ID

	var latest time.Time
	for _, m := range msgs {
		sentAt := s.now().UTC()
		if m.Timestamp != nil {
			sentAt = *m.Timestamp
		}
		exists, err := s.repo.MessageExists(ctx, chat.ID, m.MessageID, m.Text, sentAt)
		if err != nil {
			return result, err
		}
		if exists {
			continue
		}

		messageID := m.MessageID
		if messageID == "" {
			messageID = uuid.NewString()
		}
		sender, receiver, direction := route(m, student, business)
		if err := s.repo.InsertMessage(ctx, repository.ChatMessage{
			ChatID:      chat.ID,
			MessageID:   messageID,
			Message:     m.Text,
			MessageType: m.MessageType,
			Sender:      sender,
			Receiver:    receiver,
			Direction:   direction,
			SentAt:      sentAt,
			IsRead:      m.IsRead,
			ReadAt:      m.ReadAt,
		}); err != nil {
			s.log.WithContext(ctx).Warn("whatsapp message not imported", slog.String("error", err.Error()))
			continue
		}
		result.MessagesImported++
		if sentAt.After(latest) {
			latest = sentAt
		}
	}

	if !latest.IsZero() {
		if err := s.repo.TouchChat(ctx, chat.ID, latest); err != nil {
			return result, err
		}
	}
	return result, nil
}
