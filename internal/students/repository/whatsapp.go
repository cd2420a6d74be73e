package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrChatNotFound = errors.New("chat not found")

type Chat struct {
	ID              uuid.UUID
	Participants    []string
	InitiatedBy     string
	IsLocked        bool
	LastMessageTime *time.Time
	CreatedAt       time.Time
}

type ChatMessage struct {
	ChatID      uuid.UUID
	MessageID   string
	Message     string
	MessageType string
	Sender      string
	Receiver    string
	Direction   string
	SentAt      time.Time
	IsRead      bool
	ReadAt      *time.Time
}

// FindChatByParticipants returns the first chat whose participants include both numbers.
func (r *Repository) FindChatByParticipants(ctx context.Context, a, b string) (Chat, error) {
	var c Chat
	err := r.pool.QueryRow(ctx, `
		SELECT chat_id, participants, initiated_by, is_locked, last_message_time, created_at
		FROM whatsapp_chats
		WHERE participants @> $1::text[]
		ORDER BY created_at
		LIMIT 1
	`, []string{a, b}).Scan(&c.ID, &c.Participants, &c.InitiatedBy, &c.IsLocked, &c.LastMessageTime, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Chat{}, ErrChatNotFound
	}
	return c, err
}

func (r *Repository) CreateChat(ctx context.Context, participants []string, initiatedBy string) (Chat, error) {
	c := Chat{ID: uuid.New(), Participants: participants, InitiatedBy: initiatedBy}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO whatsapp_chats (chat_id, participants, initiated_by)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, c.ID, participants, initiatedBy).Scan(&c.CreatedAt)
	return c, err
}

// MessageExists matches on message id, or on identical text and send time.
func (r *Repository) MessageExists(ctx context.Context, chatID uuid.UUID, messageID, text string, sentAt time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM whatsapp_messages
			WHERE chat_id = $1
				AND (($2 <> '' AND message_id = $2) OR (message = $3 AND sent_at = $4))
		)
	`, chatID, messageID, text, sentAt).Scan(&exists)
	return exists, err
}

func (r *Repository) InsertMessage(ctx context.Context, m ChatMessage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO whatsapp_messages (id, chat_id, message_id, message, message_type, sender, receiver, direction, sent_at, is_read, read_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, uuid.New(), m.ChatID, m.MessageID, m.Message, m.MessageType, m.Sender, m.Receiver, m.Direction, m.SentAt, m.IsRead, m.ReadAt)
	return err
}

func (r *Repository) TouchChat(ctx context.Context, chatID uuid.UUID, lastMessage time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE whatsapp_chats SET last_message_time = $2 WHERE chat_id = $1`, chatID, lastMessage)
	return err
}

// SaveOutgoing appends a message sent by the business number, creating the chat when needed.
func (r *Repository) SaveOutgoing(ctx context.Context, from, to, text, messageType string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var chatID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT chat_id FROM whatsapp_chats WHERE participants @> $1::text[] ORDER BY created_at LIMIT 1
	`, []string{from, to}).Scan(&chatID)
	if errors.Is(err, pgx.ErrNoRows) {
		chatID = uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO whatsapp_chats (chat_id, participants, initiated_by) VALUES ($1, $2, $3)
		`, chatID, []string{to, from}, from)
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err = tx.Exec(ctx, `
		INSERT INTO whatsapp_messages (id, chat_id, message_id, message, message_type, sender, receiver, direction, sent_at, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'sent', $8, true)
	`, uuid.New(), chatID, uuid.NewString(), text, messageType, from, to, now); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `UPDATE whatsapp_chats SET last_message_time = $2 WHERE chat_id = $1`, chatID, now); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
