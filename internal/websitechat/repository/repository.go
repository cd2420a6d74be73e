package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("website chat not found")

const (
	StatusActive  = "ACTIVE"
	StatusOffline = "OFFLINE"

	SenderStudent    = "student"
	SenderCounsellor = "counsellor"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Chat struct {
	ID                    uuid.UUID
	StudentID             uuid.UUID
	StudentName           string
	StudentPhone          string
	CounsellorID          *string
	DisplayName           string
	PlatformDetails       map[string]any
	Status                string
	ClosedBy              string
	ClosedReason          string
	LastMessage           string
	LastMessageAt         time.Time
	UnreadCountStudent    int
	UnreadCountCounsellor int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsOpen reports whether messages can still be added.
func (c Chat) IsOpen() bool {
	return c.Status == StatusActive || c.Status == StatusOffline
}

type Message struct {
	ID           uuid.UUID
	ChatID       uuid.UUID
	SenderType   string
	SenderUserID string
	DisplayName  string
	Content      string
	IsRead       bool
	ReadAt       *time.Time
	CreatedAt    time.Time
}

const chatColumns = `id, student_id, student_name, student_phone, counsellor_id, display_name, platform_details,
	status, closed_by, closed_reason, last_message, last_message_at, unread_count_student,
	unread_count_counsellor, created_at, updated_at`

func scanChat(row pgx.Row) (Chat, error) {
	var c Chat
	var details []byte
	err := row.Scan(&c.ID, &c.StudentID, &c.StudentName, &c.StudentPhone, &c.CounsellorID, &c.DisplayName, &details,
		&c.Status, &c.ClosedBy, &c.ClosedReason, &c.LastMessage, &c.LastMessageAt, &c.UnreadCountStudent,
		&c.UnreadCountCounsellor, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Chat{}, ErrNotFound
	}
	if err != nil {
		return Chat{}, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &c.PlatformDetails); err != nil {
			return Chat{}, err
		}
	}
	return c, nil
}

func collectChats(rows pgx.Rows) ([]Chat, error) {
	defer rows.Close()
	items := make([]Chat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *Repository) CreateChat(ctx context.Context, c Chat) (Chat, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	details, err := json.Marshal(c.PlatformDetails)
	if err != nil {
		return Chat{}, err
	}
	if c.PlatformDetails == nil {
		details = []byte("{}")
	}
	return scanChat(r.pool.QueryRow(ctx, `
		INSERT INTO website_chats (id, student_id, student_name, student_phone, counsellor_id, display_name, platform_details, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+chatColumns,
		c.ID, c.StudentID, c.StudentName, c.StudentPhone, c.CounsellorID, c.DisplayName, details, c.Status))
}

func (r *Repository) GetChat(ctx context.Context, id uuid.UUID) (Chat, error) {
	return scanChat(r.pool.QueryRow(ctx, `SELECT `+chatColumns+` FROM website_chats WHERE id = $1`, id))
}

// FindOpenChat returns the student's most recent open chat.
func (r *Repository) FindOpenChat(ctx context.Context, studentID uuid.UUID) (Chat, error) {
	return scanChat(r.pool.QueryRow(ctx, `
		SELECT `+chatColumns+` FROM website_chats
		WHERE student_id = $1 AND status IN ('ACTIVE', 'OFFLINE')
		ORDER BY last_message_at DESC LIMIT 1
	`, studentID))
}

// AddMessage inserts the message and updates the chat preview and the
// recipient's unread counter.
func (r *Repository) AddMessage(ctx context.Context, m Message) (Message, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Message{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO website_chat_messages (id, chat_id, sender_type, sender_user_id, display_name, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, m.ID, m.ChatID, m.SenderType, m.SenderUserID, m.DisplayName, m.Content).Scan(&m.CreatedAt)
	if err != nil {
		return Message{}, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE website_chats SET
			last_message = $2,
			last_message_at = $3,
			unread_count_counsellor = unread_count_counsellor + CASE WHEN $4 = 'student' THEN 1 ELSE 0 END,
			unread_count_student = unread_count_student + CASE WHEN $4 = 'student' THEN 0 ELSE 1 END,
			updated_at = now()
		WHERE id = $1
	`, m.ChatID, m.Content, m.CreatedAt, m.SenderType)
	if err != nil {
		return Message{}, err
	}
	if tag.RowsAffected() == 0 {
		return Message{}, ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return Message{}, err
	}
	return m, nil
}

// MarkRead flags messages sent to reader as read and resets the reader's counter.
func (r *Repository) MarkRead(ctx context.Context, chatID uuid.UUID, reader string) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE website_chat_messages SET is_read = true, read_at = now()
		WHERE chat_id = $1 AND sender_type <> $2 AND NOT is_read
	`, chatID, reader)
	if err != nil {
		return 0, err
	}

	column := "unread_count_counsellor"
	if reader == SenderStudent {
		column = "unread_count_student"
	}
	if _, err := tx.Exec(ctx, `UPDATE website_chats SET `+column+` = 0, updated_at = now() WHERE id = $1`, chatID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	return r.queryMessages(ctx, `
		SELECT id, chat_id, sender_type, sender_user_id, display_name, content, is_read, read_at, created_at
		FROM website_chat_messages WHERE chat_id = $1 ORDER BY created_at ASC
	`, chatID)
}

// ListStudentMessages returns messages across all of the student's chats.
func (r *Repository) ListStudentMessages(ctx context.Context, studentID uuid.UUID) ([]Message, error) {
	return r.queryMessages(ctx, `
		SELECT m.id, m.chat_id, m.sender_type, m.sender_user_id, m.display_name, m.content, m.is_read, m.read_at, m.created_at
		FROM website_chat_messages m
		JOIN website_chats c ON c.id = m.chat_id
		WHERE c.student_id = $1
		ORDER BY m.created_at ASC
	`, studentID)
}

func (r *Repository) queryMessages(ctx context.Context, query string, arg uuid.UUID) ([]Message, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderType, &m.SenderUserID, &m.DisplayName, &m.Content, &m.IsRead, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// ListLatestPerStudent returns each student's most recent chat, newest first.
// An empty counsellorID lists every counsellor's chats.
func (r *Repository) ListLatestPerStudent(ctx context.Context, counsellorID string) ([]Chat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+chatColumns+` FROM (
			SELECT DISTINCT ON (student_id) `+chatColumns+`
			FROM website_chats
			WHERE $1 = '' OR counsellor_id = $1
			ORDER BY student_id, last_message_at DESC
		) latest
		ORDER BY last_message_at DESC
	`, counsellorID)
	if err != nil {
		return nil, err
	}
	return collectChats(rows)
}

func (r *Repository) Close(ctx context.Context, id uuid.UUID, status, closedBy, reason string) (Chat, error) {
	return scanChat(r.pool.QueryRow(ctx, `
		UPDATE website_chats
		SET status = $2, closed_by = $3, closed_reason = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+chatColumns, id, status, closedBy, reason))
}
