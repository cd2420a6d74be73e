package inapp

import (
	"context"
	"errors"
	"time"

	"admissions_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate      = "notification.inapp.repository.create"
	opList        = "notification.inapp.repository.list"
	opCountUnread = "notification.inapp.repository.count_unread"
	opMarkRead    = "notification.inapp.repository.mark_read"
	opMarkAllRead = "notification.inapp.repository.mark_all_read"
	opDelete      = "notification.inapp.repository.delete"

	errCounsellorRequired = "counsellorId is required"
)

type Notification struct {
	ID           uuid.UUID  `json:"id"`
	CounsellorID string     `json:"counsellorId"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	ResourceID   *uuid.UUID `json:"resourceId,omitempty"`
	ResourceType *string    `json:"resourceType,omitempty"`
	Category     string     `json:"category"`
	IsRead       bool       `json:"isRead"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type CreateParams struct {
	CounsellorID string
	Title        string
	Content      string
	ResourceID   *uuid.UUID
	ResourceType *string
	Category     string
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notificationColumns = `id, counsellor_id, title, content, resource_id, resource_type, category, is_read, created_at`

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if p.CounsellorID == "" {
		return Notification{}, apperr.Validation(errCounsellorRequired).WithOp(opCreate)
	}
	if p.Title == "" || p.Content == "" {
		return Notification{}, apperr.Validation("title and content are required").WithOp(opCreate)
	}

	var n Notification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO in_app_notifications (counsellor_id, title, content, resource_id, resource_type, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+notificationColumns,
		p.CounsellorID, p.Title, p.Content, p.ResourceID, p.ResourceType, p.Category,
	).Scan(&n.ID, &n.CounsellorID, &n.Title, &n.Content, &n.ResourceID, &n.ResourceType, &n.Category, &n.IsRead, &n.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Notification{}, apperr.Validation("unknown counsellorId").WithOp(opCreate)
		}
		return Notification{}, apperr.Internal("create in-app notification failed", err).WithOp(opCreate)
	}
	return n, nil
}

func (r *Repository) List(ctx context.Context, counsellorID string, limit, offset int) ([]Notification, int, error) {
	if counsellorID == "" {
		return nil, 0, apperr.Validation(errCounsellorRequired).WithOp(opList)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM in_app_notifications WHERE counsellor_id = $1`, counsellorID).Scan(&total); err != nil {
		return nil, 0, apperr.Internal("count notifications failed", err).WithOp(opList)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM in_app_notifications
		WHERE counsellor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, counsellorID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal("list notifications failed", err).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.CounsellorID, &n.Title, &n.Content, &n.ResourceID, &n.ResourceType, &n.Category, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, apperr.Internal("scan notification failed", err).WithOp(opList)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Internal("iterate notifications failed", err).WithOp(opList)
	}
	return items, total, nil
}

func (r *Repository) CountUnread(ctx context.Context, counsellorID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM in_app_notifications WHERE counsellor_id = $1 AND NOT is_read
	`, counsellorID).Scan(&count)
	if err != nil {
		return 0, apperr.Internal("count unread notifications failed", err).WithOp(opCountUnread)
	}
	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, counsellorID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications SET is_read = TRUE, read_at = now()
		WHERE id = $1 AND counsellor_id = $2
	`, id, counsellorID)
	if err != nil {
		return apperr.Internal("mark notification read failed", err).WithOp(opMarkRead)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found").WithOp(opMarkRead)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, counsellorID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE in_app_notifications SET is_read = TRUE, read_at = now()
		WHERE counsellor_id = $1 AND NOT is_read
	`, counsellorID)
	if err != nil {
		return apperr.Internal("mark all notifications read failed", err).WithOp(opMarkAllRead)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, counsellorID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM in_app_notifications WHERE id = $1 AND counsellor_id = $2`, id, counsellorID)
	if err != nil {
		return apperr.Internal("delete notification failed", err).WithOp(opDelete)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found").WithOp(opDelete)
	}
	return nil
}
