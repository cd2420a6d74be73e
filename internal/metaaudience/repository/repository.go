package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("meta audience not found")

type Audience struct {
	ID             uuid.UUID
	Name           string
	MetaAudienceID string
	CreatedBy      string
	CreatedAt      time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, a Audience) (Audience, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO meta_audiences (id, name, meta_audience_id, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, a.ID, a.Name, a.MetaAudienceID, a.CreatedBy).Scan(&a.CreatedAt)
	return a, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Audience, error) {
	var a Audience
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, meta_audience_id, created_by, created_at
		FROM meta_audiences WHERE id = $1
	`, id).Scan(&a.ID, &a.Name, &a.MetaAudienceID, &a.CreatedBy, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Audience{}, ErrNotFound
	}
	return a, err
}

func (r *Repository) List(ctx context.Context) ([]Audience, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, meta_audience_id, created_by, created_at
		FROM meta_audiences ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Audience
	for rows.Next() {
		var a Audience
		if err := rows.Scan(&a.ID, &a.Name, &a.MetaAudienceID, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
