package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("counsellor not found")
var ErrEmailTaken = errors.New("email already in use")

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Counsellor struct {
	ID                  string
	Name                string
	Email               string
	PasswordHash        string
	Role                string
	Status              string
	PreferredMode       string
	CurrentLeadCapacity int
	TotalLeads          int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsActive reports whether the counsellor can receive leads.
func (c Counsellor) IsActive() bool {
	return c.Status == StatusActive
}

type ListFilter struct {
	Role   string
	Status string
}

const counsellorColumns = `counsellor_id, counsellor_name, counsellor_email, password_hash, role, status,
	counsellor_preferred_mode, current_lead_capacity, total_leads, created_at, updated_at`

func scanCounsellor(row pgx.Row) (Counsellor, error) {
	var c Counsellor
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.PasswordHash,
		&c.Role,
		&c.Status,
		&c.PreferredMode,
		&c.CurrentLeadCapacity,
		&c.TotalLeads,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Counsellor{}, ErrNotFound
	}
	return c, err
}

func collect(rows pgx.Rows) ([]Counsellor, error) {
	defer rows.Close()
	out := make([]Counsellor, 0)
	for rows.Next() {
		c, err := scanCounsellor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) Create(ctx context.Context, c Counsellor) (Counsellor, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO counsellors (counsellor_id, counsellor_name, counsellor_email, password_hash, role, status, counsellor_preferred_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (counsellor_email) DO NOTHING
		RETURNING `+counsellorColumns,
		c.ID, c.Name, c.Email, c.PasswordHash, c.Role, c.Status, c.PreferredMode,
	)
	created, err := scanCounsellor(row)
	if errors.Is(err, ErrNotFound) {
		return Counsellor{}, ErrEmailTaken
	}
	return created, err
}

func (r *Repository) GetByID(ctx context.Context, id string) (Counsellor, error) {
	return scanCounsellor(r.pool.QueryRow(ctx, `SELECT `+counsellorColumns+` FROM counsellors WHERE counsellor_id = $1`, id))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (Counsellor, error) {
	return scanCounsellor(r.pool.QueryRow(ctx, `SELECT `+counsellorColumns+` FROM counsellors WHERE lower(counsellor_email) = lower($1)`, email))
}

// FindActiveByID returns the counsellor only when it is active.
func (r *Repository) FindActiveByID(ctx context.Context, id string) (Counsellor, error) {
	return scanCounsellor(r.pool.QueryRow(ctx, `
		SELECT `+counsellorColumns+` FROM counsellors WHERE counsellor_id = $1 AND status = 'active'`, id))
}

func (r *Repository) FindActiveByEmail(ctx context.Context, email string) (Counsellor, error) {
	return scanCounsellor(r.pool.QueryRow(ctx, `
		SELECT `+counsellorColumns+` FROM counsellors WHERE lower(counsellor_email) = lower($1) AND status = 'active'`, email))
}

// FindFirstByRole returns the oldest counsellor with the role, regardless of status.
func (r *Repository) FindFirstByRole(ctx context.Context, role string) (Counsellor, error) {
	return scanCounsellor(r.pool.QueryRow(ctx, `
		SELECT `+counsellorColumns+` FROM counsellors WHERE role = $1 ORDER BY created_at, counsellor_id LIMIT 1`, role))
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Counsellor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+counsellorColumns+` FROM counsellors
		WHERE ($1 = '' OR role = $1) AND ($2 = '' OR status = $2)
		ORDER BY counsellor_name, counsellor_id`, filter.Role, filter.Status)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *Repository) ListByIDs(ctx context.Context, ids []string) ([]Counsellor, error) {
	if len(ids) == 0 {
		return []Counsellor{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+counsellorColumns+` FROM counsellors WHERE counsellor_id = ANY($1) ORDER BY counsellor_id`, ids)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListActiveByIDs returns the active subset of ids ordered by counsellor id,
// which keeps round-robin positions stable between calls.
func (r *Repository) ListActiveByIDs(ctx context.Context, ids []string) ([]Counsellor, error) {
	if len(ids) == 0 {
		return []Counsellor{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+counsellorColumns+` FROM counsellors
		WHERE counsellor_id = ANY($1) AND status = 'active'
		ORDER BY counsellor_id`, ids)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// CountByRole counts how many of ids exist with the given role.
func (r *Repository) CountByRole(ctx context.Context, ids []string, role string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM counsellors WHERE counsellor_id = ANY($1) AND role = $2`, ids, role).Scan(&n)
	return n, err
}

// EnsureDefault inserts c when its id is free. An existing row keeps its email
// and status but gets its name and preferred mode reset when the name drifted.
func (r *Repository) EnsureDefault(ctx context.Context, c Counsellor) (Counsellor, error) {
	return scanCounsellor(r.pool.QueryRow(ctx, `
		INSERT INTO counsellors (counsellor_id, counsellor_name, counsellor_email, password_hash, role, status, counsellor_preferred_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (counsellor_id) DO UPDATE SET
			counsellor_name = EXCLUDED.counsellor_name,
			counsellor_preferred_mode = CASE
				WHEN counsellors.counsellor_name <> EXCLUDED.counsellor_name THEN EXCLUDED.counsellor_preferred_mode
				ELSE counsellors.counsellor_preferred_mode
			END,
			updated_at = now()
		RETURNING `+counsellorColumns,
		c.ID, c.Name, c.Email, c.PasswordHash, c.Role, c.Status, c.PreferredMode,
	))
}

func (r *Repository) UpdateStatus(ctx context.Context, id, status string) (Counsellor, error) {
	return scanCounsellor(r.pool.QueryRow(ctx, `
		UPDATE counsellors SET status = $2, updated_at = now()
		WHERE counsellor_id = $1
		RETURNING `+counsellorColumns, id, status))
}

// IncrementLeadCounters bumps current_lead_capacity and total_leads by one.
func (r *Repository) IncrementLeadCounters(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE counsellors
		SET current_lead_capacity = current_lead_capacity + 1, total_leads = total_leads + 1, updated_at = now()
		WHERE counsellor_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
