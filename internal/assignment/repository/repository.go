package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type L2Rule struct {
	ID                    uuid.UUID
	Name                  string
	Conditions            Conditions
	AssignedCounsellorIDs []string
	Priority              int
	IsActive              bool
	RoundRobinIndex       int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type L3Ruleset struct {
	ID                    uuid.UUID
	Name                  string
	CustomRuleName        string
	College               string
	UniversityNames       []string
	CourseConditions      CourseConditions
	Sources               []string
	AssignedCounsellorIDs []string
	Priority              int
	IsActive              bool
	RoundRobinIndex       int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NextCursor returns the index to use now and the one to persist for next time.
// An out-of-range cursor restarts at zero.
func NextCursor(current, size int) (used, next int) {
	if size <= 0 {
		return 0, 0
	}
	used = current
	if used < 0 || used >= size {
		used = 0
	}
	return used, (used + 1) % size
}

const l2Columns = `id, rule_name, conditions, assigned_counsellor_ids, priority, is_active, round_robin_index, created_at, updated_at`

func scanL2(row pgx.Row) (L2Rule, error) {
	var r L2Rule
	var conditions []byte
	err := row.Scan(&r.ID, &r.Name, &conditions, &r.AssignedCounsellorIDs, &r.Priority, &r.IsActive, &r.RoundRobinIndex, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return L2Rule{}, ErrNotFound
	}
	if err != nil {
		return L2Rule{}, err
	}
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &r.Conditions); err != nil {
			return L2Rule{}, fmt.Errorf("decode conditions of rule %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func collectL2(rows pgx.Rows) ([]L2Rule, error) {
	defer rows.Close()
	out := make([]L2Rule, 0)
	for rows.Next() {
		r, err := scanL2(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListActiveL2Rules returns active rules, highest priority first.
func (r *Repository) ListActiveL2Rules(ctx context.Context) ([]L2Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+l2Columns+` FROM lead_assignment_rules_l2
		WHERE is_active = true
		ORDER BY priority DESC, created_at`)
	if err != nil {
		return nil, err
	}
	return collectL2(rows)
}

func (r *Repository) ListL2Rules(ctx context.Context) ([]L2Rule, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+l2Columns+` FROM lead_assignment_rules_l2 ORDER BY priority DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectL2(rows)
}

func (r *Repository) CreateL2Rule(ctx context.Context, rule L2Rule) (L2Rule, error) {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return L2Rule{}, err
	}
	return scanL2(r.pool.QueryRow(ctx, `
		INSERT INTO lead_assignment_rules_l2 (id, rule_name, conditions, assigned_counsellor_ids, priority, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+l2Columns,
		rule.ID, rule.Name, conditions, rule.AssignedCounsellorIDs, rule.Priority, rule.IsActive,
	))
}

func (r *Repository) ToggleL2Rule(ctx context.Context, id uuid.UUID) (L2Rule, error) {
	return scanL2(r.pool.QueryRow(ctx, `
		UPDATE lead_assignment_rules_l2 SET is_active = NOT is_active, updated_at = now()
		WHERE id = $1
		RETURNING `+l2Columns, id))
}

func (r *Repository) DeleteL2Rule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lead_assignment_rules_l2 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdvanceL2Cursor locks the rule row, picks the cursor position for a pool of
// size counsellors and stores the following position.
func (r *Repository) AdvanceL2Cursor(ctx context.Context, ruleID uuid.UUID, size int) (int, error) {
	return r.advanceCursor(ctx, "lead_assignment_rules_l2", ruleID, size)
}

// AdvanceL3Cursor is AdvanceL2Cursor for L3 rulesets.
func (r *Repository) AdvanceL3Cursor(ctx context.Context, rulesetID uuid.UUID, size int) (int, error) {
	return r.advanceCursor(ctx, "lead_assignment_rulesets_l3", rulesetID, size)
}

func (r *Repository) advanceCursor(ctx context.Context, table string, id uuid.UUID, size int) (used int, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var current int
	err = tx.QueryRow(ctx, `SELECT round_robin_index FROM `+table+` WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		err = ErrNotFound
		return 0, err
	}
	if err != nil {
		return 0, err
	}

	used, next := NextCursor(current, size)
	if _, err = tx.Exec(ctx, `UPDATE `+table+` SET round_robin_index = $2, updated_at = now() WHERE id = $1`, id, next); err != nil {
		return 0, err
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return used, nil
}
