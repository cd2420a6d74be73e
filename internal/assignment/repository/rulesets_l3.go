package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const l3Columns = `id, name, custom_rule_name, college, university_name, course_conditions, source,
	assigned_counsellor_ids, priority, is_active, round_robin_index, created_at, updated_at`

func scanL3(row pgx.Row) (L3Ruleset, error) {
	var r L3Ruleset
	var course []byte
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.CustomRuleName,
		&r.College,
		&r.UniversityNames,
		&course,
		&r.Sources,
		&r.AssignedCounsellorIDs,
		&r.Priority,
		&r.IsActive,
		&r.RoundRobinIndex,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return L3Ruleset{}, ErrNotFound
	}
	if err != nil {
		return L3Ruleset{}, err
	}
	if len(course) > 0 {
		if err := json.Unmarshal(course, &r.CourseConditions); err != nil {
			return L3Ruleset{}, fmt.Errorf("decode course conditions of ruleset %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func collectL3(rows pgx.Rows) ([]L3Ruleset, error) {
	defer rows.Close()
	out := make([]L3Ruleset, 0)
	for rows.Next() {
		r, err := scanL3(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (r *Repository) ListActiveL3Rulesets(ctx context.Context) ([]L3Ruleset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+l3Columns+` FROM lead_assignment_rulesets_l3
		WHERE is_active = true
		ORDER BY priority DESC, created_at`)
	if err != nil {
		return nil, err
	}
	return collectL3(rows)
}

func (r *Repository) ListL3Rulesets(ctx context.Context) ([]L3Ruleset, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+l3Columns+` FROM lead_assignment_rulesets_l3
		ORDER BY priority DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectL3(rows)
}

func (r *Repository) GetL3Ruleset(ctx context.Context, id uuid.UUID) (L3Ruleset, error) {
	return scanL3(r.pool.QueryRow(ctx, `SELECT `+l3Columns+` FROM lead_assignment_rulesets_l3 WHERE id = $1`, id))
}

// CreateL3Ruleset inserts the ruleset and names it L3-RULE-<n> from a sequence.
func (r *Repository) CreateL3Ruleset(ctx context.Context, rs L3Ruleset) (L3Ruleset, error) {
	course, err := json.Marshal(rs.CourseConditions)
	if err != nil {
		return L3Ruleset{}, err
	}
	return scanL3(r.pool.QueryRow(ctx, `
		INSERT INTO lead_assignment_rulesets_l3
			(id, name, custom_rule_name, college, university_name, course_conditions, source, assigned_counsellor_ids, priority, is_active, round_robin_index)
		VALUES ($1, 'L3-RULE-' || lpad(nextval('l3_ruleset_name_seq')::text, 4, '0'), $2, $3, $4, $5, $6, $7, $8, $9, 0)
		RETURNING `+l3Columns,
		rs.ID, rs.CustomRuleName, rs.College, rs.UniversityNames, course, rs.Sources, rs.AssignedCounsellorIDs, rs.Priority, rs.IsActive,
	))
}

// UpdateL3Ruleset overwrites the editable fields of an existing ruleset.
func (r *Repository) UpdateL3Ruleset(ctx context.Context, rs L3Ruleset) (L3Ruleset, error) {
	course, err := json.Marshal(rs.CourseConditions)
	if err != nil {
		return L3Ruleset{}, err
	}
	return scanL3(r.pool.QueryRow(ctx, `
		UPDATE lead_assignment_rulesets_l3 SET
			custom_rule_name = $2,
			college = $3,
			university_name = $4,
			course_conditions = $5,
			source = $6,
			assigned_counsellor_ids = $7,
			priority = $8,
			is_active = $9,
			updated_at = now()
		WHERE id = $1
		RETURNING `+l3Columns,
		rs.ID, rs.CustomRuleName, rs.College, rs.UniversityNames, course, rs.Sources, rs.AssignedCounsellorIDs, rs.Priority, rs.IsActive,
	))
}

func (r *Repository) DeleteL3Ruleset(ctx context.Context, id uuid.UUID) (L3Ruleset, error) {
	return scanL3(r.pool.QueryRow(ctx, `DELETE FROM lead_assignment_rulesets_l3 WHERE id = $1 RETURNING `+l3Columns, id))
}

func (r *Repository) ToggleL3Ruleset(ctx context.Context, id uuid.UUID) (L3Ruleset, error) {
	return scanL3(r.pool.QueryRow(ctx, `
		UPDATE lead_assignment_rulesets_l3 SET is_active = NOT is_active, updated_at = now()
		WHERE id = $1
		RETURNING `+l3Columns, id))
}
