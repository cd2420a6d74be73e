package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("campaign ruleset not found")

const (
	ActionCreated = "Created ruleset"
	ActionUpdated = "Updated ruleset"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type HistoryEntry struct {
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Ruleset is the single row of campaign ids routed to the regular database.
type Ruleset struct {
	CampaignIDs []string
	CreatedBy   *string
	History     []HistoryEntry
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func scanRuleset(row pgx.Row) (Ruleset, error) {
	var rs Ruleset
	var history []byte
	err := row.Scan(&rs.CampaignIDs, &rs.CreatedBy, &history, &rs.CreatedAt, &rs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ruleset{}, ErrNotFound
	}
	if err != nil {
		return Ruleset{}, err
	}
	if err := json.Unmarshal(history, &rs.History); err != nil {
		return Ruleset{}, err
	}
	return rs, nil
}

func (r *Repository) Get(ctx context.Context) (Ruleset, error) {
	return scanRuleset(r.pool.QueryRow(ctx, `
		SELECT campaign_id, created_by, history, created_at, updated_at FROM regular_db_ruleset WHERE id = 1
	`))
}

// Save replaces the campaign ids and appends a history entry: "Created ruleset"
// for the first save, "Updated ruleset" afterwards.
func (r *Repository) Save(ctx context.Context, campaignIDs []string, userID string, at time.Time) (Ruleset, error) {
	return scanRuleset(r.pool.QueryRow(ctx, `
		INSERT INTO regular_db_ruleset (id, campaign_id, created_by, history)
		VALUES (1, $1, $2, jsonb_build_array(jsonb_build_object('userId', $2::text, 'action', $4::text, 'timestamp', $3::timestamptz)))
		ON CONFLICT (id) DO UPDATE
		SET campaign_id = EXCLUDED.campaign_id,
			created_by = EXCLUDED.created_by,
			history = regular_db_ruleset.history || jsonb_build_array(
				jsonb_build_object('userId', $2::text, 'action', $5::text, 'timestamp', $3::timestamptz)),
			updated_at = now()
		RETURNING campaign_id, created_by, history, created_at, updated_at
	`, campaignIDs, userID, at, ActionCreated, ActionUpdated))
}
