// Package webhook receives leads from external forms and ad platforms and
// hands them to lead intake.
package webhook

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAPIKeyNotFound = errors.New("webhook API key not found")

// DefaultSource is stamped on form leads whose key has no source of its own.
const DefaultSource = "webhook"

// APIKey represents a webhook API key stored in the database.
type APIKey struct {
	ID             uuid.UUID
	Name           string
	Source         string
	KeyHash        string
	KeyPrefix      string
	AllowedDomains []string
	IsActive       bool
	CreatedBy      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// KeyStore is the persistence the handlers and middleware need.
type KeyStore interface {
	Create(ctx context.Context, key APIKey) (APIKey, error)
	GetByHash(ctx context.Context, keyHash string) (APIKey, error)
	List(ctx context.Context) ([]APIKey, error)
	Revoke(ctx context.Context, keyID uuid.UUID) error
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GenerateAPIKey creates a new random API key and returns the plaintext key and its hash.
// The plaintext key is returned only once; only the hash is stored.
func GenerateAPIKey() (plaintext string, hash string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}
	plaintext = "whk_" + hex.EncodeToString(bytes)
	return plaintext, HashKey(plaintext), plaintext[:12], nil
}

// HashKey hashes a plaintext API key for lookup.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

const keyColumns = `id, name, source, key_hash, key_prefix, allowed_domains, is_active, created_by, created_at, updated_at`

func scanKey(row pgx.Row) (APIKey, error) {
	var key APIKey
	err := row.Scan(
		&key.ID, &key.Name, &key.Source, &key.KeyHash, &key.KeyPrefix,
		&key.AllowedDomains, &key.IsActive, &key.CreatedBy, &key.CreatedAt, &key.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return APIKey{}, ErrAPIKeyNotFound
	}
	return key, err
}

func (r *Repository) Create(ctx context.Context, key APIKey) (APIKey, error) {
	if key.AllowedDomains == nil {
		key.AllowedDomains = []string{}
	}
	return scanKey(r.pool.QueryRow(ctx, `
		INSERT INTO webhook_api_keys (name, source, key_hash, key_prefix, allowed_domains, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+keyColumns,
		key.Name, key.Source, key.KeyHash, key.KeyPrefix, key.AllowedDomains, key.CreatedBy,
	))
}

// GetByHash retrieves an active API key by its hash.
func (r *Repository) GetByHash(ctx context.Context, keyHash string) (APIKey, error) {
	return scanKey(r.pool.QueryRow(ctx, `
		SELECT `+keyColumns+`
		FROM webhook_api_keys
		WHERE key_hash = $1 AND is_active = true
	`, keyHash))
}

func (r *Repository) List(ctx context.Context) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+keyColumns+`
		FROM webhook_api_keys
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]APIKey, 0)
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Revoke deactivates an API key.
func (r *Repository) Revoke(ctx context.Context, keyID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE webhook_api_keys SET is_active = false, updated_at = now()
		WHERE id = $1
	`, keyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

var _ KeyStore = (*Repository)(nil)
