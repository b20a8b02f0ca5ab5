package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// ConfigRepository reads and writes typed runtime config entries. Absent keys
// surface as pgx.ErrNoRows; callers substitute their own defaults.
type ConfigRepository interface {
	GetValue(ctx context.Context, key string) (*domain.ConfigEntry, error)
	Upsert(ctx context.Context, entry *domain.ConfigEntry) error
	List(ctx context.Context) ([]domain.ConfigEntry, error)
}

type configRepository struct {
	pool *pgxpool.Pool
}

// NewConfigRepository builds repository.
func NewConfigRepository(pool *pgxpool.Pool) ConfigRepository {
	return &configRepository{pool: pool}
}

func (r *configRepository) GetValue(ctx context.Context, key string) (*domain.ConfigEntry, error) {
	const query = `SELECT key, kind, value, updated_at FROM config_entries WHERE key=$1`
	var (
		kind domain.ConfigValueKind
		raw  string
	)
	var stored domain.ConfigEntry
	if err := r.pool.QueryRow(ctx, query, key).Scan(&stored.Key, &kind, &raw, &stored.UpdatedAt); err != nil {
		return nil, err
	}
	entry, err := domain.ParseConfigEntry(stored.Key, kind, raw)
	if err != nil {
		return nil, err
	}
	entry.UpdatedAt = stored.UpdatedAt
	return entry, nil
}

func (r *configRepository) Upsert(ctx context.Context, entry *domain.ConfigEntry) error {
	const query = `
        INSERT INTO config_entries (key, kind, value)
        VALUES ($1,$2,$3)
        ON CONFLICT (key) DO UPDATE SET kind=EXCLUDED.kind, value=EXCLUDED.value, updated_at=NOW()
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, entry.Key, entry.Kind, entry.RawValue()).Scan(&entry.UpdatedAt)
}

func (r *configRepository) List(ctx context.Context) ([]domain.ConfigEntry, error) {
	const query = `SELECT key, kind, value, updated_at FROM config_entries ORDER BY key ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ConfigEntry
	for rows.Next() {
		var (
			key       string
			kind      domain.ConfigValueKind
			raw       string
			updatedAt time.Time
		)
		if err := rows.Scan(&key, &kind, &raw, &updatedAt); err != nil {
			return nil, err
		}
		entry, err := domain.ParseConfigEntry(key, kind, raw)
		if err != nil {
			return nil, err
		}
		entry.UpdatedAt = updatedAt
		result = append(result, *entry)
	}
	return result, rows.Err()
}
