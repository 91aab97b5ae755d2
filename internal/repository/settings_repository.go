package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const settingExcludedAuthors = "excluded_author_ids"

const excludedAuthorsCacheKey = "sla-engine:settings:excluded_author_ids"

// SettingsRepository exposes process-wide, externally editable settings. The
// exclusion list is re-read per evaluation; a short-lived Redis cache keeps
// that from costing a Postgres read per note.
type SettingsRepository interface {
	ExcludedAuthorIDs(ctx context.Context) ([]string, error)
	SetExcludedAuthorIDs(ctx context.Context, authorIDs []string) error
}

type settingsRepository struct {
	pool     *pgxpool.Pool
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewSettingsRepository instantiates repository. cache may be nil, in which
// case every read goes to Postgres.
func NewSettingsRepository(pool *pgxpool.Pool, cache *redis.Client, cacheTTL time.Duration) SettingsRepository {
	return &settingsRepository{pool: pool, cache: cache, cacheTTL: cacheTTL}
}

func (r *settingsRepository) ExcludedAuthorIDs(ctx context.Context) ([]string, error) {
	if r.cache != nil {
		if raw, err := r.cache.Get(ctx, excludedAuthorsCacheKey).Bytes(); err == nil {
			var ids []string
			if err := json.Unmarshal(raw, &ids); err == nil {
				return ids, nil
			}
		}
	}

	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM settings WHERE key=$1`, settingExcludedAuthors).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}

	if r.cache != nil && r.cacheTTL > 0 {
		_ = r.cache.Set(ctx, excludedAuthorsCacheKey, raw, r.cacheTTL).Err()
	}
	return ids, nil
}

func (r *settingsRepository) SetExcludedAuthorIDs(ctx context.Context, authorIDs []string) error {
	raw, err := json.Marshal(authorIDs)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO settings (key, value) VALUES ($1,$2)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`
	if _, err := r.pool.Exec(ctx, query, settingExcludedAuthors, raw); err != nil {
		return err
	}
	if r.cache != nil {
		_ = r.cache.Del(ctx, excludedAuthorsCacheKey).Err()
	}
	return nil
}
