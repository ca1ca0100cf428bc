package cache

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"delivery-analytics-service/internal/platform/obs"

	"github.com/rotisserie/eris"
)

// SQLite backed cache for rendered chart payloads.
// Rows past their expiry are treated as misses and replaced on the next Put.
type SqliteRenderCache struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSqliteRenderCache(db *sql.DB) *SqliteRenderCache {
	return &SqliteRenderCache{DB: db, now: time.Now}
}

// Fetch a cached payload for key.
func (s *SqliteRenderCache) Get(ctx context.Context, key string) (_ []byte, _ bool, err error) {
	defer obs.Time(ctx, "render.cache.sqlite.Get")(&err)

	if s.DB == nil {
		return nil, false, eris.New("render cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return nil, false, eris.New("get render cache: key must not be empty")
	}

	var payload []byte
	err = s.DB.QueryRowContext(ctx, `
	SELECT payload
	FROM render_cache
	WHERE cache_key = ?
		AND expires_at > ?;
	`, key, s.now().UnixNano()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "get render cache: query render_cache table")
	}

	return payload, true, nil
}

// Store a payload for key; it expires after ttl.
func (s *SqliteRenderCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.DB == nil {
		return eris.New("render cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return eris.New("insert render cache: key must not be empty")
	}

	expires := s.now().Add(ttl).UnixNano()
	if _, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO render_cache (
		cache_key,
		payload,
		expires_at
	)
	VALUES (?, ?, ?);
	`, key, value, expires); err != nil {
		return eris.Wrapf(err, "insert render cache key=%q", key)
	}

	return nil
}

// Purge deletes expired rows and reports how many were removed.
func (s *SqliteRenderCache) Purge(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, eris.New("render cache: db is nil")
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM render_cache WHERE expires_at <= ?;`, s.now().UnixNano())
	if err != nil {
		return 0, eris.Wrap(err, "purge render cache")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
