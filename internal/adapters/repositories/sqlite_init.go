package repositories

import (
	"database/sql"

	"github.com/rotisserie/eris"
)

// deliveryColumns is the storage column order shared by every SQL source.
var deliveryColumns = []string{
	"order_id",
	"agent_age",
	"agent_rating",
	"store_latitude",
	"store_longitude",
	"drop_latitude",
	"drop_longitude",
	"area",
	"vehicle",
	"weather",
	"traffic",
	"category",
	"distance",
	"delivery_time",
	"order_time",
	"order_date",
	"pickup_time",
}

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return eris.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return eris.Wrap(err, "init schema: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	createDeliveriesQuery := `
	CREATE TABLE IF NOT EXISTS deliveries (
		order_id TEXT PRIMARY KEY,
		agent_age REAL NOT NULL,
		agent_rating REAL NOT NULL,
		store_latitude REAL NOT NULL,
		store_longitude REAL NOT NULL,
		drop_latitude REAL NOT NULL,
		drop_longitude REAL NOT NULL,
		area TEXT NOT NULL,
		vehicle TEXT NOT NULL,
		weather TEXT NOT NULL,
		traffic TEXT NOT NULL,
		category TEXT NOT NULL,
		distance REAL NOT NULL,
		delivery_time REAL NOT NULL,
		order_time TEXT NOT NULL DEFAULT '',
		order_date TEXT NOT NULL DEFAULT '',
		pickup_time TEXT NOT NULL DEFAULT ''
	);
	`

	createRenderCacheQuery := `
	CREATE TABLE IF NOT EXISTS render_cache (
        cache_key TEXT PRIMARY KEY,
        payload BLOB NOT NULL,
        expires_at INTEGER NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_render_cache_expires_at
    ON render_cache(expires_at);
	`

	statements := []string{
		createDeliveriesQuery,
		createRenderCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return eris.Wrapf(err, "init schema: exec statement #%d", i+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "init schema: commit tx")
	}

	return nil
}
