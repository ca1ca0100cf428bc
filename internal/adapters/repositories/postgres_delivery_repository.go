package repositories

import (
	"context"
	"fmt"
	"strings"

	"delivery-analytics-service/internal/domain"
	"delivery-analytics-service/internal/platform/obs"
	"delivery-analytics-service/internal/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used here, so tests can substitute pgxmock.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS deliveries (
	seq BIGSERIAL,
	order_id TEXT PRIMARY KEY,
	agent_age DOUBLE PRECISION NOT NULL,
	agent_rating DOUBLE PRECISION NOT NULL,
	store_latitude DOUBLE PRECISION NOT NULL,
	store_longitude DOUBLE PRECISION NOT NULL,
	drop_latitude DOUBLE PRECISION NOT NULL,
	drop_longitude DOUBLE PRECISION NOT NULL,
	area TEXT NOT NULL,
	vehicle TEXT NOT NULL,
	weather TEXT NOT NULL,
	traffic TEXT NOT NULL,
	category TEXT NOT NULL,
	distance DOUBLE PRECISION NOT NULL,
	delivery_time DOUBLE PRECISION NOT NULL,
	order_time TEXT NOT NULL DEFAULT '',
	order_date TEXT NOT NULL DEFAULT '',
	pickup_time TEXT NOT NULL DEFAULT ''
);
`

// Postgres-backed implementation of the DeliveryRepository and DeliveryWriter ports.
type PostgresDeliveryRepository struct {
	Pool Pool
}

func NewPostgresDeliveryRepository(pool Pool) *PostgresDeliveryRepository {
	return &PostgresDeliveryRepository{Pool: pool}
}

func (p *PostgresDeliveryRepository) Source() string { return "postgres:deliveries" }

// Create the deliveries table when missing.
func (p *PostgresDeliveryRepository) InitSchema(ctx context.Context) error {
	if _, err := p.Pool.Exec(ctx, postgresSchema); err != nil {
		return eris.Wrap(err, "postgres: init schema")
	}
	return nil
}

// Return all deliveries in import order.
func (p *PostgresDeliveryRepository) ListDeliveries(ctx context.Context) (_ ports.LoadResult, err error) {
	defer obs.Time(ctx, "dataset.postgres.ListDeliveries")(&err)

	query := fmt.Sprintf(`SELECT %s FROM deliveries ORDER BY seq`, strings.Join(deliveryColumns, ", "))
	rows, err := p.Pool.Query(ctx, query)
	if err != nil {
		return ports.LoadResult{}, eris.Wrap(err, "postgres: query deliveries")
	}
	defer rows.Close()

	out := make([]domain.Delivery, 0, 1024)
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(scanTargets(&d)...); err != nil {
			return ports.LoadResult{}, eris.Wrap(err, "postgres: scan delivery row")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return ports.LoadResult{}, eris.Wrap(err, "postgres: iterate delivery rows")
	}

	return ports.LoadResult{Rows: out}, nil
}

const importTable = "deliveries_import"

// upsertQuery moves the staged rows into deliveries, replacing rows that share an order id.
func upsertQuery() string {
	cols := strings.Join(deliveryColumns, ", ")
	sets := make([]string, 0, len(deliveryColumns)-1)
	for _, c := range deliveryColumns {
		if c != "order_id" {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
		}
	}
	return fmt.Sprintf(`INSERT INTO deliveries (%s) SELECT %s FROM %s ON CONFLICT (order_id) DO UPDATE SET %s`,
		cols, cols, importTable, strings.Join(sets, ", "))
}

// latestByOrderID keeps the last row for each order id, in input order.
func latestByOrderID(rows []domain.Delivery) ([]domain.Delivery, error) {
	last := make(map[string]int, len(rows))
	for i, d := range rows {
		if d.OrderID == "" {
			return nil, eris.New("postgres: order_id cannot be empty")
		}
		last[d.OrderID] = i
	}
	out := make([]domain.Delivery, 0, len(last))
	for i, d := range rows {
		if last[d.OrderID] == i {
			out = append(out, d)
		}
	}
	return out, nil
}

// Bulk-load deliveries with the COPY protocol into a staging table, then
// upsert them so a re-import replaces existing orders.
func (p *PostgresDeliveryRepository) WriteDeliveries(ctx context.Context, rows []domain.Delivery) (_ int64, err error) {
	if len(rows) == 0 {
		return 0, nil
	}
	defer obs.Time(ctx, "dataset.postgres.WriteDeliveries")(&err)

	unique, err := latestByOrderID(rows)
	if err != nil {
		return 0, err
	}
	values := make([][]any, 0, len(unique))
	for _, d := range unique {
		values = append(values, rowValues(d))
	}

	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin import")
	}
	fail := func(err error, msg string) (int64, error) {
		_ = tx.Rollback(ctx)
		return 0, eris.Wrap(err, msg)
	}

	stage := fmt.Sprintf(`CREATE TEMP TABLE %s (LIKE deliveries INCLUDING DEFAULTS) ON COMMIT DROP`, importTable)
	if _, err := tx.Exec(ctx, stage); err != nil {
		return fail(err, "postgres: create staging table")
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{importTable}, deliveryColumns, pgx.CopyFromRows(values)); err != nil {
		return fail(err, "postgres: COPY INTO staging table")
	}
	tag, err := tx.Exec(ctx, upsertQuery())
	if err != nil {
		return fail(err, "postgres: upsert deliveries")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit import")
	}
	return tag.RowsAffected(), nil
}
