package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"delivery-analytics-service/internal/domain"
	"delivery-analytics-service/internal/platform/obs"
	"delivery-analytics-service/internal/ports"

	"github.com/rotisserie/eris"
)

// SQLite-backed implementation of the DeliveryRepository and DeliveryWriter ports.
type SqliteDeliveryRepository struct {
	DB   *sql.DB
	Path string
}

func NewSqliteDeliveryRepository(db *sql.DB, path string) *SqliteDeliveryRepository {
	return &SqliteDeliveryRepository{DB: db, Path: path}
}

func (s *SqliteDeliveryRepository) Source() string { return "sqlite:" + s.Path }

// Return all deliveries in import order.
func (s *SqliteDeliveryRepository) ListDeliveries(ctx context.Context) (_ ports.LoadResult, err error) {
	defer obs.Time(ctx, "dataset.sqlite.ListDeliveries")(&err)

	if s.DB == nil {
		return ports.LoadResult{}, eris.New("sqlite delivery repository: DB is nil")
	}

	query := fmt.Sprintf(`SELECT %s FROM deliveries ORDER BY rowid;`, strings.Join(deliveryColumns, ", "))
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return ports.LoadResult{}, eris.Wrap(err, "list deliveries: query deliveries table")
	}
	defer rows.Close()

	out := make([]domain.Delivery, 0, 1024)
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(scanTargets(&d)...); err != nil {
			return ports.LoadResult{}, eris.Wrap(err, "list deliveries: scan row")
		}
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return ports.LoadResult{}, eris.Wrap(err, "list deliveries: row iteration")
	}

	return ports.LoadResult{Rows: out}, nil
}

// Replace-insert every delivery in a single transaction.
func (s *SqliteDeliveryRepository) WriteDeliveries(ctx context.Context, rows []domain.Delivery) (int64, error) {
	if s.DB == nil {
		return 0, eris.New("sqlite delivery repository: DB is nil")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "write deliveries: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(deliveryColumns)), ", ")
	query := fmt.Sprintf(`INSERT OR REPLACE INTO deliveries (%s) VALUES (%s);`,
		strings.Join(deliveryColumns, ", "), placeholders)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, eris.Wrap(err, "write deliveries: prepare insert")
	}
	defer stmt.Close()

	var n int64
	for _, d := range rows {
		if strings.TrimSpace(d.OrderID) == "" {
			return 0, eris.New("write deliveries: order_id cannot be empty")
		}
		if _, err := stmt.ExecContext(ctx, rowValues(d)...); err != nil {
			return 0, eris.Wrapf(err, "write deliveries: insert order_id=%s", d.OrderID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "write deliveries: commit tx")
	}

	return n, nil
}

func scanTargets(d *domain.Delivery) []any {
	return []any{
		&d.OrderID, &d.AgentAge, &d.AgentRating,
		&d.StoreLat, &d.StoreLon, &d.DropLat, &d.DropLon,
		&d.Area, &d.Vehicle, &d.Weather, &d.Traffic, &d.Category,
		&d.Distance, &d.DeliveryTime,
		&d.OrderTime, &d.OrderDate, &d.PickupTime,
	}
}

func rowValues(d domain.Delivery) []any {
	return []any{
		d.OrderID, d.AgentAge, d.AgentRating,
		d.StoreLat, d.StoreLon, d.DropLat, d.DropLon,
		d.Area, d.Vehicle, d.Weather, d.Traffic, d.Category,
		d.Distance, d.DeliveryTime,
		d.OrderTime, d.OrderDate, d.PickupTime,
	}
}
