package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"printlab-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// errCASFailed signals that a conditional single-row update matched nothing.
// The service layer re-reads to tell "gone" from "state changed underneath".
var errCASFailed = errors.New("conditional update affected no rows")

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByNumbers(ctx context.Context, seller string, numbers []string) ([]*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
	FindUpdatedSince(ctx context.Context, since time.Time, seller *string) ([]*Order, error)
	FindOnWarehouse(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, expect, target Status) (*Order, error)
	SetWarehouse(ctx context.Context, id uuid.UUID, expect bool) (*Order, error)
	SetPrinterChecked(ctx context.Context, id uuid.UUID) (*Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// fullColumns includes photos; listColumns deliberately does not, since
// photo payloads are large and excluded from bulk listings.
const (
	fullColumns = `id, order_date, order_number, shipment_number, status, product_type,
		size, seller, price, cost, photos, comment, ready_at, on_warehouse, printer_checked, updated_at`
	listColumns = `id, order_date, order_number, shipment_number, status, product_type,
		size, seller, price, cost, comment, ready_at, on_warehouse, printer_checked, updated_at`
)

func (r *repository) Insert(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Insert"),
		zap.String("order_id", o.ID.String()),
	)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_date, order_number, shipment_number, status, product_type,
			size, seller, price, cost, photos, comment, on_warehouse, printer_checked, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		o.ID,
		o.OrderDate,
		o.OrderNumber,
		o.ShipmentNumber,
		o.Status,
		o.ProductType,
		o.Size,
		o.Seller,
		o.Price,
		o.Cost,
		pq.Array(o.Photos),
		o.Comment,
		o.OnWarehouse,
		o.PrinterChecked,
		o.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	log.Debug("order inserted")
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + fullColumns + ` FROM orders WHERE id = $1`

	var o Order
	var photos pq.StringArray
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID,
		&o.OrderDate,
		&o.OrderNumber,
		&o.ShipmentNumber,
		&o.Status,
		&o.ProductType,
		&o.Size,
		&o.Seller,
		&o.Price,
		&o.Cost,
		&photos,
		&o.Comment,
		&o.ReadyAt,
		&o.OnWarehouse,
		&o.PrinterChecked,
		&o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	o.Photos = photos
	return &o, nil
}

func (r *repository) GetByNumbers(ctx context.Context, seller string, numbers []string) ([]*Order, error) {
	query := `
		SELECT ` + listColumns + `
		FROM orders
		WHERE seller = $1 AND order_number = ANY($2)
	`

	rows, err := r.db.QueryContext(ctx, query, seller, pq.Array(numbers))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrderRows(rows)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Order, error) {
	query := `SELECT ` + listColumns + ` FROM orders WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.Seller != nil {
		query += fmt.Sprintf(" AND seller = $%d", argIndex)
		args = append(args, *filter.Seller)
		argIndex++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += " ORDER BY order_date DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanOrderRows(rows)
}

// FindUpdatedSince powers change-sync. The boundary is inclusive so a client
// reusing the returned server timestamp never loses same-instant updates.
func (r *repository) FindUpdatedSince(ctx context.Context, since time.Time, seller *string) ([]*Order, error) {
	query := `SELECT ` + listColumns + ` FROM orders WHERE updated_at >= $1`
	args := []any{since}

	if seller != nil {
		query += " AND seller = $2"
		args = append(args, *seller)
	}

	query += " ORDER BY updated_at DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query order changes", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanOrderRows(rows)
}

func (r *repository) FindOnWarehouse(ctx context.Context) ([]*Order, error) {
	query := `SELECT ` + listColumns + ` FROM orders WHERE on_warehouse = TRUE ORDER BY ready_at DESC NULLS LAST, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrderRows(rows)
}

// UpdateStatus performs the compare-and-swap move of the state machine.
// ready_at is set on first entry into ready and never cleared afterwards.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, expect, target Status) (*Order, error) {
	query := `
		UPDATE orders
		SET status = $3,
		    ready_at = CASE WHEN $3 = 'ready' THEN COALESCE(ready_at, NOW()) ELSE ready_at END,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + fullColumns

	o, err := r.scanOrderRow(r.db.QueryRowContext(ctx, query, id, expect, target))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errCASFailed
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update order status",
			zap.String("order_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return o, nil
}

// SetWarehouse flips on_warehouse from expect to its negation, atomically.
// Exactly one of two concurrent calls with the same expectation can win.
func (r *repository) SetWarehouse(ctx context.Context, id uuid.UUID, expect bool) (*Order, error) {
	query := `
		UPDATE orders
		SET on_warehouse = NOT $2, updated_at = NOW()
		WHERE id = $1 AND on_warehouse = $2
		RETURNING ` + fullColumns

	o, err := r.scanOrderRow(r.db.QueryRowContext(ctx, query, id, expect))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errCASFailed
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update warehouse flag",
			zap.String("order_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return o, nil
}

func (r *repository) SetPrinterChecked(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `
		UPDATE orders
		SET printer_checked = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + fullColumns

	o, err := r.scanOrderRow(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	return o, nil
}

func (r *repository) scanOrderRow(row *sql.Row) (*Order, error) {
	var o Order
	var photos pq.StringArray
	err := row.Scan(
		&o.ID,
		&o.OrderDate,
		&o.OrderNumber,
		&o.ShipmentNumber,
		&o.Status,
		&o.ProductType,
		&o.Size,
		&o.Seller,
		&o.Price,
		&o.Cost,
		&photos,
		&o.Comment,
		&o.ReadyAt,
		&o.OnWarehouse,
		&o.PrinterChecked,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Photos = photos
	return &o, nil
}

func scanOrderRows(rows *sql.Rows) ([]*Order, error) {
	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID,
			&o.OrderDate,
			&o.OrderNumber,
			&o.ShipmentNumber,
			&o.Status,
			&o.ProductType,
			&o.Size,
			&o.Seller,
			&o.Price,
			&o.Cost,
			&o.Comment,
			&o.ReadyAt,
			&o.OnWarehouse,
			&o.PrinterChecked,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
