package payout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"printlab-be/internal/logger"
	"printlab-be/internal/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var errCASFailed = errors.New("conditional update affected no rows")

type Repository interface {
	Insert(ctx context.Context, p *Payout) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payout, error)
	List(ctx context.Context) ([]*Payout, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, expect, target Status) (*Payout, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const payoutColumns = `id, date, seller, amount, order_numbers, order_count, average_check,
	product_type_stats, status, processed_by, comment`

func (r *repository) Insert(ctx context.Context, p *Payout) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Insert"),
		zap.String("payout_id", p.ID.String()),
	)

	stats, err := json.Marshal(p.ProductTypeStats)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO payouts (
			id, date, seller, amount, order_numbers, order_count, average_check,
			product_type_stats, status, processed_by, comment
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID,
		p.Date,
		p.Seller,
		p.Amount,
		pq.Array(p.OrderNumbers),
		p.OrderCount,
		p.AverageCheck,
		stats,
		p.Status,
		p.ProcessedBy,
		p.Comment,
	)
	if err != nil {
		log.Error("failed to insert payout", zap.Error(err))
		return err
	}

	log.Debug("payout inserted")
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	p, err := scanPayout(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPayoutNotFound
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (r *repository) List(ctx context.Context) ([]*Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts ORDER BY date DESC, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query payouts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var payouts []*Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payouts, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, expect, target Status) (*Payout, error) {
	query := `
		UPDATE payouts
		SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING ` + payoutColumns

	p, err := scanPayout(r.db.QueryRowContext(ctx, query, id, expect, target))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errCASFailed
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update payout status",
			zap.String("payout_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayout(row rowScanner) (*Payout, error) {
	var p Payout
	var numbers pq.StringArray
	var stats []byte

	err := row.Scan(
		&p.ID,
		&p.Date,
		&p.Seller,
		&p.Amount,
		&numbers,
		&p.OrderCount,
		&p.AverageCheck,
		&stats,
		&p.Status,
		&p.ProcessedBy,
		&p.Comment,
	)
	if err != nil {
		return nil, err
	}

	p.OrderNumbers = numbers
	p.ProductTypeStats = map[order.ProductType]TypeStat{}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &p.ProductTypeStats); err != nil {
			return nil, err
		}
	}

	return &p, nil
}
