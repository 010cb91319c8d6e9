package debt

import (
	"context"
	"database/sql"
	"errors"

	"printlab-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pqUniqueViolation = "23505"

type Repository interface {
	Create(ctx context.Context, personName string, baseAmount, currentAmount int64) (*Debt, error)
	GetByPerson(ctx context.Context, personName string) (*Debt, error)
	List(ctx context.Context) ([]*Debt, error)
	ApplyPayment(ctx context.Context, personName string, amount int64) (*Debt, error)
	SeedWithPayment(ctx context.Context, personName string, baseAmount, amount int64) (*Debt, error)
	ListPayments(ctx context.Context, personName string) ([]*Payment, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const debtColumns = `id, person_name, base_amount, current_amount, created_at, updated_at`

func (r *repository) Create(ctx context.Context, personName string, baseAmount, currentAmount int64) (*Debt, error) {
	query := `
		INSERT INTO debts (person_name, base_amount, current_amount)
		VALUES ($1, $2, $3)
		RETURNING ` + debtColumns

	d, err := scanDebt(r.db.QueryRowContext(ctx, query, personName, baseAmount, currentAmount))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, ErrDebtExists
		}
		logger.FromCtx(ctx).Error("failed to create debt",
			zap.String("person", personName),
			zap.Error(err),
		)
		return nil, err
	}

	return d, nil
}

func (r *repository) GetByPerson(ctx context.Context, personName string) (*Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM debts WHERE person_name = $1`

	d, err := scanDebt(r.db.QueryRowContext(ctx, query, personName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDebtNotFound
	}
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (r *repository) List(ctx context.Context) ([]*Debt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+debtColumns+` FROM debts ORDER BY person_name`)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query debts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var debts []*Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return debts, nil
}

// ApplyPayment is the single atomic read-modify-write of the ledger.
// The decrement and the guard against a negative balance happen in one
// conditional UPDATE, so concurrent payments against the same person
// serialize at the row and can never lose money. The audit log entry
// commits in the same transaction.
func (r *repository) ApplyPayment(ctx context.Context, personName string, amount int64) (*Debt, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ApplyPayment"),
		zap.String("person", personName),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback payment transaction", zap.Error(rbErr))
			}
		}
	}()

	d, err := scanDebt(tx.QueryRowContext(ctx, `
		UPDATE debts
		SET current_amount = current_amount - $2, updated_at = NOW()
		WHERE person_name = $1 AND current_amount >= $2
		RETURNING `+debtColumns,
		personName, amount,
	))
	if errors.Is(err, sql.ErrNoRows) {
		// Disambiguate: missing debt vs insufficient balance.
		var remaining int64
		qerr := tx.QueryRowContext(ctx,
			`SELECT current_amount FROM debts WHERE person_name = $1`,
			personName,
		).Scan(&remaining)
		if errors.Is(qerr, sql.ErrNoRows) {
			return nil, ErrDebtNotFound
		}
		if qerr != nil {
			return nil, qerr
		}
		return nil, &OverpaymentError{PersonName: personName, Remaining: remaining}
	}
	if err != nil {
		log.Error("failed to apply payment", zap.Error(err))
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO debt_payments (debt_id, amount) VALUES ($1, $2)`,
		d.ID, amount,
	)
	if err != nil {
		log.Error("failed to log payment", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	committed = true
	return d, nil
}

// SeedWithPayment creates the debt row with the first payment already
// applied and writes the matching audit entry in the same transaction.
// Either both rows commit or neither does.
func (r *repository) SeedWithPayment(ctx context.Context, personName string, baseAmount, amount int64) (*Debt, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "SeedWithPayment"),
		zap.String("person", personName),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback seeding transaction", zap.Error(rbErr))
			}
		}
	}()

	d, err := scanDebt(tx.QueryRowContext(ctx, `
		INSERT INTO debts (person_name, base_amount, current_amount)
		VALUES ($1, $2, $3)
		RETURNING `+debtColumns,
		personName, baseAmount, baseAmount-amount,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, ErrDebtExists
		}
		log.Error("failed to seed debt", zap.Error(err))
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO debt_payments (debt_id, amount) VALUES ($1, $2)`,
		d.ID, amount,
	)
	if err != nil {
		log.Error("failed to log seeding payment", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	committed = true
	return d, nil
}

func (r *repository) ListPayments(ctx context.Context, personName string) ([]*Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.debt_id, p.amount, p.paid_at
		FROM debt_payments p
		JOIN debts d ON d.id = p.debt_id
		WHERE d.person_name = $1
		ORDER BY p.paid_at DESC, p.id DESC
	`, personName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.DebtID, &p.Amount, &p.PaidAt); err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDebt(row rowScanner) (*Debt, error) {
	var d Debt
	err := row.Scan(
		&d.ID,
		&d.PersonName,
		&d.BaseAmount,
		&d.CurrentAmount,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
