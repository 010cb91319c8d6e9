package debt

import (
	"context"
	"errors"

	"printlab-be/internal/logger"
	"printlab-be/internal/user"

	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, actor user.Actor, personName string, baseAmount int64) (*Debt, error)
	RecordPayment(ctx context.Context, actor user.Actor, in PaymentInput) (*Debt, error)
	List(ctx context.Context, actor user.Actor) ([]*Debt, error)
	ListPayments(ctx context.Context, actor user.Actor, personName string) ([]*Payment, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, actor user.Actor, personName string, baseAmount int64) (*Debt, error) {
	if err := user.Authorize(user.OpManageDebt, actor); err != nil {
		return nil, err
	}
	if personName == "" {
		return nil, ErrValidation
	}
	if baseAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	d, err := s.repo.Create(ctx, personName, baseAmount, baseAmount)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("debt created",
		zap.String("person", personName),
		zap.Int64("base_amount", baseAmount),
		zap.String("actor", actor.Username),
	)

	return d, nil
}

// RecordPayment reduces the running balance by the paid amount.
// A payment that would drive the balance negative is rejected with the
// remaining balance; it never clamps. When the person has no debt yet and
// the input carries a base amount, the debt is seeded in the same call.
func (s *service) RecordPayment(ctx context.Context, actor user.Actor, in PaymentInput) (*Debt, error) {
	if err := user.Authorize(user.OpManageDebt, actor); err != nil {
		return nil, err
	}
	if in.PersonName == "" {
		return nil, ErrValidation
	}
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RecordPayment"),
		zap.String("person", in.PersonName),
		zap.Int64("amount", in.Amount),
	)

	d, err := s.repo.ApplyPayment(ctx, in.PersonName, in.Amount)
	if errors.Is(err, ErrDebtNotFound) && in.BaseAmount != nil {
		return s.seedDebt(ctx, in, log)
	}
	if err != nil {
		return nil, err
	}

	log.Info("payment recorded", zap.Int64("remaining", d.CurrentAmount))
	return d, nil
}

func (s *service) seedDebt(ctx context.Context, in PaymentInput, log *zap.Logger) (*Debt, error) {
	base := *in.BaseAmount
	if base <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.Amount > base {
		return nil, &OverpaymentError{PersonName: in.PersonName, Remaining: base}
	}

	d, err := s.repo.SeedWithPayment(ctx, in.PersonName, base, in.Amount)
	if errors.Is(err, ErrDebtExists) {
		// Lost a creation race; the conditional update now has a row to hit.
		return s.repo.ApplyPayment(ctx, in.PersonName, in.Amount)
	}
	if err != nil {
		log.Error("failed to seed debt with first payment", zap.Error(err))
		return nil, err
	}

	log.Info("debt seeded with first payment",
		zap.Int64("base_amount", base),
		zap.Int64("remaining", d.CurrentAmount),
	)

	return d, nil
}

func (s *service) List(ctx context.Context, actor user.Actor) ([]*Debt, error) {
	if err := user.Authorize(user.OpManageDebt, actor); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *service) ListPayments(ctx context.Context, actor user.Actor, personName string) ([]*Payment, error) {
	if err := user.Authorize(user.OpManageDebt, actor); err != nil {
		return nil, err
	}
	if personName == "" {
		return nil, ErrValidation
	}
	return s.repo.ListPayments(ctx, personName)
}
