package payout

import (
	"context"
	"errors"
	"time"

	"printlab-be/internal/logger"
	"printlab-be/internal/order"
	"printlab-be/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Build(ctx context.Context, actor user.Actor, in BuildInput) (*Payout, error)
	UpdateStatus(ctx context.Context, actor user.Actor, id uuid.UUID, target Status) (*Payout, error)
	Get(ctx context.Context, actor user.Actor, id uuid.UUID) (*Payout, error)
	List(ctx context.Context, actor user.Actor) ([]*Payout, error)
}

type service struct {
	repo      Repository
	orderRepo order.Repository
}

func NewService(repo Repository, orderRepo order.Repository) Service {
	return &service{repo: repo, orderRepo: orderRepo}
}

// Build aggregates the referenced orders into a pending payout draft.
// The aggregation is a snapshot: the orders are read without locks and a
// later order edit never rewrites a built payout. Any unresolved order
// number rejects the whole build; nothing is written.
func (s *service) Build(ctx context.Context, actor user.Actor, in BuildInput) (*Payout, error) {
	if err := user.Authorize(user.OpBuildPayout, actor); err != nil {
		return nil, err
	}
	if in.Seller == "" {
		return nil, &ValidationError{Field: "seller", Reason: "is required"}
	}
	if len(in.OrderNumbers) == 0 {
		return nil, &ValidationError{Field: "orderNumbers", Reason: "must not be empty"}
	}

	numbers := dedupe(in.OrderNumbers)

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Build"),
		zap.String("seller", in.Seller),
		zap.Int("order_count", len(numbers)),
	)

	orders, err := s.orderRepo.GetByNumbers(ctx, in.Seller, numbers)
	if err != nil {
		log.Error("failed to load orders for payout", zap.Error(err))
		return nil, err
	}

	found := make(map[string]*order.Order, len(orders))
	for _, o := range orders {
		found[o.OrderNumber] = o
	}

	var missing []string
	for _, n := range numbers {
		if _, ok := found[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		log.Warn("payout build rejected", zap.Strings("missing", missing))
		return nil, &MissingOrdersError{Seller: in.Seller, Missing: missing}
	}

	var amount int64
	stats := make(map[order.ProductType]TypeStat)
	for _, n := range numbers {
		o := found[n]
		amount += o.Price

		st := stats[o.ProductType]
		st.Count++
		st.Amount += o.Price
		stats[o.ProductType] = st
	}

	p := &Payout{
		ID:               uuid.New(),
		Date:             time.Now().UTC(),
		Seller:           in.Seller,
		Amount:           amount,
		OrderNumbers:     numbers,
		OrderCount:       len(numbers),
		AverageCheck:     averageCheck(amount, len(numbers)),
		ProductTypeStats: stats,
		Status:           StatusPending,
		ProcessedBy:      actor.Username,
		Comment:          in.Comment,
	}

	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}

	log.Info("payout built",
		zap.String("payout_id", p.ID.String()),
		zap.Int64("amount", p.Amount),
	)

	return p, nil
}

// averageCheck divides in minor units; 0 when there are no orders.
func averageCheck(amount int64, count int) int64 {
	if count == 0 {
		return 0
	}
	return amount / int64(count)
}

func dedupe(numbers []string) []string {
	seen := make(map[string]bool, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func (s *service) UpdateStatus(ctx context.Context, actor user.Actor, id uuid.UUID, target Status) (*Payout, error) {
	if err := user.Authorize(user.OpPayoutStatus, actor); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "is not a known payout status"}
	}

	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cur.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{From: cur.Status, To: target}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, cur.Status, target)
	if errors.Is(err, errCASFailed) {
		fresh, ferr := s.repo.GetByID(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		return nil, &InvalidTransitionError{From: fresh.Status, To: target}
	}
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("payout status changed",
		zap.String("payout_id", id.String()),
		zap.String("from", string(cur.Status)),
		zap.String("to", string(target)),
		zap.String("actor", actor.Username),
	)

	return updated, nil
}

func (s *service) Get(ctx context.Context, actor user.Actor, id uuid.UUID) (*Payout, error) {
	if err := user.Authorize(user.OpReadPayout, actor); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, actor user.Actor) ([]*Payout, error) {
	if err := user.Authorize(user.OpReadPayout, actor); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}
