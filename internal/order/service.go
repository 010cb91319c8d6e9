package order

import (
	"context"
	"errors"
	"time"

	"printlab-be/internal/logger"
	"printlab-be/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, actor user.Actor, in CreateInput) (*Order, error)
	Get(ctx context.Context, actor user.Actor, id uuid.UUID) (*Order, error)
	List(ctx context.Context, actor user.Actor, filter ListFilter) ([]*Order, error)
	Transition(ctx context.Context, actor user.Actor, id uuid.UUID, target Status) (*Order, error)
	PlaceOnWarehouse(ctx context.Context, actor user.Actor, id uuid.UUID) (*Order, error)
	UseFromWarehouse(ctx context.Context, actor user.Actor, id uuid.UUID) (*Order, error)
	ListWarehouse(ctx context.Context, actor user.Actor) ([]*Order, error)
	MarkPrinterChecked(ctx context.Context, actor user.Actor, id uuid.UUID) (*Order, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, actor user.Actor, in CreateInput) (*Order, error) {
	if err := user.Authorize(user.OpCreateOrder, actor); err != nil {
		return nil, err
	}

	// A seller may only file orders under its own name.
	if actor.Role == user.RoleSeller {
		if in.Seller != "" && in.Seller != actor.Username {
			return nil, user.ErrForbidden
		}
		in.Seller = actor.Username
	}

	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	// Cost is visible and settable by administrators only.
	if !actor.IsAdmin() {
		in.Cost = nil
	}

	now := time.Now().UTC()
	o := &Order{
		ID:             uuid.New(),
		OrderDate:      now,
		OrderNumber:    in.OrderNumber,
		ShipmentNumber: in.ShipmentNumber,
		Status:         StatusAdded,
		ProductType:    in.ProductType,
		Size:           in.Size,
		Seller:         in.Seller,
		Price:          in.Price,
		Cost:           in.Cost,
		Photos:         in.Photos,
		Comment:        in.Comment,
		OnWarehouse:    false,
		PrinterChecked: false,
		UpdatedAt:      now,
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
		zap.String("order_id", o.ID.String()),
		zap.String("seller", o.Seller),
	)

	if err := s.repo.Insert(ctx, o); err != nil {
		log.Error("failed to create order", zap.Error(err))
		return nil, err
	}

	log.Info("order created",
		zap.String("order_number", o.OrderNumber),
		zap.String("product_type", string(o.ProductType)),
	)

	return o, nil
}

func validateCreateInput(in CreateInput) error {
	if in.OrderNumber == "" {
		return &ValidationError{Field: "orderNumber", Reason: "is required"}
	}
	if in.Seller == "" {
		return &ValidationError{Field: "seller", Reason: "is required"}
	}
	if !in.ProductType.Valid() {
		return &ValidationError{Field: "productType", Reason: "is not a known print category"}
	}
	if !in.Size.Valid() {
		return &ValidationError{Field: "size", Reason: "must be one of S, M, L, XL"}
	}
	if in.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	if in.Cost != nil && *in.Cost < 0 {
		return &ValidationError{Field: "cost", Reason: "must not be negative"}
	}
	return nil
}

func (s *service) Get(ctx context.Context, actor user.Actor, id uuid.UUID) (*Order, error) {
	if err := user.Authorize(user.OpReadOrder, actor); err != nil {
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == user.RoleSeller && o.Seller != actor.Username {
		return nil, user.ErrForbidden
	}
	if !actor.IsAdmin() {
		o.RedactCost()
	}

	return o, nil
}

func (s *service) List(ctx context.Context, actor user.Actor, filter ListFilter) ([]*Order, error) {
	if err := user.Authorize(user.OpReadOrder, actor); err != nil {
		return nil, err
	}

	if actor.Role == user.RoleSeller {
		filter.Seller = &actor.Username
	}

	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		for _, o := range orders {
			o.RedactCost()
		}
	}

	return orders, nil
}

// Transition moves the order through the lifecycle state machine.
// Re-entering ready is an idempotent no-op that keeps the original ready_at.
func (s *service) Transition(ctx context.Context, actor user.Actor, id uuid.UUID, target Status) (*Order, error) {
	if err := user.Authorize(user.OpTransitionOrder, actor); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "is not a known status"}
	}

	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cur.Status == StatusReady && target == StatusReady {
		if !actor.IsAdmin() {
			cur.RedactCost()
		}
		return cur, nil
	}
	if !cur.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{From: cur.Status, To: target}
	}

	updated, err := s.repo.UpdateStatus(ctx, id, cur.Status, target)
	if errors.Is(err, errCASFailed) {
		// Lost a race: somebody moved the order between read and update.
		fresh, ferr := s.repo.GetByID(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		if fresh.Status == StatusReady && target == StatusReady {
			if !actor.IsAdmin() {
				fresh.RedactCost()
			}
			return fresh, nil
		}
		return nil, &InvalidTransitionError{From: fresh.Status, To: target}
	}
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("from", string(cur.Status)),
		zap.String("to", string(target)),
		zap.String("actor", actor.Username),
	)

	if !actor.IsAdmin() {
		updated.RedactCost()
	}

	return updated, nil
}

func (s *service) PlaceOnWarehouse(ctx context.Context, actor user.Actor, id uuid.UUID) (*Order, error) {
	if err := user.Authorize(user.OpWarehouse, actor); err != nil {
		return nil, err
	}

	o, err := s.repo.SetWarehouse(ctx, id, false)
	if errors.Is(err, errCASFailed) {
		if _, ferr := s.repo.GetByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrAlreadyOnWarehouse
	}
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("order placed on warehouse",
		zap.String("order_id", id.String()),
		zap.String("actor", actor.Username),
	)

	if !actor.IsAdmin() {
		o.RedactCost()
	}

	return o, nil
}

// UseFromWarehouse removes an in-stock item exactly once. A retry after
// success observes NotOnWarehouse instead of double-decrementing stock.
func (s *service) UseFromWarehouse(ctx context.Context, actor user.Actor, id uuid.UUID) (*Order, error) {
	if err := user.Authorize(user.OpWarehouse, actor); err != nil {
		return nil, err
	}

	o, err := s.repo.SetWarehouse(ctx, id, true)
	if errors.Is(err, errCASFailed) {
		if _, ferr := s.repo.GetByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrNotOnWarehouse
	}
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("order used from warehouse",
		zap.String("order_id", id.String()),
		zap.String("actor", actor.Username),
	)

	if !actor.IsAdmin() {
		o.RedactCost()
	}

	return o, nil
}

func (s *service) ListWarehouse(ctx context.Context, actor user.Actor) ([]*Order, error) {
	if err := user.Authorize(user.OpWarehouse, actor); err != nil {
		return nil, err
	}

	orders, err := s.repo.FindOnWarehouse(ctx)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		for _, o := range orders {
			o.RedactCost()
		}
	}

	return orders, nil
}

func (s *service) MarkPrinterChecked(ctx context.Context, actor user.Actor, id uuid.UUID) (*Order, error) {
	if err := user.Authorize(user.OpPrinterCheck, actor); err != nil {
		return nil, err
	}

	o, err := s.repo.SetPrinterChecked(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		o.RedactCost()
	}

	return o, nil
}
