package sync

import (
	"context"
	"testing"
	"time"

	"printlab-be/internal/order"
	"printlab-be/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Insert(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumbers(ctx context.Context, seller string, numbers []string) ([]*order.Order, error) {
	args := m.Called(ctx, seller, numbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindUpdatedSince(ctx context.Context, since time.Time, seller *string) ([]*order.Order, error) {
	args := m.Called(ctx, since, seller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindOnWarehouse(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expect, target order.Status) (*order.Order, error) {
	args := m.Called(ctx, id, expect, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) SetWarehouse(ctx context.Context, id uuid.UUID, expect bool) (*order.Order, error) {
	args := m.Called(ctx, id, expect)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) SetPrinterChecked(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func TestService_GetChanges(t *testing.T) {
	ctx := context.Background()
	since := time.Now().Add(-10 * time.Minute)
	cost := int64(30000)

	sellerActor := user.Actor{Username: "maria", Role: user.RoleSeller}
	printerActor := user.Actor{Username: "petya", Role: user.RolePrinter}
	adminActor := user.Actor{Username: "boss", Role: user.RoleAdmin}

	t.Run("SellerIsScopedToOwnOrders", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewService(repo)

		repo.On("FindUpdatedSince", ctx, since, &sellerActor.Username).
			Return([]*order.Order{{Seller: "maria", Cost: &cost}}, nil)

		changes, err := svc.GetChanges(ctx, sellerActor, since)
		require.NoError(t, err)
		require.Len(t, changes.Orders, 1)
		assert.Nil(t, changes.Orders[0].Cost, "cost must be redacted for sellers")
		assert.False(t, changes.ServerTimestamp.IsZero())
		repo.AssertExpectations(t)
	})

	t.Run("PrinterSeesAllSellers", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewService(repo)

		repo.On("FindUpdatedSince", ctx, since, (*string)(nil)).
			Return([]*order.Order{{Seller: "maria"}, {Seller: "other"}}, nil)

		changes, err := svc.GetChanges(ctx, printerActor, since)
		require.NoError(t, err)
		assert.Len(t, changes.Orders, 2)
	})

	t.Run("AdminKeepsCost", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewService(repo)

		repo.On("FindUpdatedSince", ctx, since, (*string)(nil)).
			Return([]*order.Order{{Seller: "maria", Cost: &cost}}, nil)

		changes, err := svc.GetChanges(ctx, adminActor, since)
		require.NoError(t, err)
		require.NotNil(t, changes.Orders[0].Cost)
	})

	t.Run("ServerTimestampNotBeforeQuery", func(t *testing.T) {
		repo := new(MockOrderRepository)
		svc := NewService(repo)

		repo.On("FindUpdatedSince", ctx, since, (*string)(nil)).
			Return([]*order.Order{}, nil)

		before := time.Now()
		changes, err := svc.GetChanges(ctx, adminActor, since)
		require.NoError(t, err)

		// A client reusing this timestamp as its next cursor must not be
		// able to skip past updates committed before the repository read.
		assert.False(t, changes.ServerTimestamp.After(time.Now()))
		assert.False(t, changes.ServerTimestamp.Before(before.Add(-time.Second)))
	})
}

func TestParseSince(t *testing.T) {
	t.Run("RFC3339", func(t *testing.T) {
		ts, err := ParseSince("2026-05-01T12:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), ts.UTC())
	})

	t.Run("UnixMillis", func(t *testing.T) {
		ts, err := ParseSince("1767225600000")
		require.NoError(t, err)
		assert.Equal(t, int64(1767225600000), ts.UnixMilli())
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := ParseSince("")
		assert.ErrorIs(t, err, ErrBadTimestamp)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := ParseSince("yesterday")
		assert.ErrorIs(t, err, ErrBadTimestamp)
	})
}
