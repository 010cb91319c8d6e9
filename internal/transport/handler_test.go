package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"printlab-be/internal/debt"
	"printlab-be/internal/metrics"
	"printlab-be/internal/order"
	"printlab-be/internal/payout"
	syncsvc "printlab-be/internal/sync"
	"printlab-be/internal/user"
	"printlab-be/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Service mocks ---

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, actor user.Actor, in order.CreateInput) (*order.Order, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, actor user.Actor, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, actor user.Actor, filter order.ListFilter) ([]*order.Order, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) Transition(ctx context.Context, actor user.Actor, id uuid.UUID, target order.Status) (*order.Order, error) {
	args := m.Called(ctx, actor, id, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) PlaceOnWarehouse(ctx context.Context, actor user.Actor, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) UseFromWarehouse(ctx context.Context, actor user.Actor, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListWarehouse(ctx context.Context, actor user.Actor) ([]*order.Order, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) MarkPrinterChecked(ctx context.Context, actor user.Actor, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) GetChanges(ctx context.Context, actor user.Actor, since time.Time) (*syncsvc.Changes, error) {
	args := m.Called(ctx, actor, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncsvc.Changes), args.Error(1)
}

type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) Build(ctx context.Context, actor user.Actor, in payout.BuildInput) (*payout.Payout, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.Payout), args.Error(1)
}

func (m *MockPayoutService) UpdateStatus(ctx context.Context, actor user.Actor, id uuid.UUID, target payout.Status) (*payout.Payout, error) {
	args := m.Called(ctx, actor, id, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.Payout), args.Error(1)
}

func (m *MockPayoutService) Get(ctx context.Context, actor user.Actor, id uuid.UUID) (*payout.Payout, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payout.Payout), args.Error(1)
}

func (m *MockPayoutService) List(ctx context.Context, actor user.Actor) ([]*payout.Payout, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payout.Payout), args.Error(1)
}

type MockDebtService struct {
	mock.Mock
}

func (m *MockDebtService) Create(ctx context.Context, actor user.Actor, personName string, baseAmount int64) (*debt.Debt, error) {
	args := m.Called(ctx, actor, personName, baseAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Debt), args.Error(1)
}

func (m *MockDebtService) RecordPayment(ctx context.Context, actor user.Actor, in debt.PaymentInput) (*debt.Debt, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Debt), args.Error(1)
}

func (m *MockDebtService) List(ctx context.Context, actor user.Actor) ([]*debt.Debt, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*debt.Debt), args.Error(1)
}

func (m *MockDebtService) ListPayments(ctx context.Context, actor user.Actor, personName string) ([]*debt.Payment, error) {
	args := m.Called(ctx, actor, personName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*debt.Payment), args.Error(1)
}

type testEnv struct {
	orders  *MockOrderService
	sync    *MockSyncService
	payouts *MockPayoutService
	debts   *MockDebtService
	reg     *metrics.Registry
	router  http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		orders:  new(MockOrderService),
		sync:    new(MockSyncService),
		payouts: new(MockPayoutService),
		debts:   new(MockDebtService),
		reg:     metrics.NewRegistry(),
	}
	env.router = NewRouter(NewHandler(env.orders, env.sync, env.payouts, env.debts, env.reg))
	return env
}

func (e *testEnv) do(method, path string, actor *user.Actor, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	if actor != nil {
		req = req.WithContext(utils.SetActorContext(req.Context(), *actor))
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Unauthenticated(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/api/orders/", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_GetChanges(t *testing.T) {
	actor := user.Actor{Username: "sync-seller", Role: user.RoleSeller}

	t.Run("MissingSinceIsBadRequest", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(http.MethodGet, "/api/changes", &actor, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env.sync.AssertNotCalled(t, "GetChanges")
	})

	t.Run("Success", func(t *testing.T) {
		env := newTestEnv()

		now := time.Now().UTC()
		env.sync.On("GetChanges", mock.Anything, actor, mock.AnythingOfType("time.Time")).
			Return(&syncsvc.Changes{Orders: []*order.Order{}, ServerTimestamp: now}, nil)

		rec := env.do(http.MethodGet, "/api/changes?since=2026-05-01T12:00:00Z", &actor, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body syncsvc.Changes
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.WithinDuration(t, now, body.ServerTimestamp, time.Second)
	})
}

func TestHandler_TransitionOrder(t *testing.T) {
	actor := user.Actor{Username: "printer-1", Role: user.RolePrinter}
	id := uuid.New()

	t.Run("InvalidTransitionIsConflict", func(t *testing.T) {
		env := newTestEnv()

		env.orders.On("Transition", mock.Anything, actor, id, order.StatusShipped).
			Return(nil, &order.InvalidTransitionError{From: order.StatusFulfilled, To: order.StatusShipped})

		rec := env.do(http.MethodPost, "/api/orders/"+id.String()+"/status", &actor, map[string]string{"status": "shipped"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		env := newTestEnv()

		env.orders.On("Transition", mock.Anything, actor, id, order.StatusReady).
			Return(nil, order.ErrOrderNotFound)

		rec := env.do(http.MethodPost, "/api/orders/"+id.String()+"/status", &actor, map[string]string{"status": "ready"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("BadOrderID", func(t *testing.T) {
		env := newTestEnv()

		rec := env.do(http.MethodPost, "/api/orders/not-a-uuid/status", &actor, map[string]string{"status": "ready"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_UseFromWarehouse(t *testing.T) {
	actor := user.Actor{Username: "printer-2", Role: user.RolePrinter}
	id := uuid.New()

	t.Run("AlreadyUsedIsConflict", func(t *testing.T) {
		env := newTestEnv()

		env.orders.On("UseFromWarehouse", mock.Anything, actor, id).
			Return(nil, order.ErrNotOnWarehouse)

		rec := env.do(http.MethodDelete, "/api/warehouse/"+id.String(), &actor, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("SuccessCountsMetric", func(t *testing.T) {
		env := newTestEnv()

		env.orders.On("UseFromWarehouse", mock.Anything, actor, id).
			Return(&order.Order{ID: id, OnWarehouse: false}, nil)

		rec := env.do(http.MethodDelete, "/api/warehouse/"+id.String(), &actor, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, uint64(1), env.reg.Counter("warehouse_uses").Load())
	})

	t.Run("SellerForbidden", func(t *testing.T) {
		env := newTestEnv()

		seller := user.Actor{Username: "seller-wh", Role: user.RoleSeller}
		env.orders.On("UseFromWarehouse", mock.Anything, seller, id).
			Return(nil, user.ErrForbidden)

		rec := env.do(http.MethodDelete, "/api/warehouse/"+id.String(), &seller, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandler_RecordDebtPayment(t *testing.T) {
	actor := user.Actor{Username: "admin-debt", Role: user.RoleAdmin}

	t.Run("OverpaymentIsConflict", func(t *testing.T) {
		env := newTestEnv()

		env.debts.On("RecordPayment", mock.Anything, actor, debt.PaymentInput{PersonName: "Тимофей", Amount: 40000}).
			Return(nil, &debt.OverpaymentError{PersonName: "Тимофей", Remaining: 30000})

		rec := env.do(http.MethodPost, "/api/debts/Тимофей/payments", &actor, map[string]int64{"amount": 40000})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("InvalidAmountIsBadRequest", func(t *testing.T) {
		env := newTestEnv()

		env.debts.On("RecordPayment", mock.Anything, actor, debt.PaymentInput{PersonName: "Тимофей", Amount: -5}).
			Return(nil, debt.ErrInvalidAmount)

		rec := env.do(http.MethodPost, "/api/debts/Тимофей/payments", &actor, map[string]int64{"amount": -5})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_BuildPayout(t *testing.T) {
	actor := user.Actor{Username: "admin-payout", Role: user.RoleAdmin}

	t.Run("MissingOrdersIsNotFound", func(t *testing.T) {
		env := newTestEnv()

		in := payout.BuildInput{Seller: "maria", OrderNumbers: []string{"o1"}}
		env.payouts.On("Build", mock.Anything, actor, in).
			Return(nil, &payout.MissingOrdersError{Seller: "maria", Missing: []string{"o1"}})

		rec := env.do(http.MethodPost, "/api/payouts/", &actor, in)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Created", func(t *testing.T) {
		env := newTestEnv()

		in := payout.BuildInput{Seller: "maria", OrderNumbers: []string{"o1"}}
		env.payouts.On("Build", mock.Anything, actor, in).
			Return(&payout.Payout{ID: uuid.New(), Seller: "maria", Status: payout.StatusPending}, nil)

		rec := env.do(http.MethodPost, "/api/payouts/", &actor, in)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestHandler_InternalErrorIsRedacted(t *testing.T) {
	env := newTestEnv()
	actor := user.Actor{Username: "admin-internal", Role: user.RoleAdmin}

	env.debts.On("List", mock.Anything, actor).
		Return(nil, errors.New("pq: connection refused to 10.0.0.5"))

	rec := env.do(http.MethodGet, "/api/debts/", &actor, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, rec.Body.String(), "internal error")
}

func TestHandler_Health(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
