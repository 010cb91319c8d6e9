package sync

import (
	"context"
	"errors"
	"strconv"
	"time"

	"printlab-be/internal/logger"
	"printlab-be/internal/order"
	"printlab-be/internal/user"

	"go.uber.org/zap"
)

var ErrBadTimestamp = errors.New("missing or unparsable since timestamp")

// Changes is the change-sync response: every order mutated at or after the
// requested instant, plus the server time the client persists as its next
// cursor. The server keeps no per-client state.
type Changes struct {
	Orders          []*order.Order `json:"orders"`
	ServerTimestamp time.Time      `json:"serverTimestamp"`
}

type Service interface {
	GetChanges(ctx context.Context, actor user.Actor, since time.Time) (*Changes, error)
}

type service struct {
	repo order.Repository
}

func NewService(repo order.Repository) Service {
	return &service{repo: repo}
}

// GetChanges returns orders with mutation time >= since, newest first.
// The boundary is inclusive; clients dedup by id across polls.
func (s *service) GetChanges(ctx context.Context, actor user.Actor, since time.Time) (*Changes, error) {
	if err := user.Authorize(user.OpSync, actor); err != nil {
		return nil, err
	}

	var seller *string
	if actor.Role == user.RoleSeller {
		seller = &actor.Username
	}

	serverTime := time.Now().UTC()

	orders, err := s.repo.FindUpdatedSince(ctx, since, seller)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to fetch changes",
			zap.Time("since", since),
			zap.Error(err),
		)
		return nil, err
	}

	if !actor.IsAdmin() {
		for _, o := range orders {
			o.RedactCost()
		}
	}

	logger.FromCtx(ctx).Debug("changes fetched",
		zap.Time("since", since),
		zap.Int("count", len(orders)),
		zap.String("role", string(actor.Role)),
	)

	return &Changes{Orders: orders, ServerTimestamp: serverTime}, nil
}

// ParseSince accepts the client cursor as RFC3339 or unix milliseconds.
func ParseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, ErrBadTimestamp
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, ErrBadTimestamp
}
