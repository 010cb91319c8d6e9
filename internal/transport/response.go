package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"printlab-be/internal/debt"
	"printlab-be/internal/logger"
	"printlab-be/internal/order"
	"printlab-be/internal/payout"
	syncsvc "printlab-be/internal/sync"
	"printlab-be/internal/user"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain error kinds onto HTTP statuses. Unknown errors are
// surfaced redacted and logged with full detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("internal error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, user.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, payout.ErrPayoutNotFound),
		errors.Is(err, payout.ErrOrdersNotFound),
		errors.Is(err, debt.ErrDebtNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrValidation),
		errors.Is(err, payout.ErrValidation),
		errors.Is(err, debt.ErrValidation),
		errors.Is(err, debt.ErrInvalidAmount),
		errors.Is(err, syncsvc.ErrBadTimestamp):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, payout.ErrInvalidTransition),
		errors.Is(err, order.ErrNotOnWarehouse),
		errors.Is(err, order.ErrAlreadyOnWarehouse),
		errors.Is(err, debt.ErrOverpayment),
		errors.Is(err, debt.ErrDebtExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
