package transport

import (
	"net/http"

	"printlab-be/internal/logger"
	"printlab-be/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.AuthMiddleware)
	r.Use(middleware.RateLimitMiddleware)

	r.Get("/health", h.health)
	r.Get("/metrics", h.getMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/{id}", h.getOrder)
			r.Post("/{id}/status", h.transitionOrder)
			r.Post("/{id}/check", h.markPrinterChecked)
		})

		r.Route("/warehouse", func(r chi.Router) {
			r.Get("/", h.listWarehouse)
			r.Post("/{id}", h.placeOnWarehouse)
			r.Delete("/{id}", h.useFromWarehouse)
		})

		r.Get("/changes", h.getChanges)

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", h.buildPayout)
			r.Get("/", h.listPayouts)
			r.Get("/{id}", h.getPayout)
			r.Post("/{id}/status", h.updatePayoutStatus)
		})

		r.Route("/debts", func(r chi.Router) {
			r.Post("/", h.createDebt)
			r.Get("/", h.listDebts)
			r.Post("/{person}/payments", h.recordDebtPayment)
			r.Get("/{person}/payments", h.listDebtPayments)
		})
	})

	return r
}
