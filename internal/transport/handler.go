package transport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"printlab-be/internal/debt"
	"printlab-be/internal/metrics"
	"printlab-be/internal/order"
	"printlab-be/internal/payout"
	syncsvc "printlab-be/internal/sync"
	"printlab-be/internal/user"
	"printlab-be/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	Orders  order.Service
	Sync    syncsvc.Service
	Payouts payout.Service
	Debts   debt.Service
	Metrics *metrics.Registry
}

func NewHandler(orders order.Service, sync syncsvc.Service, payouts payout.Service, debts debt.Service, reg *metrics.Registry) *Handler {
	return &Handler{
		Orders:  orders,
		Sync:    sync,
		Payouts: payouts,
		Debts:   debts,
		Metrics: reg,
	}
}

// requireActor rejects unauthenticated requests before any service call.
func requireActor(w http.ResponseWriter, r *http.Request) (user.Actor, bool) {
	actor, ok := utils.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return user.Actor{}, false
	}
	return actor, true
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, param))
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var in order.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	o, err := h.Orders.Create(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Metrics.Counter("orders_created").Inc()
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}

	o, err := h.Orders.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var filter order.ListFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := order.Status(raw)
		filter.Status = &st
	}
	if raw := r.URL.Query().Get("seller"); raw != "" {
		filter.Seller = &raw
	}

	orders, err := h.Orders.List(r.Context(), actor, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}

	var body struct {
		Status order.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	o, err := h.Orders.Transition(r.Context(), actor, id, body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Metrics.Counter("orders_transitioned").Inc()
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) markPrinterChecked(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}

	o, err := h.Orders.MarkPrinterChecked(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) listWarehouse(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	orders, err := h.Orders.ListWarehouse(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) placeOnWarehouse(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}

	o, err := h.Orders.PlaceOnWarehouse(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) useFromWarehouse(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}

	o, err := h.Orders.UseFromWarehouse(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Metrics.Counter("warehouse_uses").Inc()
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) getChanges(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	since, err := syncsvc.ParseSince(r.URL.Query().Get("since"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	changes, err := h.Sync.GetChanges(r.Context(), actor, since)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Metrics.Counter("sync_requests").Inc()
	writeJSON(w, http.StatusOK, changes)
}

func (h *Handler) buildPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var in payout.BuildInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	p, err := h.Payouts.Build(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Metrics.Counter("payouts_built").Inc()
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) getPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payout id"})
		return
	}

	p, err := h.Payouts.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	payouts, err := h.Payouts.List(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payouts)
}

func (h *Handler) updatePayoutStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payout id"})
		return
	}

	var body struct {
		Status payout.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	p, err := h.Payouts.UpdateStatus(r.Context(), actor, id, body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) createDebt(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var body struct {
		PersonName string `json:"personName"`
		BaseAmount int64  `json:"baseAmount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	d, err := h.Debts.Create(r.Context(), actor, body.PersonName, body.BaseAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) listDebts(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	debts, err := h.Debts.List(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, debts)
}

func (h *Handler) recordDebtPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var body struct {
		Amount     int64  `json:"amount"`
		BaseAmount *int64 `json:"baseAmount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	in := debt.PaymentInput{
		PersonName: chi.URLParam(r, "person"),
		Amount:     body.Amount,
		BaseAmount: body.BaseAmount,
	}

	d, err := h.Debts.RecordPayment(r.Context(), actor, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Metrics.Counter("debt_payments").Inc()
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) listDebtPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	payments, err := h.Debts.ListPayments(r.Context(), actor, chi.URLParam(r, "person"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) getMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	snapshot := h.Metrics.Snapshot()
	for _, name := range h.Metrics.Names() {
		fmt.Fprintf(w, "%s %d\n", name, snapshot[name])
	}
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
