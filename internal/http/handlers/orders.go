package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/http/middleware"
	"service-dispatch/internal/logx"
)

// OrderHandler serves the order endpoints.
type OrderHandler struct {
	uc     orderUsecase
	logger logx.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(logger logx.Logger, uc orderUsecase) *OrderHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &OrderHandler{uc: uc, logger: logger}
}

// Create handles POST /api/orders.
// @Summary Create order
// @Tags orders
// @Accept json
// @Produce json
// @Success 201 {object} envelope
// @Failure 400 {object} envelope "invalid input"
// @Failure 409 {object} envelope "order already exists"
// @Router /api/orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	in, err := req.toModel()
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	o, err := h.uc.CreateOrder(r.Context(), middleware.PrincipalFrom(r.Context()), in)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/api/orders/"+o.ID)
	writeOK(h.logger, w, r, http.StatusCreated, "order created", orderToResponse(*o))
}

// List handles GET /api/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.uc.ListOrders(r.Context(), middleware.PrincipalFrom(r.Context()))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "ok", ordersToResponse(list))
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.GetOrder(r.Context(), middleware.PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "ok", orderToResponse(*o))
}

// Assign handles PUT /api/orders/{id}/assign.
// @Summary Assign order to a partner
// @Tags orders
// @Accept json
// @Produce json
// @Success 200 {object} envelope
// @Failure 400 {object} envelope "order is not pending"
// @Failure 404 {object} envelope "order or partner not found"
// @Failure 409 {object} envelope "partner is not available"
// @Router /api/orders/{id}/assign [put]
func (h *OrderHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignOrderRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	o, err := h.uc.AssignOrder(r.Context(), middleware.PrincipalFrom(r.Context()), chi.URLParam(r, "id"), req.PartnerID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "order assigned", orderToResponse(*o))
}

// UpdateStatus handles PUT /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	o, err := h.uc.AdvanceOrder(r.Context(), middleware.PrincipalFrom(r.Context()), chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "order status updated", orderToResponse(*o))
}
