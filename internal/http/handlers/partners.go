package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/http/middleware"
	"service-dispatch/internal/logx"
)

// PartnerHandler serves admin partner management and the partner's own endpoints.
type PartnerHandler struct {
	uc     partnerUsecase
	logger logx.Logger
}

// NewPartnerHandler creates a new PartnerHandler.
func NewPartnerHandler(logger logx.Logger, uc partnerUsecase) *PartnerHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &PartnerHandler{uc: uc, logger: logger}
}

// Create handles POST /api/partners.
// @Summary Provision a delivery partner
// @Tags partners
// @Accept json
// @Produce json
// @Success 201 {object} envelope
// @Failure 400 {object} envelope "invalid input"
// @Failure 409 {object} envelope "user with this email already exists"
// @Router /api/partners [post]
func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPartnerRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	in, err := req.toModel()
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	p, err := h.uc.ProvisionPartner(r.Context(), middleware.PrincipalFrom(r.Context()), in)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/api/partners/"+p.ID)
	writeOK(h.logger, w, r, http.StatusCreated, "partner created", partnerToResponse(*p))
}

// List handles GET /api/partners.
func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.uc.ListPartners(r.Context(), middleware.PrincipalFrom(r.Context()))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "ok", summariesToResponse(list))
}

// Get handles GET /api/partners/{id}.
func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.uc.GetPartner(r.Context(), middleware.PrincipalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "ok", partnerDetailsDTO{
		Partner:      partnerToResponse(d.Partner),
		RecentOrders: ordersToResponse(d.RecentOrders),
		Stats:        statsToResponse(d.Stats),
	})
}

// MyOrders handles GET /api/partner/orders?status=.
func (h *PartnerHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.uc.MyOrders(r.Context(), middleware.PrincipalFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "ok", ordersToResponse(list))
}

// MyActiveOrders handles GET /api/partner/orders/active.
func (h *PartnerHandler) MyActiveOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.uc.MyActiveOrders(r.Context(), middleware.PrincipalFrom(r.Context()))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "ok", ordersToResponse(list))
}

// SetAvailability handles PUT /api/partner/availability.
func (h *PartnerHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	p, err := h.uc.SetMyAvailability(r.Context(), middleware.PrincipalFrom(r.Context()), domain.Availability(req.Status))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "availability updated", partnerToResponse(*p))
}

// SetLocation handles PUT /api/partner/location.
func (h *PartnerHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	loc, err := req.toModel("location")
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	p, err := h.uc.SetMyLocation(r.Context(), middleware.PrincipalFrom(r.Context()), loc)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "location updated", partnerToResponse(*p))
}

// Profile handles GET /api/partner/profile.
func (h *PartnerHandler) Profile(w http.ResponseWriter, r *http.Request) {
	res, err := h.uc.MyProfile(r.Context(), middleware.PrincipalFrom(r.Context()))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "ok", profileDTO{
		Partner: partnerToResponse(res.Partner),
		Stats:   statsToResponse(res.Stats),
	})
}
