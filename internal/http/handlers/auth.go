package handlers

import (
	"net/http"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/http/middleware"
	"service-dispatch/internal/logx"
)

// AuthHandler serves login, registration and the caller's identity.
type AuthHandler struct {
	uc     authUsecase
	logger logx.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(logger logx.Logger, uc authUsecase) *AuthHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &AuthHandler{uc: uc, logger: logger}
}

// Login handles POST /api/auth/login.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} envelope
// @Failure 401 {object} envelope "invalid email or password"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	res, err := h.uc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "login successful", loginResponse{
		Token:   res.Token,
		User:    userToResponse(res.Principal),
		Partner: optionalPartnerToResponse(res.Partner),
	})
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	p, err := h.uc.Register(r.Context(), req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusCreated, "user registered", userToResponse(*p))
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	res, err := h.uc.Me(r.Context(), middleware.PrincipalFrom(r.Context()))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeOK(h.logger, w, r, http.StatusOK, "ok", meResponse{
		User:    userToResponse(res.Principal),
		Partner: optionalPartnerToResponse(res.Partner),
	})
}
