package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
	"service-dispatch/internal/service/access"
)

// PrincipalResolver maps a bearer credential to its principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, credential string) (*domain.Principal, error)
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by Authenticate, or nil.
func PrincipalFrom(ctx context.Context) *domain.Principal {
	p, _ := ctx.Value(principalKey{}).(*domain.Principal)
	return p
}

// BearerToken extracts the credential of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate resolves the bearer credential and stores the principal in the request context.
// Requests without a valid credential get 401.
func Authenticate(resolver PrincipalResolver, logger logx.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logx.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolver.Resolve(r.Context(), BearerToken(r))
			if err != nil {
				status, msg := http.StatusUnauthorized, "authentication required"
				if !errors.Is(err, apperr.ErrUnauthenticated) {
					status, msg = http.StatusInternalServerError, "internal error"
					logger.Error("resolve principal failed",
						logx.String("path", r.URL.Path),
						logx.Err(err),
					)
				} else if m, ok := apperr.Message(err); ok {
					msg = m
				}
				writeFailure(w, status, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// Require rejects requests whose principal falls outside policy before the body is read.
// It must run after Authenticate.
func Require(policy access.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := policy.Authorize(PrincipalFrom(r.Context())); err != nil {
				status := http.StatusForbidden
				if errors.Is(err, apperr.ErrUnauthenticated) {
					status = http.StatusUnauthorized
				}
				msg, _ := apperr.Message(err)
				writeFailure(w, status, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
