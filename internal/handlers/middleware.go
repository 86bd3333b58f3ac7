package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"clanledger/internal/metrics"
	"clanledger/internal/models"
	"clanledger/internal/security"
	"clanledger/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const AccountContextKey ContextKey = "account"

const sessionCookieName = "session_id"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRFGenerator
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, csrf *security.CSRFGenerator, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		limiter:     limiter,
	}
}

// RequireAuth is middleware that requires a valid session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		account, err := m.authService.ValidateSession(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, sessionCookieName))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), AccountContextKey, account)
		next(w, r.WithContext(ctx))
	}
}

// RequireCapability wraps RequireAuth and additionally checks the
// account's role capabilities.
func (m *Middleware) RequireCapability(cap models.Capability, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		account := GetAccountFromContext(r.Context())
		if account == nil || !models.CapabilitiesFor(account.Role, account.IsStaff).Has(cap) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// CSRFProtect validates the csrf_token form field against the session.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		token := r.FormValue("csrf_token")
		if token == "" {
			token = r.Header.Get("X-CSRF-Token")
		}
		if !m.csrf.ValidateToken(cookie.Value, token) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// GetCSRFToken returns the CSRF token for the request's session, or ""
// when there is no session.
func (m *Middleware) GetCSRFToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	token, err := m.csrf.GenerateToken(cookie.Value)
	if err != nil {
		return ""
	}
	return token
}

// RateLimit applies the per-IP limiter to sensitive endpoints.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.limiter.Allow(clientIP(r)) {
			http.Error(w, "Too many requests, slow down", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests and records metrics
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		elapsed := time.Since(start)
		slog.Info("request",
			"method", r.Method, "path", r.URL.Path,
			"status", recorder.status, "duration", elapsed)
		metrics.HTTPRequests.WithLabelValues(r.Method, fmt.Sprintf("%dxx", recorder.status/100)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// GetAccountFromContext retrieves the account from the request context
func GetAccountFromContext(ctx context.Context) *models.Account {
	account, ok := ctx.Value(AccountContextKey).(*models.Account)
	if !ok {
		return nil
	}
	return account
}
