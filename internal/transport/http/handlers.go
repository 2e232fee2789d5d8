// Copyright 2026 The Tradeplane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tradeplane/tradeplane/internal/audit"
	"github.com/tradeplane/tradeplane/internal/erp"
	"github.com/tradeplane/tradeplane/internal/identity"
	"github.com/tradeplane/tradeplane/internal/invitation"
	"github.com/tradeplane/tradeplane/internal/observability/logger"
	"github.com/tradeplane/tradeplane/internal/observability/metrics"
	"github.com/tradeplane/tradeplane/internal/session"
	"github.com/tradeplane/tradeplane/internal/tenant"
	"github.com/tradeplane/tradeplane/internal/tenantctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TenantSessionSetter publishes the resolved tenant to the database session
// for row-level-security policies. Implemented by the postgres store.
type TenantSessionSetter interface {
	SetTenant(ctx context.Context, tenantID string) error
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService   *identity.Service
	sessionService    *session.Service
	tenantService     *tenant.Service
	tenantResolver    *tenant.Resolver
	invitationService *invitation.Service
	erpService        *erp.Service
	auditLogger       audit.Logger
	tokenSigner       *TokenSigner
	tenantSessions    TenantSessionSetter
	counters          *metrics.Counters
	sessionConfig     SessionConfig
	preferMembership  bool
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
}

// HandlerConfig bundles the handler dependencies.
type HandlerConfig struct {
	IdentityService   *identity.Service
	SessionService    *session.Service
	TenantService     *tenant.Service
	TenantResolver    *tenant.Resolver
	InvitationService *invitation.Service
	ERPService        *erp.Service
	AuditLogger       audit.Logger
	TokenSigner       *TokenSigner
	TenantSessions    TenantSessionSetter
	Counters          *metrics.Counters
	Session           SessionConfig
	PreferMembership  bool
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		identityService:   cfg.IdentityService,
		sessionService:    cfg.SessionService,
		tenantService:     cfg.TenantService,
		tenantResolver:    cfg.TenantResolver,
		invitationService: cfg.InvitationService,
		erpService:        cfg.ERPService,
		auditLogger:       cfg.AuditLogger,
		tokenSigner:       cfg.TokenSigner,
		tenantSessions:    cfg.TenantSessions,
		counters:          cfg.Counters,
		sessionConfig:     cfg.Session,
		preferMembership:  cfg.PreferMembership,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints. The invitation signup flow must work before
		// any authentication exists, with tenant scope from the host only.
		r.Group(func(r chi.Router) {
			r.Use(h.TenantContextMiddleware)

			r.Post("/auth/signup", h.Signup)
			r.Post("/auth/login", h.Login)
			r.Post("/auth/logout", h.Logout)

			r.Get("/invitations/validate/{token}", h.ValidateInvitation)
			r.Post("/invitations/accept/{token}", h.AcceptInvitation)
		})

		// Authenticated endpoints. Auth runs first so membership-based
		// tenant resolution sees the caller.
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Use(h.TenantContextMiddleware)

			r.Get("/auth/me", h.GetCurrentUser)
			r.Post("/auth/token", h.IssueToken)

			// Tenant administration
			r.Route("/tenants", func(r chi.Router) {
				r.Post("/", h.CreateTenant)
				r.Get("/", h.ListMyTenants)

				r.Route("/{tenantID}", func(r chi.Router) {
					r.Get("/", h.GetTenant)
					r.Delete("/", h.DeactivateTenant)
					r.Post("/domains", h.AddDomain)
					r.Get("/domains", h.ListDomains)
					r.Post("/members", h.GrantMembership)
					r.Get("/members", h.ListMembers)
					r.Delete("/members/{userID}", h.RevokeMembership)
					r.Post("/invitations", h.CreateInvitation)
					r.Get("/invitations", h.ListInvitations)
					r.Post("/invitations/{invitationID}/revoke", h.RevokeInvitation)
					r.Post("/invitations/{invitationID}/resend", h.ResendInvitation)
				})
			})

			// Tenant-scoped business records. Listing tolerates a missing
			// scope (empty result); writes require one.
			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", h.ListSuppliers)
				r.With(RequireTenant).Post("/", h.CreateSupplier)
				r.Get("/{supplierID}", h.GetSupplier)
			})
			r.Route("/customers", func(r chi.Router) {
				r.Get("/", h.ListCustomers)
				r.With(RequireTenant).Post("/", h.CreateCustomer)
				r.Get("/{customerID}", h.GetCustomer)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListOrders)
				r.With(RequireTenant).Post("/", h.CreateOrder)
				r.Get("/{orderID}", h.GetOrder)
				r.With(RequireTenant).Put("/{orderID}/status", h.UpdateOrderStatus)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "tradeplane",
	})
}

// SignupRequest represents registration data
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Signup handles account registration. Accounts are global; tenant access
// comes from memberships and invitations, never from signup itself.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Signup(r.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserAlreadyExists):
			respondError(w, http.StatusConflict, "user already exists")
		case errors.Is(err, identity.ErrInvalidEmail):
			respondError(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "password does not meet security requirements")
		default:
			slog.ErrorContext(r.Context(), "failed to sign up user",
				logger.Error(err), logger.Email(req.Email))
			respondError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeLoginFailed,
			Resource:  req.Email,
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
			Metadata:  map[string]any{"reason": "invalid_credentials"},
		})
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := h.sessionService.Create(r.Context(), user.ID, getIPAddress(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.setSessionCookie(w, sess.ID)

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeLoginSuccess,
		ActorID:   user.ID,
		Resource:  "session",
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// Logout handles user logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.getSessionFromCookie(r)
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	sess, err := h.sessionService.Get(r.Context(), sessionID)
	if err == nil {
		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeLogout,
			ActorID:   sess.UserID,
			Resource:  "session",
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
		})
		h.sessionService.Destroy(r.Context(), sessionID)
	}

	h.clearSessionCookie(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// GetCurrentUser returns the current authenticated user with their
// memberships and the tenant the request resolved to, if any.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	user, err := h.identityService.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	memberships, err := h.tenantService.ListUserMemberships(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list memberships",
			logger.UserID(userID), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load memberships")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":     user.ID,
		"email":       user.Email,
		"full_name":   user.FullName,
		"tenant_id":   tenantctx.ID(r.Context()),
		"memberships": memberships,
	})
}

// IssueToken mints a bearer API token for the authenticated user.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokenSigner.Issue(GetUserID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"token":      token,
		"token_type": "Bearer",
	})
}

// Helper functions
func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    sessionID,
		Path:     h.sessionConfig.CookiePath,
		Domain:   h.sessionConfig.CookieDomain,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
		MaxAge:   86400, // 24 hours
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   h.sessionConfig.CookieName,
		Value:  "",
		Path:   h.sessionConfig.CookiePath,
		Domain: h.sessionConfig.CookieDomain,
		MaxAge: -1,
	})
}

func (h *Handler) getSessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.sessionConfig.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
