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
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/tradeplane/tradeplane/internal/observability/logger"
	"github.com/tradeplane/tradeplane/internal/tenant"
	"github.com/tradeplane/tradeplane/internal/tenantctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Tenant context principles:
// 1. Tenant scope is resolved per request, never cached on the account.
// 2. An explicit X-Tenant-ID is honored only with an active membership;
//    otherwise resolution falls through, it does not fail.
// 3. An unresolved tenant is a first-class state: public and cross-tenant
//    surfaces must keep working without one.

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(r.RemoteAddr),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// AuthMiddleware authenticates the request from the session cookie or a
// bearer API token and adds user_id to the context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
			userID, err := h.tokenSigner.Verify(strings.TrimPrefix(authz, "Bearer "))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		sessionID := h.getSessionFromCookie(r)
		if sessionID == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		sess, err := h.sessionService.Get(r.Context(), sessionID)
		if err != nil {
			h.clearSessionCookie(w)
			respondError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		if err := h.sessionService.Refresh(r.Context(), sessionID); err != nil {
			slog.ErrorContext(r.Context(), "failed to refresh session", logger.Error(err))
		}

		ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
		ctx = context.WithValue(ctx, sessionIDKey, sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantContextMiddleware resolves the request's tenant scope and, when one
// is found, publishes it to the context and to the database session. A
// request that resolves to no tenant continues without scope.
func (h *Handler) TenantContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// The highest-role membership fallback is a write-path
		// convenience only. Reads with no explicit tenant signal stay
		// unscoped, so an ambiguous GET can never land in a tenant the
		// caller did not name.
		t, err := h.tenantResolver.Resolve(ctx, tenant.ResolveInput{
			TenantID:         r.Header.Get("X-Tenant-ID"),
			Host:             r.Host,
			UserID:           GetUserID(ctx),
			PreferMembership: h.preferMembership && isWriteMethod(r.Method),
		})
		if err != nil {
			slog.ErrorContext(ctx, "tenant resolution failed",
				logger.Host(r.Host), logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to resolve tenant")
			return
		}

		outcome := "none"
		if t != nil {
			outcome = "resolved"
			ctx = tenantctx.With(ctx, tenantctx.Tenant{ID: t.ID, Slug: t.Slug})

			// Row-level-security session variable. Application WHERE
			// clauses are the primary isolation mechanism, so a failure
			// here degrades defense in depth but not the request.
			if h.tenantSessions != nil {
				if err := h.tenantSessions.SetTenant(ctx, t.ID); err != nil {
					slog.WarnContext(ctx, "failed to set database tenant scope",
						logger.TenantID(t.ID), logger.Error(err))
				}
			}
		}

		if h.counters != nil {
			h.counters.TenantResolutions.Add(ctx, 1,
				metric.WithAttributes(attribute.String("outcome", outcome)))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// isWriteMethod reports whether the request mutates state.
func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// RequireTenant enforces that a tenant scope was resolved.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := tenantctx.From(r.Context()); !ok {
			respondError(w, http.StatusBadRequest, "a tenant scope is required: send X-Tenant-ID or use a tenant domain")
			return
		}
		next.ServeHTTP(w, r)
	})
}
