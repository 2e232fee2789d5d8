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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tradeplane/tradeplane/internal/identity"
	"github.com/tradeplane/tradeplane/internal/tenant"
)

// requireTenantRole loads the caller's active membership in the tenant and
// checks it against a minimum role. Non-members get not-found: the
// existence of a tenant is not disclosed across the boundary.
func (h *Handler) requireTenantRole(w http.ResponseWriter, r *http.Request, tenantID, minRole string) bool {
	m, err := h.tenantService.ActiveMembership(r.Context(), tenantID, GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found")
		return false
	}
	if tenant.RoleRank(m.Role) < tenant.RoleRank(minRole) {
		respondError(w, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

// CreateTenantRequest represents tenant creation data
type CreateTenantRequest struct {
	Slug         string `json:"slug" example:"acme"`
	Name         string `json:"name" example:"Acme Corporation"`
	ContactEmail string `json:"contact_email" example:"ops@acme.example"`
	Trial        bool   `json:"trial"`
}

// CreateTenant handles tenant creation
// @Summary Create Tenant
// @Description Create a new tenant; the caller becomes its owner
// @Tags Tenant
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CreateTenantRequest true "Tenant Data"
// @Success 201 {object} tenant.Tenant
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /tenants [post]
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.tenantService.CreateTenant(r.Context(), req.Slug, req.Name, req.ContactEmail, GetUserID(r.Context()), req.Trial)
	if err != nil {
		if errors.Is(err, tenant.ErrSlugTaken) {
			respondError(w, http.StatusConflict, "slug is already taken")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, t)
}

// ListMyTenants lists the tenants the caller belongs to
// @Summary List My Tenants
// @Description List tenants the authenticated user has an active membership in
// @Tags Tenant
// @Produce json
// @Security CookieAuth
// @Success 200 {array} map[string]any
// @Router /tenants [get]
func (h *Handler) ListMyTenants(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.tenantService.ListUserMemberships(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list memberships")
		return
	}

	out := []map[string]any{}
	for _, m := range memberships {
		if !m.Active {
			continue
		}
		t, err := h.tenantService.GetTenant(r.Context(), m.TenantID)
		if err != nil || !t.Active {
			continue
		}
		out = append(out, map[string]any{
			"tenant": t,
			"role":   m.Role,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// GetTenant returns a tenant the caller is a member of
// @Summary Get Tenant
// @Tags Tenant
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} tenant.Tenant
// @Failure 404 {object} map[string]string
// @Router /tenants/{tenantID} [get]
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if !h.requireTenantRole(w, r, tenantID, tenant.RoleReadonly) {
		return
	}

	t, err := h.tenantService.GetTenant(r.Context(), tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// DeactivateTenant soft-deactivates a tenant. Owner only. The slug and
// domains stay reserved.
// @Summary Deactivate Tenant
// @Tags Tenant
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /tenants/{tenantID} [delete]
func (h *Handler) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if !h.requireTenantRole(w, r, tenantID, tenant.RoleOwner) {
		return
	}

	if err := h.tenantService.DeactivateTenant(r.Context(), tenantID, GetUserID(r.Context())); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to deactivate tenant")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "tenant deactivated"})
}

// AddDomainRequest represents domain registration data
type AddDomainRequest struct {
	Domain  string `json:"domain" example:"erp.acme.example"`
	Primary bool   `json:"primary"`
}

// AddDomain registers a host for the tenant
// @Summary Add Tenant Domain
// @Description Map a host to the tenant for host-based resolution
// @Tags Tenant
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Param request body AddDomainRequest true "Domain Data"
// @Success 201 {object} tenant.TenantDomain
// @Failure 409 {object} map[string]string
// @Router /tenants/{tenantID}/domains [post]
func (h *Handler) AddDomain(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if !h.requireTenantRole(w, r, tenantID, tenant.RoleAdmin) {
		return
	}

	var req AddDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.tenantService.AddDomain(r.Context(), tenantID, req.Domain, req.Primary, GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, tenant.ErrDomainTaken) {
			respondError(w, http.StatusConflict, "domain is already registered")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

// ListDomains lists the tenant's registered hosts
// @Summary List Tenant Domains
// @Tags Tenant
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Success 200 {array} tenant.TenantDomain
// @Router /tenants/{tenantID}/domains [get]
func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if !h.requireTenantRole(w, r, tenantID, tenant.RoleReadonly) {
		return
	}

	domains, err := h.tenantService.ListDomains(r.Context(), tenantID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list domains")
		return
	}
	respondJSON(w, http.StatusOK, domains)
}

// GrantMembershipRequest represents direct membership provisioning data
type GrantMembershipRequest struct {
	Email string `json:"email" example:"user@example.com"`
	Role  string `json:"role" example:"manager"`
}

// GrantMembership provisions a membership for an existing account directly,
// bypassing the invitation flow. Admin tooling path.
// @Summary Grant Membership
// @Tags Tenant
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Param request body GrantMembershipRequest true "Membership Data"
// @Success 201 {object} tenant.Membership
// @Failure 409 {object} map[string]string
// @Router /tenants/{tenantID}/members [post]
func (h *Handler) GrantMembership(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if !h.requireTenantRole(w, r, tenantID, tenant.RoleAdmin) {
		return
	}

	var req GrantMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "no account with that email; send an invitation instead")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}

	m, err := h.tenantService.GrantMembership(r.Context(), tenantID, user.ID, req.Role, GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, tenant.ErrMembershipExists) {
			respondError(w, http.StatusConflict, "user is already a member")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// ListMembers lists the tenant's memberships
// @Summary List Members
// @Tags Tenant
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Success 200 {array} tenant.Membership
// @Router /tenants/{tenantID}/members [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if !h.requireTenantRole(w, r, tenantID, tenant.RoleReadonly) {
		return
	}

	members, err := h.tenantService.ListMembers(r.Context(), tenantID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	respondJSON(w, http.StatusOK, members)
}

// RevokeMembership deactivates a member's access
// @Summary Revoke Membership
// @Tags Tenant
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Param userID path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /tenants/{tenantID}/members/{userID} [delete]
func (h *Handler) RevokeMembership(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	if !h.requireTenantRole(w, r, tenantID, tenant.RoleAdmin) {
		return
	}

	if err := h.tenantService.RevokeMembership(r.Context(), tenantID, chi.URLParam(r, "userID"), GetUserID(r.Context())); err != nil {
		if errors.Is(err, tenant.ErrMembershipNotFound) {
			respondError(w, http.StatusNotFound, "membership not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to revoke membership")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "membership revoked"})
}
