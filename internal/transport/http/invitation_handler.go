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
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tradeplane/tradeplane/internal/identity"
	"github.com/tradeplane/tradeplane/internal/invitation"
	"github.com/tradeplane/tradeplane/internal/observability/logger"
)

// CreateInvitationRequest represents invitation creation data
type CreateInvitationRequest struct {
	// Email is the invitee; omit it to mint a reusable link.
	Email    *string `json:"email,omitempty" example:"newhire@example.com"`
	Role     string  `json:"role" example:"user"`
	Message  string  `json:"message,omitempty"`
	TTLHours int     `json:"ttl_hours,omitempty"`
	MaxUses  int     `json:"max_uses,omitempty"`
}

// CreateInvitation mints an invitation into the tenant
// @Summary Create Invitation
// @Description Invite an e-mail address, or mint a reusable signup link
// @Tags Invitation
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Param request body CreateInvitationRequest true "Invitation Data"
// @Success 201 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /tenants/{tenantID}/invitations [post]
func (h *Handler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.invitationService.Create(r.Context(), invitation.CreateInput{
		TenantID:  chi.URLParam(r, "tenantID"),
		InviterID: GetUserID(r.Context()),
		Email:     req.Email,
		Role:      req.Role,
		Message:   req.Message,
		TTL:       time.Duration(req.TTLHours) * time.Hour,
		MaxUses:   req.MaxUses,
	})
	if err != nil {
		switch {
		case errors.Is(err, invitation.ErrNotAllowed):
			respondError(w, http.StatusForbidden, "only owners and admins may invite")
		case errors.Is(err, invitation.ErrDuplicatePending):
			respondError(w, http.StatusConflict, "a pending invitation for this address already exists")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	if h.counters != nil {
		h.counters.InvitationsCreated.Add(r.Context(), 1)
	}

	// The token is returned once, to the inviter, so reusable links can be
	// shared out of band. It is never listed again.
	respondJSON(w, http.StatusCreated, map[string]any{
		"invitation": inv,
		"token":      inv.Token,
	})
}

// ListInvitations lists the tenant's invitations
// @Summary List Invitations
// @Tags Invitation
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Success 200 {array} invitation.Invitation
// @Router /tenants/{tenantID}/invitations [get]
func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.invitationService.ListForTenant(r.Context(), chi.URLParam(r, "tenantID"), GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, invitation.ErrNotAllowed) {
			respondError(w, http.StatusForbidden, "only owners and admins may list invitations")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to list invitations")
		return
	}
	respondJSON(w, http.StatusOK, invitations)
}

// RevokeInvitation cancels a pending invitation
// @Summary Revoke Invitation
// @Tags Invitation
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /tenants/{tenantID}/invitations/{invitationID}/revoke [post]
func (h *Handler) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	err := h.invitationService.Revoke(r.Context(), chi.URLParam(r, "invitationID"), GetUserID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, invitation.ErrInvitationNotFound):
			respondError(w, http.StatusNotFound, "invitation not found")
		case errors.Is(err, invitation.ErrNotAllowed):
			respondError(w, http.StatusForbidden, "only owners and admins may revoke invitations")
		case errors.Is(err, invitation.ErrAlreadyAccepted):
			respondError(w, http.StatusConflict, "invitation was already accepted; revoke the membership instead")
		default:
			respondError(w, http.StatusInternalServerError, "failed to revoke invitation")
		}
		return
	}

	if h.counters != nil {
		h.counters.InvitationsRevoked.Add(r.Context(), 1)
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "invitation revoked"})
}

// ResendInvitation re-sends the invite e-mail
// @Summary Resend Invitation
// @Tags Invitation
// @Produce json
// @Security CookieAuth
// @Param tenantID path string true "Tenant ID"
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} map[string]string
// @Router /tenants/{tenantID}/invitations/{invitationID}/resend [post]
func (h *Handler) ResendInvitation(w http.ResponseWriter, r *http.Request) {
	err := h.invitationService.Resend(r.Context(), chi.URLParam(r, "invitationID"), GetUserID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, invitation.ErrInvitationNotFound):
			respondError(w, http.StatusNotFound, "invitation not found")
		case errors.Is(err, invitation.ErrNotAllowed):
			respondError(w, http.StatusForbidden, "only owners and admins may resend invitations")
		case errors.Is(err, invitation.ErrInvitationInvalid):
			respondError(w, http.StatusConflict, "invitation is no longer redeemable")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "invitation resent"})
}

// ValidateInvitation is the public pre-signup check for a token. It reveals
// only what the signup page needs.
// @Summary Validate Invitation Token
// @Tags Invitation
// @Produce json
// @Param token path string true "Invitation Token"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Failure 410 {object} map[string]string
// @Router /invitations/validate/{token} [get]
func (h *Handler) ValidateInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invitationService.Validate(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, invitation.ErrInvitationNotFound) {
			respondError(w, http.StatusNotFound, "invitation not found")
			return
		}
		respondError(w, http.StatusGone, "invitation is no longer redeemable")
		return
	}

	t, err := h.tenantService.GetTenant(r.Context(), inv.TenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "invitation not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tenant_name": t.Name,
		"role":        inv.Role,
		"email":       inv.Email,
		"message":     inv.Message,
		"expires_at":  inv.ExpiresAt,
	})
}

// AcceptInvitationRequest represents signup-via-invitation data. The
// account fields are only used when the caller is not authenticated.
type AcceptInvitationRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// AcceptInvitation redeems a token. An authenticated caller joins as
// themselves; an anonymous caller gets an account created (or matched by
// email) and a session issued.
// @Summary Accept Invitation
// @Tags Invitation
// @Accept json
// @Produce json
// @Param token path string true "Invitation Token"
// @Param request body AcceptInvitationRequest false "Account Data"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Failure 410 {object} map[string]string
// @Router /invitations/accept/{token} [post]
func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID := h.authenticatedUser(r)

	var issueSession bool
	if userID == "" {
		var req AcceptInvitationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := h.identityService.Signup(r.Context(), req.Email, req.FullName, req.Password)
		if errors.Is(err, identity.ErrUserAlreadyExists) {
			// Existing accounts must prove the password to redeem.
			user, err = h.identityService.Authenticate(r.Context(), req.Email, req.Password)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "an account with this email exists; log in to accept")
				return
			}
		} else if err != nil {
			switch {
			case errors.Is(err, identity.ErrInvalidEmail):
				respondError(w, http.StatusBadRequest, "invalid email address")
			case errors.Is(err, identity.ErrWeakPassword):
				respondError(w, http.StatusBadRequest, "password does not meet security requirements")
			default:
				slog.ErrorContext(r.Context(), "failed to create account for invitation",
					logger.Error(err))
				respondError(w, http.StatusInternalServerError, "failed to create account")
			}
			return
		}
		userID = user.ID
		issueSession = true
	}

	inv, membership, err := h.invitationService.Accept(r.Context(), chi.URLParam(r, "token"), userID)
	if err != nil {
		if errors.Is(err, invitation.ErrInvitationNotFound) {
			respondError(w, http.StatusNotFound, "invitation not found")
			return
		}
		respondError(w, http.StatusGone, "invitation is no longer redeemable")
		return
	}

	if h.counters != nil {
		h.counters.InvitationsAccepted.Add(r.Context(), 1)
	}

	if issueSession {
		sess, err := h.sessionService.Create(r.Context(), userID, getIPAddress(r), r.UserAgent())
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to create session after invitation accept",
				logger.UserID(userID), logger.Error(err))
		} else {
			h.setSessionCookie(w, sess.ID)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tenant_id": inv.TenantID,
		"role":      membership.Role,
	})
}

// authenticatedUser resolves the caller from either credential carrier
// without failing the request, for endpoints that work both ways.
func (h *Handler) authenticatedUser(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); len(authz) > 7 && authz[:7] == "Bearer " {
		if userID, err := h.tokenSigner.Verify(authz[7:]); err == nil {
			return userID
		}
		return ""
	}
	if sessionID := h.getSessionFromCookie(r); sessionID != "" {
		if sess, err := h.sessionService.Get(r.Context(), sessionID); err == nil {
			return sess.UserID
		}
	}
	return ""
}
