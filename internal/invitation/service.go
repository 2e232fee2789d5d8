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

package invitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tradeplane/tradeplane/internal/audit"
	"github.com/tradeplane/tradeplane/internal/id"
	"github.com/tradeplane/tradeplane/internal/identity"
	"github.com/tradeplane/tradeplane/internal/mail"
	"github.com/tradeplane/tradeplane/internal/observability/logger"
	"github.com/tradeplane/tradeplane/internal/tenant"
)

// Config holds invitation engine settings.
type Config struct {
	DefaultTTL    time.Duration
	SignupBaseURL string
	FromAddress   string
}

// Service implements the invitation state machine and its side effects.
type Service struct {
	repo        Repository
	tenants     *tenant.Service
	identities  *identity.Service
	sender      mail.Sender
	auditLogger audit.Logger
	cfg         Config
}

// NewService creates a new invitation service
func NewService(repo Repository, tenants *tenant.Service, identities *identity.Service, sender mail.Sender, auditLogger audit.Logger, cfg Config) *Service {
	return &Service{
		repo:        repo,
		tenants:     tenants,
		identities:  identities,
		sender:      sender,
		auditLogger: auditLogger,
		cfg:         cfg,
	}
}

// CreateInput carries the fields for a new invitation.
type CreateInput struct {
	TenantID  string
	InviterID string
	// Email is the invitee address; nil creates a reusable link.
	Email   *string
	Role    string
	Message string
	// TTL overrides the configured default expiry offset when positive.
	TTL time.Duration
	// MaxUses bounds a reusable link; 0 means unlimited. Ignored for
	// e-mail invitations.
	MaxUses int
}

// Create issues a pending invitation and triggers the invite e-mail.
// The e-mail send is asynchronous; its failure never undoes the invitation.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invitation, error) {
	if !tenant.ValidRole(in.Role) {
		return nil, fmt.Errorf("invalid role: %s", in.Role)
	}
	if err := s.requireInviterRole(ctx, in.TenantID, in.InviterID); err != nil {
		return nil, err
	}

	var email *string
	if in.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*in.Email))
		if normalized == "" {
			return nil, fmt.Errorf("invitee email is required for a single-use invitation")
		}
		email = &normalized
	}
	maxUses := in.MaxUses
	if email == nil {
		if maxUses < 0 {
			return nil, fmt.Errorf("max_uses must not be negative")
		}
	} else {
		// A use budget only makes sense for a reusable link.
		maxUses = 0
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	ttl := in.TTL
	if ttl <= 0 {
		ttl = s.cfg.DefaultTTL
	}

	now := time.Now()
	inv := &Invitation{
		ID:        id.NewUUIDv7(),
		TenantID:  in.TenantID,
		Email:     email,
		Role:      in.Role,
		InviterID: in.InviterID,
		Token:     token,
		Status:    StatusPending,
		Message:   in.Message,
		MaxUses:   maxUses,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	// The partial unique index on (tenant, email, pending) is the final
	// race-breaker; the repository maps its violation to ErrDuplicatePending.
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeInvitationCreated,
		TenantID: inv.TenantID,
		ActorID:  in.InviterID,
		Resource: "invitation",
		Metadata: map[string]any{"invitation_id": inv.ID, "role": inv.Role, "reusable": inv.Reusable()},
	})

	if inv.Email != nil {
		s.sendInviteMailAsync(inv)
	}

	return inv, nil
}

// Validate checks whether a token is redeemable. It lazily reconciles the
// stored status when expiry is observed; that write is permitted from this
// read path because it enforces a true invariant.
func (s *Service) Validate(ctx context.Context, token string) (*Invitation, error) {
	inv, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if inv.Status == StatusPending && inv.IsExpired(now) {
		inv.Status = StatusExpired
		if uerr := s.repo.Update(ctx, inv); uerr != nil {
			// Reconciliation is best-effort; the sweep will catch it.
			slog.WarnContext(ctx, "failed to persist lazy invitation expiry",
				logger.InvitationID(inv.ID), logger.Error(uerr))
		}
	}

	if !inv.IsValid(now) {
		return inv, ErrInvitationInvalid
	}
	return inv, nil
}

// Accept redeems a token for a user. The invitation transition and the
// membership creation are one transaction: either both happen or neither.
func (s *Service) Accept(ctx context.Context, token, userID string) (*Invitation, *tenant.Membership, error) {
	inv, err := s.Validate(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	inv.recordAcceptance(userID, now)

	m := &tenant.Membership{
		ID:        id.NewUUIDv7(),
		TenantID:  inv.TenantID,
		UserID:    userID,
		Role:      inv.Role,
		Active:    true,
		GrantedAt: now,
		GrantedBy: inv.InviterID,
	}

	if err := s.repo.Accept(ctx, inv, m); err != nil {
		return nil, nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeInvitationAccepted,
		TenantID: inv.TenantID,
		ActorID:  userID,
		Resource: "invitation",
		Metadata: map[string]any{"invitation_id": inv.ID, "role": inv.Role},
	})

	return inv, m, nil
}

// Revoke cancels an invitation. Accepted invitations cannot be revoked;
// revoking an already-revoked invitation is a no-op.
func (s *Service) Revoke(ctx context.Context, invitationID, actorID string) error {
	inv, err := s.repo.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if err := s.requireInviterRole(ctx, inv.TenantID, actorID); err != nil {
		return err
	}

	switch inv.Status {
	case StatusAccepted:
		return ErrAlreadyAccepted
	case StatusRevoked:
		return nil
	}

	inv.Status = StatusRevoked
	if err := s.repo.Update(ctx, inv); err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeInvitationRevoked,
		TenantID: inv.TenantID,
		ActorID:  actorID,
		Resource: "invitation",
		Metadata: map[string]any{"invitation_id": inv.ID},
	})
	return nil
}

// Resend re-triggers the invite e-mail for a still-redeemable invitation.
func (s *Service) Resend(ctx context.Context, invitationID, actorID string) error {
	inv, err := s.repo.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if err := s.requireInviterRole(ctx, inv.TenantID, actorID); err != nil {
		return err
	}
	if !inv.IsValid(time.Now()) {
		return ErrInvitationInvalid
	}
	if inv.Email == nil {
		return fmt.Errorf("reusable invitations have no recipient to resend to")
	}

	s.sendInviteMailAsync(inv)

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeInvitationResent,
		TenantID: inv.TenantID,
		ActorID:  actorID,
		Resource: "invitation",
		Metadata: map[string]any{"invitation_id": inv.ID},
	})
	return nil
}

// ListForTenant lists a tenant's invitations for a sufficiently privileged
// member.
func (s *Service) ListForTenant(ctx context.Context, tenantID, actorID string) ([]*Invitation, error) {
	if err := s.requireInviterRole(ctx, tenantID, actorID); err != nil {
		return nil, err
	}
	return s.repo.ListForTenant(ctx, tenantID)
}

// ExpireOverdue reconciles overdue pending invitations. Called by the sweep.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	return s.repo.ExpireOverdue(ctx)
}

func (s *Service) requireInviterRole(ctx context.Context, tenantID, userID string) error {
	m, err := s.tenants.ActiveMembership(ctx, tenantID, userID)
	if errors.Is(err, tenant.ErrMembershipNotFound) {
		return ErrNotAllowed
	}
	if err != nil {
		return fmt.Errorf("failed to check inviter membership: %w", err)
	}
	if !tenant.CanInvite(m.Role) {
		return ErrNotAllowed
	}
	return nil
}

// sendInviteMailAsync renders and sends the invite e-mail off the request
// path. Failures are logged and do not affect invitation state.
func (s *Service) sendInviteMailAsync(inv *Invitation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tenantName := inv.TenantID
		if t, err := s.tenants.GetTenant(ctx, inv.TenantID); err == nil {
			tenantName = t.Name
		}
		inviterName := "A teammate"
		if u, err := s.identities.GetUser(ctx, inv.InviterID); err == nil && u.FullName != "" {
			inviterName = u.FullName
		}

		msg := mail.NewInviteMessage(mail.InviteParams{
			TenantName:    tenantName,
			InviterName:   inviterName,
			Role:          inv.Role,
			Message:       inv.Message,
			Token:         inv.Token,
			SignupBaseURL: s.cfg.SignupBaseURL,
			From:          s.cfg.FromAddress,
			To:            *inv.Email,
		})

		if err := s.sender.Send(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to send invitation email",
				logger.InvitationID(inv.ID),
				logger.TenantID(inv.TenantID),
				logger.Error(err),
			)
		}
	}()
}
