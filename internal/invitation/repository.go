package invitation

import (
	"context"
	"errors"

	"github.com/tradeplane/tradeplane/internal/tenant"
)

var (
	// ErrInvitationNotFound means the token or id matched nothing.
	ErrInvitationNotFound = errors.New("invitation not found")
	// ErrInvitationInvalid means the invitation exists but cannot be
	// redeemed: expired, revoked, already accepted, or fully consumed.
	ErrInvitationInvalid = errors.New("invitation is not redeemable")
	// ErrDuplicatePending means a pending invitation already exists for the
	// same (tenant, email) pair.
	ErrDuplicatePending = errors.New("a pending invitation already exists for this email")
	// ErrAlreadyAccepted means a revoke was attempted on an accepted
	// invitation.
	ErrAlreadyAccepted = errors.New("invitation already accepted")
	// ErrNotAllowed means the actor's role may not manage invitations.
	ErrNotAllowed = errors.New("insufficient role to manage invitations")
)

// Repository defines the interface for invitation storage.
type Repository interface {
	// Create persists a pending invitation. A unique-violation on the
	// pending (tenant, email) constraint surfaces as ErrDuplicatePending;
	// the constraint is the race-breaker under concurrent creation.
	Create(ctx context.Context, inv *Invitation) error

	GetByID(ctx context.Context, id string) (*Invitation, error)
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	ListForTenant(ctx context.Context, tenantID string) ([]*Invitation, error)

	// Update persists status/bookkeeping fields, including the lazy
	// pending->expired reconciliation performed on read paths.
	Update(ctx context.Context, inv *Invitation) error

	// Accept atomically applies the accept transition carried by inv and
	// creates (or reactivates) the membership. The guarded status update is
	// the race-breaker for concurrent redemptions: when another redemption
	// already consumed the invitation, Accept returns ErrInvitationInvalid
	// and neither write happens.
	Accept(ctx context.Context, inv *Invitation, m *tenant.Membership) error

	// ExpireOverdue transitions overdue pending invitations to expired and
	// returns how many rows changed. Used by the periodic sweep.
	ExpireOverdue(ctx context.Context) (int64, error)
}
