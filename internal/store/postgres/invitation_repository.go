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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tradeplane/tradeplane/internal/invitation"
	"github.com/tradeplane/tradeplane/internal/tenant"
)

// InvitationRepository implements invitation.Repository
type InvitationRepository struct {
	db *DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

const invitationColumns = `id, tenant_id, email, role, inviter_id, token, status, message,
	use_count, max_uses, created_at, expires_at, accepted_at, accepted_by`

// Create persists a pending invitation. A violation of the partial unique
// index on pending (tenant, email) pairs maps to ErrDuplicatePending.
func (r *InvitationRepository) Create(ctx context.Context, inv *invitation.Invitation) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		inv.ID, inv.TenantID, inv.Email, inv.Role, inv.InviterID, inv.Token, inv.Status,
		inv.Message, inv.UseCount, inv.MaxUses, inv.CreatedAt, inv.ExpiresAt, inv.AcceptedAt, inv.AcceptedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return invitation.ErrDuplicatePending
		}
		return fmt.Errorf("failed to insert invitation: %w", err)
	}
	return nil
}

// GetByID retrieves an invitation by ID
func (r *InvitationRepository) GetByID(ctx context.Context, id string) (*invitation.Invitation, error) {
	return scanInvitation(r.db.pool.QueryRow(ctx, `
		SELECT `+invitationColumns+` FROM invitations WHERE id = $1
	`, id))
}

// GetByToken retrieves an invitation by its redemption token
func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	return scanInvitation(r.db.pool.QueryRow(ctx, `
		SELECT `+invitationColumns+` FROM invitations WHERE token = $1
	`, token))
}

// ListForTenant lists a tenant's invitations, newest first
func (r *InvitationRepository) ListForTenant(ctx context.Context, tenantID string) ([]*invitation.Invitation, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+invitationColumns+` FROM invitations WHERE tenant_id = $1 ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invitations := []*invitation.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// Update persists status and bookkeeping fields
func (r *InvitationRepository) Update(ctx context.Context, inv *invitation.Invitation) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE invitations SET status = $2, use_count = $3, accepted_at = $4, accepted_by = $5
		WHERE id = $1
	`, inv.ID, inv.Status, inv.UseCount, inv.AcceptedAt, inv.AcceptedBy)
	if err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return invitation.ErrInvitationNotFound
	}
	return nil
}

// Accept applies the redemption and the membership grant in one
// transaction. The guarded UPDATE is the race-breaker: the use counter is
// incremented and the status transition computed inside the statement, so
// concurrent redemptions of the same token serialize on the row and a
// reusable link can never be redeemed past its use budget. The row's
// post-redemption counter and status are written back into inv.
func (r *InvitationRepository) Accept(ctx context.Context, inv *invitation.Invitation, m *tenant.Membership) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin accept transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		UPDATE invitations
		SET use_count = use_count + CASE WHEN email IS NULL THEN 1 ELSE 0 END,
			status = CASE
				WHEN email IS NOT NULL THEN 'accepted'
				WHEN max_uses > 0 AND use_count + 1 >= max_uses THEN 'accepted'
				ELSE status
			END,
			accepted_at = COALESCE($2, accepted_at),
			accepted_by = COALESCE($3::uuid, accepted_by)
		WHERE id = $1 AND status = 'pending'
			AND (email IS NOT NULL OR max_uses = 0 OR use_count < max_uses)
		RETURNING use_count, status
	`, inv.ID, inv.AcceptedAt, inv.AcceptedBy).Scan(&inv.UseCount, &inv.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return invitation.ErrInvitationInvalid
		}
		return fmt.Errorf("failed to redeem invitation: %w", err)
	}

	// Re-joining members get their existing row reactivated with the
	// invited role.
	_, err = tx.Exec(ctx, `
		INSERT INTO memberships (id, tenant_id, user_id, role, active, granted_at, granted_by)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid)
		ON CONFLICT (tenant_id, user_id) DO UPDATE
			SET role = EXCLUDED.role, active = TRUE, granted_at = EXCLUDED.granted_at, granted_by = EXCLUDED.granted_by
	`, m.ID, m.TenantID, m.UserID, m.Role, m.Active, m.GrantedAt, m.GrantedBy)
	if err != nil {
		return fmt.Errorf("failed to grant membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit accept transaction: %w", err)
	}
	return nil
}

// ExpireOverdue marks overdue pending invitations as expired and returns
// how many rows changed. The cleanup sweep calls this periodically; the
// token read path reconciles lazily.
func (r *InvitationRepository) ExpireOverdue(ctx context.Context) (int64, error) {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE invitations SET status = 'expired'
		WHERE status = 'pending' AND expires_at < NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanInvitation(row pgx.Row) (*invitation.Invitation, error) {
	var inv invitation.Invitation
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.Email, &inv.Role, &inv.InviterID, &inv.Token, &inv.Status,
		&inv.Message, &inv.UseCount, &inv.MaxUses, &inv.CreatedAt, &inv.ExpiresAt, &inv.AcceptedAt, &inv.AcceptedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invitation.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to scan invitation: %w", err)
	}
	return &inv, nil
}
