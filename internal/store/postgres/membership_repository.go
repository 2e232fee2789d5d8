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
	"github.com/tradeplane/tradeplane/internal/tenant"
)

// MembershipRepository implements tenant.MembershipRepository
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create persists a membership
func (r *MembershipRepository) Create(ctx context.Context, m *tenant.Membership) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO memberships (id, tenant_id, user_id, role, active, granted_at, granted_by)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid)
	`, m.ID, m.TenantID, m.UserID, m.Role, m.Active, m.GrantedAt, m.GrantedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return tenant.ErrMembershipExists
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// Get retrieves the membership of a user in a tenant
func (r *MembershipRepository) Get(ctx context.Context, tenantID, userID string) (*tenant.Membership, error) {
	m, err := scanMembership(r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, user_id, role, active, granted_at, COALESCE(granted_by::text, '')
		FROM memberships WHERE tenant_id = $1 AND user_id = $2
	`, tenantID, userID))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListForUser lists all memberships of a user across tenants
func (r *MembershipRepository) ListForUser(ctx context.Context, userID string) ([]*tenant.Membership, error) {
	return r.list(ctx, `
		SELECT id, tenant_id, user_id, role, active, granted_at, COALESCE(granted_by::text, '')
		FROM memberships WHERE user_id = $1 ORDER BY granted_at
	`, userID)
}

// ListForTenant lists all memberships of a tenant
func (r *MembershipRepository) ListForTenant(ctx context.Context, tenantID string) ([]*tenant.Membership, error) {
	return r.list(ctx, `
		SELECT id, tenant_id, user_id, role, active, granted_at, COALESCE(granted_by::text, '')
		FROM memberships WHERE tenant_id = $1 ORDER BY granted_at
	`, tenantID)
}

// Update persists role and active flag changes
func (r *MembershipRepository) Update(ctx context.Context, m *tenant.Membership) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE memberships SET role = $3, active = $4, granted_at = $5, granted_by = NULLIF($6, '')::uuid
		WHERE tenant_id = $1 AND user_id = $2
	`, m.TenantID, m.UserID, m.Role, m.Active, m.GrantedAt, m.GrantedBy)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrMembershipNotFound
	}
	return nil
}

func (r *MembershipRepository) list(ctx context.Context, query, arg string) ([]*tenant.Membership, error) {
	rows, err := r.db.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []*tenant.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func scanMembership(row pgx.Row) (*tenant.Membership, error) {
	var m tenant.Membership
	err := row.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.Active, &m.GrantedAt, &m.GrantedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}
	return &m, nil
}
