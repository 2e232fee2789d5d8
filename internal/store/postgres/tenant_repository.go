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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tradeplane/tradeplane/internal/tenant"
)

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tenants (id, slug, name, contact_email, active, trial, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.Slug, t.Name, t.ContactEmail, t.Active, t.Trial, t.CreatedAt, t.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return tenant.ErrSlugTaken
		}
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*tenant.Tenant, error) {
	return r.scanTenant(r.db.pool.QueryRow(ctx, `
		SELECT id, slug, name, contact_email, active, trial, created_at, created_by
		FROM tenants WHERE id = $1
	`, id))
}

// GetBySlug retrieves a tenant by slug
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.scanTenant(r.db.pool.QueryRow(ctx, `
		SELECT id, slug, name, contact_email, active, trial, created_at, created_by
		FROM tenants WHERE slug = $1
	`, slug))
}

// Update persists mutable tenant fields
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE tenants SET name = $2, contact_email = $3, active = $4, trial = $5
		WHERE id = $1
	`, t.ID, t.Name, t.ContactEmail, t.Active, t.Trial)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// List returns tenants ordered by creation time
func (r *TenantRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, slug, name, contact_email, active, trial, created_at, created_by
		FROM tenants ORDER BY created_at LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []*tenant.Tenant{}
	for rows.Next() {
		var t tenant.Tenant
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.ContactEmail, &t.Active, &t.Trial, &t.CreatedAt, &t.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &t)
	}
	return tenants, rows.Err()
}

func (r *TenantRepository) scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.ContactEmail, &t.Active, &t.Trial, &t.CreatedAt, &t.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// DomainRepository implements tenant.DomainRepository
type DomainRepository struct {
	db *DB
}

// NewDomainRepository creates a new tenant domain repository
func NewDomainRepository(db *DB) *DomainRepository {
	return &DomainRepository{db: db}
}

// Create registers a domain for a tenant
func (r *DomainRepository) Create(ctx context.Context, d *tenant.TenantDomain) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tenant_domains (id, tenant_id, domain, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, d.ID, d.TenantID, d.Domain, d.Primary, d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return tenant.ErrDomainTaken
		}
		return fmt.Errorf("failed to insert tenant domain: %w", err)
	}
	return nil
}

// GetByDomain resolves a domain to its owning tenant mapping
func (r *DomainRepository) GetByDomain(ctx context.Context, domain string) (*tenant.TenantDomain, error) {
	var d tenant.TenantDomain
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, domain, is_primary, created_at
		FROM tenant_domains WHERE domain = $1
	`, domain).Scan(&d.ID, &d.TenantID, &d.Domain, &d.Primary, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrDomainNotFound
		}
		return nil, fmt.Errorf("failed to get tenant domain: %w", err)
	}
	return &d, nil
}

// ListForTenant lists the domains registered for a tenant
func (r *DomainRepository) ListForTenant(ctx context.Context, tenantID string) ([]*tenant.TenantDomain, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, domain, is_primary, created_at
		FROM tenant_domains WHERE tenant_id = $1 ORDER BY created_at
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant domains: %w", err)
	}
	defer rows.Close()

	domains := []*tenant.TenantDomain{}
	for rows.Next() {
		var d tenant.TenantDomain
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Domain, &d.Primary, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant domain: %w", err)
		}
		domains = append(domains, &d)
	}
	return domains, rows.Err()
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
