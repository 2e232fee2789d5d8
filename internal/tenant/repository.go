package tenant

import (
	"context"
	"errors"
)

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrSlugTaken          = errors.New("tenant slug already in use")
	ErrDomainNotFound     = errors.New("domain not found")
	ErrDomainTaken        = errors.New("domain already mapped to a tenant")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipExists   = errors.New("membership already exists")
)

// Repository defines the interface for tenant storage.
// Lookups return ErrTenantNotFound for absent rows; an empty registry is not
// an error condition.
type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	List(ctx context.Context, limit, offset int) ([]*Tenant, error)
}

// DomainRepository defines the interface for tenant domain storage
type DomainRepository interface {
	Create(ctx context.Context, d *TenantDomain) error
	GetByDomain(ctx context.Context, domain string) (*TenantDomain, error)
	ListForTenant(ctx context.Context, tenantID string) ([]*TenantDomain, error)
}

// MembershipRepository defines the interface for membership storage
type MembershipRepository interface {
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, tenantID, userID string) (*Membership, error)
	ListForUser(ctx context.Context, userID string) ([]*Membership, error)
	ListForTenant(ctx context.Context, tenantID string) ([]*Membership, error)
	Update(ctx context.Context, m *Membership) error
}
