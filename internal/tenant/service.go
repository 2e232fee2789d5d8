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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tradeplane/tradeplane/internal/audit"
	"github.com/tradeplane/tradeplane/internal/id"
)

// Service provides tenant registry and membership business logic
type Service struct {
	repo           Repository
	domainRepo     DomainRepository
	membershipRepo MembershipRepository
	auditLogger    audit.Logger
}

// NewService creates a new tenant service
func NewService(repo Repository, domainRepo DomainRepository, membershipRepo MembershipRepository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:           repo,
		domainRepo:     domainRepo,
		membershipRepo: membershipRepo,
		auditLogger:    auditLogger,
	}
}

// CreateTenant registers a new tenant and grants the creator the owner
// membership. Slugs are immutable and stay reserved even after the tenant is
// deactivated.
func (s *Service) CreateTenant(ctx context.Context, slug, name, contactEmail, creatorID string, trial bool) (*Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !ValidSlug(slug) {
		return nil, fmt.Errorf("invalid tenant slug %q", slug)
	}
	if name == "" {
		return nil, fmt.Errorf("tenant name is required")
	}

	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, ErrTenantNotFound) {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}

	t := &Tenant{
		ID:           id.NewUUIDv7(),
		Slug:         slug,
		Name:         name,
		ContactEmail: contactEmail,
		Active:       true,
		Trial:        trial,
		CreatedAt:    time.Now(),
	}
	if creatorID != "" {
		t.CreatedBy = &creatorID
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	if creatorID != "" {
		if _, err := s.GrantMembership(ctx, t.ID, creatorID, RoleOwner, creatorID); err != nil {
			return nil, fmt.Errorf("failed to grant owner membership: %w", err)
		}
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantCreated,
		TenantID: t.ID,
		ActorID:  creatorID,
		Resource: "tenant",
		Metadata: map[string]any{"slug": t.Slug, "name": t.Name},
	})

	return t, nil
}

// GetTenant retrieves a tenant by ID
func (s *Service) GetTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	return s.repo.GetByID(ctx, tenantID)
}

// GetTenantBySlug retrieves a tenant by its slug
func (s *Service) GetTenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return s.repo.GetBySlug(ctx, strings.ToLower(slug))
}

// ListTenants lists tenants with pagination. Returns an empty slice before
// any tenant exists.
func (s *Service) ListTenants(ctx context.Context, limit, offset int) ([]*Tenant, error) {
	return s.repo.List(ctx, limit, offset)
}

// DeactivateTenant soft-deactivates a tenant. Rows owned by the tenant are
// kept; the slug and its domains remain reserved.
func (s *Service) DeactivateTenant(ctx context.Context, tenantID, actorID string) error {
	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if !t.Active {
		return nil
	}
	t.Active = false
	if err := s.repo.Update(ctx, t); err != nil {
		return fmt.Errorf("failed to deactivate tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantDeactivated,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: "tenant",
	})
	return nil
}

// AddDomain maps a host to the tenant. This is an administrative operation;
// the end-user request flow never creates domains.
func (s *Service) AddDomain(ctx context.Context, tenantID, domain string, primary bool, actorID string) (*TenantDomain, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, fmt.Errorf("domain is required")
	}

	if _, err := s.repo.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}

	if existing, err := s.domainRepo.GetByDomain(ctx, domain); err == nil && existing != nil {
		return nil, ErrDomainTaken
	} else if err != nil && !errors.Is(err, ErrDomainNotFound) {
		return nil, fmt.Errorf("failed to check domain: %w", err)
	}

	d := &TenantDomain{
		ID:        id.NewUUIDv7(),
		TenantID:  tenantID,
		Domain:    domain,
		Primary:   primary,
		CreatedAt: time.Now(),
	}
	if err := s.domainRepo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create domain: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeDomainAdded,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: "tenant_domain",
		Metadata: map[string]any{"domain": domain, "primary": primary},
	})

	return d, nil
}

// ListDomains lists the domains of a tenant
func (s *Service) ListDomains(ctx context.Context, tenantID string) ([]*TenantDomain, error) {
	return s.domainRepo.ListForTenant(ctx, tenantID)
}

// GrantMembership creates a membership, or reactivates a previously revoked
// one for the same (tenant, user) pair.
func (s *Service) GrantMembership(ctx context.Context, tenantID, userID, role, grantedBy string) (*Membership, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	existing, err := s.membershipRepo.Get(ctx, tenantID, userID)
	switch {
	case err == nil:
		if existing.Active {
			return nil, ErrMembershipExists
		}
		existing.Active = true
		existing.Role = role
		existing.GrantedAt = time.Now()
		existing.GrantedBy = grantedBy
		if err := s.membershipRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to reactivate membership: %w", err)
		}
		s.logMembershipGranted(ctx, existing)
		return existing, nil
	case errors.Is(err, ErrMembershipNotFound):
		// fall through to create
	default:
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	m := &Membership{
		ID:        id.NewUUIDv7(),
		TenantID:  tenantID,
		UserID:    userID,
		Role:      role,
		Active:    true,
		GrantedAt: time.Now(),
		GrantedBy: grantedBy,
	}
	if err := s.membershipRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	s.logMembershipGranted(ctx, m)
	return m, nil
}

func (s *Service) logMembershipGranted(ctx context.Context, m *Membership) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMembershipGranted,
		TenantID: m.TenantID,
		ActorID:  m.GrantedBy,
		Resource: m.Role,
		Metadata: map[string]any{"user_id": m.UserID},
	})
}

// RevokeMembership deactivates a membership. The row is kept for audit
// history.
func (s *Service) RevokeMembership(ctx context.Context, tenantID, userID, actorID string) error {
	m, err := s.membershipRepo.Get(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if !m.Active {
		return nil
	}
	m.Active = false
	if err := s.membershipRepo.Update(ctx, m); err != nil {
		return fmt.Errorf("failed to revoke membership: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeMembershipRevoked,
		TenantID: tenantID,
		ActorID:  actorID,
		Resource: m.Role,
		Metadata: map[string]any{"user_id": userID},
	})
	return nil
}

// ActiveMembership returns the user's active membership in a tenant, or
// ErrMembershipNotFound when none exists or it is deactivated.
func (s *Service) ActiveMembership(ctx context.Context, tenantID, userID string) (*Membership, error) {
	m, err := s.membershipRepo.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, ErrMembershipNotFound
	}
	return m, nil
}

// ListMembers lists the memberships of a tenant
func (s *Service) ListMembers(ctx context.Context, tenantID string) ([]*Membership, error) {
	return s.membershipRepo.ListForTenant(ctx, tenantID)
}

// ListUserMemberships lists the user's memberships across tenants
func (s *Service) ListUserMemberships(ctx context.Context, userID string) ([]*Membership, error) {
	return s.membershipRepo.ListForUser(ctx, userID)
}
