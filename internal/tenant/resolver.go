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
	"net"
	"strings"
)

// ResolveInput carries the per-request signals the resolver may use.
type ResolveInput struct {
	// TenantID is the explicit tenant identifier from the X-Tenant-ID
	// header, if the caller supplied one.
	TenantID string
	// Host is the request's Host header.
	Host string
	// UserID is the authenticated caller, "" for anonymous requests.
	UserID string
	// PreferMembership enables the highest-role membership tie-break when
	// neither an explicit id nor a host match produced a tenant. It is a UX
	// convenience for write paths that must land somewhere, never a
	// security decision; callers set it per request and leave it false on
	// reads, which stay unscoped when no signal names a tenant.
	PreferMembership bool
}

// Resolver maps inbound request signals to a tenant.
//
// Resolution order: explicit tenant id (honored only with an active
// membership), exact host match, then the caller's membership fallback. An
// unmatched host is not an error: the resolver returns (nil, nil) and the
// request proceeds tenant-less.
type Resolver struct {
	repo           Repository
	domainRepo     DomainRepository
	membershipRepo MembershipRepository
}

// NewResolver creates a new resolver
func NewResolver(repo Repository, domainRepo DomainRepository, membershipRepo MembershipRepository) *Resolver {
	return &Resolver{
		repo:           repo,
		domainRepo:     domainRepo,
		membershipRepo: membershipRepo,
	}
}

// Resolve returns the tenant for the request, or nil when none resolves.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (*Tenant, error) {
	// (a) explicit tenant id, gated on membership
	if in.TenantID != "" {
		t, err := r.resolveExplicit(ctx, in.TenantID, in.UserID)
		if err != nil || t != nil {
			return t, err
		}
		// An explicit id the caller may not use falls through to the
		// remaining signals rather than failing the request.
	}

	// (b) exact host match
	if in.Host != "" {
		t, err := r.resolveHost(ctx, in.Host)
		if err != nil || t != nil {
			return t, err
		}
	}

	// (c) membership fallback
	if in.UserID != "" {
		return r.resolveMembership(ctx, in.UserID, in.PreferMembership)
	}

	return nil, nil
}

func (r *Resolver) resolveExplicit(ctx context.Context, tenantID, userID string) (*Tenant, error) {
	if userID == "" {
		return nil, nil
	}

	m, err := r.membershipRepo.Get(ctx, tenantID, userID)
	if errors.Is(err, ErrMembershipNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check membership for explicit tenant: %w", err)
	}
	if !m.Active {
		return nil, nil
	}

	return r.activeTenant(ctx, tenantID)
}

func (r *Resolver) resolveHost(ctx context.Context, host string) (*Tenant, error) {
	d, err := r.domainRepo.GetByDomain(ctx, NormalizeHost(host))
	if errors.Is(err, ErrDomainNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up domain: %w", err)
	}
	return r.activeTenant(ctx, d.TenantID)
}

func (r *Resolver) resolveMembership(ctx context.Context, userID string, preferHighest bool) (*Tenant, error) {
	memberships, err := r.membershipRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	var active []*Membership
	for _, m := range memberships {
		if m.Active {
			active = append(active, m)
		}
	}

	switch {
	case len(active) == 0:
		return nil, nil
	case len(active) == 1:
		return r.activeTenant(ctx, active[0].TenantID)
	case !preferHighest:
		// Ambiguous and the caller gave no other signal: do not guess.
		return nil, nil
	}

	best := active[0]
	tie := false
	for _, m := range active[1:] {
		switch {
		case RoleRank(m.Role) > RoleRank(best.Role):
			best = m
			tie = false
		case RoleRank(m.Role) == RoleRank(best.Role):
			tie = true
		}
	}
	if tie {
		// No clear highest-role membership either.
		return nil, nil
	}
	return r.activeTenant(ctx, best.TenantID)
}

// activeTenant loads a tenant and treats deactivated tenants as unresolved.
func (r *Resolver) activeTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	t, err := r.repo.GetByID(ctx, tenantID)
	if errors.Is(err, ErrTenantNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	if !t.Active {
		return nil, nil
	}
	return t, nil
}

// NormalizeHost lowercases a Host header value and strips any port.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
