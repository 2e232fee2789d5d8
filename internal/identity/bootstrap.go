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

package identity

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tradeplane/tradeplane/internal/audit"
	"github.com/tradeplane/tradeplane/internal/tenant"
)

const (
	EnvBootstrapOwnerEmail    = "BOOTSTRAP_OWNER_EMAIL"
	EnvBootstrapOwnerPassword = "BOOTSTRAP_OWNER_PASSWORD"
	EnvBootstrapTenantSlug    = "BOOTSTRAP_TENANT_SLUG"
	EnvBootstrapTenantName    = "BOOTSTRAP_TENANT_NAME"
	EnvBootstrapTenantDomain  = "BOOTSTRAP_TENANT_DOMAIN"
)

// BootstrapService creates the first tenant and its owner account on a
// fresh installation.
type BootstrapService struct {
	identityService *Service
	tenantService   *tenant.Service
	auditLogger     audit.Logger
}

// NewBootstrapService creates a new bootstrap service
func NewBootstrapService(
	identityService *Service,
	tenantService *tenant.Service,
	auditLogger audit.Logger,
) *BootstrapService {
	return &BootstrapService{
		identityService: identityService,
		tenantService:   tenantService,
		auditLogger:     auditLogger,
	}
}

// Bootstrap checks for bootstrap configuration and executes it if necessary.
// It is idempotent: once the configured tenant slug exists it does nothing,
// so it is safe to run on every startup.
func (s *BootstrapService) Bootstrap(ctx context.Context) error {
	email := os.Getenv(EnvBootstrapOwnerEmail)
	if email == "" {
		return nil
	}

	slug := os.Getenv(EnvBootstrapTenantSlug)
	if slug == "" {
		slug = "root"
	}
	name := os.Getenv(EnvBootstrapTenantName)
	if name == "" {
		name = "Root Tenant"
	}

	// 1. Already bootstrapped? Skip silently.
	if _, err := s.tenantService.GetTenantBySlug(ctx, slug); err == nil {
		return nil
	} else if !errors.Is(err, tenant.ErrTenantNotFound) {
		return fmt.Errorf("failed to check for existing bootstrap tenant: %w", err)
	}

	// 2. Create the owner account, or reuse an existing one with the same
	// email so a half-finished bootstrap can be re-run.
	user, err := s.identityService.Signup(ctx, email, "Root Owner", os.Getenv(EnvBootstrapOwnerPassword))
	if errors.Is(err, ErrUserAlreadyExists) {
		user, err = s.identityService.GetUserByEmail(ctx, email)
	}
	if err != nil {
		return fmt.Errorf("failed to create bootstrap owner %s: %w", email, err)
	}

	// 3. Create the tenant; the creator gets the owner membership.
	t, err := s.tenantService.CreateTenant(ctx, slug, name, email, user.ID, false)
	if err != nil {
		return fmt.Errorf("failed to create bootstrap tenant %s: %w", slug, err)
	}

	// 4. Bind a resolution domain when one is configured.
	domain := os.Getenv(EnvBootstrapTenantDomain)
	if domain != "" {
		if _, err := s.tenantService.AddDomain(ctx, t.ID, domain, true, user.ID); err != nil {
			return fmt.Errorf("failed to add bootstrap domain %s: %w", domain, err)
		}
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBootstrapCompleted,
		TenantID: t.ID,
		ActorID:  audit.ActorSystemBootstrap,
		Resource: t.Slug,
		Metadata: map[string]any{
			"email":  email,
			"domain": domain,
		},
	})

	fmt.Printf("Successfully bootstrapped tenant %q with owner %s\n", slug, email)
	return nil
}
