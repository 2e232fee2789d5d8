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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeplane/tradeplane/internal/audit"
	"github.com/tradeplane/tradeplane/internal/erp"
	"github.com/tradeplane/tradeplane/internal/id"
	"github.com/tradeplane/tradeplane/internal/identity"
	"github.com/tradeplane/tradeplane/internal/invitation"
	"github.com/tradeplane/tradeplane/internal/mail"
	"github.com/tradeplane/tradeplane/internal/session"
	"github.com/tradeplane/tradeplane/internal/tenant"
)

// In-memory fakes. The full router runs against these so the tests exercise
// middleware ordering, resolution and error mapping end to end.

type fakeTenantRepo struct {
	tenants map[string]*tenant.Tenant
}

func (f *fakeTenantRepo) Create(_ context.Context, t *tenant.Tenant) error {
	f.tenants[t.ID] = t
	return nil
}

func (f *fakeTenantRepo) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	if t, ok := f.tenants[id]; ok {
		return t, nil
	}
	return nil, tenant.ErrTenantNotFound
}

func (f *fakeTenantRepo) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	for _, t := range f.tenants {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (f *fakeTenantRepo) Update(_ context.Context, t *tenant.Tenant) error {
	f.tenants[t.ID] = t
	return nil
}

func (f *fakeTenantRepo) List(_ context.Context, _, _ int) ([]*tenant.Tenant, error) {
	out := []*tenant.Tenant{}
	for _, t := range f.tenants {
		out = append(out, t)
	}
	return out, nil
}

type fakeDomainRepo struct {
	domains map[string]*tenant.TenantDomain
}

func (f *fakeDomainRepo) Create(_ context.Context, d *tenant.TenantDomain) error {
	if _, ok := f.domains[d.Domain]; ok {
		return tenant.ErrDomainTaken
	}
	f.domains[d.Domain] = d
	return nil
}

func (f *fakeDomainRepo) GetByDomain(_ context.Context, domain string) (*tenant.TenantDomain, error) {
	if d, ok := f.domains[domain]; ok {
		return d, nil
	}
	return nil, tenant.ErrDomainNotFound
}

func (f *fakeDomainRepo) ListForTenant(_ context.Context, tenantID string) ([]*tenant.TenantDomain, error) {
	out := []*tenant.TenantDomain{}
	for _, d := range f.domains {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeMembershipRepo struct {
	memberships map[string]*tenant.Membership // tenantID + "|" + userID
}

func (f *fakeMembershipRepo) key(tenantID, userID string) string { return tenantID + "|" + userID }

func (f *fakeMembershipRepo) Create(_ context.Context, m *tenant.Membership) error {
	f.memberships[f.key(m.TenantID, m.UserID)] = m
	return nil
}

func (f *fakeMembershipRepo) Get(_ context.Context, tenantID, userID string) (*tenant.Membership, error) {
	if m, ok := f.memberships[f.key(tenantID, userID)]; ok {
		return m, nil
	}
	return nil, tenant.ErrMembershipNotFound
}

func (f *fakeMembershipRepo) ListForUser(_ context.Context, userID string) ([]*tenant.Membership, error) {
	out := []*tenant.Membership{}
	for _, m := range f.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembershipRepo) ListForTenant(_ context.Context, tenantID string) ([]*tenant.Membership, error) {
	out := []*tenant.Membership{}
	for _, m := range f.memberships {
		if m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembershipRepo) Update(_ context.Context, m *tenant.Membership) error {
	f.memberships[f.key(m.TenantID, m.UserID)] = m
	return nil
}

type fakeUserRepo struct {
	users map[string]*identity.User
	creds map[string]*identity.Credentials
}

func (f *fakeUserRepo) Create(_ context.Context, u *identity.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return identity.ErrUserAlreadyExists
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*identity.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *identity.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) AddCredentials(_ context.Context, c *identity.Credentials) error {
	f.creds[c.UserID] = c
	return nil
}

func (f *fakeUserRepo) GetCredentials(_ context.Context, userID string) (*identity.Credentials, error) {
	if c, ok := f.creds[userID]; ok {
		return c, nil
	}
	return nil, identity.ErrUserNotFound
}

type fakeSessionRepo struct {
	sessions map[string]*session.Session
}

func (f *fakeSessionRepo) Create(_ context.Context, s *session.Session) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) Get(_ context.Context, id string) (*session.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, session.ErrSessionNotFound
}

func (f *fakeSessionRepo) Update(_ context.Context, s *session.Session) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context) (int64, error) { return 0, nil }

type fakeInvitationRepo struct {
	invitations map[string]*invitation.Invitation // by id
	memberships *fakeMembershipRepo
}

func (f *fakeInvitationRepo) Create(_ context.Context, inv *invitation.Invitation) error {
	for _, existing := range f.invitations {
		if existing.Status == invitation.StatusPending &&
			existing.TenantID == inv.TenantID &&
			existing.Email != nil && inv.Email != nil && *existing.Email == *inv.Email {
			return invitation.ErrDuplicatePending
		}
	}
	cp := *inv
	f.invitations[inv.ID] = &cp
	return nil
}

func (f *fakeInvitationRepo) GetByID(_ context.Context, id string) (*invitation.Invitation, error) {
	if inv, ok := f.invitations[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, invitation.ErrInvitationNotFound
}

func (f *fakeInvitationRepo) GetByToken(_ context.Context, token string) (*invitation.Invitation, error) {
	for _, inv := range f.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, invitation.ErrInvitationNotFound
}

func (f *fakeInvitationRepo) ListForTenant(_ context.Context, tenantID string) ([]*invitation.Invitation, error) {
	out := []*invitation.Invitation{}
	for _, inv := range f.invitations {
		if inv.TenantID == tenantID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) Update(_ context.Context, inv *invitation.Invitation) error {
	if _, ok := f.invitations[inv.ID]; !ok {
		return invitation.ErrInvitationNotFound
	}
	cp := *inv
	f.invitations[inv.ID] = &cp
	return nil
}

// Accept mirrors the postgres repository: the stored row, not the
// caller's copy, owns the counter and the status transition.
func (f *fakeInvitationRepo) Accept(ctx context.Context, inv *invitation.Invitation, m *tenant.Membership) error {
	stored, ok := f.invitations[inv.ID]
	if !ok || stored.Status != invitation.StatusPending {
		return invitation.ErrInvitationInvalid
	}
	if stored.Email == nil {
		if stored.MaxUses > 0 && stored.UseCount >= stored.MaxUses {
			return invitation.ErrInvitationInvalid
		}
		stored.UseCount++
		if stored.MaxUses > 0 && stored.UseCount >= stored.MaxUses {
			stored.Status = invitation.StatusAccepted
		}
	} else {
		stored.Status = invitation.StatusAccepted
		stored.AcceptedAt = inv.AcceptedAt
		stored.AcceptedBy = inv.AcceptedBy
	}
	inv.UseCount = stored.UseCount
	inv.Status = stored.Status
	return f.memberships.Create(ctx, m)
}

func (f *fakeInvitationRepo) ExpireOverdue(_ context.Context) (int64, error) { return 0, nil }

type fakeSupplierRepo struct {
	suppliers map[string]*erp.Supplier
}

func (f *fakeSupplierRepo) Create(_ context.Context, s *erp.Supplier) error {
	f.suppliers[s.ID] = s
	return nil
}

func (f *fakeSupplierRepo) Get(_ context.Context, tenantID, id string) (*erp.Supplier, error) {
	s, ok := f.suppliers[id]
	if !ok || s.TenantID != tenantID {
		return nil, erp.ErrNotFound
	}
	return s, nil
}

func (f *fakeSupplierRepo) ListForTenant(_ context.Context, tenantID string, _, _ int) ([]*erp.Supplier, error) {
	out := []*erp.Supplier{}
	for _, s := range f.suppliers {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSupplierRepo) Update(_ context.Context, s *erp.Supplier) error {
	f.suppliers[s.ID] = s
	return nil
}

type fakeCustomerRepo struct{}

func (fakeCustomerRepo) Create(context.Context, *erp.Customer) error { return nil }
func (fakeCustomerRepo) Get(context.Context, string, string) (*erp.Customer, error) {
	return nil, erp.ErrNotFound
}
func (fakeCustomerRepo) ListForTenant(context.Context, string, int, int) ([]*erp.Customer, error) {
	return []*erp.Customer{}, nil
}
func (fakeCustomerRepo) Update(context.Context, *erp.Customer) error { return nil }

type fakeOrderRepo struct{}

func (fakeOrderRepo) Create(context.Context, *erp.SalesOrder) error { return nil }
func (fakeOrderRepo) Get(context.Context, string, string) (*erp.SalesOrder, error) {
	return nil, erp.ErrNotFound
}
func (fakeOrderRepo) ListForTenant(context.Context, string, int, int) ([]*erp.SalesOrder, error) {
	return []*erp.SalesOrder{}, nil
}
func (fakeOrderRepo) Update(context.Context, *erp.SalesOrder) error { return nil }

// fixture wires the full router over the in-memory stores and seeds two
// tenants with one user who belongs to both.
type fixture struct {
	router        http.Handler
	signer        *TokenSigner
	tenantA       *tenant.Tenant
	tenantB       *tenant.Tenant
	user          *identity.User
	sessionID     string
	suppliers     *fakeSupplierRepo
	memberships   *fakeMembershipRepo
	invitationSvc *invitation.Service
}

const testCookieName = "tradeplane_session"

func newFixture(t *testing.T) *fixture {
	return newFixtureCfg(t, false)
}

func newFixtureCfg(t *testing.T, preferMembership bool) *fixture {
	t.Helper()
	ctx := context.Background()

	tenantRepo := &fakeTenantRepo{tenants: map[string]*tenant.Tenant{}}
	domainRepo := &fakeDomainRepo{domains: map[string]*tenant.TenantDomain{}}
	membershipRepo := &fakeMembershipRepo{memberships: map[string]*tenant.Membership{}}
	userRepo := &fakeUserRepo{users: map[string]*identity.User{}, creds: map[string]*identity.Credentials{}}
	sessionRepo := &fakeSessionRepo{sessions: map[string]*session.Session{}}
	invitationRepo := &fakeInvitationRepo{invitations: map[string]*invitation.Invitation{}, memberships: membershipRepo}
	supplierRepo := &fakeSupplierRepo{suppliers: map[string]*erp.Supplier{}}

	auditLogger := audit.NewSlogLogger()
	hasher := identity.NewPasswordHasher(1024, 1, 1, 16, 32)

	tenantSvc := tenant.NewService(tenantRepo, domainRepo, membershipRepo, auditLogger)
	resolver := tenant.NewResolver(tenantRepo, domainRepo, membershipRepo)
	identitySvc := identity.NewService(userRepo, hasher, auditLogger)
	sessionSvc := session.NewService(sessionRepo, time.Hour, time.Hour)
	invitationSvc := invitation.NewService(invitationRepo, tenantSvc, identitySvc, mail.NewLogSender(), auditLogger, invitation.Config{
		DefaultTTL:    24 * time.Hour,
		SignupBaseURL: "https://app.tradeplane.test/signup",
		FromAddress:   "no-reply@tradeplane.test",
	})
	erpSvc := erp.NewService(supplierRepo, fakeCustomerRepo{}, fakeOrderRepo{})

	signer := NewTokenSigner("test-secret-test-secret-test-secret!", time.Hour)

	h := NewHandler(HandlerConfig{
		IdentityService:   identitySvc,
		SessionService:    sessionSvc,
		TenantService:     tenantSvc,
		TenantResolver:    resolver,
		InvitationService: invitationSvc,
		ERPService:        erpSvc,
		AuditLogger:       auditLogger,
		TokenSigner:       signer,
		Session: SessionConfig{
			CookieName:     testCookieName,
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteLaxMode,
		},
		PreferMembership: preferMembership,
	})

	// Seed: user owning tenant A, admin of tenant B; one supplier each.
	user, err := identitySvc.Signup(ctx, "owner@acme.test", "Ada Owner", "correct-horse-battery")
	require.NoError(t, err)

	tenantA, err := tenantSvc.CreateTenant(ctx, "acme", "Acme Corp", "", user.ID, false)
	require.NoError(t, err)
	tenantB, err := tenantSvc.CreateTenant(ctx, "globex", "Globex Inc", "", user.ID, false)
	require.NoError(t, err)

	_, err = tenantSvc.AddDomain(ctx, tenantA.ID, "erp.acme.test", true, user.ID)
	require.NoError(t, err)
	_, err = tenantSvc.AddDomain(ctx, tenantB.ID, "erp.globex.test", true, user.ID)
	require.NoError(t, err)

	for _, tn := range []*tenant.Tenant{tenantA, tenantB} {
		require.NoError(t, supplierRepo.Create(ctx, &erp.Supplier{
			ID:       "sup-" + tn.Slug,
			TenantID: tn.ID,
			Name:     tn.Name + " Supplier",
			Active:   true,
		}))
	}

	sess, err := sessionSvc.Create(ctx, user.ID, "127.0.0.1", "test")
	require.NoError(t, err)

	return &fixture{
		router:        NewRouter(h, NewRateLimiter(1000, 1000)),
		signer:        signer,
		tenantA:       tenantA,
		tenantB:       tenantB,
		user:          user,
		sessionID:     sess.ID,
		suppliers:     supplierRepo,
		memberships:   membershipRepo,
		invitationSvc: invitationSvc,
	}
}

func (f *fixture) do(t *testing.T, method, path, host string, body any, authed bool, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if host != "" {
		req.Host = host
	}
	if authed {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: f.sessionID})
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// TestPurpose: Validates end-to-end host-based tenant resolution and strict listing isolation over the full router.
// Scope: HTTP Integration Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: Each tenant host sees exactly its own suppliers; a foreign record id under the wrong host is 404.
// Test Case ID: HTTP-01
func TestRouter_HostResolution_SupplierIsolation(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/suppliers/", "erp.acme.test", nil, true, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var suppliers []*erp.Supplier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suppliers))
	require.Len(t, suppliers, 1)
	assert.Equal(t, "Acme Corp Supplier", suppliers[0].Name)

	// Tenant B's record under tenant A's host reads as missing.
	w = f.do(t, http.MethodGet, "/api/v1/suppliers/sup-globex", "erp.acme.test", nil, true, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/suppliers/sup-globex", "erp.globex.test", nil, true, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestPurpose: Validates that an unmatched host degrades to no tenant scope: reads are empty, writes are rejected.
// Scope: HTTP Integration Test
// Expected: GET list returns 200 with an empty array; POST returns 400 citing the missing scope.
// Test Case ID: HTTP-02
func TestRouter_UnknownHost_NoScope(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/suppliers/", "unknown.example.com", nil, true, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/suppliers/", "unknown.example.com",
		erp.SupplierInput{Name: "Orphan Supplies"}, true, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPurpose: Validates the explicit X-Tenant-ID header is honored for members and silently ignored otherwise.
// Scope: HTTP Integration Test
// Security: Header-based tenant selection must be membership-gated
// Expected: A member's header picks the tenant even on another tenant's host; a non-member's header falls through to host resolution.
// Test Case ID: HTTP-03
func TestRouter_ExplicitTenantHeader(t *testing.T) {
	f := newFixture(t)

	// Member: header wins over host.
	w := f.do(t, http.MethodGet, "/api/v1/suppliers/", "erp.acme.test", nil, true,
		map[string]string{"X-Tenant-ID": f.tenantB.ID})
	assert.Equal(t, http.StatusOK, w.Code)

	var suppliers []*erp.Supplier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suppliers))
	require.Len(t, suppliers, 1)
	assert.Equal(t, "Globex Inc Supplier", suppliers[0].Name)

	// Anonymous caller cannot select a tenant by header; host still works.
	w = f.do(t, http.MethodGet, "/api/v1/invitations/validate/absent-token", "unknown.example.com", nil, false,
		map[string]string{"X-Tenant-ID": f.tenantA.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestPurpose: Validates server-side tenant assignment on create.
// Scope: HTTP Integration Test
// Expected: A supplier created under tenant A's host lands in tenant A; the payload has no say.
// Test Case ID: HTTP-04
func TestRouter_CreateSupplier_ServerAssignsTenant(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/suppliers/", "erp.acme.test",
		map[string]any{"name": "Initech", "tenant_id": f.tenantB.ID}, true, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var created erp.Supplier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	stored := f.suppliers.suppliers[created.ID]
	require.NotNil(t, stored)
	assert.Equal(t, f.tenantA.ID, stored.TenantID)
}

// TestPurpose: Validates bearer token authentication as an alternative to the session cookie.
// Scope: HTTP Integration Test
// Expected: A signed token authenticates /auth/me; a garbage token is 401.
// Test Case ID: HTTP-05
func TestRouter_BearerToken(t *testing.T) {
	f := newFixture(t)

	token, err := f.signer.Issue(f.user.ID)
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/auth/me", "erp.acme.test", nil, false,
		map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, w.Code)

	var me map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, f.user.ID, me["user_id"])
	assert.Equal(t, f.tenantA.ID, me["tenant_id"])

	w = f.do(t, http.MethodGet, "/api/v1/auth/me", "erp.acme.test", nil, false,
		map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPurpose: Validates the anonymous invitation signup flow: validate, accept with a new account, session issued, membership granted.
// Scope: HTTP Integration Test
// Security: Invitation tokens are the only anonymous path into a tenant
// Expected: Token validates with tenant display data; accept creates the account and membership and sets the session cookie; the consumed token is gone afterwards.
// Test Case ID: HTTP-06
func TestRouter_InvitationSignupFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.invitationSvc.Create(ctx, invitation.CreateInput{
		TenantID:  f.tenantA.ID,
		InviterID: f.user.ID,
		Email:     func() *string { s := "newhire@acme.test"; return &s }(),
		Role:      tenant.RoleManager,
	})
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/invitations/validate/"+inv.Token, "unknown.example.com", nil, false, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var preview map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &preview))
	assert.Equal(t, "Acme Corp", preview["tenant_name"])
	assert.Equal(t, tenant.RoleManager, preview["role"])

	w = f.do(t, http.MethodPost, "/api/v1/invitations/accept/"+inv.Token, "unknown.example.com",
		AcceptInvitationRequest{Email: "newhire@acme.test", Password: "a-long-password", FullName: "New Hire"}, false, nil)
	require.Equal(t, http.StatusOK, w.Code)

	cookieSet := false
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookieName && c.Value != "" {
			cookieSet = true
		}
	}
	assert.True(t, cookieSet, "accept must establish a session")

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, f.tenantA.ID, result["tenant_id"])
	assert.Equal(t, tenant.RoleManager, result["role"])

	// The consumed token cannot be redeemed again.
	w = f.do(t, http.MethodPost, "/api/v1/invitations/accept/"+inv.Token, "unknown.example.com",
		AcceptInvitationRequest{Email: "second@acme.test", Password: "a-long-password", FullName: "Second"}, false, nil)
	assert.Equal(t, http.StatusGone, w.Code)
}

// TestPurpose: Validates role enforcement on the tenant invitation admin surface.
// Scope: HTTP Integration Test
// Security: Invitation minting is restricted to owner/admin
// Expected: A readonly member receives 403; a non-member receives 403 without tenant detail.
// Test Case ID: HTTP-07
func TestRouter_InvitationAdmin_RoleEnforcement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A second, readonly user in tenant A.
	viewer := &identity.User{ID: id.NewUUIDv7(), Email: "viewer@acme.test"}
	require.NoError(t, f.memberships.Create(ctx, &tenant.Membership{
		ID:       id.NewUUIDv7(),
		TenantID: f.tenantA.ID,
		UserID:   viewer.ID,
		Role:     tenant.RoleReadonly,
		Active:   true,
	}))

	token, err := f.signer.Issue(viewer.ID)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/v1/tenants/"+f.tenantA.ID+"/invitations", "erp.acme.test",
		CreateInvitationRequest{Role: tenant.RoleUser}, false,
		map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestPurpose: Validates the highest-role membership fallback is a write-path convenience only: reads with no tenant signal stay unscoped even with the fallback enabled.
// Scope: HTTP Integration Test
// Security: Ambiguous reads must never land in an implicitly chosen tenant
// Expected: With the fallback on, a GET from an unknown host returns an empty list; a POST from the same host lands in the caller's highest-role tenant.
// Test Case ID: HTTP-08
func TestRouter_MembershipFallback_WritesOnly(t *testing.T) {
	f := newFixtureCfg(t, true)
	ctx := context.Background()

	// Owner in A, manager in B: a ranked fallback would pick A.
	writer := &identity.User{ID: id.NewUUIDv7(), Email: "writer@acme.test"}
	require.NoError(t, f.memberships.Create(ctx, &tenant.Membership{
		ID:       id.NewUUIDv7(),
		TenantID: f.tenantA.ID,
		UserID:   writer.ID,
		Role:     tenant.RoleOwner,
		Active:   true,
	}))
	require.NoError(t, f.memberships.Create(ctx, &tenant.Membership{
		ID:       id.NewUUIDv7(),
		TenantID: f.tenantB.ID,
		UserID:   writer.ID,
		Role:     tenant.RoleManager,
		Active:   true,
	}))

	token, err := f.signer.Issue(writer.ID)
	require.NoError(t, err)
	auth := map[string]string{"Authorization": "Bearer " + token}

	w := f.do(t, http.MethodGet, "/api/v1/suppliers/", "unknown.example.com", nil, false, auth)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/suppliers/", "unknown.example.com",
		erp.SupplierInput{Name: "Fallback Forge"}, false, auth)
	require.Equal(t, http.StatusCreated, w.Code)

	var created erp.Supplier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	stored := f.suppliers.suppliers[created.ID]
	require.NotNil(t, stored)
	assert.Equal(t, f.tenantA.ID, stored.TenantID)
}
