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

//go:build integration
// +build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeplane/tradeplane/internal/erp"
	"github.com/tradeplane/tradeplane/internal/id"
	"github.com/tradeplane/tradeplane/internal/identity"
	"github.com/tradeplane/tradeplane/internal/invitation"
	"github.com/tradeplane/tradeplane/internal/tenant"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	cfg := Config{
		Host:         "localhost",
		Port:         "5432",
		User:         "tradeplane",
		Password:     "tradeplane_dev_password",
		Database:     "tradeplane",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 5,
	}

	db, err := New(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to database: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx, InitialSchema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return db
}

func seedTenant(t *testing.T, db *DB, slug string) *tenant.Tenant {
	t.Helper()
	tn := &tenant.Tenant{
		ID:        id.NewUUIDv7(),
		Slug:      slug,
		Name:      slug,
		Active:    true,
		CreatedAt: time.Now(),
	}
	require.NoError(t, NewTenantRepository(db).Create(context.Background(), tn))
	return tn
}

func seedUser(t *testing.T, db *DB, email string) *identity.User {
	t.Helper()
	u := &identity.User{ID: id.NewUUIDv7(), Email: email}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

// TestPurpose: Validates that tenant-scoped record retrieval cannot cross the tenant boundary, even with a valid record id.
// Scope: Database Integration Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: A supplier created under Tenant A is invisible to Tenant B's scope: Get returns ErrNotFound, List omits it.
// Test Case ID: ISO-01
// Metadata:
//   - Category: Tenant
//   - Priority: High
//   - Tags: multi-tenancy, security, data-isolation
func TestSupplierRepository_TenantIsolation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tenantA := seedTenant(t, db, "iso-a-"+id.NewUUIDv7()[:8])
	tenantB := seedTenant(t, db, "iso-b-"+id.NewUUIDv7()[:8])

	repo := NewSupplierRepository(db)
	sup := &erp.Supplier{
		ID:        id.NewUUIDv7(),
		TenantID:  tenantA.ID,
		Name:      "Isolated Supplies Inc",
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, sup))

	// Same id, wrong tenant: indistinguishable from a missing row.
	_, err := repo.Get(ctx, tenantB.ID, sup.ID)
	assert.ErrorIs(t, err, erp.ErrNotFound)

	got, err := repo.Get(ctx, tenantA.ID, sup.ID)
	require.NoError(t, err)
	assert.Equal(t, sup.Name, got.Name)

	listB, err := repo.ListForTenant(ctx, tenantB.ID, 100, 0)
	require.NoError(t, err)
	for _, s := range listB {
		assert.NotEqual(t, sup.ID, s.ID)
	}
}

// TestPurpose: Validates the partial unique index allows at most one pending invitation per (tenant, email) while permitting re-invites after terminal states.
// Scope: Database Integration Test
// Expected: Second pending insert fails with ErrDuplicatePending; after revocation a new pending invitation succeeds; reusable (NULL email) links never conflict.
// Test Case ID: ISO-02
func TestInvitationRepository_PendingUniqueness(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tn := seedTenant(t, db, "inv-"+id.NewUUIDv7()[:8])
	inviter := seedUser(t, db, id.NewUUIDv7()+"@seed.test")
	repo := NewInvitationRepository(db)

	email := "dup@" + tn.Slug + ".test"
	mk := func() *invitation.Invitation {
		token, err := invitation.NewToken()
		require.NoError(t, err)
		return &invitation.Invitation{
			ID:        id.NewUUIDv7(),
			TenantID:  tn.ID,
			Email:     &email,
			Role:      tenant.RoleUser,
			InviterID: inviter.ID,
			Token:     token,
			Status:    invitation.StatusPending,
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		}
	}

	first := mk()
	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, mk()), invitation.ErrDuplicatePending)

	first.Status = invitation.StatusRevoked
	require.NoError(t, repo.Update(ctx, first))
	require.NoError(t, repo.Create(ctx, mk()))

	// Reusable links carry no email and fall outside the constraint.
	for range 2 {
		token, err := invitation.NewToken()
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, &invitation.Invitation{
			ID:        id.NewUUIDv7(),
			TenantID:  tn.ID,
			Role:      tenant.RoleUser,
			InviterID: inviter.ID,
			Token:     token,
			Status:    invitation.StatusPending,
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		}))
	}
}

// TestPurpose: Validates the transactional accept path: the guarded status update and the membership upsert commit together, and a consumed token cannot be redeemed again.
// Scope: Database Integration Test
// Security: Single-use invitation tokens
// Expected: First accept creates an active membership with the invited role; a second accept of the same row fails with ErrInvitationInvalid and grants nothing.
// Test Case ID: ISO-03
func TestInvitationRepository_AcceptOnce(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tn := seedTenant(t, db, "acc-"+id.NewUUIDv7()[:8])
	inviter := seedUser(t, db, id.NewUUIDv7()+"@seed.test")
	invitee := seedUser(t, db, id.NewUUIDv7()+"@seed.test")
	repo := NewInvitationRepository(db)

	email := invitee.Email
	token, err := invitation.NewToken()
	require.NoError(t, err)
	now := time.Now()
	inv := &invitation.Invitation{
		ID:        id.NewUUIDv7(),
		TenantID:  tn.ID,
		Email:     &email,
		Role:      tenant.RoleManager,
		InviterID: inviter.ID,
		Token:     token,
		Status:    invitation.StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, inv))

	accepted := *inv
	accepted.Status = invitation.StatusAccepted
	accepted.AcceptedAt = &now
	accepted.AcceptedBy = &invitee.ID

	m := &tenant.Membership{
		ID:        id.NewUUIDv7(),
		TenantID:  tn.ID,
		UserID:    invitee.ID,
		Role:      tenant.RoleManager,
		Active:    true,
		GrantedAt: now,
		GrantedBy: inviter.ID,
	}
	require.NoError(t, repo.Accept(ctx, &accepted, m))

	got, err := NewMembershipRepository(db).Get(ctx, tn.ID, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, tenant.RoleManager, got.Role)
	assert.True(t, got.Active)

	// The row is no longer pending; the guarded update must not match.
	assert.ErrorIs(t, repo.Accept(ctx, &accepted, m), invitation.ErrInvitationInvalid)
}

// TestPurpose: Validates that reusable-link redemption counts in the database, not in the caller: redemptions racing from the same stale read must not lose increments or exceed the use budget.
// Scope: Database Integration Test
// Security: Invitation use-budget enforcement under concurrent redemption
// Expected: Two accepts of a max_uses=2 link, each built from the pre-redemption row state, leave use_count=2 and status=accepted; a third redemption fails with ErrInvitationInvalid.
// Test Case ID: ISO-04
func TestInvitationRepository_AcceptReusableCountsInDatabase(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tn := seedTenant(t, db, "use-"+id.NewUUIDv7()[:8])
	inviter := seedUser(t, db, id.NewUUIDv7()+"@seed.test")
	repo := NewInvitationRepository(db)

	token, err := invitation.NewToken()
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, repo.Create(ctx, &invitation.Invitation{
		ID:        id.NewUUIDv7(),
		TenantID:  tn.ID,
		Role:      tenant.RoleUser,
		InviterID: inviter.ID,
		Token:     token,
		Status:    invitation.StatusPending,
		MaxUses:   2,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	// Both redemptions start from the same read of the row, the way two
	// overlapping requests would. The stored counter must still reach 2.
	pre, err := repo.GetByToken(ctx, token)
	require.NoError(t, err)

	redeem := func() (*invitation.Invitation, error) {
		stale := *pre
		m := &tenant.Membership{
			ID:        id.NewUUIDv7(),
			TenantID:  tn.ID,
			UserID:    seedUser(t, db, id.NewUUIDv7()+"@seed.test").ID,
			Role:      tenant.RoleUser,
			Active:    true,
			GrantedAt: time.Now(),
			GrantedBy: inviter.ID,
		}
		return &stale, repo.Accept(ctx, &stale, m)
	}

	first, err := redeem()
	require.NoError(t, err)
	assert.Equal(t, 1, first.UseCount)
	assert.Equal(t, invitation.StatusPending, first.Status)

	second, err := redeem()
	require.NoError(t, err)
	assert.Equal(t, 2, second.UseCount)
	assert.Equal(t, invitation.StatusAccepted, second.Status)

	stored, err := repo.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.UseCount)
	assert.Equal(t, invitation.StatusAccepted, stored.Status)

	_, err = redeem()
	assert.ErrorIs(t, err, invitation.ErrInvitationInvalid)
}

// TestPurpose: Validates that the app.tenant_id session variable cannot outlive the connection checkout that set it.
// Scope: Database Integration Test
// Security: A tenant scope set for one request must never be visible to another
// Expected: After SetTenant, draining the pool finds no connection still carrying a tenant id.
// Test Case ID: ISO-05
func TestDB_TenantSessionVariable_DoesNotLinger(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.SetTenant(ctx, id.NewUUIDv7()))

	// Check out every pooled connection, including the one SetTenant
	// used and released.
	conns := make([]*pgxpool.Conn, 0, 5)
	for range 5 {
		c, err := db.Pool().Acquire(ctx)
		require.NoError(t, err)
		conns = append(conns, c)
	}
	defer func() {
		for _, c := range conns {
			c.Release()
		}
	}()

	for _, c := range conns {
		var v *string
		require.NoError(t, c.QueryRow(ctx,
			`SELECT NULLIF(current_setting('app.tenant_id', true), '')`).Scan(&v))
		assert.Nil(t, v, "a released connection must not carry a tenant scope")
	}
}
