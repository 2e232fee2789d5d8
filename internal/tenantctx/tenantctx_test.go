package tenantctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates that tenant absence is an explicit state, not a zero value that could be mistaken for a real tenant.
// Scope: Unit Test
// Security: Multi-tenant boundary enforcement
// Expected: From reports absence on a bare context; Require returns ErrTenantRequired.
// Test Case ID: CTX-01
func TestTenantctx_AbsenceIsExplicit(t *testing.T) {
	ctx := context.Background()

	_, ok := From(ctx)
	assert.False(t, ok)
	assert.Empty(t, ID(ctx))

	_, err := Require(ctx)
	assert.ErrorIs(t, err, ErrTenantRequired)
}

// TestPurpose: Validates round-tripping of the resolved tenant through request context.
// Scope: Unit Test
// Expected: With stores and From retrieves the same tenant identity.
// Test Case ID: CTX-02
func TestTenantctx_RoundTrip(t *testing.T) {
	ctx := With(context.Background(), Tenant{ID: "t-1", Slug: "acme"})

	got, ok := From(ctx)
	assert.True(t, ok)
	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, "acme", got.Slug)

	required, err := Require(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "t-1", required.ID)
}
