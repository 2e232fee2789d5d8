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

package erp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tradeplane/tradeplane/internal/tenantctx"
)

type mockSupplierRepo struct {
	mock.Mock
}

func (m *mockSupplierRepo) Create(ctx context.Context, s *Supplier) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSupplierRepo) Get(ctx context.Context, tenantID, id string) (*Supplier, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Supplier), args.Error(1)
}

func (m *mockSupplierRepo) ListForTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Supplier, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Supplier), args.Error(1)
}

func (m *mockSupplierRepo) Update(ctx context.Context, s *Supplier) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) Create(ctx context.Context, c *Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCustomerRepo) Get(ctx context.Context, tenantID, id string) (*Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Customer), args.Error(1)
}

func (m *mockCustomerRepo) ListForTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Customer, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Customer), args.Error(1)
}

func (m *mockCustomerRepo) Update(ctx context.Context, c *Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, o *SalesOrder) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepo) Get(ctx context.Context, tenantID, id string) (*SalesOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SalesOrder), args.Error(1)
}

func (m *mockOrderRepo) ListForTenant(ctx context.Context, tenantID string, limit, offset int) ([]*SalesOrder, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SalesOrder), args.Error(1)
}

func (m *mockOrderRepo) Update(ctx context.Context, o *SalesOrder) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func newTestERPService() (*Service, *mockSupplierRepo, *mockCustomerRepo, *mockOrderRepo) {
	suppliers := new(mockSupplierRepo)
	customers := new(mockCustomerRepo)
	orders := new(mockOrderRepo)
	return NewService(suppliers, customers, orders), suppliers, customers, orders
}

func scopedCtx(tenantID string) context.Context {
	return tenantctx.With(context.Background(), tenantctx.Tenant{ID: tenantID, Slug: "acme"})
}

// TestPurpose: Validates that listing without an ambient tenant yields an empty result, not an error and not a repository call.
// Scope: Unit Test
// Security: Unresolved requests must never see any tenant's data
// Expected: Empty slice, nil error; repository is never queried.
// Test Case ID: ERP-01
func TestERP_Service_List_NoAmbientTenant(t *testing.T) {
	service, suppliers, customers, orders := newTestERPService()
	ctx := context.Background()

	got, err := service.ListSuppliers(ctx, 50, 0)
	assert.NoError(t, err)
	assert.Empty(t, got)

	gotC, err := service.ListCustomers(ctx, 50, 0)
	assert.NoError(t, err)
	assert.Empty(t, gotC)

	gotO, err := service.ListOrders(ctx, 50, 0)
	assert.NoError(t, err)
	assert.Empty(t, gotO)

	suppliers.AssertNotCalled(t, "ListForTenant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	customers.AssertNotCalled(t, "ListForTenant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "ListForTenant", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestPurpose: Validates that creation server-assigns the tenant from the ambient context and fails without one.
// Scope: Unit Test
// Security: Clients must not be able to choose the tenant a record lands in
// Expected: Stored supplier carries the ambient tenant id; without scope the call fails with ErrTenantRequired.
// Test Case ID: ERP-02
func TestERP_Service_Create_TenantAssignment(t *testing.T) {
	service, suppliers, _, _ := newTestERPService()

	suppliers.On("Create", mock.Anything, mock.MatchedBy(func(s *Supplier) bool {
		return s.TenantID == "t-1" && s.Name == "Initech" && s.Active
	})).Return(nil)

	sup, err := service.CreateSupplier(scopedCtx("t-1"), SupplierInput{Code: "SUP-1", Name: " Initech "})
	assert.NoError(t, err)
	assert.Equal(t, "t-1", sup.TenantID)

	_, err = service.CreateSupplier(context.Background(), SupplierInput{Name: "Initech"})
	assert.ErrorIs(t, err, tenantctx.ErrTenantRequired)

	suppliers.AssertExpectations(t)
}

// TestPurpose: Validates that fetch-by-id stays inside the ambient tenant and that cross-tenant ids surface as not-found.
// Scope: Unit Test
// Security: Record existence must not leak across tenants
// Expected: Repository is queried with the ambient tenant id; a miss is ErrNotFound, never a permission error.
// Test Case ID: ERP-03
func TestERP_Service_Get_CrossTenantNotFound(t *testing.T) {
	service, suppliers, _, _ := newTestERPService()

	// sup-9 belongs to t-2; the t-1 scoped lookup misses.
	suppliers.On("Get", mock.Anything, "t-1", "sup-9").Return(nil, ErrNotFound)

	_, err := service.GetSupplier(scopedCtx("t-1"), "sup-9")
	assert.ErrorIs(t, err, ErrNotFound)

	// No ambient tenant at all reads the same way.
	_, err = service.GetSupplier(context.Background(), "sup-9")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestPurpose: Validates that a sales order cannot reference a customer outside the ambient tenant.
// Scope: Unit Test
// Expected: Customer lookup is tenant-scoped; a miss aborts the order with ErrNotFound before any write.
// Test Case ID: ERP-04
func TestERP_Service_CreateOrder_CustomerScope(t *testing.T) {
	service, _, customers, orders := newTestERPService()

	customers.On("Get", mock.Anything, "t-1", "cust-other").Return(nil, ErrNotFound)

	_, err := service.CreateOrder(scopedCtx("t-1"), OrderInput{
		CustomerID:  "cust-other",
		OrderNumber: "SO-1001",
		TotalCents:  129900,
	})
	assert.ErrorIs(t, err, ErrNotFound)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	customers.On("Get", mock.Anything, "t-1", "cust-1").Return(&Customer{ID: "cust-1", TenantID: "t-1"}, nil)
	orders.On("Create", mock.Anything, mock.MatchedBy(func(o *SalesOrder) bool {
		return o.TenantID == "t-1" && o.Status == OrderStatusDraft && o.Currency == "USD"
	})).Return(nil)

	o, err := service.CreateOrder(scopedCtx("t-1"), OrderInput{
		CustomerID:  "cust-1",
		OrderNumber: "SO-1002",
		TotalCents:  5000,
	})
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusDraft, o.Status)
}
