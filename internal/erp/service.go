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
	"fmt"
	"strings"
	"time"

	"github.com/tradeplane/tradeplane/internal/id"
	"github.com/tradeplane/tradeplane/internal/tenantctx"
)

// Service enforces the scoping contract over the ERP repositories:
// list without an ambient tenant is empty, create requires one, and reads
// never cross the tenant boundary.
type Service struct {
	suppliers SupplierRepository
	customers CustomerRepository
	orders    OrderRepository
}

// NewService creates a new ERP service
func NewService(suppliers SupplierRepository, customers CustomerRepository, orders OrderRepository) *Service {
	return &Service{suppliers: suppliers, customers: customers, orders: orders}
}

// SupplierInput carries the client-settable supplier fields. There is no
// tenant field; the tenant always comes from the ambient context.
type SupplierInput struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	Phone        string `json:"phone"`
}

// CustomerInput carries the client-settable customer fields.
type CustomerInput struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	BillingAddr  string `json:"billing_address"`
}

// OrderInput carries the client-settable sales order fields.
type OrderInput struct {
	CustomerID  string `json:"customer_id"`
	OrderNumber string `json:"order_number"`
	TotalCents  int64  `json:"total_cents"`
	Currency    string `json:"currency"`
}

func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput) (*Supplier, error) {
	scope, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("supplier name is required")
	}

	now := time.Now()
	sup := &Supplier{
		ID:           id.NewUUIDv7(),
		TenantID:     scope.ID,
		Code:         strings.TrimSpace(in.Code),
		Name:         strings.TrimSpace(in.Name),
		ContactEmail: strings.ToLower(strings.TrimSpace(in.ContactEmail)),
		Phone:        strings.TrimSpace(in.Phone),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.suppliers.Create(ctx, sup); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return sup, nil
}

func (s *Service) GetSupplier(ctx context.Context, supplierID string) (*Supplier, error) {
	scope, err := tenantctx.Require(ctx)
	if err != nil {
		// Without a tenant scope the record is unreachable, not forbidden.
		return nil, ErrNotFound
	}
	return s.suppliers.Get(ctx, scope.ID, supplierID)
}

// ListSuppliers returns the ambient tenant's suppliers. Without an ambient
// tenant the result is empty, not an error.
func (s *Service) ListSuppliers(ctx context.Context, limit, offset int) ([]*Supplier, error) {
	t, ok := tenantctx.From(ctx)
	if !ok {
		return []*Supplier{}, nil
	}
	return s.suppliers.ListForTenant(ctx, t.ID, normalizeLimit(limit), offset)
}

func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	scope, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("customer name is required")
	}

	now := time.Now()
	c := &Customer{
		ID:           id.NewUUIDv7(),
		TenantID:     scope.ID,
		Code:         strings.TrimSpace(in.Code),
		Name:         strings.TrimSpace(in.Name),
		ContactEmail: strings.ToLower(strings.TrimSpace(in.ContactEmail)),
		BillingAddr:  in.BillingAddr,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return c, nil
}

func (s *Service) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	scope, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.customers.Get(ctx, scope.ID, customerID)
}

func (s *Service) ListCustomers(ctx context.Context, limit, offset int) ([]*Customer, error) {
	t, ok := tenantctx.From(ctx)
	if !ok {
		return []*Customer{}, nil
	}
	return s.customers.ListForTenant(ctx, t.ID, normalizeLimit(limit), offset)
}

// CreateOrder validates the customer reference inside the same tenant scope
// before persisting, so an order can never point at another tenant's
// customer.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*SalesOrder, error) {
	scope, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if in.OrderNumber == "" {
		return nil, fmt.Errorf("order number is required")
	}
	if in.TotalCents < 0 {
		return nil, fmt.Errorf("order total must not be negative")
	}

	if _, err := s.customers.Get(ctx, scope.ID, in.CustomerID); err != nil {
		return nil, fmt.Errorf("order customer: %w", err)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := time.Now()
	o := &SalesOrder{
		ID:          id.NewUUIDv7(),
		TenantID:    scope.ID,
		CustomerID:  in.CustomerID,
		OrderNumber: in.OrderNumber,
		Status:      OrderStatusDraft,
		TotalCents:  in.TotalCents,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create sales order: %w", err)
	}
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*SalesOrder, error) {
	scope, err := tenantctx.Require(ctx)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.orders.Get(ctx, scope.ID, orderID)
}

func (s *Service) ListOrders(ctx context.Context, limit, offset int) ([]*SalesOrder, error) {
	t, ok := tenantctx.From(ctx)
	if !ok {
		return []*SalesOrder{}, nil
	}
	return s.orders.ListForTenant(ctx, t.ID, normalizeLimit(limit), offset)
}

// UpdateOrderStatus applies a status transition within the ambient tenant.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID, status string) (*SalesOrder, error) {
	switch status {
	case OrderStatusDraft, OrderStatusConfirmed, OrderStatusShipped, OrderStatusCancelled:
	default:
		return nil, fmt.Errorf("invalid order status: %s", status)
	}

	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to update sales order: %w", err)
	}
	return o, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
