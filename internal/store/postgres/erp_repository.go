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
	"github.com/tradeplane/tradeplane/internal/erp"
)

// Every query in this file carries a tenant_id predicate. A lookup with the
// wrong tenant is indistinguishable from a missing row.

// SupplierRepository implements erp.SupplierRepository
type SupplierRepository struct {
	db *DB
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Create(ctx context.Context, s *erp.Supplier) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO suppliers (id, tenant_id, code, name, contact_email, phone, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.ID, s.TenantID, s.Code, s.Name, s.ContactEmail, s.Phone, s.Active, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert supplier: %w", err)
	}
	return nil
}

func (r *SupplierRepository) Get(ctx context.Context, tenantID, id string) (*erp.Supplier, error) {
	var s erp.Supplier
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, code, name, contact_email, phone, active, created_at, updated_at
		FROM suppliers WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(&s.ID, &s.TenantID, &s.Code, &s.Name, &s.ContactEmail, &s.Phone, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, erp.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return &s, nil
}

func (r *SupplierRepository) ListForTenant(ctx context.Context, tenantID string, limit, offset int) ([]*erp.Supplier, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, code, name, contact_email, phone, active, created_at, updated_at
		FROM suppliers WHERE tenant_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := []*erp.Supplier{}
	for rows.Next() {
		var s erp.Supplier
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Code, &s.Name, &s.ContactEmail, &s.Phone, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, &s)
	}
	return suppliers, rows.Err()
}

func (r *SupplierRepository) Update(ctx context.Context, s *erp.Supplier) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE suppliers SET code = $3, name = $4, contact_email = $5, phone = $6, active = $7, updated_at = $8
		WHERE tenant_id = $1 AND id = $2
	`, s.TenantID, s.ID, s.Code, s.Name, s.ContactEmail, s.Phone, s.Active, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return erp.ErrNotFound
	}
	return nil
}

// CustomerRepository implements erp.CustomerRepository
type CustomerRepository struct {
	db *DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *erp.Customer) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO customers (id, tenant_id, code, name, contact_email, billing_address, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.TenantID, c.Code, c.Name, c.ContactEmail, c.BillingAddr, c.Active, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) Get(ctx context.Context, tenantID, id string) (*erp.Customer, error) {
	var c erp.Customer
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, code, name, contact_email, billing_address, active, created_at, updated_at
		FROM customers WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(&c.ID, &c.TenantID, &c.Code, &c.Name, &c.ContactEmail, &c.BillingAddr, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, erp.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

func (r *CustomerRepository) ListForTenant(ctx context.Context, tenantID string, limit, offset int) ([]*erp.Customer, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, code, name, contact_email, billing_address, active, created_at, updated_at
		FROM customers WHERE tenant_id = $1 ORDER BY created_at LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []*erp.Customer{}
	for rows.Next() {
		var c erp.Customer
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Code, &c.Name, &c.ContactEmail, &c.BillingAddr, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, &c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, c *erp.Customer) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE customers SET code = $3, name = $4, contact_email = $5, billing_address = $6, active = $7, updated_at = $8
		WHERE tenant_id = $1 AND id = $2
	`, c.TenantID, c.ID, c.Code, c.Name, c.ContactEmail, c.BillingAddr, c.Active, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return erp.ErrNotFound
	}
	return nil
}

// OrderRepository implements erp.OrderRepository
type OrderRepository struct {
	db *DB
}

// NewOrderRepository creates a new sales order repository
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *erp.SalesOrder) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO sales_orders (id, tenant_id, customer_id, order_number, status, total_cents, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, o.ID, o.TenantID, o.CustomerID, o.OrderNumber, o.Status, o.TotalCents, o.Currency, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sales order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, tenantID, id string) (*erp.SalesOrder, error) {
	var o erp.SalesOrder
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, customer_id, order_number, status, total_cents, currency, created_at, updated_at
		FROM sales_orders WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(&o.ID, &o.TenantID, &o.CustomerID, &o.OrderNumber, &o.Status, &o.TotalCents, &o.Currency, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, erp.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sales order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) ListForTenant(ctx context.Context, tenantID string, limit, offset int) ([]*erp.SalesOrder, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, customer_id, order_number, status, total_cents, currency, created_at, updated_at
		FROM sales_orders WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales orders: %w", err)
	}
	defer rows.Close()

	orders := []*erp.SalesOrder{}
	for rows.Next() {
		var o erp.SalesOrder
		if err := rows.Scan(&o.ID, &o.TenantID, &o.CustomerID, &o.OrderNumber, &o.Status, &o.TotalCents, &o.Currency, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sales order: %w", err)
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) Update(ctx context.Context, o *erp.SalesOrder) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE sales_orders SET status = $3, total_cents = $4, currency = $5, updated_at = $6
		WHERE tenant_id = $1 AND id = $2
	`, o.TenantID, o.ID, o.Status, o.TotalCents, o.Currency, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update sales order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return erp.ErrNotFound
	}
	return nil
}
