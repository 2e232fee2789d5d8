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

import "context"

// SupplierRepository is the storage contract for suppliers. Every method is
// tenant-qualified; Get returns ErrNotFound when the id exists under a
// different tenant.
type SupplierRepository interface {
	Create(ctx context.Context, s *Supplier) error
	Get(ctx context.Context, tenantID, id string) (*Supplier, error)
	ListForTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Supplier, error)
	Update(ctx context.Context, s *Supplier) error
}

// CustomerRepository is the storage contract for customers.
type CustomerRepository interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, tenantID, id string) (*Customer, error)
	ListForTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Customer, error)
	Update(ctx context.Context, c *Customer) error
}

// OrderRepository is the storage contract for sales orders.
type OrderRepository interface {
	Create(ctx context.Context, o *SalesOrder) error
	Get(ctx context.Context, tenantID, id string) (*SalesOrder, error)
	ListForTenant(ctx context.Context, tenantID string, limit, offset int) ([]*SalesOrder, error)
	Update(ctx context.Context, o *SalesOrder) error
}
