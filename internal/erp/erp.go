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

// Package erp holds the tenant-scoped business records. Every entity carries
// a mandatory tenant id that is assigned by the server from the ambient
// tenant; it never comes from a request payload.
package erp

import (
	"errors"
	"time"
)

// ErrNotFound covers both genuinely missing records and records that belong
// to another tenant. The two cases are indistinguishable on purpose.
var ErrNotFound = errors.New("record not found")

// Supplier is a vendor a tenant purchases from.
type Supplier struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"-"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Customer is a party a tenant sells to.
type Customer struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"-"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email,omitempty"`
	BillingAddr  string    `json:"billing_address,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sales order statuses.
const (
	OrderStatusDraft     = "draft"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusCancelled = "cancelled"
)

// SalesOrder is a customer order. Amounts are integer cents.
type SalesOrder struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"-"`
	CustomerID  string    `json:"customer_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	TotalCents  int64     `json:"total_cents"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
