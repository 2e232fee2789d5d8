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

// Package tenantctx carries the tenant resolved for the current request.
//
// Absence of a tenant is a first-class state: callers must branch on the
// boolean returned by From rather than assume a value is present. The value
// is request-scoped and never stored in a global or reused across requests.
package tenantctx

import (
	"context"
	"errors"
)

// ErrTenantRequired is returned by operations that need a tenant when the
// request resolved none. It maps to a client error, never a 500.
var ErrTenantRequired = errors.New("tenant required but none resolved")

type contextKey struct{}

// Tenant is the minimal tenant identity threaded through data-access calls.
type Tenant struct {
	ID   string
	Slug string
}

// With returns a context carrying the resolved tenant.
func With(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// From returns the resolved tenant and whether one is present.
func From(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(Tenant)
	return t, ok
}

// ID returns the resolved tenant id, or "" when no tenant is resolved.
// Prefer From when the caller needs to distinguish absence explicitly.
func ID(ctx context.Context) string {
	t, _ := From(ctx)
	return t.ID
}

// Require returns the resolved tenant or ErrTenantRequired.
func Require(ctx context.Context) (Tenant, error) {
	t, ok := From(ctx)
	if !ok {
		return Tenant{}, ErrTenantRequired
	}
	return t, nil
}
