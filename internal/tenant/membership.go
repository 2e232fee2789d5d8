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

package tenant

import "time"

// Membership roles, highest privilege first. The set is fixed; this is not a
// policy language.
const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleUser     = "user"
	RoleReadonly = "readonly"
)

// roleRank orders roles by privilege. Used only as the documented tie-break
// when a user belongs to several tenants and supplies no explicit tenant.
var roleRank = map[string]int{
	RoleOwner:    5,
	RoleAdmin:    4,
	RoleManager:  3,
	RoleUser:     2,
	RoleReadonly: 1,
}

// ValidRole reports whether role is one of the fixed membership roles.
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// RoleRank returns the privilege rank of role, 0 for unknown roles.
func RoleRank(role string) int {
	return roleRank[role]
}

// CanInvite reports whether a member holding role may issue invitations.
func CanInvite(role string) bool {
	return role == RoleOwner || role == RoleAdmin
}

// Membership records that a user belongs to a tenant with a role.
// The (tenant, user) pair is unique. Memberships are deactivated rather than
// deleted to preserve audit history.
type Membership struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	GrantedAt time.Time `json:"granted_at"`
	GrantedBy string    `json:"granted_by,omitempty"`
}
