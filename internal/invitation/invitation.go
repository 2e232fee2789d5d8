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

// Package invitation implements the invitation-based onboarding flow, the
// only path that associates a user with a tenant.
package invitation

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// Invitation statuses. pending is the only non-terminal state:
// pending -> accepted | revoked | expired.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRevoked  = "revoked"
	StatusExpired  = "expired"
)

// Invitation is an offer to join a tenant with a given role, identified by
// an opaque unguessable token. An invitation without an e-mail address is a
// reusable link ("golden ticket") redeemable up to MaxUses times.
type Invitation struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	Email      *string    `json:"email,omitempty"` // nil => reusable link
	Role       string     `json:"role"`
	InviterID  string     `json:"inviter_id"`
	Token      string     `json:"-"` // never serialized in API responses
	Status     string     `json:"status"`
	Message    string     `json:"message,omitempty"`
	UseCount   int        `json:"use_count"`
	MaxUses    int        `json:"max_uses"` // 0 => unlimited, reusable only
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	AcceptedBy *string    `json:"accepted_by,omitempty"`
}

// Reusable reports whether the invitation is a multi-use link.
func (i *Invitation) Reusable() bool {
	return i.Email == nil
}

// IsExpired is derived from the clock, never from the stored status. The
// status column is reconciled lazily when expiry is observed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsValid reports whether the invitation can be redeemed right now.
func (i *Invitation) IsValid(now time.Time) bool {
	if i.Status != StatusPending {
		return false
	}
	if i.IsExpired(now) {
		return false
	}
	if i.Reusable() && i.MaxUses > 0 && i.UseCount >= i.MaxUses {
		return false
	}
	return true
}

// recordAcceptance applies the accept transition in memory. For a single-use
// invitation the status becomes accepted; a reusable one stays pending until
// its use budget is exhausted. The repository recomputes the counter and the
// transition against the stored row at redemption time; this keeps the
// caller's copy coherent until then.
func (i *Invitation) recordAcceptance(userID string, now time.Time) {
	if i.Reusable() {
		i.UseCount++
		if i.MaxUses > 0 && i.UseCount >= i.MaxUses {
			i.Status = StatusAccepted
		}
		return
	}
	i.Status = StatusAccepted
	i.AcceptedAt = &now
	i.AcceptedBy = &userID
}

// NewToken returns a 256-bit random invitation token.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
