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
	"log/slog"
	"time"

	"github.com/tradeplane/tradeplane/internal/audit"
	"github.com/tradeplane/tradeplane/internal/observability/logger"
)

// AuditRepository implements audit.Logger with an append-only database
// trail. Persisting an audit event must never fail the business operation
// that produced it, so write errors are logged and swallowed.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit trail repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Log appends an event to the audit trail
func (r *AuditRepository) Log(ctx context.Context, event audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO audit_events (event_type, tenant_id, actor_id, resource, metadata, ip_address, user_agent, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8)
	`,
		event.Type, event.TenantID, event.ActorID, event.Resource,
		audit.Sanitize(event.Metadata), event.IPAddress, event.UserAgent, event.Timestamp,
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist audit event",
			slog.String("audit_type", event.Type),
			logger.Error(err),
		)
	}
}
