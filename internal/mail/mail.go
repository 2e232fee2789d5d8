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

// Package mail is the outbound e-mail collaborator. Senders are fire-and-
// forget from the caller's perspective: delivery failure is logged by the
// caller and never rolls back domain state.
package mail

import (
	"context"
	"log/slog"

	"github.com/tradeplane/tradeplane/internal/observability/logger"
)

// Message is a rendered e-mail ready for delivery.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string // optional
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs messages instead of delivering them. Used in development
// and whenever no SMTP host is configured.
type LogSender struct{}

// NewLogSender creates a sender that only logs.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the message headers at INFO. Bodies are not logged.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "mail_not_sent_logging_only",
		logger.Component("mail"),
		slog.String("from", msg.From),
		slog.Any("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}
