package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{
			meter: otel.Meter("noop"),
		}, nil
	}

	// Meter provider configuration (exporters) is environment-driven;
	// the global provider is a no-op until one is installed.
	return &Meter{
		meter: otel.Meter(serviceName),
	}, nil
}

// Counters are the domain counters recorded by the tenant core.
type Counters struct {
	TenantResolutions   metric.Int64Counter
	InvitationsCreated  metric.Int64Counter
	InvitationsAccepted metric.Int64Counter
	InvitationsRevoked  metric.Int64Counter
}

// NewCounters registers the domain counters on the meter.
func NewCounters(m *Meter) (*Counters, error) {
	resolutions, err := m.counter("tenant_resolutions_total", "Tenant resolutions by outcome")
	if err != nil {
		return nil, err
	}
	created, err := m.counter("invitations_created_total", "Invitations created")
	if err != nil {
		return nil, err
	}
	accepted, err := m.counter("invitations_accepted_total", "Invitations accepted")
	if err != nil {
		return nil, err
	}
	revoked, err := m.counter("invitations_revoked_total", "Invitations revoked")
	if err != nil {
		return nil, err
	}

	return &Counters{
		TenantResolutions:   resolutions,
		InvitationsCreated:  created,
		InvitationsAccepted: accepted,
		InvitationsRevoked:  revoked,
	}, nil
}

func (m *Meter) counter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}
