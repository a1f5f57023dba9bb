// Copyright 2026 The OpenTrusty Authors
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

package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/opentrusty/autoop/internal/observability/tracing"
)

// Config holds metrics configuration
type Config struct {
	Enabled        bool
	ServiceVersion string
	ExportInterval time.Duration // Zero uses the SDK default (OTEL_METRIC_EXPORT_INTERVAL or 60s)
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter    metric.Meter
	provider *sdkmetric.MeterProvider
}

// New creates a new meter instance.
// When enabled it installs a global provider exporting over OTLP/HTTP, configured by the
// standard OTEL_EXPORTER_OTLP_* environment variables.
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{
			meter: noop.NewMeterProvider().Meter(serviceName),
		}, nil
	}

	exporter, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := tracing.NewResource(ctx, serviceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.ExportInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.ExportInterval))
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return &Meter{
		meter:    provider.Meter(serviceName),
		provider: provider,
	}, nil
}

// Shutdown flushes pending metrics and stops the exporter
func (m *Meter) Shutdown(ctx context.Context) error {
	if m != nil && m.provider != nil {
		return m.provider.Shutdown(ctx)
	}
	return nil
}

// NewWithProvider creates a meter from an explicit provider
func NewWithProvider(provider metric.MeterProvider, serviceName string) *Meter {
	return &Meter{meter: provider.Meter(serviceName)}
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// Instruments are the bot's counters
type Instruments struct {
	commands  metric.Int64Counter
	decisions metric.Int64Counter
	mutations metric.Int64Counter
}

// NewInstruments registers the bot's counters on m
func NewInstruments(m *Meter) (*Instruments, error) {
	commands, err := m.CreateCounter("autoop.commands", "Chat commands handled, by command and outcome")
	if err != nil {
		return nil, err
	}
	decisions, err := m.CreateCounter("autoop.authz.decisions", "Authorization decisions, by reason")
	if err != nil {
		return nil, err
	}
	mutations, err := m.CreateCounter("autoop.role_mutations", "Role mutation attempts, by direction and outcome")
	if err != nil {
		return nil, err
	}
	return &Instruments{
		commands:  commands,
		decisions: decisions,
		mutations: mutations,
	}, nil
}

// Command records one finished command invocation. Safe on a nil receiver.
func (i *Instruments) Command(ctx context.Context, command, outcome string) {
	if i == nil {
		return
	}
	i.commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

// Decision records one authorization decision. Safe on a nil receiver.
func (i *Instruments) Decision(ctx context.Context, allowed bool, reason string) {
	if i == nil {
		return
	}
	i.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("allowed", allowed),
		attribute.String("reason", reason),
	))
}

// Mutation records one role mutation attempt. Safe on a nil receiver.
func (i *Instruments) Mutation(ctx context.Context, direction, outcome string) {
	if i == nil {
		return
	}
	i.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("outcome", outcome),
	))
}
