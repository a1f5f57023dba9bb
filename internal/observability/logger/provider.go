package logger

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/opentrusty/autoop/internal/observability/tracing"
)

// Provider owns the OTel log pipeline behind the otelslog bridge
type Provider struct {
	provider *sdklog.LoggerProvider
}

// NewProvider installs a global logger provider exporting over OTLP/HTTP,
// configured by the standard OTEL_EXPORTER_OTLP_* environment variables.
func NewProvider(ctx context.Context, serviceName, serviceVersion string) (*Provider, error) {
	exporter, err := otlploghttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	res, err := tracing.NewResource(ctx, serviceName, serviceVersion)
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(provider)

	return &Provider{provider: provider}, nil
}

// Shutdown flushes buffered records and stops the exporter
func (p *Provider) Shutdown(ctx context.Context) error {
	if p != nil && p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}
