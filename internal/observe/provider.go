package observe

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Provider bridges OTel metrics into a private Prometheus registry so a
// one-shot CLI run can write them out as a node_exporter textfile.
type Provider struct {
	registry *prometheus.Registry
	mp       *sdkmetric.MeterProvider
}

// NewProvider creates a meter provider backed by a fresh registry.
func NewProvider() (*Provider, error) {
	reg := prometheus.NewRegistry()
	exp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	return &Provider{
		registry: reg,
		mp:       sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)),
	}, nil
}

// MeterProvider returns the provider to create instruments on.
func (p *Provider) MeterProvider() *sdkmetric.MeterProvider { return p.mp }

// Registry returns the Prometheus registry the metrics are exported to.
func (p *Provider) Registry() *prometheus.Registry { return p.registry }

// WriteTextfile gathers the registry into path in the Prometheus text
// format. The file is written atomically.
func (p *Provider) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.mp.Shutdown(ctx)
}
