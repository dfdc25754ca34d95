// Package telemetry sets up OpenTelemetry for the perms binary.
//
// Exporters and samplers are configured with the standard OTEL_*
// environment variables, e.g. OTEL_EXPORTER_OTLP_ENDPOINT.
package telemetry

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/honeycombio/otel-config-go/otelconfig"

	"go.minekube.com/perms/pkg/perms/config"
	"go.minekube.com/perms/pkg/version"
)

// Init initializes the global OpenTelemetry providers if enabled.
// The returned func flushes and shuts them down.
func Init(cfg config.Telemetry, log logr.Logger) (shutdown func(), err error) {
	if !cfg.Enabled {
		return func() {}, nil
	}
	shutdown, err = otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(cfg.ServiceName),
		otelconfig.WithServiceVersion(version.String()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	log.Info("telemetry enabled", "service", cfg.ServiceName)
	return shutdown, nil
}
