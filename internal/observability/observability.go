// Package observability wires the process-wide slog default used by the
// CLI. The SDK itself only logs through injected loggers; this package
// decides where those logs go.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "scorewire-cli"

// Instrument installs the default slog logger for the given level and
// format. Supported formats: "text", "json", and "otel", which bridges
// slog records into an OpenTelemetry log pipeline. The otel exporter is
// selected by SCOREWIRE_OTEL_EXPORTER (stdout, otlp-http, otlp-grpc;
// defaults to stdout), with endpoint configuration taken from the standard
// OTEL_EXPORTER_OTLP_* environment variables.
func Instrument(level slog.Level, format string) error {
	switch format {
	case "text":
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	case "otel":
		logger, err := otelLogger(level)
		if err != nil {
			return fmt.Errorf("setting up otel log pipeline: %w", err)
		}
		slog.SetDefault(logger)
	default:
		return fmt.Errorf("unsupported log format: %s", format)
	}

	return nil
}

func otelLogger(level slog.Level) (*slog.Logger, error) {
	exporter, err := newExporter(context.Background())
	if err != nil {
		return nil, err
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

	return otelslog.NewLogger(instrumentationName, otelslog.WithLoggerProvider(provider)), nil
}

func newExporter(ctx context.Context) (sdklog.Exporter, error) {
	switch os.Getenv("SCOREWIRE_OTEL_EXPORTER") {
	case "otlp-http":
		return otlploghttp.New(ctx)
	case "otlp-grpc":
		return otlploggrpc.New(ctx)
	case "", "stdout":
		return stdoutlog.New()
	default:
		return nil, fmt.Errorf("unsupported otel exporter: %s", os.Getenv("SCOREWIRE_OTEL_EXPORTER"))
	}
}

func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
