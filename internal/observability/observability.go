// Package observability installs the process-wide logger. Plain text or
// JSON handlers write to stderr; the otlp formats bridge slog into an
// OpenTelemetry log pipeline for deployments that ship logs to a
// collector.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "github.com/nightjar-app/nightjar-go"

// Instrument configures the default slog logger with the given minimum
// level and output format (text, json, otlp, otlp-stdout).
func Instrument(level slog.Level, format string) error {
	switch format {
	case "text":
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	case "otlp", "otlp-stdout":
		provider, err := newLoggerProvider(format, level)
		if err != nil {
			return err
		}
		slog.SetDefault(otelslog.NewLogger(instrumentationName, otelslog.WithLoggerProvider(provider)))
	default:
		return fmt.Errorf("unsupported log format: %s", format)
	}
	return nil
}

// newLoggerProvider builds an OTel log pipeline with severity filtering
// applied before export.
func newLoggerProvider(format string, level slog.Level) (*sdklog.LoggerProvider, error) {
	var (
		processor sdklog.Processor
		err       error
	)

	switch format {
	case "otlp":
		// Endpoint and headers come from the standard OTEL_* environment
		// variables.
		var exporter *otlploghttp.Exporter
		exporter, err = otlploghttp.New(context.Background())
		if err != nil {
			return nil, fmt.Errorf("creating OTLP log exporter: %w", err)
		}
		processor = sdklog.NewBatchProcessor(exporter)
	case "otlp-stdout":
		var exporter *stdoutlog.Exporter
		exporter, err = stdoutlog.New()
		if err != nil {
			return nil, fmt.Errorf("creating stdout log exporter: %w", err)
		}
		processor = sdklog.NewSimpleProcessor(exporter)
	}

	filtered := minsev.NewLogProcessor(processor, severityFor(level))

	return sdklog.NewLoggerProvider(sdklog.WithProcessor(filtered)), nil
}

// severityFor maps a slog level to the minimum OTel severity.
func severityFor(level slog.Level) minsev.Severity {
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
