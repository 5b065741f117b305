package observability

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

// InitTracing installs the global tracer provider. With TRACING=off it
// installs nothing and returns a no-op shutdown.
func InitTracing(log *logger.Logger) (func(context.Context) error, error) {
	mode := strings.TrimSpace(strings.ToLower(os.Getenv("TRACING")))
	if mode == "off" || mode == "false" || mode == "0" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("init trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	log.Info("Tracing initialized", "exporter", "stdout")
	return tp.Shutdown, nil
}

func Tracer() trace.Tracer {
	return otel.Tracer("proofcast-backend")
}
