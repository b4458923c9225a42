// Package observability wires structured logging, OpenTelemetry tracing,
// and Prometheus metrics for the reducer core, adapted from the teacher's
// pkg/observability/init.go. Trimmed to what a local CLI tool needs: no
// OTLP gRPC export (there is no collector to export to in this domain),
// a Prometheus exporter instead, exposed over HTTP only when configured.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "minimize"
	meterName  = "minimize"

	defaultShutdownTimeout = 5 * time.Second
)

// Config controls observability initialization.
type Config struct {
	ServiceName string
	LogLevel    slog.Level
	LogJSON     bool
	// MetricsAddr, when non-empty, serves /metrics on this address for the
	// lifetime of the process (spec.md's Non-goals exclude a long-running
	// server, but a reduction run is itself long-lived enough that scraping
	// it mid-run is useful; serving is entirely optional).
	MetricsAddr string
	// SampleRatio is the trace sampling ratio in [0,1]. A reduction run
	// typically wants every span, so the default is 1.0.
	SampleRatio float64
}

// Providers holds the initialized observability handles the driver needs.
type Providers struct {
	Tracer   trace.Tracer
	Meter    metric.Meter
	Logger   *slog.Logger
	Shutdown func(ctx context.Context) error
}

// Init builds tracer/meter providers, a Prometheus registry, and a
// trace-aware slog logger, optionally serving /metrics.
func Init(cfg Config) (Providers, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return Providers{}, fmt.Errorf("build otel resource: %w", err)
	}

	registry := prometheus.NewRegistry()

	promExporter, err := otelprometheus.New(otelprometheus.WithRegisterer(registry))
	if err != nil {
		return Providers{}, fmt.Errorf("build prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)

	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1.0
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	logger := buildLogger(cfg)

	var httpServer *http.Server

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		httpServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", serveErr))
			}
		}()
	}

	shutdown := func(ctx context.Context) error {
		deadlineCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
		defer cancel()

		errs := []error{tp.Shutdown(deadlineCtx), mp.Shutdown(deadlineCtx)}
		if httpServer != nil {
			errs = append(errs, httpServer.Shutdown(deadlineCtx))
		}

		return errors.Join(errs...)
	}

	return Providers{
		Tracer:   tp.Tracer(tracerName),
		Meter:    mp.Meter(meterName),
		Logger:   logger,
		Shutdown: shutdown,
	}, nil
}

func buildLogger(cfg Config) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		inner = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName))
}
