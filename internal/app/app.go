// Package app assembles the checkout engine from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/noah-isme/checkout-engine/internal/checkout"
	"github.com/noah-isme/checkout-engine/internal/config"
	"github.com/noah-isme/checkout-engine/internal/events"
	"github.com/noah-isme/checkout-engine/internal/inventory"
	"github.com/noah-isme/checkout-engine/internal/invoicing"
	"github.com/noah-isme/checkout-engine/internal/narration"
	"github.com/noah-isme/checkout-engine/internal/obs"
	"github.com/noah-isme/checkout-engine/internal/pricing"
	"github.com/noah-isme/checkout-engine/internal/registry"
)

// Option customises New.
type Option func(*options)

type options struct {
	logOutput io.Writer
	stock     map[string]int
	narrators []narration.Sink
	registry  *prometheus.Registry
}

// WithLogOutput sends logs to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithStock seeds the in-memory inventory.
func WithStock(stock map[string]int) Option {
	return func(o *options) { o.stock = stock }
}

// WithNarrator adds a narration sink next to the log sink.
func WithNarrator(sink narration.Sink) Option {
	return func(o *options) { o.narrators = append(o.narrators, sink) }
}

// WithMetricsRegistry registers checkout metrics on reg.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// App holds the wired checkout engine.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Metrics   *prometheus.Registry
	Events    *events.MemoryStore
	Registry  *registry.Registry
	Inventory *inventory.Memory
	Ledger    *invoicing.Ledger
	Service   *checkout.Service

	shutdown []func(context.Context) error
}

// New wires logging, metrics, optional tracing, the event bus (with Kafka
// publishing when brokers are configured), the option registry, the
// in-memory collaborators and the checkout service.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	o := options{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	logger := obs.NewLoggerTo(o.logOutput, cfg.LogFormat, cfg.LogLevel).With().
		Str("service", cfg.ServiceName).
		Str("env", cfg.AppEnv).
		Logger()

	a := &App{Config: cfg, Logger: logger}

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   cfg.ServiceName,
			Endpoint:      cfg.TracingEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			return nil, fmt.Errorf("app: init tracer: %w", err)
		}
		a.shutdown = append(a.shutdown, shutdown)
		logger.Info().Str("exporter", cfg.TracingExporter).Msg("tracing enabled")
	}

	a.Metrics = o.registry
	if a.Metrics == nil {
		a.Metrics = prometheus.NewRegistry()
	}
	metrics := obs.MustRegisterCheckoutMetrics(cfg.MetricsNamespace, a.Metrics)

	a.Events = &events.MemoryStore{}
	bus := &events.Bus{
		Store:     a.Events,
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger.With().Str("component", "events").Logger()}},
	}
	if len(cfg.EventBrokers) > 0 {
		kafkaNotifier := events.NewKafkaNotifier(cfg.EventBrokers, cfg.EventTopicPrefix)
		bus.Notifiers = append(bus.Notifiers, kafkaNotifier)
		a.shutdown = append(a.shutdown, func(context.Context) error { return kafkaNotifier.Close() })
		topics := events.DefaultTopics()
		for i, topic := range topics {
			topics[i] = cfg.EventTopicPrefix + topic
		}
		logger.Info().Strs("brokers", cfg.EventBrokers).Strs("topics", topics).Msg("kafka event publishing enabled")
	}

	a.Registry = registry.FromConfig(cfg)
	a.Inventory = inventory.NewMemory(nil)
	for name, qty := range o.stock {
		a.Inventory.Restock(name, qty)
	}
	a.Ledger = &invoicing.Ledger{}

	sinks := append([]narration.Sink{narration.LogSink{Logger: logger.With().Str("component", "narration").Logger()}}, o.narrators...)
	serviceLogger := logger.With().Str("component", "checkout").Logger()
	a.Service = &checkout.Service{
		Inventory: a.Inventory,
		Invoicing: a.Ledger,
		Narrator:  narration.Multi(sinks...),
		Events:    bus,
		Metrics:   metrics,
		Logger:    &serviceLogger,
		Tracer:    otel.Tracer("checkout-engine"),
	}
	return a, nil
}

// Checkout builds an order from named options and runs it.
func (a *App) Checkout(ctx context.Context, items []pricing.LineItem, sel registry.Selection) (checkout.Result, error) {
	o, err := a.Registry.NewOrder(items, sel)
	if err != nil {
		return checkout.Result{}, err
	}
	return a.Service.Checkout(ctx, o)
}

// Shutdown closes the Kafka writer and flushes the tracer provider, when started.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.shutdown = nil
	return errors.Join(errs...)
}
