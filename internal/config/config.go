package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv           string `validate:"required"`
	LogFormat        string `validate:"oneof=json console text"`
	LogLevel         string `validate:"required"`
	MetricsNamespace string `validate:"required"`
	TracingEnabled   bool
	TracingExporter  string
	TracingEndpoint  string
	TracingRatio     float64 `validate:"gte=0,lte=1"`
	ServiceName      string  `validate:"required"`

	PixDiscountPercent  decimal.Decimal
	GiftWrapFee         decimal.Decimal
	LargeOrderThreshold decimal.Decimal
	LargeOrderPercent   decimal.Decimal

	StandardShippingRate decimal.Decimal
	ExpressShippingRate  decimal.Decimal
	ExpressShippingFee   decimal.Decimal
	TeleportShippingFee  decimal.Decimal

	CreditLimit    decimal.Decimal
	ManaSettleNote string

	EventBrokers     []string
	EventTopicPrefix string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	p := &parser{k: k}
	cfg := &Config{
		AppEnv:           valueOrDefault(k.String("APP_ENV"), "development"),
		LogFormat:        strings.ToLower(valueOrDefault(k.String("OBS_LOG_FORMAT"), "json")),
		LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace: valueOrDefault(k.String("METRICS_NAMESPACE"), "checkout"),
		TracingEnabled:   parseBool(k.String("OTEL_ENABLED")),
		TracingExporter:  valueOrDefault(k.String("OTEL_EXPORTER"), "otlp"),
		TracingEndpoint:  strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TracingRatio:     p.float("OTEL_SAMPLING_RATIO", 1),
		ServiceName:      valueOrDefault(k.String("OTEL_SERVICE_NAME"), "checkout-engine"),

		PixDiscountPercent:  p.decimal("PIX_DISCOUNT_PERCENT", "5"),
		GiftWrapFee:         p.decimal("GIFT_WRAP_FEE", "5.00"),
		LargeOrderThreshold: p.decimal("LARGE_ORDER_THRESHOLD", "500.00"),
		LargeOrderPercent:   p.decimal("LARGE_ORDER_PERCENT", "10"),

		StandardShippingRate: p.decimal("SHIPPING_STANDARD_RATE", "0.05"),
		ExpressShippingRate:  p.decimal("SHIPPING_EXPRESS_RATE", "0.10"),
		ExpressShippingFee:   p.decimal("SHIPPING_EXPRESS_FEE", "15.00"),
		TeleportShippingFee:  p.decimal("SHIPPING_TELEPORT_FEE", "50.00"),

		CreditLimit:    p.decimal("CREDIT_LIMIT", "1000.00"),
		ManaSettleNote: valueOrDefault(k.String("MANA_SETTLE_NOTE"), "settles after 10 seconds"),

		EventBrokers:     splitList(k.String("EVENTS_KAFKA_BROKERS")),
		EventTopicPrefix: strings.TrimSpace(k.String("EVENTS_KAFKA_TOPIC_PREFIX")),
	}
	if len(p.errs) > 0 {
		return nil, fmt.Errorf("parse config: %s", strings.Join(p.errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints and monetary ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	hundred := decimal.NewFromInt(100)
	for name, pct := range map[string]decimal.Decimal{
		"PIX_DISCOUNT_PERCENT": c.PixDiscountPercent,
		"LARGE_ORDER_PERCENT":  c.LargeOrderPercent,
	} {
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return fmt.Errorf("invalid config: %s must be within [0, 100]", name)
		}
	}
	for name, v := range map[string]decimal.Decimal{
		"GIFT_WRAP_FEE":          c.GiftWrapFee,
		"LARGE_ORDER_THRESHOLD":  c.LargeOrderThreshold,
		"SHIPPING_STANDARD_RATE": c.StandardShippingRate,
		"SHIPPING_EXPRESS_RATE":  c.ExpressShippingRate,
		"SHIPPING_EXPRESS_FEE":   c.ExpressShippingFee,
		"SHIPPING_TELEPORT_FEE":  c.TeleportShippingFee,
	} {
		if v.IsNegative() {
			return fmt.Errorf("invalid config: %s must not be negative", name)
		}
	}
	if !c.CreditLimit.IsPositive() {
		return fmt.Errorf("invalid config: CREDIT_LIMIT must be positive")
	}
	return nil
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

type parser struct {
	k    *koanf.Koanf
	errs []string
}

func (p *parser) decimal(key, fallback string) decimal.Decimal {
	raw := strings.TrimSpace(p.k.String(key))
	if raw == "" {
		raw = fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", key, err))
		return decimal.RequireFromString(fallback)
	}
	return d
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := strings.TrimSpace(p.k.String(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return v
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
