package observability

import (
	"time"

	"github.com/kbukum/rxscenario/validation"
	"github.com/kbukum/rxscenario/version"
)

// Config configures trace and metric export. Export is off unless Enabled.
// Endpoint is the OTLP HTTP host:port; SampleRate is a fraction in [0, 1].
type Config struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name" validate:"required"`
	ServiceVersion string        `mapstructure:"service_version"`
	Environment    string        `mapstructure:"environment"`
	Endpoint       string        `mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure       bool          `mapstructure:"insecure"`
	SampleRate     *float64      `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1"`
	MetricInterval time.Duration `mapstructure:"metric_interval" validate:"gte=0"`
}

// DefaultConfig returns a disabled configuration with development defaults.
func DefaultConfig(serviceName string) Config {
	cfg := Config{ServiceName: serviceName}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "rxscenario"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = version.Get().String()
	}
	if c.Environment == "" {
		c.Environment = "test"
	}
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
		c.Insecure = true
	}
	if c.SampleRate == nil {
		rate := 1.0
		c.SampleRate = &rate
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Rate returns the trace sample rate. Unset means every trace is sampled;
// an explicit 0 samples none.
func (c *Config) Rate() float64 {
	if c.SampleRate == nil {
		return 1.0
	}
	return *c.SampleRate
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	return validation.New().
		Required("service_name", c.ServiceName).
		NonNegative("metric_interval", c.MetricInterval).
		Check(!c.Enabled || c.Endpoint != "", "endpoint", "is required when enabled").
		Validate()
}
