package scenario

import (
	"time"

	"github.com/kbukum/rxscenario/clock"
	"github.com/kbukum/rxscenario/config"
	"github.com/kbukum/rxscenario/logger"
	"github.com/kbukum/rxscenario/observability"
	"github.com/kbukum/rxscenario/validation"
)

// ConfigName is the base name of the config file and the env prefix (RXSCENARIO_*).
const ConfigName = "rxscenario"

// Config holds harness defaults. Values set on a Given builder override them
// for that scenario.
type Config struct {
	// AsyncTimeout bounds WaitsForEvents in real-time scenarios.
	AsyncTimeout time.Duration `mapstructure:"async_timeout" validate:"gt=0"`
	// Separator joins tokens of the rendered stream.
	Separator string `mapstructure:"separator"`
	// VirtualStart is the RFC 3339 instant virtual clocks start at.
	VirtualStart string               `mapstructure:"virtual_start" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Logging      logger.Config        `mapstructure:"logging"`
	Telemetry    observability.Config `mapstructure:"telemetry"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.AsyncTimeout == 0 {
		c.AsyncTimeout = time.Second
	}
	if c.Separator == "" {
		c.Separator = DefaultSeparator
	}
	c.Logging.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

// StartTime returns the instant virtual clocks start at.
func (c *Config) StartTime() time.Time {
	if c.VirtualStart == "" {
		return clock.Epoch
	}
	t, err := time.Parse(time.RFC3339, c.VirtualStart)
	if err != nil {
		return clock.Epoch
	}
	return t
}

// LoadConfig reads rxscenario.yml (searched from the working directory
// upwards), .env files and RXSCENARIO_* variables, then applies defaults and
// validates.
func LoadConfig(opts ...config.LoaderOption) (Config, error) {
	var cfg Config
	if err := config.Load(ConfigName, &cfg, opts...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
