package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"lobevents/feed"
	"lobevents/sink"
)

const (
	defaultMaxDepth      = 50
	defaultOnMalformed   = "fail"
	defaultPriceDecimals = -1
	defaultLogLevel      = "info"
	defaultLogFormat     = "json"

	envPrefix = "LOB"
)

// Config keeps the runtime configuration of the extractor.
type Config struct {
	MaxDepth      int    `mapstructure:"max_depth"`
	IndexOrigin   int    `mapstructure:"index_origin"`
	OnMalformed   string `mapstructure:"on_malformed"`
	PriceDecimals int    `mapstructure:"price_decimals"`
	MaxLineBytes  int    `mapstructure:"max_line_bytes"`
	Output        string `mapstructure:"output"`
	Format        string `mapstructure:"format"`
	MetricsAddr   string `mapstructure:"metrics_addr"`
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
}

// New returns a viper instance with defaults set and LOB_* environment
// variables bound.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("max_depth", defaultMaxDepth)
	v.SetDefault("index_origin", 0)
	v.SetDefault("on_malformed", defaultOnMalformed)
	v.SetDefault("price_decimals", defaultPriceDecimals)
	v.SetDefault("max_line_bytes", feed.DefaultMaxLineBytes)
	v.SetDefault("output", "")
	v.SetDefault("format", string(sink.Events))
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("log_format", defaultLogFormat)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional YAML file and decodes v into a validated Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth))
	}
	if c.MaxLineBytes < 0 {
		errs = append(errs, fmt.Errorf("max_line_bytes must not be negative, got %d", c.MaxLineBytes))
	}
	if c.PriceDecimals < -1 || c.PriceDecimals > 16 {
		errs = append(errs, fmt.Errorf("price_decimals must be in [-1, 16], got %d", c.PriceDecimals))
	}
	if _, err := feed.ParsePolicy(c.OnMalformed); err != nil {
		errs = append(errs, err)
	}
	if _, err := sink.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Policy returns the malformed-line policy. Validate has already checked it.
func (c *Config) Policy() feed.Policy {
	p, _ := feed.ParsePolicy(c.OnMalformed)
	return p
}

// QuantizePrices reports whether price keys are rounded to PriceDecimals places.
func (c *Config) QuantizePrices() bool {
	return c.PriceDecimals >= 0
}
