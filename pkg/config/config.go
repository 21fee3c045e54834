package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sipeed/picoclaw-files/pkg/logger"
	"github.com/sipeed/picoclaw-files/pkg/metrics"
	"github.com/sipeed/picoclaw-files/pkg/source"
	"github.com/sipeed/picoclaw-files/pkg/upload"
)

// EnvPrefix prefixes every variable read by Load.
const EnvPrefix = "PICOCLAW_FILES_"

// Key strategies accepted by KEY_STRATEGY.
const (
	KeysCounter = "counter"
	KeysRandom  = "random"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	KeyStrategy        string `env:"KEY_STRATEGY" envDefault:"counter"`
	ResolveConcurrency int    `env:"RESOLVE_CONCURRENCY" envDefault:"0"`

	FetchTimeout     time.Duration     `env:"FETCH_TIMEOUT" envDefault:"30s"`
	MaxDownloadBytes int64             `env:"MAX_DOWNLOAD_BYTES" envDefault:"52428800"`
	UserAgent        string            `env:"USER_AGENT" envDefault:"picoclaw-files/1.0"`
	FetchHeaders     map[string]string `env:"FETCH_HEADERS"`

	// MetricsDir enables the JSONL extraction log when set.
	MetricsDir string `env:"METRICS_DIR"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom reads the configuration from environ instead of the process
// environment. A nil map means the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that the environment parser cannot.
func (c *Config) Validate() error {
	c.KeyStrategy = strings.ToLower(strings.TrimSpace(c.KeyStrategy))
	switch c.KeyStrategy {
	case KeysCounter, KeysRandom:
	default:
		return fmt.Errorf("invalid %sKEY_STRATEGY %q: want %s or %s", EnvPrefix, c.KeyStrategy, KeysCounter, KeysRandom)
	}
	if c.ResolveConcurrency < 0 {
		return fmt.Errorf("invalid %sRESOLVE_CONCURRENCY %d: must not be negative", EnvPrefix, c.ResolveConcurrency)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("invalid %sFETCH_TIMEOUT %s: must be positive", EnvPrefix, c.FetchTimeout)
	}
	if c.MaxDownloadBytes <= 0 {
		return fmt.Errorf("invalid %sMAX_DOWNLOAD_BYTES %d: must be positive", EnvPrefix, c.MaxDownloadBytes)
	}
	return nil
}

// LoggerOptions returns the logger settings described by c.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level: logger.ParseLevel(c.LogLevel),
		JSON:  c.LogJSON,
	}
}

// ApplyLogging reconfigures the process-wide logger.
func (c *Config) ApplyLogging() {
	logger.Configure(c.LoggerOptions())
}

// KeySource returns the key generator selected by KEY_STRATEGY.
func (c *Config) KeySource() upload.KeySource {
	if c.KeyStrategy == KeysRandom {
		return upload.RandomKeys{}
	}
	return upload.CounterKeys{}
}

// EngineOptions returns the upload engine options described by c.
func (c *Config) EngineOptions() []upload.Option {
	opts := []upload.Option{
		upload.WithKeySource(c.KeySource()),
		upload.WithConcurrency(c.ResolveConcurrency),
	}
	if c.MetricsDir != "" {
		opts = append(opts, upload.WithRecorder(metrics.NewTracker(c.MetricsDir)))
	}
	return opts
}

// NewEngine builds an upload engine from c. Extra options are applied last.
func NewEngine(c *Config, extra ...upload.Option) *upload.Engine {
	opts := c.EngineOptions()
	opts = append(opts, extra...)
	engine := upload.NewEngine(opts...)

	logger.InfoCF("config", "Upload engine ready", map[string]interface{}{
		"keys":        c.KeyStrategy,
		"concurrency": c.ResolveConcurrency,
		"metrics":     c.MetricsDir != "",
	})
	return engine
}

// FetcherOptions returns the download settings described by c.
func (c *Config) FetcherOptions() source.FetcherOptions {
	return source.FetcherOptions{
		Timeout:   c.FetchTimeout,
		MaxBytes:  c.MaxDownloadBytes,
		UserAgent: c.UserAgent,
		Headers:   c.FetchHeaders,
	}
}

// NewFetcher builds a downloader from c.
func NewFetcher(c *Config) *source.Fetcher {
	return source.NewFetcher(c.FetcherOptions())
}
