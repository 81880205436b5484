package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/fr4nk3nst1ner/salaryspread/internal/report"
	"github.com/fr4nk3nst1ner/salaryspread/internal/stats"
)

// FileName is the config file looked up when no path is given.
const FileName = "salaryspread.yaml"

// Environment variables that override file values.
const (
	EnvDatabase    = "SALARYSPREAD_DB"
	EnvProxy       = "SALARYSPREAD_PROXY"
	EnvMetricsFile = "SALARYSPREAD_METRICS_FILE"
	EnvLogLevel    = "SALARYSPREAD_LOG_LEVEL"
)

var validate = validator.New()

// Config represents the application configuration
type Config struct {
	Database            string  `yaml:"database" validate:"required"`
	OverviewBucketWidth int64   `yaml:"overview_bucket_width" validate:"gt=0"`
	DetailBucketWidth   int64   `yaml:"detail_bucket_width" validate:"gt=0"`
	LivingWage          float64 `yaml:"living_wage" validate:"gte=0"`
	MaxConcurrency      int     `yaml:"max_concurrency" validate:"gte=1,lte=256"`
	LogLevel            string  `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	CurrencySymbol      string  `yaml:"currency_symbol"`
	MetricsFile         string  `yaml:"metrics_file"`
	Proxy               string  `yaml:"proxy" validate:"omitempty,url"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Database:            "query-offer.db",
		OverviewBucketWidth: stats.DefaultOverviewBucketWidth,
		DetailBucketWidth:   stats.DefaultDetailBucketWidth,
		LivingWage:          report.DefaultLivingWage,
		MaxConcurrency:      report.DefaultMaxConcurrency,
		LogLevel:            "info",
		CurrencySymbol:      "£",
	}
}

// Load reads the configuration at path, or the first salaryspread.yaml found
// in the usual locations when path is empty. Missing files yield the
// defaults; fields absent from the file keep their default values. SALARYSPREAD_*
// environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = findConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	for env, field := range map[string]*string{
		EnvDatabase:    &c.Database,
		EnvProxy:       &c.Proxy,
		EnvMetricsFile: &c.MetricsFile,
		EnvLogLevel:    &c.LogLevel,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*field = v
		}
	}
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// RunnerOptions maps the configuration onto report.Options.
func (c *Config) RunnerOptions() report.Options {
	return report.Options{
		OverviewBucketWidth: c.OverviewBucketWidth,
		DetailBucketWidth:   c.DetailBucketWidth,
		MaxConcurrency:      c.MaxConcurrency,
		LivingWage:          c.LivingWage,
	}
}

// Logger builds the pterm logger for the configured level.
func (c *Config) Logger() *pterm.Logger {
	levels := map[string]pterm.LogLevel{
		"trace": pterm.LogLevelTrace,
		"debug": pterm.LogLevelDebug,
		"info":  pterm.LogLevelInfo,
		"warn":  pterm.LogLevelWarn,
		"error": pterm.LogLevelError,
	}
	level, ok := levels[c.LogLevel]
	if !ok {
		level = pterm.LogLevelInfo
	}
	return pterm.DefaultLogger.WithLevel(level)
}

func findConfigPath() string {
	paths := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "salaryspread", FileName))
	}
	paths = append(paths, filepath.Join("/etc/salaryspread", FileName))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return FileName
}
