// Package config layers the notifier's runtime configuration from
// defaults, an optional YAML file, a .env file and the environment.
// Command-line flags sit on top of the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	// Token is the Mailjet bearer token. Never read from the YAML file.
	Token string

	Sender         string
	InputFile      string
	OutputFile     string
	DefaultRegion  string
	Workers        int
	RequestTimeout time.Duration
	RateLimitRPS   float64
	BaseURL        string
}

func Default() Config {
	return Config{
		DefaultRegion:  "AU",
		Workers:        100,
		RequestTimeout: 5 * time.Second,
	}
}

// fileConfig is the YAML file shape. Durations are strings so operators can
// write "5s" rather than nanosecond counts.
type fileConfig struct {
	Sender         string   `yaml:"sender"`
	InputFile      string   `yaml:"input_file"`
	OutputFile     string   `yaml:"output_file"`
	DefaultRegion  string   `yaml:"default_region"`
	Workers        *int     `yaml:"workers"`
	RequestTimeout string   `yaml:"request_timeout"`
	RateLimitRPS   *float64 `yaml:"rate_limit_rps"`
	BaseURL        string   `yaml:"api_base_url"`
}

// Load resolves configuration in precedence order: defaults, then the YAML
// file at configPath (if non-empty), then a .env file in the working
// directory (if present), then the environment.
func Load(configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := applyFile(&cfg, configPath); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Token) == "":
		return fmt.Errorf("MAILJET_TOKEN is required")
	case strings.TrimSpace(c.Sender) == "":
		return fmt.Errorf("sender is required (SENDER_NAME)")
	case strings.TrimSpace(c.InputFile) == "":
		return fmt.Errorf("input file is required (INPUT_FILE)")
	case strings.TrimSpace(c.OutputFile) == "":
		return fmt.Errorf("output file is required (OUTPUT_FILE)")
	case c.Workers <= 0:
		return fmt.Errorf("workers must be > 0")
	case c.RequestTimeout <= 0:
		return fmt.Errorf("request timeout must be > 0")
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.Sender, fc.Sender)
	setString(&cfg.InputFile, fc.InputFile)
	setString(&cfg.OutputFile, fc.OutputFile)
	setString(&cfg.DefaultRegion, fc.DefaultRegion)
	setString(&cfg.BaseURL, fc.BaseURL)
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.RateLimitRPS != nil {
		cfg.RateLimitRPS = *fc.RateLimitRPS
	}
	if strings.TrimSpace(fc.RequestTimeout) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(fc.RequestTimeout))
		if err != nil {
			return fmt.Errorf("config file %s: invalid request_timeout %q: %w", path, fc.RequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Token, os.Getenv("MAILJET_TOKEN"))
	setString(&cfg.Sender, os.Getenv("SENDER_NAME"))
	setString(&cfg.InputFile, os.Getenv("INPUT_FILE"))
	setString(&cfg.OutputFile, os.Getenv("OUTPUT_FILE"))
	setString(&cfg.DefaultRegion, os.Getenv("DEFAULT_REGION"))
	setString(&cfg.BaseURL, os.Getenv("MAILJET_BASE_URL"))

	var err error
	if cfg.Workers, err = envInt("WORKERS", cfg.Workers); err != nil {
		return err
	}
	if cfg.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return err
	}
	if cfg.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
