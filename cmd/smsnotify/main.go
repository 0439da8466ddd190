package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/shpitdev/smsnotify/internal/app"
	"github.com/shpitdev/smsnotify/internal/config"
	"github.com/shpitdev/smsnotify/pkg/pipeline/redact"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("smsnotify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { usage(os.Stderr, fs) }

	configPath := fs.String("config", "", "Optional YAML config file")
	input := fs.String("input", "", "Input CSV file path, must include 'number' and 'text' columns (env: INPUT_FILE)")
	output := fs.String("output", "", "Output CSV file path for failed sends (env: OUTPUT_FILE)")
	sender := fs.String("sender", "", "Sender identifier for outbound messages (env: SENDER_NAME)")
	region := fs.String("region", "", "Default region for phone number parsing, e.g. AU (env: DEFAULT_REGION)")
	workers := fs.Int("workers", 0, "Max simultaneous in-flight sends (env: WORKERS)")
	requestTimeout := fs.Duration("request-timeout", 0, "Per-send request timeout (env: REQUEST_TIMEOUT)")
	rateLimitRPS := fs.Float64("rate-limit-rps", 0, "Global send rate limit (RPS), 0 disables (env: RATE_LIMIT_RPS)")
	logLevel := fs.String("log-level", "info", "Log level: trace, debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid log level %q\n", *logLevel)
		return 2
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	// Explicitly set flags win over file and environment values.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputFile = *input
		case "output":
			cfg.OutputFile = *output
		case "sender":
			cfg.Sender = *sender
		case "region":
			cfg.DefaultRegion = *region
		case "workers":
			cfg.Workers = *workers
		case "request-timeout":
			cfg.RequestTimeout = *requestTimeout
		case "rate-limit-rps":
			cfg.RateLimitRPS = *rateLimitRPS
		}
	})

	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	if err := app.Run(ctx, cfg, logger, os.Stdout); err != nil {
		logger.Error().Msg(redact.Secrets(err.Error()))
		return 1
	}
	return 0
}

func usage(w *os.File, fs *flag.FlagSet) {
	_, _ = fmt.Fprintf(w, `smsnotify: send one SMS per row of a client CSV and collect the failures

Reads a CSV whose header includes 'number' and 'text', sends each row an
SMS through the Mailjet API, and writes the rows that failed (plus an
errorMessage column) to the output CSV. Prints a success/failure summary.

Usage:
  smsnotify [flags]

Environment (a .env file in the working directory is honored):
  MAILJET_TOKEN     Bearer token for the Mailjet SMS API (required)
  SENDER_NAME       Sender identifier
  INPUT_FILE        Input CSV path
  OUTPUT_FILE       Output CSV path
  DEFAULT_REGION    Phone number region (default AU)
  MAILJET_BASE_URL  API base URL override (proxies/testing)

Flags:
`)
	fs.PrintDefaults()
}
