// Package app wires the loader, dispatch pipeline and writer into one run.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/shpitdev/smsnotify/internal/config"
	"github.com/shpitdev/smsnotify/internal/mailjet"
	"github.com/shpitdev/smsnotify/internal/pipeline"
	"github.com/shpitdev/smsnotify/internal/records"
)

// Run executes one full notification batch: load records from
// cfg.InputFile, dispatch one SMS per record, write the failed records to
// cfg.OutputFile, and print the operator summary line to summaryOut.
//
// File-level errors abort the run; per-record errors only show up in the
// output file and the tally.
func Run(ctx context.Context, cfg config.Config, logger zerolog.Logger, summaryOut io.Writer) error {
	start := time.Now()

	inF, err := os.Open(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer func() {
		_ = inF.Close()
	}()

	doc, err := records.Load(inF)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.InputFile, err)
	}
	logger.Info().
		Str("input", cfg.InputFile).
		Int("records", len(doc.Records)).
		Int("workers", cfg.Workers).
		Str("region", cfg.DefaultRegion).
		Dur("request_timeout", cfg.RequestTimeout).
		Msg("loaded input records")

	client, err := mailjet.NewClient(mailjet.Config{
		Token:   cfg.Token,
		Sender:  cfg.Sender,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return err
	}

	failures, sum, err := pipeline.Run(ctx, doc, pipeline.NewDispatcher(client, cfg.DefaultRegion), pipeline.Options{
		Workers:        cfg.Workers,
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
	})
	if err != nil {
		return err
	}

	outF, err := os.Create(cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		_ = outF.Close()
	}()

	if err := records.WriteFailures(outF, records.OutputHeader(doc.Header), failures); err != nil {
		return fmt.Errorf("write %s: %w", cfg.OutputFile, err)
	}
	if err := outF.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	logger.Info().
		Int("successes", sum.Successes).
		Int("failures", sum.Failures).
		Str("output", cfg.OutputFile).
		Dur("elapsed", time.Since(start)).
		Msg("run complete")

	_, err = fmt.Fprintf(summaryOut, "Successes: %d, Failures: %d\n", sum.Successes, sum.Failures)
	return err
}
