// Package pipeline dispatches one SMS per record over a bounded worker
// pool and aggregates the outcomes.
package pipeline

import (
	"context"
	"maps"
	"time"

	"github.com/shpitdev/smsnotify/internal/phone"
	"github.com/shpitdev/smsnotify/internal/records"
	"github.com/shpitdev/smsnotify/pkg/pipeline/redact"
	"github.com/shpitdev/smsnotify/pkg/pipeline/worker"
)

// Sender delivers one SMS to an E.164 recipient.
type Sender interface {
	SendSMS(ctx context.Context, to, text string) error
}

// Outcome is the per-record result of one dispatch attempt. On failure the
// record carries its error message under records.FieldError.
type Outcome struct {
	Record       records.Record
	Failed       bool
	ErrorMessage string
}

type Options struct {
	Workers        int
	RequestTimeout time.Duration
	RateLimitRPS   float64
}

// Summary is the run tally reported to the operator.
type Summary struct {
	Successes int
	Failures  int
}

// Dispatcher builds and sends one outbound message per record.
type Dispatcher struct {
	sender Sender
	region string
}

func NewDispatcher(sender Sender, region string) *Dispatcher {
	if region == "" {
		region = phone.DefaultRegion
	}
	return &Dispatcher{sender: sender, region: region}
}

// Dispatch normalizes the record's number, sends the message once, and
// classifies the result. Every failure mode (bad number, transport error,
// timeout, provider rejection) becomes a failed Outcome; Dispatch never
// returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, rec records.Record) Outcome {
	to, err := phone.Normalize(rec[records.FieldNumber], d.region)
	if err != nil {
		return failedOutcome(rec, err)
	}
	if err := d.sender.SendSMS(ctx, to, rec[records.FieldText]); err != nil {
		return failedOutcome(rec, err)
	}
	return Outcome{Record: rec}
}

// failedOutcome annotates a copy of the record so the caller's loaded
// document stays untouched.
func failedOutcome(rec records.Record, err error) Outcome {
	msg := redact.Secrets(err.Error())
	annotated := maps.Clone(rec)
	annotated[records.FieldError] = msg
	return Outcome{Record: annotated, Failed: true, ErrorMessage: msg}
}

// Run dispatches every record in doc and returns the failed records in the
// order their outcomes were observed (completion order, not input order),
// along with the tally. The tally and failure list are only touched on the
// draining goroutine, so they need no locking.
func Run(ctx context.Context, doc *records.Document, d *Dispatcher, opts Options) ([]records.Record, Summary, error) {
	var failures []records.Record
	var sum Summary

	err := worker.ForEach(ctx, doc.Records, d.Dispatch, func(o Outcome) error {
		if o.Failed {
			sum.Failures++
			failures = append(failures, o.Record)
		} else {
			sum.Successes++
		}
		return nil
	}, worker.Options{
		Workers:        opts.Workers,
		RequestTimeout: opts.RequestTimeout,
		RateLimitRPS:   opts.RateLimitRPS,
	})
	if err != nil {
		return nil, Summary{}, err
	}
	return failures, sum, nil
}
