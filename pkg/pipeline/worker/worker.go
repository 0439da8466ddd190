// Package worker runs a function over a batch of items with bounded
// concurrency, delivering results in completion order.
package worker

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type Options struct {
	// Workers caps the number of simultaneous in-flight calls. The cap
	// exists to limit open connections against the remote API, not for
	// correctness.
	Workers int

	// RequestTimeout bounds each individual call via context.
	RequestTimeout time.Duration

	// RateLimitRPS is a global limit across all workers. Set to <=0 to disable.
	RateLimitRPS float64
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 100
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 5 * time.Second
	}
	return o
}

// ForEach runs fn once per item on a fixed-size pool of workers and invokes
// onResult for each completed call. Callbacks run on the calling goroutine,
// in completion order (not submission order), so onResult may touch shared
// state without locking.
//
// Every item produces exactly one result unless ctx is cancelled or onResult
// returns an error, either of which stops the run.
func ForEach[In any, Out any](
	ctx context.Context,
	items []In,
	fn func(context.Context, In) Out,
	onResult func(Out) error,
	opts Options,
) error {
	opts = opts.withDefaults()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	jobs := make(chan In)
	done := make(chan Out, opts.Workers)
	workerDone := make(chan struct{}, opts.Workers)

	workerFn := func() {
		defer func() { workerDone <- struct{}{} }()
		for item := range jobs {
			if runCtx.Err() != nil {
				return
			}
			if limiter != nil {
				if err := limiter.Wait(runCtx); err != nil {
					return
				}
			}
			callCtx, callCancel := context.WithTimeout(runCtx, opts.RequestTimeout)
			res := fn(callCtx, item)
			callCancel()
			select {
			case done <- res:
			case <-runCtx.Done():
				return
			}
		}
	}

	for i := 0; i < opts.Workers; i++ {
		go workerFn()
	}

	go func() {
		defer close(jobs)
		for _, item := range items {
			select {
			case jobs <- item:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		for i := 0; i < opts.Workers; i++ {
			<-workerDone
		}
		close(done)
	}()

	var cbErr error
	for res := range done {
		if cbErr != nil {
			continue
		}
		if onResult != nil {
			if err := onResult(res); err != nil {
				cbErr = err
				cancel()
			}
		}
	}
	if cbErr != nil {
		return cbErr
	}
	return ctx.Err()
}
