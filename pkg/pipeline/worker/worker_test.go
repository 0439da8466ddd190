package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shpitdev/smsnotify/pkg/pipeline/worker"
)

func TestForEach_OneResultPerItem(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6, 7}

	fn := func(_ context.Context, n int) int {
		return n * 2
	}

	var got []int
	err := worker.ForEach(context.Background(), items, fn, func(n int) error {
		got = append(got, n)
		return nil
	}, worker.Options{Workers: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(got))
	}

	sum := 0
	for _, n := range got {
		sum += n
	}
	if sum != 2*(1+2+3+4+5+6+7) {
		t.Fatalf("unexpected result sum %d", sum)
	}
}

func TestForEach_RespectsWorkerBound(t *testing.T) {
	t.Parallel()

	const bound = 4

	var inFlight atomic.Int64
	var maxInFlight atomic.Int64

	fn := func(_ context.Context, n int) int {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return n
	}

	items := make([]int, 50)
	err := worker.ForEach(context.Background(), items, fn, nil, worker.Options{Workers: bound})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := maxInFlight.Load(); got > bound {
		t.Fatalf("observed %d simultaneous calls, bound is %d", got, bound)
	}
}

func TestForEach_DeliversInCompletionOrder(t *testing.T) {
	t.Parallel()

	releaseSlow := make(chan struct{})

	fn := func(_ context.Context, name string) string {
		if name == "slow" {
			<-releaseSlow
		}
		return name
	}

	var mu sync.Mutex
	var seen []string
	errCh := make(chan error, 1)
	go func() {
		errCh <- worker.ForEach(context.Background(), []string{"slow", "fast"}, fn,
			func(name string) error {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, name)
				if len(seen) == 1 {
					close(releaseSlow)
				}
				return nil
			},
			worker.Options{Workers: 2, RequestTimeout: time.Minute})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for run to finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "fast" || seen[1] != "slow" {
		t.Fatalf("expected completion order [fast slow], got %v", seen)
	}
}

func TestForEach_CallbackErrorStopsRun(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	items := make([]int, 20)

	err := worker.ForEach(context.Background(), items, func(_ context.Context, n int) int {
		return n
	}, func(int) error {
		return boom
	}, worker.Options{Workers: 2})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestForEach_AppliesPerCallTimeout(t *testing.T) {
	t.Parallel()

	var sawDeadline atomic.Bool
	fn := func(ctx context.Context, n int) int {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			sawDeadline.Store(true)
		}
		return n
	}

	err := worker.ForEach(context.Background(), []int{1}, fn, nil, worker.Options{
		Workers:        1,
		RequestTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sawDeadline.Load() {
		t.Fatal("expected the per-call context to carry a deadline")
	}
}
