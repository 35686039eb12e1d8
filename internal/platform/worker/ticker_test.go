package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerLoopSkipsOverlappingTicks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	var (
		runs    atomic.Int32
		mu      sync.Mutex
		skipped []string
	)

	err := TickerLoop(ctx, TickerConfig{
		Name: "test",
		Tasks: []TickerTask{
			{
				Name:       "slow",
				Interval:   20 * time.Millisecond,
				RunOnStart: true,
				Run: func(ctx context.Context) {
					runs.Add(1)

					select {
					case <-ctx.Done():
					case <-time.After(time.Second):
					}
				},
			},
		},
		OnSkip: func(name string) {
			mu.Lock()
			skipped = append(skipped, name)
			mu.Unlock()
		},
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped context error, got %v", err)
	}

	if got := runs.Load(); got != 1 {
		t.Fatalf("expected exactly one run of the slow task, got %d", got)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(skipped) == 0 {
		t.Fatal("expected at least one skipped tick while the run was in flight")
	}

	for _, name := range skipped {
		if name != "slow" {
			t.Fatalf("unexpected skipped task %q", name)
		}
	}
}

func TestTickerLoopRunsOnStartSynchronously(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var order []string

	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = TickerLoop(ctx, TickerConfig{
			Name: "test",
			OnStart: func(context.Context) {
				order = append(order, "start")
			},
			Tasks: []TickerTask{
				{Name: "noop", Interval: time.Hour, Run: func(context.Context) {}},
			},
		})
	}()

	cancel()
	<-done

	if len(order) != 1 || order[0] != "start" {
		t.Fatalf("expected OnStart to run once before tasks, got %v", order)
	}
}
