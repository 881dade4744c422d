package fn

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestSettle_AllOutcomesReported(t *testing.T) {
	tasks := map[string]Task{
		"ok": func(context.Context) (any, error) {
			return 42, nil
		},
		"fail": func(context.Context) (any, error) {
			return nil, fmt.Errorf("boom")
		},
		"skip": func(context.Context) (any, error) {
			return nil, nil
		},
	}

	settled := Settle(context.Background(), tasks)
	if len(settled) != 3 {
		t.Fatalf("settled = %d, want 3", len(settled))
	}
	// Sorted by key: fail, ok, skip.
	if settled[0].Key != "fail" || settled[0].Err == nil {
		t.Errorf("settled[0] = %+v", settled[0])
	}
	if settled[1].Key != "ok" || settled[1].Value != 42 || settled[1].Err != nil {
		t.Errorf("settled[1] = %+v", settled[1])
	}
	if settled[2].Key != "skip" || settled[2].Value != nil || settled[2].Err != nil {
		t.Errorf("settled[2] = %+v", settled[2])
	}
}

func TestSettle_RunsConcurrently(t *testing.T) {
	const n = 8
	gate := make(chan struct{})
	tasks := make(map[string]Task, n)
	for i := 0; i < n; i++ {
		tasks[fmt.Sprintf("t%d", i)] = func(ctx context.Context) (any, error) {
			// Every task blocks until all of them have started.
			select {
			case <-gate:
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan []Settled, 1)
	go func() { done <- Settle(ctx, tasks) }()

	close(gate)
	select {
	case settled := <-done:
		if len(settled) != n {
			t.Fatalf("settled = %d, want %d", len(settled), n)
		}
	case <-ctx.Done():
		t.Fatal("tasks did not run concurrently")
	}
}

func TestSettle_Empty(t *testing.T) {
	if settled := Settle(context.Background(), nil); len(settled) != 0 {
		t.Errorf("settled = %v", settled)
	}
}
