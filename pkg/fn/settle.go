package fn

import (
	"context"
	"sort"
	"sync"
)

// Task is one unit of a fan-out. Returning (nil, nil) means the task
// decided to skip itself, e.g. a missing prerequisite.
type Task func(ctx context.Context) (any, error)

// Settled is the outcome of one task.
type Settled struct {
	Key   string
	Value any
	Err   error
}

// Settle runs every task concurrently and waits for all of them. It
// never fails as a whole: each outcome, success or error, is reported
// in the result slice, sorted by key for determinism.
func Settle(ctx context.Context, tasks map[string]Task) []Settled {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make([]Settled, 0, len(tasks))
	)
	for key, task := range tasks {
		wg.Add(1)
		go func(key string, task Task) {
			defer wg.Done()
			v, err := task(ctx)
			mu.Lock()
			out = append(out, Settled{Key: key, Value: v, Err: err})
			mu.Unlock()
		}(key, task)
	}
	wg.Wait()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
