// Package tasks tracks fire-and-forget background work so it can be drained.
package tasks

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Func is a unit of background work. Its error is terminal; the registry only records completion.
type Func func(ctx context.Context) error

// Registry is the process-wide set of in-flight background tasks.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*entry
}

type entry struct {
	name string
	done chan struct{}
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*entry)}
}

// Go registers the task and then runs it on its own goroutine. The task is
// removed when fn returns or panics; a panic that escapes fn is recovered and
// discarded, so callers wanting it reported must recover inside fn.
// The returned id identifies the task in logs.
func (r *Registry) Go(ctx context.Context, name string, fn Func) string {
	id := uuid.NewString()
	e := &entry{name: name, done: make(chan struct{})}

	r.mu.Lock()
	r.tasks[id] = e
	r.mu.Unlock()

	go func() {
		defer func() {
			_ = recover()
			r.mu.Lock()
			delete(r.tasks, id)
			r.mu.Unlock()
			close(e.done)
		}()
		_ = fn(ctx)
	}()

	return id
}

// Drain waits for every task registered at call time to finish, success or failure.
// It returns immediately when nothing is in flight, or ctx.Err() if ctx ends first.
func (r *Registry) Drain(ctx context.Context) error {
	r.mu.Lock()
	pending := make([]chan struct{}, 0, len(r.tasks))
	for _, e := range r.tasks {
		pending = append(pending, e.done)
	}
	r.mu.Unlock()

	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Len is the number of tasks currently in flight.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Names lists in-flight task names, for shutdown diagnostics.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tasks))
	for _, e := range r.tasks {
		names = append(names, e.name)
	}
	return names
}
