// workers/dispatcher.go
package workers

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Dispatcher runs fire-and-forget tasks off the request path. Each task gets
// its own timeout; errors and panics are logged and never reach the caller.
type Dispatcher struct {
	defaultTimeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(defaultTimeout time.Duration) *Dispatcher {
	if defaultTimeout <= 0 {
		defaultTimeout = 5 * time.Second
	}
	return &Dispatcher{defaultTimeout: defaultTimeout}
}

// Go schedules task. A non-positive timeout uses the dispatcher default.
// Tasks submitted after Shutdown are dropped.
func (d *Dispatcher) Go(name string, timeout time.Duration, task func(ctx context.Context) error) {
	if timeout <= 0 {
		timeout = d.defaultTimeout
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		log.Printf("[TASK] ⚠️ Dispatcher closed, dropping task %s", name)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := runTask(ctx, task); err != nil {
			log.Printf("[TASK] ⚠️ %s failed: %v", name, err)
		}
	}()
}

func runTask(ctx context.Context, task func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task(ctx)
}

// Wait blocks until every submitted task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown stops accepting tasks and waits for running ones until ctx ends.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("⏹️ Background tasks drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}
