// Package taskctrl runs background jobs on behalf of the catalog. The
// catalog only owns the controller's lifecycle; it exposes no scheduling
// contract of its own.
package taskctrl

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/signalsfoundry/sdr-catalog/internal/logging"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("taskctrl: controller closed")

// Task is one unit of background work.
type Task func(ctx context.Context) error

type job struct {
	id  string
	run Task
}

// Controller executes submitted tasks on a fixed pool of workers.
type Controller struct {
	mu        sync.Mutex
	queue     chan job
	closed    bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	log       logging.Logger
	listeners []func(id string, err error)
}

// New starts a controller with the given number of workers (minimum one).
func New(workers int, log logging.Logger) *Controller {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logging.Noop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		queue:  make(chan job, 16),
		cancel: cancel,
		log:    log,
	}
	for range workers {
		c.wg.Add(1)
		go c.worker(ctx)
	}
	return c
}

// Submit queues a task and returns its ID.
func (c *Controller) Submit(t Task) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	id := uuid.NewString()
	c.queue <- job{id: id, run: t}
	return id, nil
}

// OnDone registers a callback invoked after every task completes. Must be
// called before the first Submit.
func (c *Controller) OnDone(fn func(id string, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Close stops accepting tasks, cancels running ones, and waits for the
// workers to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) worker(ctx context.Context) {
	defer c.wg.Done()
	for j := range c.queue {
		err := j.run(ctx)
		if err != nil {
			c.log.Warn(ctx, "background task failed",
				logging.String("task_id", j.id),
				logging.Any("error", err))
		}
		c.mu.Lock()
		listeners := append([]func(string, error){}, c.listeners...)
		c.mu.Unlock()
		for _, fn := range listeners {
			fn(j.id, err)
		}
	}
}
