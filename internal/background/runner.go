// Package background runs the work the repeater must finish after the
// client response has been written: log appends and last-used touches.
// Tasks get their own context, detached from the request, and the
// runner is drained on shutdown so none of them is silently killed.
package background

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Runner struct {
	wg      sync.WaitGroup
	timeout time.Duration
	log     *logrus.Entry
}

func NewRunner(logger *logrus.Logger, timeout time.Duration) *Runner {
	return &Runner{
		timeout: timeout,
		log:     logger.WithField("component", "background"),
	}
}

// Go runs fn in its own goroutine under a fresh deadline context.
// Errors are logged, never returned; a task failure must not reach the
// request path.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.WithFields(logrus.Fields{
					"task":  name,
					"panic": rec,
				}).Error("Background task panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			r.log.WithFields(logrus.Fields{
				"task":  name,
				"error": err,
			}).Warn("Background task failed")
		}
	}()
}

// Wait blocks until every submitted task has finished or ctx expires.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
