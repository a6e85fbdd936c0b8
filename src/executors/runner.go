package executors

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"snapshotengine/src/ingest"
	"snapshotengine/src/model"
)

// ErrRunnerStopped is returned for events submitted after the loop exited.
var ErrRunnerStopped = errors.New("runner stopped")

// Handler applies one event to the store.
type Handler interface {
	Dispatch(ctx context.Context, evt ingest.Event) error
}

type job struct {
	ctx    context.Context
	evt    ingest.Event
	result chan error
}

// Runner is the single writer of the snapshot store. Every event source submits
// through it and events are applied one at a time in submission order.
type Runner struct {
	Log     *logrus.Entry
	handler Handler
	jobs    chan job
	done    chan struct{}
}

func NewRunner(log *logrus.Entry, handler Handler, capacity int) *Runner {
	if log == nil {
		log = logrus.WithField("component", "Runner")
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Runner{
		Log:     log,
		handler: handler,
		jobs:    make(chan job, capacity),
		done:    make(chan struct{}),
	}
}

// Submit queues evt and waits until it has been applied. It blocks while the
// queue is full.
func (r *Runner) Submit(ctx context.Context, evt ingest.Event) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	j := job{ctx: ctx, evt: evt, result: make(chan error, 1)}

	select {
	case r.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrRunnerStopped
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		select {
		case err := <-j.result:
			return err
		default:
			return ErrRunnerStopped
		}
	}
}

// Run applies queued events until ctx is cancelled. It must be called once.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	r.Log.Info("runner started")

	for {
		select {
		case <-ctx.Done():
			r.Log.Info("runner stopped")
			return nil
		case j := <-r.jobs:
			j.result <- r.apply(j)
		}
	}
}

func (r *Runner) apply(j job) error {
	if err := j.ctx.Err(); err != nil {
		return err
	}

	log := r.Log.WithField("event_id", j.evt.ID).WithField("event_type", j.evt.Type)
	start := time.Now()
	err := r.handler.Dispatch(j.ctx, j.evt)

	switch {
	case err == nil:
		log.WithField("elapsed", time.Since(start)).Debug("event applied")
	case errors.Is(err, model.ErrStorageUnavailable):
		log.WithError(err).Error("event not applied, storage unavailable")
	case errors.Is(err, model.ErrDuplicateTrade):
		log.WithError(err).Info("duplicate trade ignored")
	case errors.Is(err, model.ErrMalformedPayload):
		log.WithError(err).Warn("malformed payload dropped")
	case errors.Is(err, model.ErrSideEffectFailure):
		log.WithError(err).Warn("event applied, subscription request failed")
	default:
		log.WithError(err).Error("event failed")
	}
	return err
}
