package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/complementor/pkg/events"
	"github.com/cuemby/complementor/pkg/log"
	"github.com/cuemby/complementor/pkg/metrics"
	"github.com/cuemby/complementor/pkg/resourcemanager"
	"github.com/cuemby/complementor/pkg/types"
)

// ErrNotCorrectlyScheduled is returned by Start when at least one of the
// application's task containers has no placed node.
var ErrNotCorrectlyScheduled = errors.New("application: a task container is not scheduled on a node")

// Launcher fires off the external process for app and returns immediately;
// the real implementation shells out to spark-submit/flink run. Kept as an
// external collaborator rather than built into core (design note Q3).
type Launcher func(app *types.Application) error

// Worker runs one application's lifecycle: launch, poll until running,
// poll until finished, notify. Each application gets its own Worker and its
// own background goroutine.
type Worker struct {
	app      *types.Application
	rm       resourcemanager.ResourceManager
	launch   Launcher
	broker   *events.Broker
	onFinish func(*types.Application)
	logger   zerolog.Logger

	pollInterval time.Duration
	warmup       time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Option configures a Worker at construction.
type Option func(*Worker)

// WithPollInterval overrides the default 2s poll interval between
// is_application_running/is_application_finished queries.
func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) { w.pollInterval = d }
}

// WithWarmup overrides the default 2s warmup delay before polling begins.
func WithWarmup(d time.Duration) Option {
	return func(w *Worker) { w.warmup = d }
}

// NewWorker builds a Worker for app. onFinish is invoked from the worker's
// own goroutine once the resource manager reports the application finished;
// callers must treat it as asynchronous from an arbitrary goroutine.
func NewWorker(app *types.Application, rm resourcemanager.ResourceManager, launch Launcher, broker *events.Broker, onFinish func(*types.Application), opts ...Option) *Worker {
	w := &Worker{
		app:          app,
		rm:           rm,
		launch:       launch,
		broker:       broker,
		onFinish:     onFinish,
		logger:       log.WithApplication(app.Name),
		pollInterval: 2 * time.Second,
		warmup:       2 * time.Second,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start validates placement, allocates an id, launches the process, records
// start time, and spawns the background poll loop. It returns
// ErrNotCorrectlyScheduled synchronously if any task container lacks a
// node; everything after launch happens on the worker's own goroutine.
func (w *Worker) Start(ctx context.Context) error {
	for _, task := range w.app.Tasks {
		if !task.IsPlaced() {
			metrics.ApplicationsFailed.WithLabelValues("not_correctly_scheduled").Inc()
			return fmt.Errorf("%w: application %s", ErrNotCorrectlyScheduled, w.app.Name)
		}
	}

	id, err := w.rm.NextApplicationID(ctx)
	if err != nil {
		return fmt.Errorf("application: allocate id: %w", err)
	}
	w.app.ID = id
	w.logger = log.WithApplication(id)

	if err := w.launch(w.app); err != nil {
		return fmt.Errorf("application: launch %s: %w", id, err)
	}

	w.app.StartedAt = time.Now()
	w.publish(events.ApplicationStarted, "application launched")

	go w.run(ctx)
	return nil
}

// Stop signals the background poll loop to exit without waiting for the
// application to finish. Safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *Worker) run(ctx context.Context) {
	if !w.sleep(ctx, w.pollInterval+w.warmup) {
		return
	}

	for {
		if !w.sleep(ctx, w.pollInterval) {
			return
		}

		if w.rm.IsApplicationFinished(ctx, w.app.ID) {
			w.app.FinishedAt = time.Now()
			metrics.ApplicationRunDuration.Observe(w.app.FinishedAt.Sub(w.app.StartedAt).Seconds())
			w.publish(events.ApplicationFinished, "application finished")
			if w.onFinish != nil {
				w.onFinish(w.app)
			}
			return
		}

		if !w.app.IsRunning && w.rm.IsApplicationRunning(ctx, w.app.ID) {
			w.app.IsRunning = true
			w.publish(events.ApplicationRunning, "application running")
		}
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-w.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (w *Worker) publish(eventType events.ApplicationEventType, message string) {
	if w.broker == nil {
		return
	}
	w.broker.Publish(&events.ApplicationEvent{
		ApplicationID: w.app.ID,
		Type:          eventType,
		Message:       message,
	})
}
