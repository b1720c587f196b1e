package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/complementor/pkg/application"
	"github.com/cuemby/complementor/pkg/cluster"
	"github.com/cuemby/complementor/pkg/estimator"
	"github.com/cuemby/complementor/pkg/events"
	"github.com/cuemby/complementor/pkg/history"
	"github.com/cuemby/complementor/pkg/log"
	"github.com/cuemby/complementor/pkg/metrics"
	"github.com/cuemby/complementor/pkg/resourcemanager"
	"github.com/cuemby/complementor/pkg/types"
)

// Policy names one of the four placement policies.
type Policy string

const (
	RoundRobin   Policy = "round_robin"
	Random       Policy = "random"
	Adaptive     Policy = "adaptive"
	GroupAdaptive Policy = "group_adaptive"
)

// ErrNoApplicationCanBeScheduled is raised when schedule_application finds
// no queued application that currently fits, under any policy.
var ErrNoApplicationCanBeScheduled = errors.New("scheduler: no application can be scheduled")

// Scheduler drains the pending queue onto the cluster under one placement
// policy.
type Scheduler struct {
	cluster *cluster.Cluster
	queue   *types.Queue
	rm      resourcemanager.ResourceManager
	launch  application.Launcher
	broker  *events.Broker
	history *history.Store
	logger  zerolog.Logger

	policy     Policy
	jobsToPeek int
	stride     int
	drainDelay time.Duration

	workerPollInterval time.Duration
	workerWarmup       time.Duration

	appEstimator   estimator.AppEstimator
	groupEstimator estimator.GroupEstimator
	jobGroups      *types.JobGroupTable

	rng *rand.Rand

	startedAt time.Time

	mu       sync.Mutex
	kick     chan struct{}
	stopOnce sync.Once
	stopCh   chan struct{}

	rateMu   sync.Mutex
	lastRate map[string]float64
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithJobsToPeek overrides the default look-ahead window for
// Adaptive/GroupAdaptive (default 5).
func WithJobsToPeek(n int) Option {
	return func(s *Scheduler) { s.jobsToPeek = n }
}

// WithStride overrides the default per-node placement stride (default 3).
func WithStride(n int) Option {
	return func(s *Scheduler) { s.stride = n }
}

// WithDrainDelay overrides the default ~1s delay between launches within a
// drain pass.
func WithDrainDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.drainDelay = d }
}

// WithWorkerPollInterval overrides the poll interval passed to each
// launched application's worker (default 2s).
func WithWorkerPollInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.workerPollInterval = d }
}

// WithWorkerWarmup overrides the warmup delay passed to each launched
// application's worker (default 2s).
func WithWorkerWarmup(d time.Duration) Option {
	return func(s *Scheduler) { s.workerWarmup = d }
}

// WithAppEstimator wires the estimator consulted by Adaptive.
func WithAppEstimator(e estimator.AppEstimator) Option {
	return func(s *Scheduler) { s.appEstimator = e }
}

// WithGroupEstimator wires the estimator and job-group table consulted by
// GroupAdaptive.
func WithGroupEstimator(e estimator.GroupEstimator, groups *types.JobGroupTable) Option {
	return func(s *Scheduler) { s.groupEstimator = e; s.jobGroups = groups }
}

// WithHistory wires a run-history store; RecordFinished is skipped if nil.
func WithHistory(h *history.Store) Option {
	return func(s *Scheduler) { s.history = h }
}

// New builds a Scheduler over c and queue, using policy.
func New(c *cluster.Cluster, queue *types.Queue, rm resourcemanager.ResourceManager, launch application.Launcher, broker *events.Broker, policy Policy, opts ...Option) *Scheduler {
	s := &Scheduler{
		cluster:    c,
		queue:      queue,
		rm:         rm,
		launch:     launch,
		broker:     broker,
		logger:     log.WithComponent("scheduler"),
		policy:     policy,
		jobsToPeek:         5,
		stride:             3,
		drainDelay:         time.Second,
		workerPollInterval: 2 * time.Second,
		workerWarmup:       2 * time.Second,
		rng:                rand.New(rand.NewSource(1)),
		kick:       make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		lastRate:   make(map[string]float64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start spawns the drain loop and performs an initial drain.
func (s *Scheduler) Start(ctx context.Context) {
	s.startedAt = time.Now()
	go s.run(ctx)
	s.Wake()
}

// Stop signals the drain loop to exit. Safe to call more than once, so
// both an operator shutdown and onFinish's own liveness check can call it.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Done returns a channel that closes once the scheduler stops, whether
// from an explicit Stop or because onFinish noticed the queue had drained
// with nothing left scheduled and stopped on its own.
func (s *Scheduler) Done() <-chan struct{} {
	return s.stopCh
}

// Enqueue appends app to the queue and wakes the drain loop.
func (s *Scheduler) Enqueue(app *types.Application) {
	s.mu.Lock()
	s.queue.Append(app)
	s.mu.Unlock()
	s.Wake()
}

// Wake schedules a drain pass without blocking; redundant wakes while one
// is already pending are coalesced.
func (s *Scheduler) Wake() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		select {
		case <-s.kick:
			s.drain(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain repeatedly calls scheduleApplication and launches the result until
// the queue is empty or nothing more can be placed.
func (s *Scheduler) drain(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for !s.queue.IsEmpty() {
		timer := metrics.NewTimer()
		app, err := s.scheduleApplication()
		timer.ObserveDuration(metrics.SchedulingLatency)

		if err != nil {
			if !errors.Is(err, ErrNoApplicationCanBeScheduled) {
				s.logger.Error().Err(err).Msg("scheduling cycle failed")
			}
			return
		}

		metrics.ApplicationsScheduled.WithLabelValues(string(s.policy)).Inc()
		if err := s.launchApplication(ctx, app); err != nil {
			metrics.ApplicationsFailed.WithLabelValues("not_correctly_scheduled").Inc()
			s.logger.Error().Err(err).Str("application", app.Name).Msg("application could not be launched")
			continue
		}

		select {
		case <-time.After(s.drainDelay):
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) launchApplication(ctx context.Context, app *types.Application) error {
	worker := application.NewWorker(app, s.rm, s.launch, s.broker, func(finished *types.Application) {
		s.onFinish(finished)
	}, application.WithPollInterval(s.workerPollInterval), application.WithWarmup(s.workerWarmup))
	return worker.Start(ctx)
}

// RecordRate stores the most recently observed attributed rate for a
// running application, for pkg/reconciler to report after each estimator
// update tick so onFinish can persist a last-known value to history.
func (s *Scheduler) RecordRate(appID string, rate float64) {
	s.rateMu.Lock()
	s.lastRate[appID] = rate
	s.rateMu.Unlock()
}

func (s *Scheduler) takeRate(appID string) float64 {
	s.rateMu.Lock()
	defer s.rateMu.Unlock()
	rate := s.lastRate[appID]
	delete(s.lastRate, appID)
	return rate
}

// onFinish removes the application from the cluster and records it in
// history, then re-enters the drain loop — spec.md's "running → finished"
// transition re-triggering schedule().
func (s *Scheduler) onFinish(app *types.Application) {
	s.cluster.RemoveApplication(app)

	if s.history != nil {
		rate := s.takeRate(app.ID)
		if err := s.history.RecordFinished(app, rate); err != nil {
			s.logger.Error().Err(err).Str("application", app.ID).Msg("failed to record finished application")
		}
	}

	s.logger.Info().Str("application", app.ID).Str("name", app.Name).Msg("application finished")

	if s.queue.IsEmpty() && !s.cluster.HasApplicationScheduled() {
		s.logger.Info().Dur("runtime", time.Since(s.startedAt)).Msg("queue drained and no applications scheduled, stopping")
		s.Stop()
		return
	}

	s.Wake()
}

// scheduleApplication is policy-specific: spec.md §4.6.
func (s *Scheduler) scheduleApplication() (*types.Application, error) {
	switch s.policy {
	case RoundRobin:
		return s.scheduleRoundRobin()
	case Random:
		return s.scheduleRandom()
	case Adaptive:
		return s.scheduleAdaptive()
	case GroupAdaptive:
		return s.scheduleGroupAdaptive()
	default:
		return nil, fmt.Errorf("scheduler: unknown policy %q", s.policy)
	}
}

func (s *Scheduler) runningAppNamesAndWeights() ([]string, []float64) {
	apps, weights := s.cluster.Applications(true)
	names := make([]string, len(apps))
	fweights := make([]float64, len(weights))
	for i, app := range apps {
		names[i] = app.Name
		fweights[i] = float64(weights[i])
	}
	return names, fweights
}
