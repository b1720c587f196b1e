package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/complementor/pkg/cluster"
	"github.com/cuemby/complementor/pkg/estimator"
	"github.com/cuemby/complementor/pkg/history"
	"github.com/cuemby/complementor/pkg/log"
	"github.com/cuemby/complementor/pkg/metrics"
	"github.com/cuemby/complementor/pkg/types"
)

// RateRecorder reports the observed combined usage rate for a running
// application back to whatever persists a final attributed rate once the
// application finishes. *scheduler.Scheduler.RecordRate satisfies this.
type RateRecorder func(appID string, rate float64)

// defaultInterval is the default tick period U from spec §4.7.
const defaultInterval = 60 * time.Second

// Reconciler periodically samples cluster usage and feeds it to one or more
// named complementarity estimators.
type Reconciler struct {
	cluster  *cluster.Cluster
	sampler  cluster.UsageSampler
	history  *history.Store
	logger   zerolog.Logger
	interval time.Duration
	window   time.Duration

	mu         sync.Mutex
	estimators map[string]estimator.Estimator

	rateRecorder RateRecorder
	health       *metrics.Checker

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Option configures a Reconciler at construction.
type Option func(*Reconciler)

// WithWindow overrides the usage-sampling window passed to the sampler
// (default: same as the tick interval).
func WithWindow(d time.Duration) Option {
	return func(r *Reconciler) { r.window = d }
}

// WithEstimator registers a named estimator to receive every tick's
// observations. Registering more than one enables benchmarking mode: all
// named estimators see the same updates, each tracked independently.
func WithEstimator(name string, e estimator.Estimator) Option {
	return func(r *Reconciler) { r.estimators[name] = e }
}

// WithHistory wires a history store used to resolve each estimator's
// snapshot directory on Stop.
func WithHistory(h *history.Store) Option {
	return func(r *Reconciler) { r.history = h }
}

// WithRateRecorder wires a callback invoked once per sampled node, for each
// application currently running there, reporting that node's combined
// observed usage rate. This is how the final attributed rate persisted to
// run history (pkg/history.Record.AttributedRate) gets a real value instead
// of staying at its zero default.
func WithRateRecorder(fn RateRecorder) Option {
	return func(r *Reconciler) { r.rateRecorder = fn }
}

// WithHealthChecker wires a *metrics.Checker that tick reports the
// "reconciler" component's health to, healthy on a successful usage sample
// and unhealthy otherwise.
func WithHealthChecker(checker *metrics.Checker) Option {
	return func(r *Reconciler) { r.health = checker }
}

// New builds a Reconciler that samples c's usage through sampler every
// interval (default 60s, spec §4.7's U).
func New(c *cluster.Cluster, sampler cluster.UsageSampler, interval time.Duration, opts ...Option) *Reconciler {
	if interval <= 0 {
		interval = defaultInterval
	}
	r := &Reconciler{
		cluster:    c,
		sampler:    sampler,
		logger:     log.WithComponent("reconciler"),
		interval:   interval,
		window:     interval,
		estimators: make(map[string]estimator.Estimator),
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins the ticking update loop.
func (r *Reconciler) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the loop to exit and snapshots every registered estimator to
// its pkg/history-managed directory. Safe to call more than once.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.snapshot()
}

func (r *Reconciler) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("reconciler started")

	for {
		select {
		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				r.logger.Error().Err(err).Msg("reconciliation cycle failed")
			}
		case <-r.stopCh:
			r.logger.Info().Msg("reconciler stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick samples cluster usage once and attributes it to running applications
// via leave-one-out, per spec §4.7.
func (r *Reconciler) tick(ctx context.Context) error {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	usages, err := r.cluster.AppsUsage(ctx, r.sampler, r.window)
	if err != nil {
		if r.health != nil {
			r.health.Update("reconciler", false, err.Error())
		}
		return fmt.Errorf("reconciler: sample usage: %w", err)
	}
	if r.health != nil {
		r.health.Update("reconciler", true, "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, nodeUsage := range usages {
		if len(nodeUsage.Apps) == 0 || !nodeUsage.Usage.IsNotIdle() {
			continue
		}

		names := appNames(nodeUsage.Apps)
		rate := nodeUsage.Usage.Rate()

		if r.rateRecorder != nil {
			for _, app := range nodeUsage.Apps {
				r.rateRecorder(app.ID, rate)
			}
		}

		for _, pair := range leaveOneOut(names) {
			for kind, est := range r.estimators {
				updateTimer := metrics.NewTimer()
				est.UpdateApp(pair.out, pair.rest, rate)
				updateTimer.ObserveDurationVec(metrics.EstimatorUpdateDuration, kind)
				metrics.EstimatorUpdatesTotal.WithLabelValues(kind).Inc()
			}
		}
	}
	return nil
}

// snapshot persists every registered estimator's matrices to its own
// directory under the history store, if one is wired.
func (r *Reconciler) snapshot() {
	if r.history == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, est := range r.estimators {
		dir, err := r.history.EstimatorSnapshotDir(name)
		if err != nil {
			r.logger.Error().Err(err).Str("estimator", name).Msg("failed to resolve snapshot dir")
			continue
		}
		if err := est.Save(dir); err != nil {
			r.logger.Error().Err(err).Str("estimator", name).Msg("failed to snapshot estimator")
		}
	}
}

func appNames(apps []*types.Application) []string {
	names := make([]string, len(apps))
	for i, app := range apps {
		names[i] = app.Name
	}
	return names
}

// restOutPair is one leave-one-out split: out ran alongside rest.
type restOutPair struct {
	rest []string
	out  string
}

// leaveOneOut returns, for a set of n names, n pairs: rest is every name
// except the one at index i, out is that excluded name. Matches spec
// §4.7's LeaveOneOut(apps_on_node).
func leaveOneOut(names []string) []restOutPair {
	pairs := make([]restOutPair, len(names))
	for i, out := range names {
		rest := make([]string, 0, len(names)-1)
		rest = append(rest, names[:i]...)
		rest = append(rest, names[i+1:]...)
		pairs[i] = restOutPair{rest: rest, out: out}
	}
	return pairs
}
