package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuemby/complementor/pkg/cluster"
	"github.com/cuemby/complementor/pkg/config"
	"github.com/cuemby/complementor/pkg/estimator"
	"github.com/cuemby/complementor/pkg/events"
	"github.com/cuemby/complementor/pkg/history"
	"github.com/cuemby/complementor/pkg/log"
	"github.com/cuemby/complementor/pkg/metrics"
	"github.com/cuemby/complementor/pkg/reconciler"
	"github.com/cuemby/complementor/pkg/resourcemanager"
	"github.com/cuemby/complementor/pkg/sampler"
	"github.com/cuemby/complementor/pkg/scheduler"
	"github.com/cuemby/complementor/pkg/statusapi"
	"github.com/cuemby/complementor/pkg/types"
	"github.com/cuemby/complementor/pkg/workload"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler against a cluster config and experiment suite",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("config", "", "Path to the cluster config YAML (required)")
	runCmd.Flags().String("jobs", "", "Path to the jobs XML catalog (required)")
	runCmd.Flags().String("experiment", "", "Path to the experiment XML suite (required)")
	runCmd.Flags().String("data-dir", "./complementor-data", "Data directory for run history and estimator snapshots")
	runCmd.Flags().String("status-addr", "127.0.0.1:9090", "Address for the status/metrics/health HTTP server")
	runCmd.Flags().Duration("reconcile-interval", 60*time.Second, "Estimator update tick interval")
	_ = runCmd.MarkFlagRequired("config")
	_ = runCmd.MarkFlagRequired("jobs")
	_ = runCmd.MarkFlagRequired("experiment")
}

func runRun(cmd *cobra.Command, args []string) error {
	runID := uuid.New().String()
	logger := log.WithComponent("cmd").With().Str("run_id", runID).Logger()
	logger.Info().Msg("starting run")

	configPath, _ := cmd.Flags().GetString("config")
	jobsPath, _ := cmd.Flags().GetString("jobs")
	experimentPath, _ := cmd.Flags().GetString("experiment")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	statusAddr, _ := cmd.Flags().GetString("status-addr")
	reconcileInterval, _ := cmd.Flags().GetDuration("reconcile-interval")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	rm, err := buildResourceManager(cfg.ResourceManager)
	if err != nil {
		return err
	}

	checker := metrics.NewChecker(Version)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	nodeCapacity, err := rm.Nodes(ctx)
	cancel()
	if err != nil {
		checker.Update("resource_manager", false, err.Error())
		return fmt.Errorf("discover cluster nodes: %w", err)
	}
	checker.Update("resource_manager", true, "")

	slots := cfg.SlotIndex()
	c := cluster.NewCluster(buildNodes(nodeCapacity, slots))
	checker.Update("cluster", true, "")

	catalogFile, err := os.Open(jobsPath)
	if err != nil {
		return fmt.Errorf("open jobs catalog: %w", err)
	}
	catalog, err := workload.ParseJobsXML(catalogFile)
	catalogFile.Close()
	if err != nil {
		return err
	}

	experimentFile, err := os.Open(experimentPath)
	if err != nil {
		return fmt.Errorf("open experiment suite: %w", err)
	}
	experiment, err := workload.ParseExperimentXML(experimentFile)
	experimentFile.Close()
	if err != nil {
		return err
	}

	apps, err := experiment.Queue(catalog)
	if err != nil {
		return err
	}

	queue := types.NewQueue()
	for _, app := range apps {
		queue.Append(app)
	}

	samp, err := buildSampler(cfg.StatCollector, cfg.Server)
	if err != nil {
		return err
	}

	hist, err := history.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer hist.Close()

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	metricsCollector := metrics.NewCollector(c, queue)
	metricsCollector.Start()
	defer metricsCollector.Stop()

	launch := flinkLauncher(catalog, dataDir)

	policy := scheduler.Policy(cfg.Scheduler.Policy)
	schedOpts := []scheduler.Option{
		scheduler.WithJobsToPeek(cfg.Scheduler.JobsToPeek),
		scheduler.WithStride(cfg.Scheduler.Stride),
		scheduler.WithHistory(hist),
	}

	estOpts := estimator.Options{
		Epsilon:        cfg.Estimator.Epsilon,
		Alpha:          cfg.Estimator.Alpha,
		InitialAverage: cfg.Estimator.InitialAverage,
	}

	var reconOpts []reconciler.Option
	if policy == scheduler.GroupAdaptive {
		groups := config.NewJobGroupTable()
		groupEst := estimator.NewForGroups(groups, estOpts)
		schedOpts = append(schedOpts, scheduler.WithGroupEstimator(groupEst, groups))
		reconOpts = append(reconOpts, reconciler.WithEstimator(cfg.Estimator.Type, groupEst))
	} else if policy == scheduler.Adaptive {
		appEst, err := estimator.New(estimator.Kind(cfg.Estimator.Type), catalog.Names(), estOpts)
		if err != nil {
			return err
		}
		schedOpts = append(schedOpts, scheduler.WithAppEstimator(appEst))
		reconOpts = append(reconOpts, reconciler.WithEstimator(cfg.Estimator.Type, appEst))
	}
	reconOpts = append(reconOpts, reconciler.WithHistory(hist))

	sched := scheduler.New(c, queue, rm, launch, broker, policy, schedOpts...)
	reconOpts = append(reconOpts,
		reconciler.WithRateRecorder(sched.RecordRate),
		reconciler.WithHealthChecker(checker),
	)
	recon := reconciler.New(c, samp, reconcileInterval, reconOpts...)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	sched.Start(runCtx)
	recon.Start(runCtx)
	logger.Info().Str("policy", string(policy)).Int("queued", queue.Len()).Msg("scheduler started")

	statusServer := statusapi.NewServer(c, queue, checker)
	go func() {
		if err := statusServer.ListenAndServe(statusAddr); err != nil {
			logger.Error().Err(err).Msg("status server exited")
		}
	}()
	logger.Info().Str("addr", statusAddr).Msg("status endpoint listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("shutting down")
	case <-sched.Done():
		logger.Info().Msg("queue drained and every application finished, shutting down")
	}

	sched.Stop()
	recon.Stop()
	return nil
}

func buildResourceManager(cfg config.ResourceManagerConfig) (resourcemanager.ResourceManager, error) {
	switch cfg.Type {
	case "", "dummy":
		nodeCount, _ := cfg.Kwargs["node_count"].(int)
		containers, _ := cfg.Kwargs["containers"].(int)
		if nodeCount == 0 {
			nodeCount = 4
		}
		if containers == 0 {
			containers = 4
		}
		return resourcemanager.NewDummyClient(nodeCount, containers), nil
	case "yarn":
		baseURL, _ := cfg.Kwargs["base_url"].(string)
		if baseURL == "" {
			return nil, fmt.Errorf("resource_manager: yarn requires kwargs.base_url")
		}
		return resourcemanager.NewClient(baseURL), nil
	default:
		return nil, fmt.Errorf("resource_manager: unknown type %q", cfg.Type)
	}
}

func buildSampler(cfg config.StatCollectorConfig, server config.ServerConfig) (cluster.UsageSampler, error) {
	switch cfg.Type {
	case "", "dummy":
		return sampler.NewDummyCollector(), nil
	case "influxdb":
		baseURL, _ := cfg.Kwargs["base_url"].(string)
		if baseURL == "" {
			return nil, fmt.Errorf("stat_collector: influxdb requires kwargs.base_url")
		}
		return sampler.NewSampler(baseURL, server.DiskMax, server.NetMax), nil
	default:
		return nil, fmt.Errorf("stat_collector: unknown type %q", cfg.Type)
	}
}

// buildNodes merges the resource manager's node/capacity discovery with the
// config file's static slot assignments, in address order for determinism.
func buildNodes(nodeCapacity map[string]int, slots map[string]string) []*types.Node {
	addrs := make([]string, 0, len(nodeCapacity))
	for addr := range nodeCapacity {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	nodes := make([]*types.Node, 0, len(addrs))
	for _, addr := range addrs {
		nodes = append(nodes, types.NewNode(addr, slots[addr], nodeCapacity[addr]))
	}
	return nodes
}

// flinkLauncher builds an application.Launcher that renders and would
// submit a job template's Flink command line for app, scratching its temp
// path under dataDir. It shells out nowhere by itself: command submission
// is the resource manager's concern, this only prepares the invocation the
// real cluster exec path would run.
func flinkLauncher(catalog *workload.Catalog, dataDir string) func(app *types.Application) error {
	return func(app *types.Application) error {
		tmpl, ok := catalog.Job(app.Name)
		if !ok {
			return fmt.Errorf("launch %s: no job template in catalog", app.Name)
		}
		tempPath := fmt.Sprintf("%s/tmp/%s", dataDir, app.ID)
		cmd := tmpl.CommandLine(app, tempPath)
		log.WithApplication(app.ID).Info().Strs("cmd", cmd).Msg("submitting application")
		return nil
	}
}
