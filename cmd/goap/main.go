// Package main provides the planner CLI: it loads action catalogues, plans a
// route to a named goal and executes the plan.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/goap/internal/catalog"
	"github.com/cory-johannsen/goap/internal/config"
	"github.com/cory-johannsen/goap/internal/execution"
	"github.com/cory-johannsen/goap/internal/goap"
	"github.com/cory-johannsen/goap/internal/observability"
	"github.com/cory-johannsen/goap/internal/scripting"
	"github.com/cory-johannsen/goap/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file; empty = defaults and environment only")
	catalogID := flag.String("catalog", "", "catalogue ID to plan in; may be omitted when exactly one is loaded")
	goalName := flag.String("goal", "", "goal name declared by the catalogue (required)")
	direction := flag.String("direction", "forward", "search direction: forward or backward")
	planOnly := flag.Bool("plan-only", false, "print the plan without executing it")
	format := flag.String("format", "text", "output format: text or json")
	flag.Parse()

	if *goalName == "" {
		flag.Usage()
		os.Exit(1)
	}
	dir, err := parseDirection(*direction)
	if err != nil {
		log.Fatal(err)
	}
	if *format != "text" && *format != "json" {
		log.Fatalf("invalid format %q: must be 'text' or 'json'", *format)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	var searchRec goap.SearchRecorder
	var execRec execution.Recorder
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
		searchRec, execRec = metrics, metrics
	}

	catalogs, err := loadCatalogs(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("loading catalogues", zap.Error(err))
	}
	logger.Info("catalogues loaded",
		zap.String("source", cfg.Catalog.Source),
		zap.Int("count", len(catalogs)),
	)

	scripts := scripting.NewManager(logger)
	defer scripts.Close()
	registry, err := buildRegistry(catalogs, scripts, cfg.Scripting, logger)
	if err != nil {
		logger.Fatal("building catalogues", zap.Error(err))
	}

	domain, err := selectDomain(registry, *catalogID)
	if err != nil {
		logger.Fatal("selecting catalogue", zap.Error(err))
	}

	planner := goap.NewPlanner(logger, searchRec, goap.Settings{
		Options: goap.Options{
			Pruning:      cfg.Planner.Pruning,
			MaxNodes:     cfg.Planner.MaxNodes,
			ReuseActions: cfg.Planner.ReuseActions,
		},
		Timeout: cfg.Planner.SearchTimeout,
	})
	plan, planErr := planFor(ctx, planner, domain, *goalName, dir)

	var report *execution.Report
	var execErr error
	if planErr == nil && !*planOnly {
		executor := execution.NewExecutor(logger, execRec, execution.Settings{
			PollInterval: cfg.Executor.PollInterval,
			MaxPolls:     cfg.Executor.MaxPolls,
		})
		r, err := executor.ExecutePlan(ctx, plan.Actions)
		report, execErr = &r, err
	}

	if metrics != nil {
		flushMetrics(metrics, cfg.Metrics, logger)
	}

	if planErr != nil {
		logger.Fatal("planning failed",
			zap.String("catalog", domain.Catalog.ID),
			zap.String("goal", *goalName),
			zap.Error(planErr),
		)
	}
	if err := writeResult(os.Stdout, *format, domain, *goalName, plan, report); err != nil {
		logger.Fatal("writing result", zap.Error(err))
	}
	if execErr != nil {
		logger.Fatal("execution failed", zap.Error(execErr))
	}
	logger.Info("done", zap.Duration("elapsed", time.Since(start)))
}

// loadCatalogs reads every catalogue from the configured source.
func loadCatalogs(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]*catalog.Catalog, error) {
	if cfg.Catalog.Source != "postgres" {
		return catalog.LoadCatalogs(cfg.Catalog.Dir)
	}
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	if err := pool.Health(ctx, postgres.DefaultHealthTimeout); err != nil {
		logger.Error("database unhealthy", zap.String("host", cfg.Database.Host), zap.Error(err))
		return nil, err
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	return postgres.NewCatalogRepository(pool.DB()).LoadAll(ctx)
}

// flushMetrics delivers the final metrics to the configured sinks. Delivery
// failures are logged and do not change the exit status.
func flushMetrics(m *observability.Metrics, cfg config.MetricsConfig, logger *zap.Logger) {
	if cfg.Textfile != "" {
		if err := m.WriteTextfile(cfg.Textfile); err != nil {
			logger.Warn("writing metrics textfile", zap.Error(err))
		}
	}
	if cfg.PushURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.Push(ctx, cfg.PushURL, cfg.Job); err != nil {
			logger.Warn("pushing metrics", zap.Error(err))
		}
	}
}
