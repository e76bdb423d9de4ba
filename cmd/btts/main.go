package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fortuna/btts/internal/cache"
	"github.com/fortuna/btts/internal/catalog"
	"github.com/fortuna/btts/internal/config"
	"github.com/fortuna/btts/internal/ingest/apifootball"
	"github.com/fortuna/btts/internal/model"
	"github.com/fortuna/btts/internal/notify"
	"github.com/fortuna/btts/internal/notify/telegram"
	"github.com/fortuna/btts/internal/picks"
	"github.com/fortuna/btts/internal/pipeline"
	"github.com/fortuna/btts/internal/publisher"
	"github.com/fortuna/btts/internal/report"
	"github.com/fortuna/btts/internal/scoring"
	"github.com/fortuna/btts/internal/selector"
	"github.com/fortuna/btts/internal/store"
	"github.com/fortuna/btts/internal/store/repository"
)

const (
	serviceName    = "btts"
	serviceVersion = "1.0.0"
)

// Exit codes.
const (
	exitOK             = 0
	exitFailure        = 1 // configuration or delivery failure
	exitUpstreamFailed = 2 // report delivered, every fixture query failed
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Fprintf(os.Stdout, "%s v%s: daily BTTS picks, configured from the environment.\n\n%s", serviceName, serviceVersion, config.Usage())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stdout))
}

func run(ctx context.Context, stdout io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		setupLogger(config.EnvProd, stdout).Error("failed to load configuration", "error", err)
		return exitFailure
	}

	logger := setupLogger(cfg.Env, stdout)
	logger.Info("starting", "service", serviceName, "version", serviceVersion, "dry_run", cfg.DryRun)

	now := time.Now()
	competitions := loadCompetitions(ctx, cfg, logger)

	sel, err := selector.New(cfg.SelectorConfig(competitions), logger)
	if err != nil {
		logger.Error("invalid selector configuration", "error", err)
		return exitFailure
	}
	picker, err := picks.NewSelector(cfg.PicksConfig())
	if err != nil {
		logger.Error("invalid pick configuration", "error", err)
		return exitFailure
	}

	client := apifootball.New(cfg.ClientConfig(), logger)
	var stats pipeline.StatsSource = client
	var pub pipeline.Publisher

	if cfg.RedisURL != "" {
		redisCache, err := connectRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without statistics cache and picks stream", "error", err)
		} else {
			defer redisCache.Close()
			stats = cache.NewStatsCache(client, redisCache, now, cfg.StatsCacheTTL, logger)
			if !cfg.DryRun {
				pub = publisher.NewRedisStreamPublisher(redisCache.Client(), cfg.PicksStream, publisher.LatestOnly)
			}
			logger.Info("✓ connected to redis")
		}
	}

	var notifier notify.Notifier
	if cfg.DryRun {
		notifier = &notify.Console{W: stdout}
	} else {
		tg, err := telegram.New(cfg.TelegramConfig(), logger)
		if err != nil {
			logger.Error("failed to set up telegram", "error", err)
			return exitFailure
		}
		notifier = tg
	}

	runner, err := pipeline.NewRunner(pipeline.Deps{
		Fixtures:  client,
		Stats:     stats,
		Notifier:  notifier,
		Publisher: pub,
		Selector:  sel,
		Engine:    scoring.NewEngine(cfg.Profile()),
		Picker:    picker,
		Formatter: report.NewFormatter(cfg.ReportConfig()),
		Clock:     func() time.Time { return now },
		Season:    cfg.SeasonFor(now),
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		return exitFailure
	}

	res, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, telegram.ErrDelivery) {
			logger.Error("report was not delivered", "error", err)
		}
		return exitFailure
	}
	if res.UpstreamFailed() {
		logger.Warn("fixture source failed for every query date", "dates", res.QueryDates)
		return exitUpstreamFailed
	}
	return exitOK
}

// loadCompetitions reads the active catalog from CATALOG_DSN, falling back to
// the built-in table when unset or unreachable.
func loadCompetitions(ctx context.Context, cfg *config.Config, logger *slog.Logger) map[int]model.Competition {
	builtin := catalog.Default()
	if cfg.CatalogDSN == "" {
		return catalog.Index(builtin)
	}

	db, err := store.NewDatabase(cfg.CatalogDSN, logger)
	if err != nil {
		logger.Warn("catalog unavailable, using built-in competitions", "error", err)
		return catalog.Index(builtin)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		logger.Warn("catalog migrations failed, using built-in competitions", "error", err)
		return catalog.Index(builtin)
	}
	if _, err := db.SeedData(ctx, builtin); err != nil {
		logger.Warn("catalog seed failed", "error", err)
	}

	repo := repository.NewCompetitionRepository(db)
	applyCatalogOverrides(ctx, repo, cfg, logger)

	active, err := repo.Active(ctx)
	if err != nil || len(active) == 0 {
		logger.Warn("catalog empty or unreadable, using built-in competitions", "error", err)
		return catalog.Index(builtin)
	}

	logger.Info("✓ catalog loaded", "competitions", len(active))
	return active
}

// applyCatalogOverrides marks CATALOG_ENABLE / CATALOG_DISABLE competitions
// in the catalog. Unknown IDs are logged and skipped.
func applyCatalogOverrides(ctx context.Context, repo *repository.CompetitionRepository, cfg *config.Config, logger *slog.Logger) {
	apply := func(ids []int, active bool) {
		for _, id := range ids {
			c, current, err := repo.GetByID(ctx, id)
			if err != nil {
				logger.Warn("catalog override skipped", "competition", id, "error", err)
				continue
			}
			if current == active {
				continue
			}
			if err := repo.SetActive(ctx, id, active); err != nil {
				logger.Warn("catalog override failed", "competition", id, "error", err)
				continue
			}
			logger.Info("catalog updated", "competition", c.DisplayName(), "active", active)
		}
	}
	apply(cfg.CatalogEnable, true)
	apply(cfg.CatalogDisable, false)
}

// connectRedis retries briefly; the job runs once and must not stall on an
// optional dependency.
func connectRedis(ctx context.Context, url string, logger *slog.Logger) (*cache.RedisCache, error) {
	const attempts = 3
	delay := time.Second

	var lastErr error
	for i := 0; i < attempts; i++ {
		rc, err := cache.NewRedisCache(url)
		if err == nil {
			return rc, nil
		}
		lastErr = err
		if i < attempts-1 {
			logger.Warn("redis connection attempt failed", "attempt", i+1, "of", attempts, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, lastErr
}

// setupLogger returns a text logger for local runs and a JSON logger for dev
// (debug) and prod (info).
func setupLogger(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler
	switch env {
	case config.EnvLocal:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	case config.EnvDev:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler).With("service", serviceName)
}
