// Package main is the entry point for the Caseflow analytics service.
// Caseflow serves task-lifecycle analytics over a snapshot-versioned
// warehouse: every request resolves a snapshot and every number it returns
// is consistent with that snapshot.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/atheril/caseflow/internal/config"
	"github.com/atheril/caseflow/internal/database"
	"github.com/atheril/caseflow/internal/domain"
	"github.com/atheril/caseflow/internal/modules/analytics"
	"github.com/atheril/caseflow/internal/modules/jobs"
	"github.com/atheril/caseflow/internal/modules/refdata"
	"github.com/atheril/caseflow/internal/modules/snapshots"
	"github.com/atheril/caseflow/internal/reliability"
	"github.com/atheril/caseflow/internal/scheduler"
	"github.com/atheril/caseflow/internal/server"
	"github.com/atheril/caseflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Caseflow")

	clock := domain.SystemClock{}

	// Databases. The warehouse is populated by the external extraction batch,
	// this service only reads it. Job history is our own bookkeeping.
	warehouseDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "warehouse.db"),
		Profile: database.ProfileWarehouse,
		Name:    "warehouse",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open warehouse database")
	}
	defer warehouseDB.Close()

	jobHistoryDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "jobhistory.db"),
		Profile: database.ProfileJobHistory,
		Name:    "jobhistory",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open job history database")
	}
	defer jobHistoryDB.Close()

	for _, db := range []*database.DB{warehouseDB, jobHistoryDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Failed to migrate database")
		}
		log.Info().Str("database", db.Name()).Str("path", db.Path()).Msg("Database ready")
	}

	// Repositories and services
	snapshotRepo := snapshots.NewRepository(warehouseDB.Conn(), log)
	jobsRepo := jobs.NewRepository(jobHistoryDB.Conn(), log)

	cache := refdata.NewTTLCache(cfg.CacheTTL(), clock)
	refdataRepo := refdata.NewRepository(warehouseDB.Conn(), log)
	optionsRepo := refdata.NewOptionsRepository(warehouseDB.Conn(), log)
	refdataSvc := refdata.NewService(cache, refdataRepo, optionsRepo, log)

	// Reload spilled cache entries from the previous run, respecting their age
	spillPath := cfg.CacheSpillPath
	if spillPath == "" {
		spillPath = filepath.Join(cfg.DataDir, "refcache.msgpack")
	}
	if err := refdata.LoadSpill(cache, spillPath, log); err != nil {
		log.Warn().Err(err).Msg("Failed to load cache spill, starting cold")
	}

	analyticsSvc := analytics.NewService(
		analytics.NewRepository(warehouseDB.Conn(), log),
		refdataSvc,
		clock,
		cfg.Location(),
		cfg.WithinThresholdDays,
		log,
	)

	// Warmup scheduler: recurring cache refresh plus a run at startup.
	// Completions are recorded to job history and pushed to websocket
	// subscribers.
	warmupNotifier := server.NewWarmupNotifier(log)
	warmupScheduler := scheduler.NewWarmupScheduler(
		refdataSvc,
		snapshotRepo,
		scheduler.MultiRecorder(jobsRepo, warmupNotifier),
		cfg.WarmupCron,
		cfg.FilterOptionVariants,
		clock,
		log,
	)
	if err := warmupScheduler.Start(); err != nil {
		log.Error().Err(err).Msg("Warmup scheduler disabled")
	}
	defer warmupScheduler.Stop()

	// Off-site backups, only when a bucket is configured
	var backupSvc *reliability.BackupService
	if cfg.Backup != nil && cfg.Backup.Bucket != "" {
		s3Client, err := reliability.NewS3Client(
			context.Background(),
			cfg.Backup.Bucket,
			cfg.Backup.Region,
			cfg.Backup.Prefix,
			log,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create S3 client, backups disabled")
		} else {
			backupSvc = reliability.NewBackupService(
				s3Client,
				[]*database.DB{warehouseDB, jobHistoryDB},
				cfg.DataDir,
				cfg.Backup.Cron,
				cfg.Backup.RetentionDays,
				jobsRepo,
				log,
			)
			if err := backupSvc.Start(); err != nil {
				log.Error().Err(err).Msg("Failed to start backup service")
				backupSvc = nil
			}
		}
	}

	srv := server.New(server.Config{
		Log:            log,
		Config:         cfg,
		WarehouseDB:    warehouseDB,
		JobHistoryDB:   jobHistoryDB,
		SnapshotRepo:   snapshotRepo,
		AnalyticsSvc:   analyticsSvc,
		RefdataSvc:     refdataSvc,
		JobsRepo:       jobsRepo,
		WarmupNotifier: warmupNotifier,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	warmupScheduler.Stop()
	if backupSvc != nil {
		backupSvc.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Spill the warm cache so the next start does not begin cold
	refdata.SpillCache(cache, spillPath, log)

	log.Info().Msg("Server stopped")
}
