// Package scheduler runs the recurring reference-data warmup.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/atheril/caseflow/internal/domain"
	"github.com/atheril/caseflow/internal/modules/refdata"
)

// ErrInFlight is returned when a warmup trigger fires while a previous run
// has not resolved yet. The trigger is skipped, not queued.
var ErrInFlight = errors.New("warmup already in flight")

// SnapshotSource resolves the currently published snapshot
type SnapshotSource interface {
	GetPublished() (*domain.Snapshot, error)
}

// Refresher hits the backing store and overwrites the cache
type Refresher interface {
	RefreshRegions() ([]domain.Region, error)
	RefreshVenues() ([]domain.Venue, error)
	RefreshProfiles() ([]refdata.CaseWorkerProfile, error)
	RefreshOptions(snapshotID int64, variant string) (*refdata.FilterOptions, error)
}

// RunRecorder stores job run history. May be nil.
type RunRecorder interface {
	Record(job string, startedAt, finishedAt time.Time, outcome, detail string)
}

type multiRecorder []RunRecorder

func (m multiRecorder) Record(job string, startedAt, finishedAt time.Time, outcome, detail string) {
	for _, r := range m {
		r.Record(job, startedAt, finishedAt, outcome, detail)
	}
}

// MultiRecorder fans one run out to several recorders, skipping nil entries
func MultiRecorder(recorders ...RunRecorder) RunRecorder {
	out := make(multiRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// WarmupScheduler keeps the reference cache warm: one run at startup, then
// recurring runs on a cron schedule. At most one run is in flight at a time.
type WarmupScheduler struct {
	refresher Refresher
	snapshots SnapshotSource
	history   RunRecorder
	schedule  string
	variants  []string
	clock     domain.Clock
	log       zerolog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
	running bool
}

// NewWarmupScheduler creates a warmup scheduler. variants lists the
// non-default filter-option variants to precompute alongside the default.
func NewWarmupScheduler(
	refresher Refresher,
	snapshots SnapshotSource,
	history RunRecorder,
	schedule string,
	variants []string,
	clock domain.Clock,
	log zerolog.Logger,
) *WarmupScheduler {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &WarmupScheduler{
		refresher: refresher,
		snapshots: snapshots,
		history:   history,
		schedule:  schedule,
		variants:  variants,
		clock:     clock,
		log:       log.With().Str("service", "warmup-scheduler").Logger(),
	}
}

// Start validates the cron expression, registers the recurring job and kicks
// off an immediate warmup run. Calling Start on an already started scheduler
// is a no-op.
func (s *WarmupScheduler) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		s.log.Debug().Msg("Warmup scheduler already started, ignoring")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Str("schedule", s.schedule).Msg("Invalid warmup cron expression, scheduler not started")
		return fmt.Errorf("invalid warmup schedule %q: %w", s.schedule, err)
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(); err != nil && !errors.Is(err, ErrInFlight) {
			s.log.Error().Err(err).Msg("Scheduled warmup run failed")
		}
	}); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to register warmup job: %w", err)
	}

	s.cron.Start()
	s.started = true
	s.mu.Unlock()

	s.log.Info().Str("schedule", s.schedule).Msg("Warmup scheduler started")

	// Startup run so the first request after boot hits a warm cache.
	go func() {
		if err := s.RunOnce(); err != nil && !errors.Is(err, ErrInFlight) {
			s.log.Error().Err(err).Msg("Startup warmup run failed")
		}
	}()

	return nil
}

// Stop halts the recurring schedule and waits for an in-flight run started by
// the cron to finish. Safe to call on a scheduler that never started.
func (s *WarmupScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	wasStarted := s.started
	s.started = false
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	if wasStarted {
		s.log.Info().Msg("Warmup scheduler stopped")
	}
}

// RunOnce executes a single warmup run. If a run is already in flight the
// trigger is skipped and ErrInFlight returned.
func (s *WarmupScheduler) RunOnce() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn().Msg("Warmup run already in flight, skipping trigger")
		if s.history != nil {
			now := s.clock.Now()
			s.history.Record("warmup", now, now, "skipped", "previous run still in flight")
		}
		return ErrInFlight
	}
	s.running = true
	s.mu.Unlock()

	startedAt := s.clock.Now()
	outcome, detail := "ok", ""

	defer func() {
		if r := recover(); r != nil {
			outcome = "error"
			detail = fmt.Sprintf("panic: %v", r)
			s.log.Error().Interface("panic", r).Msg("Warmup run panicked")
		}
		if s.history != nil {
			s.history.Record("warmup", startedAt, s.clock.Now(), outcome, detail)
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	errCount := s.warm()
	if errCount > 0 {
		outcome = "error"
		detail = fmt.Sprintf("%d refresh step(s) failed", errCount)
	}

	s.log.Info().
		Int("errors", errCount).
		Dur("took", s.clock.Now().Sub(startedAt)).
		Msg("Warmup run finished")
	return nil
}

// warm refreshes every cache entry, continuing past individual failures.
// Returns the number of failed steps.
func (s *WarmupScheduler) warm() int {
	errCount := 0

	if _, err := s.refresher.RefreshRegions(); err != nil {
		errCount++
		s.log.Error().Err(err).Msg("Failed to warm regions")
	}
	if _, err := s.refresher.RefreshVenues(); err != nil {
		errCount++
		s.log.Error().Err(err).Msg("Failed to warm venues")
	}
	if _, err := s.refresher.RefreshProfiles(); err != nil {
		errCount++
		s.log.Error().Err(err).Msg("Failed to warm case worker profiles")
	}

	snapshot, err := s.snapshots.GetPublished()
	if err != nil {
		errCount++
		s.log.Error().Err(err).Msg("Failed to resolve published snapshot for warmup")
		return errCount
	}
	if snapshot == nil {
		// Filter options are snapshot scoped, nothing to precompute yet.
		s.log.Debug().Msg("No published snapshot, skipping filter option warmup")
		return errCount
	}

	variants := append([]string{refdata.DefaultVariant}, s.variants...)
	seen := make(map[string]bool, len(variants))
	for _, variant := range variants {
		if seen[variant] {
			continue
		}
		seen[variant] = true

		if !refdata.KnownVariant(variant) {
			s.log.Warn().Str("variant", variant).Msg("Skipping unknown filter option variant")
			continue
		}
		if _, err := s.refresher.RefreshOptions(snapshot.ID, variant); err != nil {
			errCount++
			s.log.Error().Err(err).Str("variant", variant).Int64("snapshot_id", snapshot.ID).
				Msg("Failed to warm filter options")
		}
	}

	return errCount
}
