package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atheril/caseflow/internal/domain"
	"github.com/atheril/caseflow/internal/modules/refdata"
)

type stubRefresher struct {
	mu       sync.Mutex
	regions  int
	venues   int
	profiles int
	options  []string
	block    chan struct{} // when set, RefreshRegions blocks until closed
	fail     bool
}

func (s *stubRefresher) RefreshRegions() ([]domain.Region, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions++
	if s.fail {
		return nil, errors.New("store unavailable")
	}
	return []domain.Region{{Code: "EU"}}, nil
}

func (s *stubRefresher) RefreshVenues() ([]domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues++
	return nil, nil
}

func (s *stubRefresher) RefreshProfiles() ([]refdata.CaseWorkerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles++
	return nil, nil
}

func (s *stubRefresher) RefreshOptions(snapshotID int64, variant string) (*refdata.FilterOptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = append(s.options, variant)
	return &refdata.FilterOptions{}, nil
}

func (s *stubRefresher) optionVariants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.options))
	copy(out, s.options)
	return out
}

type stubSnapshots struct {
	snapshot *domain.Snapshot
	err      error
}

func (s *stubSnapshots) GetPublished() (*domain.Snapshot, error) {
	return s.snapshot, s.err
}

type recordedRun struct {
	job     string
	outcome string
	detail  string
}

type stubRecorder struct {
	mu   sync.Mutex
	runs []recordedRun
}

func (s *stubRecorder) Record(job string, startedAt, finishedAt time.Time, outcome, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, recordedRun{job: job, outcome: outcome, detail: detail})
}

func (s *stubRecorder) recorded() []recordedRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedRun, len(s.runs))
	copy(out, s.runs)
	return out
}

func newTestScheduler(refresher *stubRefresher, snapshots *stubSnapshots, recorder RunRecorder, schedule string, variants []string) *WarmupScheduler {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewWarmupScheduler(refresher, snapshots, recorder, schedule, variants, domain.SystemClock{}, log)
}

func TestStart_InvalidCronExpression(t *testing.T) {
	s := newTestScheduler(&stubRefresher{}, &stubSnapshots{}, nil, "not a cron", nil)

	err := s.Start()
	require.Error(t, err)
	assert.False(t, s.started)
	assert.Nil(t, s.cron)
}

func TestStart_IsIdempotent(t *testing.T) {
	refresher := &stubRefresher{}
	s := newTestScheduler(refresher, &stubSnapshots{}, nil, "5 * * * *", nil)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 1)
}

func TestRunOnce_WarmsEverything(t *testing.T) {
	refresher := &stubRefresher{}
	snapshots := &stubSnapshots{snapshot: &domain.Snapshot{ID: 7, Published: true}}
	s := newTestScheduler(refresher, snapshots, nil, "5 * * * *", []string{"open-only"})

	require.NoError(t, s.RunOnce())

	assert.Equal(t, 1, refresher.regions)
	assert.Equal(t, 1, refresher.venues)
	assert.Equal(t, 1, refresher.profiles)
	assert.Equal(t, []string{refdata.DefaultVariant, "open-only"}, refresher.optionVariants())
}

func TestRunOnce_SkipsUnknownVariants(t *testing.T) {
	refresher := &stubRefresher{}
	snapshots := &stubSnapshots{snapshot: &domain.Snapshot{ID: 7, Published: true}}
	s := newTestScheduler(refresher, snapshots, nil, "5 * * * *", []string{"no-such-variant", "all"})

	require.NoError(t, s.RunOnce())

	assert.Equal(t, []string{refdata.DefaultVariant, "all"}, refresher.optionVariants())
}

func TestRunOnce_NoPublishedSnapshot(t *testing.T) {
	refresher := &stubRefresher{}
	s := newTestScheduler(refresher, &stubSnapshots{}, nil, "5 * * * *", nil)

	require.NoError(t, s.RunOnce())

	assert.Equal(t, 1, refresher.regions)
	assert.Empty(t, refresher.optionVariants())
}

func TestRunOnce_SecondTriggerIsSkipped(t *testing.T) {
	refresher := &stubRefresher{block: make(chan struct{})}
	snapshots := &stubSnapshots{snapshot: &domain.Snapshot{ID: 7, Published: true}}
	recorder := &stubRecorder{}
	s := newTestScheduler(refresher, snapshots, recorder, "5 * * * *", nil)

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.RunOnce() }()

	// Wait for the first run to take the in-flight slot.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.running
	}, time.Second, time.Millisecond)

	err := s.RunOnce()
	assert.ErrorIs(t, err, ErrInFlight)

	close(refresher.block)
	require.NoError(t, <-firstDone)

	runs := recorder.recorded()
	require.Len(t, runs, 2)
	assert.Equal(t, "skipped", runs[0].outcome)
	assert.Equal(t, "ok", runs[1].outcome)
}

func TestRunOnce_RecordsFailures(t *testing.T) {
	refresher := &stubRefresher{fail: true}
	recorder := &stubRecorder{}
	s := newTestScheduler(refresher, &stubSnapshots{}, recorder, "5 * * * *", nil)

	require.NoError(t, s.RunOnce())

	runs := recorder.recorded()
	require.Len(t, runs, 1)
	assert.Equal(t, "error", runs[0].outcome)
}

func TestStop_WithoutStart(t *testing.T) {
	s := newTestScheduler(&stubRefresher{}, &stubSnapshots{}, nil, "5 * * * *", nil)
	s.Stop()
	assert.False(t, s.started)
}
