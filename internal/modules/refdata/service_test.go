package refdata

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atheril/caseflow/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestWarehouse creates an in-memory warehouse with dimensions and a
// small bitemporal fact table.
func setupTestWarehouse(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE regions (code TEXT PRIMARY KEY, description TEXT NOT NULL);
		CREATE TABLE venues (
			code TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			region_code TEXT
		);
		CREATE TABLE case_worker_profiles (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			display_name TEXT NOT NULL,
			role_category TEXT
		);
		CREATE TABLE task_facts (
			fact_id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_key TEXT NOT NULL,
			task_name TEXT,
			service TEXT,
			role_category TEXT,
			region TEXT,
			location TEXT,
			work_type TEXT,
			case_worker TEXT,
			status TEXT NOT NULL,
			priority INTEGER,
			due_date TEXT,
			created_date TEXT,
			completed_date TEXT,
			handling_minutes REAL,
			valid_from_snapshot_id INTEGER NOT NULL,
			valid_to_snapshot_id INTEGER
		);
	`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO regions (code, description) VALUES
			('N', 'North'), ('S', 'South');
		INSERT INTO venues (code, description, region_code) VALUES
			('V1', 'Harbour office', 'N');
		INSERT INTO case_worker_profiles (id, username, display_name, role_category) VALUES
			('7d444840-9dc0-11d1-b245-5ffdce74fad2', 'jdoe', 'J. Doe', 'inspector'),
			('not-a-uuid', 'broken', 'Broken Row', 'inspector');
	`)
	require.NoError(t, err)

	return db
}

func insertFact(t *testing.T, db *sql.DB, service, region, status string, validFrom int64, validTo interface{}) {
	_, err := db.Exec(`
		INSERT INTO task_facts
			(task_key, task_name, service, region, status, valid_from_snapshot_id, valid_to_snapshot_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"T-"+service+region, "Check", service, region, status, validFrom, validTo)
	require.NoError(t, err)
}

func newTestService(t *testing.T, db *sql.DB, cache Cache) *Service {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewService(cache, NewRepository(db, log), NewOptionsRepository(db, log), log)
}

func TestService_RegionsCachedAfterFirstRead(t *testing.T) {
	db := setupTestWarehouse(t)
	defer db.Close()

	cache := NewTTLCache(time.Minute, domain.SystemClock{})
	svc := newTestService(t, db, cache)

	regions, err := svc.Regions()
	require.NoError(t, err)
	require.Len(t, regions, 2)

	// Second read is served from cache even if the table goes away
	_, err = db.Exec("DROP TABLE regions")
	require.NoError(t, err)

	regions, err = svc.Regions()
	require.NoError(t, err)
	assert.Len(t, regions, 2)
}

func TestService_ProfilesSkipMalformedIDs(t *testing.T) {
	db := setupTestWarehouse(t)
	defer db.Close()

	svc := newTestService(t, db, NewTTLCache(time.Minute, domain.SystemClock{}))

	profiles, err := svc.Profiles()
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "jdoe", profiles[0].Username)
}

func TestService_LabelLookupsFallBackToRawValue(t *testing.T) {
	db := setupTestWarehouse(t)
	defer db.Close()

	svc := newTestService(t, db, NewTTLCache(time.Minute, domain.SystemClock{}))

	assert.Equal(t, "North", svc.RegionDescription("N"))
	assert.Equal(t, "X9", svc.RegionDescription("X9"))
	assert.Equal(t, "Harbour office", svc.VenueDescription("V1"))
	assert.Equal(t, "J. Doe", svc.WorkerDisplayName("jdoe"))
	assert.Equal(t, "ghost", svc.WorkerDisplayName("ghost"))
}

func TestOptions_ScopedToSnapshot(t *testing.T) {
	db := setupTestWarehouse(t)
	defer db.Close()

	// Visible at snapshot 10; the Facilities version expired at snapshot 10
	insertFact(t, db, "Maintenance", "N", "Open", 5, nil)
	insertFact(t, db, "Facilities", "S", "Open", 5, int64(10))

	svc := newTestService(t, db, NewTTLCache(time.Minute, domain.SystemClock{}))

	opts, err := svc.Options(10, DefaultVariant)
	require.NoError(t, err)
	assert.Equal(t, []string{"Maintenance"}, opts.Services)
	assert.Equal(t, []string{"N"}, opts.Regions)

	// At snapshot 9 the expired version is still visible
	opts9, err := svc.Options(9, DefaultVariant)
	require.NoError(t, err)
	assert.Equal(t, []string{"Facilities", "Maintenance"}, opts9.Services)
}

func TestOptions_DefaultVariantHidesCancelled(t *testing.T) {
	db := setupTestWarehouse(t)
	defer db.Close()

	insertFact(t, db, "Maintenance", "N", "Open", 1, nil)
	insertFact(t, db, "Disposal", "S", "Cancelled", 1, nil)

	svc := newTestService(t, db, NewTTLCache(time.Minute, domain.SystemClock{}))

	opts, err := svc.Options(1, DefaultVariant)
	require.NoError(t, err)
	assert.Equal(t, []string{"Maintenance"}, opts.Services)

	all, err := svc.Options(1, "all")
	require.NoError(t, err)
	assert.Equal(t, []string{"Disposal", "Maintenance"}, all.Services)
}

func TestSpill_RoundTripKeepsEntriesAndExpiry(t *testing.T) {
	db := setupTestWarehouse(t)
	defer db.Close()

	clock := &tickClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	cache := NewTTLCache(10*time.Minute, clock)
	svc := newTestService(t, db, cache)
	log := zerolog.New(nil).Level(zerolog.Disabled)

	insertFact(t, db, "Maintenance", "N", "Open", 1, nil)
	_, err := svc.Regions()
	require.NoError(t, err)

	// Stagger the two entries 4 minutes apart
	clock.advance(4 * time.Minute)
	_, err = svc.Options(1, DefaultVariant)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "spill.msgpack")
	SpillCache(cache, path, log)

	// Fresh cache sharing the same clock, re-seeded from the spill
	restored := NewTTLCache(10*time.Minute, clock)
	require.NoError(t, LoadSpill(restored, path, log))

	v, ok := restored.Get(KeyRegions)
	require.True(t, ok)
	regions, ok := v.([]domain.Region)
	require.True(t, ok)
	assert.Len(t, regions, 2)

	optsKey := restored.ScopedKey(KeyFilterOptions, 1)
	v, ok = restored.Get(optsKey)
	require.True(t, ok)
	opts, ok := v.(*FilterOptions)
	require.True(t, ok)
	assert.Equal(t, []string{"Maintenance"}, opts.Services)

	// Each spilled entry keeps its own original expiry: the regions entry is
	// now 10 minutes old and expires, the younger options entry does not.
	clock.advance(6 * time.Minute)
	_, ok = restored.Get(KeyRegions)
	assert.False(t, ok)
	_, ok = restored.Get(optsKey)
	assert.True(t, ok)
}

func TestLoadSpill_MissingFileIsNotAnError(t *testing.T) {
	cache := NewTTLCache(time.Minute, domain.SystemClock{})
	log := zerolog.New(nil).Level(zerolog.Disabled)

	assert.NoError(t, LoadSpill(cache, filepath.Join(t.TempDir(), "absent.msgpack"), log))
}
