package jobs

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHistoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE job_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			outcome TEXT,
			detail TEXT
		)`)
	require.NoError(t, err)

	return db
}

func TestRecordAndRecent(t *testing.T) {
	db := setupHistoryDB(t)
	repo := NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	repo.Record("warmup", base, base.Add(time.Second), OutcomeOK, "")
	repo.Record("warmup", base.Add(time.Hour), base.Add(time.Hour+time.Second), OutcomeError, "store unavailable")
	repo.Record("backup", base, base.Add(time.Minute), OutcomeOK, "")

	runs, err := repo.Recent("warmup", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first
	assert.Equal(t, OutcomeError, runs[0].Outcome)
	assert.Equal(t, "store unavailable", runs[0].Detail)
	assert.Equal(t, OutcomeOK, runs[1].Outcome)
	assert.Equal(t, base, runs[1].StartedAt)
	require.NotNil(t, runs[1].FinishedAt)
	assert.Equal(t, base.Add(time.Second), *runs[1].FinishedAt)
}

func TestRecent_Limit(t *testing.T) {
	db := setupHistoryDB(t)
	repo := NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		repo.Record("warmup", base.Add(time.Duration(i)*time.Minute), base.Add(time.Duration(i)*time.Minute), OutcomeOK, "")
	}

	runs, err := repo.Recent("warmup", 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRecord_FailureIsSwallowed(t *testing.T) {
	db := setupHistoryDB(t)
	repo := NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))

	_, err := db.Exec("DROP TABLE job_runs")
	require.NoError(t, err)

	// Must not panic or error, recording is bookkeeping only
	repo.Record("warmup", time.Now(), time.Now(), OutcomeOK, "")
}
