// Package jobs records background run history (warmup, backup) in the
// job-history database for operational visibility.
package jobs

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Run outcomes
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Run is one recorded background run
type Run struct {
	ID         int64      `json:"id"`
	Job        string     `json:"job"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Outcome    string     `json:"outcome"`
	Detail     string     `json:"detail,omitempty"`
}

// Repository stores job runs
type Repository struct {
	historyDB *sql.DB
	log       zerolog.Logger
}

// NewRepository creates a new job-run repository
func NewRepository(historyDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		historyDB: historyDB,
		log:       log.With().Str("repo", "jobs").Logger(),
	}
}

// Record stores one finished run. Bookkeeping only: failures are logged and
// swallowed so they can never fail the job they describe.
func (r *Repository) Record(job string, startedAt, finishedAt time.Time, outcome, detail string) {
	_, err := r.historyDB.Exec(`
		INSERT INTO job_runs (job, started_at, finished_at, outcome, detail)
		VALUES (?, ?, ?, ?, ?)`,
		job, startedAt.UTC().Format(time.RFC3339), finishedAt.UTC().Format(time.RFC3339),
		outcome, detail)
	if err != nil {
		r.log.Warn().Err(err).Str("job", job).Msg("Failed to record job run")
	}
}

// Recent returns the latest runs for one job, newest first
func (r *Repository) Recent(job string, limit int) ([]Run, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := r.historyDB.Query(`
		SELECT id, job, started_at, finished_at, COALESCE(outcome, ''), COALESCE(detail, '')
		FROM job_runs WHERE job = ? ORDER BY id DESC LIMIT ?`, job, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query job runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var started, finished sql.NullString
		if err := rows.Scan(&run.ID, &run.Job, &started, &finished, &run.Outcome, &run.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		if started.Valid {
			if t, err := time.Parse(time.RFC3339, started.String); err == nil {
				run.StartedAt = t
			}
		}
		if finished.Valid && finished.String != "" {
			if t, err := time.Parse(time.RFC3339, finished.String); err == nil {
				run.FinishedAt = &t
			}
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
