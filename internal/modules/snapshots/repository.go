// Package snapshots reads the snapshot catalog of the warehouse. Snapshots
// are created by the external extraction batch; this application only reads
// them.
package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/atheril/caseflow/internal/domain"
)

// Repository handles snapshot catalog queries
type Repository struct {
	warehouseDB *sql.DB
	log         zerolog.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(warehouseDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		warehouseDB: warehouseDB,
		log:         log.With().Str("repo", "snapshots").Logger(),
	}
}

const snapshotColumns = `id, as_of_date, published_at, published`

// GetPublished returns the currently published snapshot, or nil when no
// snapshot is published yet (a fresh warehouse). Not an error.
func (r *Repository) GetPublished() (*domain.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots WHERE published = 1 ORDER BY id DESC LIMIT 1"

	rows, err := r.warehouseDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query published snapshot: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	snap, err := scanSnapshot(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	return &snap, nil
}

// GetByID returns a snapshot by id, nil when unknown
func (r *Repository) GetByID(id int64) (*domain.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots WHERE id = ?"

	rows, err := r.warehouseDB.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	snap, err := scanSnapshot(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	return &snap, nil
}

// List returns all snapshots, newest first
func (r *Repository) List() ([]domain.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots ORDER BY id DESC"

	rows, err := r.warehouseDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot rows iteration failed: %w", err)
	}
	return out, nil
}

func scanSnapshot(rows *sql.Rows) (domain.Snapshot, error) {
	var snap domain.Snapshot
	var publishedAt sql.NullString
	var published int

	if err := rows.Scan(&snap.ID, &snap.AsOfDate, &publishedAt, &published); err != nil {
		return domain.Snapshot{}, err
	}

	snap.Published = published == 1
	if publishedAt.Valid && publishedAt.String != "" {
		if t, err := time.Parse(time.RFC3339, publishedAt.String); err == nil {
			snap.PublishedAt = &t
		}
	}

	return snap, nil
}
