package refdata

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atheril/caseflow/internal/domain"
)

// CaseWorkerProfile is one row of the case-worker dimension
type CaseWorkerProfile struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	RoleCategory string    `json:"role_category"`
}

// Repository reads the reference dimensions from the warehouse
type Repository struct {
	warehouseDB *sql.DB
	log         zerolog.Logger
}

// NewRepository creates a new reference-data repository
func NewRepository(warehouseDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		warehouseDB: warehouseDB,
		log:         log.With().Str("repo", "refdata").Logger(),
	}
}

// GetRegions returns all regions ordered by code
func (r *Repository) GetRegions() ([]domain.Region, error) {
	rows, err := r.warehouseDB.Query("SELECT code, description FROM regions ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	var out []domain.Region
	for rows.Next() {
		var region domain.Region
		if err := rows.Scan(&region.Code, &region.Description); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		out = append(out, region)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("region rows iteration failed: %w", err)
	}
	return out, nil
}

// GetVenues returns all venues ordered by code
func (r *Repository) GetVenues() ([]domain.Venue, error) {
	rows, err := r.warehouseDB.Query(
		"SELECT code, description, COALESCE(region_code, '') FROM venues ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer rows.Close()

	var out []domain.Venue
	for rows.Next() {
		var venue domain.Venue
		if err := rows.Scan(&venue.Code, &venue.Description, &venue.RegionCode); err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		out = append(out, venue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("venue rows iteration failed: %w", err)
	}
	return out, nil
}

// GetProfiles returns all case-worker profiles ordered by username.
// Rows with unparseable ids are skipped with a warning rather than failing
// the whole load.
func (r *Repository) GetProfiles() ([]CaseWorkerProfile, error) {
	rows, err := r.warehouseDB.Query(
		"SELECT id, username, display_name, COALESCE(role_category, '') FROM case_worker_profiles ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to query case worker profiles: %w", err)
	}
	defer rows.Close()

	var out []CaseWorkerProfile
	for rows.Next() {
		var rawID string
		var profile CaseWorkerProfile
		if err := rows.Scan(&rawID, &profile.Username, &profile.DisplayName, &profile.RoleCategory); err != nil {
			return nil, fmt.Errorf("failed to scan case worker profile: %w", err)
		}

		id, err := uuid.Parse(rawID)
		if err != nil {
			r.log.Warn().Str("id", rawID).Str("username", profile.Username).
				Msg("Skipping profile with malformed id")
			continue
		}
		profile.ID = id
		out = append(out, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profile rows iteration failed: %w", err)
	}
	return out, nil
}
