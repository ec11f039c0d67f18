package refdata

import (
	"github.com/rs/zerolog"

	"github.com/atheril/caseflow/internal/domain"
)

// Service is the cached read path for reference data. Reads consult the
// cache first and fall back to the warehouse on a miss; refreshes bypass the
// cache and overwrite it, which is what the warmup routine calls.
type Service struct {
	cache       Cache
	repo        *Repository
	optionsRepo *OptionsRepository
	log         zerolog.Logger
}

// NewService creates a new reference-data service
func NewService(cache Cache, repo *Repository, optionsRepo *OptionsRepository, log zerolog.Logger) *Service {
	return &Service{
		cache:       cache,
		repo:        repo,
		optionsRepo: optionsRepo,
		log:         log.With().Str("service", "refdata").Logger(),
	}
}

// Regions returns the region dimension, cached
func (s *Service) Regions() ([]domain.Region, error) {
	if v, ok := s.cache.Get(KeyRegions); ok {
		if regions, ok := v.([]domain.Region); ok {
			return regions, nil
		}
	}
	return s.RefreshRegions()
}

// RefreshRegions fetches regions from the warehouse and overwrites the cache
func (s *Service) RefreshRegions() ([]domain.Region, error) {
	regions, err := s.repo.GetRegions()
	if err != nil {
		return nil, err
	}
	s.cache.Set(KeyRegions, regions)
	return regions, nil
}

// Venues returns the venue dimension, cached
func (s *Service) Venues() ([]domain.Venue, error) {
	if v, ok := s.cache.Get(KeyVenues); ok {
		if venues, ok := v.([]domain.Venue); ok {
			return venues, nil
		}
	}
	return s.RefreshVenues()
}

// RefreshVenues fetches venues from the warehouse and overwrites the cache
func (s *Service) RefreshVenues() ([]domain.Venue, error) {
	venues, err := s.repo.GetVenues()
	if err != nil {
		return nil, err
	}
	s.cache.Set(KeyVenues, venues)
	return venues, nil
}

// Profiles returns the case-worker dimension, cached
func (s *Service) Profiles() ([]CaseWorkerProfile, error) {
	if v, ok := s.cache.Get(KeyProfiles); ok {
		if profiles, ok := v.([]CaseWorkerProfile); ok {
			return profiles, nil
		}
	}
	return s.RefreshProfiles()
}

// RefreshProfiles fetches profiles from the warehouse and overwrites the cache
func (s *Service) RefreshProfiles() ([]CaseWorkerProfile, error) {
	profiles, err := s.repo.GetProfiles()
	if err != nil {
		return nil, err
	}
	s.cache.Set(KeyProfiles, profiles)
	return profiles, nil
}

// Options returns the filter-option set for a snapshot and variant, cached
// under a snapshot-scoped key.
func (s *Service) Options(snapshotID int64, variant string) (*FilterOptions, error) {
	key := s.optionsKey(snapshotID, variant)
	if v, ok := s.cache.Get(key); ok {
		if opts, ok := v.(*FilterOptions); ok {
			return opts, nil
		}
	}
	return s.RefreshOptions(snapshotID, variant)
}

// RefreshOptions derives the filter-option set and overwrites the cache
func (s *Service) RefreshOptions(snapshotID int64, variant string) (*FilterOptions, error) {
	opts, err := s.optionsRepo.GetOptions(snapshotID, variant)
	if err != nil {
		return nil, err
	}
	s.cache.Set(s.optionsKey(snapshotID, variant), opts)
	return opts, nil
}

func (s *Service) optionsKey(snapshotID int64, variant string) string {
	base := KeyFilterOptions
	if variant != "" && variant != DefaultVariant {
		base = KeyFilterOptions + "-" + variant
	}
	return s.cache.ScopedKey(base, snapshotID)
}

// RegionDescription resolves a region code to its description, falling back
// to the code itself. Lookup failures degrade to the code, never to an
// error: display mapping must not break a report.
func (s *Service) RegionDescription(code string) string {
	regions, err := s.Regions()
	if err != nil {
		s.log.Warn().Err(err).Msg("Region lookup failed, using raw code")
		return code
	}
	for _, region := range regions {
		if region.Code == code {
			return region.Description
		}
	}
	return code
}

// VenueDescription resolves a venue code to its description, falling back to
// the code itself.
func (s *Service) VenueDescription(code string) string {
	venues, err := s.Venues()
	if err != nil {
		s.log.Warn().Err(err).Msg("Venue lookup failed, using raw code")
		return code
	}
	for _, venue := range venues {
		if venue.Code == code {
			return venue.Description
		}
	}
	return code
}

// WorkerDisplayName resolves a case-worker username to a display name,
// falling back to the username itself.
func (s *Service) WorkerDisplayName(username string) string {
	profiles, err := s.Profiles()
	if err != nil {
		s.log.Warn().Err(err).Msg("Profile lookup failed, using raw username")
		return username
	}
	for _, profile := range profiles {
		if profile.Username == username {
			return profile.DisplayName
		}
	}
	return username
}
