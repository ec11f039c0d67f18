package refdata

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/atheril/caseflow/internal/domain"
)

// spillFile is the on-disk shape of the cache spill. Only the typed
// reference entries are spilled; anything else in the cache is transient.
// StoredAt carries each entry's original stored-at instant, keyed by cache
// key, so reloading never restarts a TTL.
type spillFile struct {
	SavedAt  time.Time                `msgpack:"saved_at"`
	StoredAt map[string]time.Time     `msgpack:"stored_at"`
	Regions  []domain.Region          `msgpack:"regions"`
	Venues   []domain.Venue           `msgpack:"venues"`
	Profiles []CaseWorkerProfile      `msgpack:"profiles"`
	Options  map[string]FilterOptions `msgpack:"options"` // keyed by scoped cache key
}

// SpillCache writes the current reference entries to path with msgpack, so a
// restart can serve reports before the first warmup completes. Failures are
// logged and swallowed: spilling is an optimization, never a requirement.
func SpillCache(cache *TTLCache, path string, log zerolog.Logger) {
	if path == "" {
		return
	}

	now := cache.clock.Now()
	file := spillFile{
		SavedAt:  now,
		StoredAt: make(map[string]time.Time),
		Options:  make(map[string]FilterOptions),
	}

	cache.mu.RLock()
	for key, e := range cache.entries {
		// Already-expired entries would be immediate misses after reload
		if now.Sub(e.storedAt) >= cache.ttl {
			continue
		}

		switch {
		case key == KeyRegions:
			if regions, ok := e.value.([]domain.Region); ok {
				file.Regions = regions
				file.StoredAt[key] = e.storedAt
			}
		case key == KeyVenues:
			if venues, ok := e.value.([]domain.Venue); ok {
				file.Venues = venues
				file.StoredAt[key] = e.storedAt
			}
		case key == KeyProfiles:
			if profiles, ok := e.value.([]CaseWorkerProfile); ok {
				file.Profiles = profiles
				file.StoredAt[key] = e.storedAt
			}
		case strings.HasPrefix(key, KeyFilterOptions):
			if opts, ok := e.value.(*FilterOptions); ok {
				file.Options[key] = *opts
				file.StoredAt[key] = e.storedAt
			}
		}
	}
	cache.mu.RUnlock()

	data, err := msgpack.Marshal(file)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode cache spill")
		return
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write cache spill")
		return
	}

	log.Info().Str("path", path).Int("bytes", len(data)).Msg("Reference cache spilled")
}

// LoadSpill re-seeds the cache from a previous spill. Entries keep their
// original stored-at instant, so anything older than the TTL expires
// immediately on first access. A missing or unreadable spill is not an
// error.
func LoadSpill(cache *TTLCache, path string, log zerolog.Logger) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Warn().Err(err).Str("path", path).Msg("Failed to read cache spill")
		return nil
	}

	var file spillFile
	if err := msgpack.Unmarshal(data, &file); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to decode cache spill, ignoring it")
		return fmt.Errorf("corrupt cache spill: %w", err)
	}

	storedAt := func(key string) time.Time {
		if t, ok := file.StoredAt[key]; ok {
			return t
		}
		return file.SavedAt
	}

	if len(file.Regions) > 0 {
		cache.setAt(KeyRegions, file.Regions, storedAt(KeyRegions))
	}
	if len(file.Venues) > 0 {
		cache.setAt(KeyVenues, file.Venues, storedAt(KeyVenues))
	}
	if len(file.Profiles) > 0 {
		cache.setAt(KeyProfiles, file.Profiles, storedAt(KeyProfiles))
	}
	for key, opts := range file.Options {
		o := opts
		cache.setAt(key, &o, storedAt(key))
	}

	log.Info().Str("path", path).Int("option_sets", len(file.Options)).
		Msg("Reference cache re-seeded from spill")
	return nil
}
