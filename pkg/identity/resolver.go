// Package identity maps Strava athlete ids to internal user ids.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/coocood/freecache"

	shared "github.com/fitglue/strava-ingest/pkg"
	"github.com/fitglue/strava-ingest/pkg/infrastructure/metrics"
)

// Resolver looks up the user who connected a Strava athlete. Only positive
// results are cached: an unmapped athlete may connect at any moment.
type Resolver struct {
	db      shared.Database
	cache   *freecache.Cache
	ttl     int
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewResolver builds a resolver with a cacheMB megabyte cache. A non-positive size disables caching.
func NewResolver(db shared.Database, cacheMB, ttlSeconds int, rec metrics.Recorder, logger *slog.Logger) *Resolver {
	r := &Resolver{
		db:      db,
		ttl:     ttlSeconds,
		metrics: rec,
		logger:  logger,
	}
	if cacheMB > 0 {
		r.cache = freecache.NewCache(cacheMB * 1024 * 1024)
	} else {
		logger.Info("Identity cache disabled")
	}
	return r
}

// Resolve returns the user id for athleteID. ok is false when no mapping exists.
func (r *Resolver) Resolve(ctx context.Context, athleteID int64) (string, bool, error) {
	key := cacheKey(athleteID)
	if r.cache != nil {
		if val, err := r.cache.Get(key); err == nil {
			r.metrics.IncIdentityCache(true)
			return string(val), true, nil
		}
		r.metrics.IncIdentityCache(false)
	}

	userID, err := r.db.GetAthleteUser(ctx, athleteID)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve athlete %d: %w", athleteID, err)
	}
	if userID == "" {
		return "", false, nil
	}

	r.Remember(athleteID, userID)
	return userID, true, nil
}

// Remember primes the cache after a mapping is written.
func (r *Resolver) Remember(athleteID int64, userID string) {
	if r.cache == nil || userID == "" {
		return
	}
	if err := r.cache.Set(cacheKey(athleteID), []byte(userID), r.ttl); err != nil {
		r.logger.Warn("Failed to cache athlete mapping", "athlete_id", athleteID, "error", err)
	}
}

func cacheKey(athleteID int64) []byte {
	return []byte(strconv.FormatInt(athleteID, 10))
}
