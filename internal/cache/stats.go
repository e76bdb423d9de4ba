package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/fortuna/btts/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultStatsTTL caps an entry's lifetime. Entries never outlive the UTC
// date they were written for.
const DefaultStatsTTL = 12 * time.Hour

// StatsSource is anything that can look up a team's season statistics.
type StatsSource interface {
	TeamStatistics(ctx context.Context, teamID, competitionID, season int) (*model.TeamSeasonStats, error)
}

// Store is the key/value surface StatsCache needs. *RedisCache satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// StatsCache serves statistics from the store and falls through to the inner
// source on a miss. Entries are scoped to one UTC date, so a re-run on the
// same day sees the same data and a run on the next day asks upstream again.
// Only successful lookups with data are written back. Store failures are
// logged and never surface to the caller.
type StatsCache struct {
	inner  StatsSource
	store  Store
	day    string
	ttl    time.Duration
	logger *slog.Logger

	hits, misses int
}

// NewStatsCache wraps inner for the UTC date of now. Entries expire at the end
// of that date, or after ttl if that comes first; ttl <= 0 uses
// DefaultStatsTTL.
func NewStatsCache(inner StatsSource, store Store, now time.Time, ttl time.Duration, logger *slog.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	now = now.UTC()
	if left := EndOfDay(now).Sub(now); left < ttl {
		ttl = left
	}
	return &StatsCache{
		inner:  inner,
		store:  store,
		day:    now.Format("2006-01-02"),
		ttl:    ttl,
		logger: logger.With("component", "stats_cache"),
	}
}

// EndOfDay is the first instant of the UTC date after t.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// StatsKey is the cache key for one team, competition and season on a UTC
// date (YYYY-MM-DD).
func StatsKey(day string, teamID, competitionID, season int) string {
	return fmt.Sprintf("btts:stats:%s:%d:%d:%d", day, season, competitionID, teamID)
}

// TTL is the lifetime given to entries written by this cache.
func (c *StatsCache) TTL() time.Duration {
	return c.ttl
}

// TeamStatistics implements StatsSource.
func (c *StatsCache) TeamStatistics(ctx context.Context, teamID, competitionID, season int) (*model.TeamSeasonStats, error) {
	key := StatsKey(c.day, teamID, competitionID, season)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var stats model.TeamSeasonStats
		if err := json.Unmarshal(raw, &stats); err == nil {
			c.hits++
			return &stats, nil
		}
		c.logger.Warn("discarding corrupt cache entry", "key", key)
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn("cache delete failed", "key", key, "error", err)
		}
	case errors.Is(err, ErrMiss):
	default:
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}
	c.misses++

	stats, err := c.inner.TeamStatistics(ctx, teamID, competitionID, season)
	if err != nil || stats == nil {
		return stats, err
	}

	if data, err := json.Marshal(stats); err != nil {
		c.logger.Warn("encode cache entry", "key", key, "error", err)
	} else if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return stats, nil
}

// Stats returns hit and miss counts.
func (c *StatsCache) Stats() (hits, misses int) {
	return c.hits, c.misses
}
