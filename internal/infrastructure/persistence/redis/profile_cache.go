package redis

import (
	"context"
	"time"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ProfileCache caches assembled profiles keyed by registration number.
// Cached entries carry the aggregates computed at store time, but callers
// must not treat them as fresher than the TTL allows.
type ProfileCache struct {
	cache *Cache
	log   *logger.Logger
}

// NewProfileCache creates a ProfileCache on top of a Cache.
func NewProfileCache(cache *Cache, log *logger.Logger) *ProfileCache {
	if log == nil {
		log = logger.Default()
	}
	return &ProfileCache{
		cache: cache,
		log:   log.With(logger.Component("profile-cache")),
	}
}

// Get returns the cached profile for a registration number, or ErrCacheMiss.
func (pc *ProfileCache) Get(ctx context.Context, registration string) (*transcript.Profile, error) {
	var p transcript.Profile
	if err := pc.cache.Get(ctx, ProfileKey(registration), &p); err != nil {
		return nil, err
	}

	// Repeat flags and totals are derived state. Recompute after the JSON
	// round trip rather than trusting the serialized copy.
	p.Recalculate()

	pc.log.Debug("profile cache hit", logger.Registration(registration))
	return &p, nil
}

// Set stores the profile under its registration for the given TTL.
func (pc *ProfileCache) Set(ctx context.Context, p *transcript.Profile, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLProfileCache
	}
	return pc.cache.Set(ctx, ProfileKey(p.Registration), p, ttl)
}

// Invalidate drops the cached entry after a mutation.
func (pc *ProfileCache) Invalidate(ctx context.Context, registration string) error {
	return pc.cache.Delete(ctx, ProfileKey(registration))
}

var _ transcript.Cache = (*ProfileCache)(nil)
