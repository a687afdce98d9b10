package transcript

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository is the persistence port for profiles. Implementations store
// courses and bucket identity only; cached aggregates may be persisted for
// display but are always recomputed on load.
type Repository interface {
	// Save upserts the full profile, replacing its stored course set.
	Save(ctx context.Context, p *Profile) error

	// GetByRegistration loads a profile by registration number.
	// Returns ErrProfileNotFound when no profile matches.
	GetByRegistration(ctx context.Context, registration string) (*Profile, error)

	// GetByID loads a profile by internal ID.
	// Returns ErrProfileNotFound when no profile matches.
	GetByID(ctx context.Context, id string) (*Profile, error)

	// Delete removes a profile and all its courses.
	Delete(ctx context.Context, id string) error
}

// Cache is the read-through cache port for assembled profiles.
type Cache interface {
	// Get returns the cached profile or ErrCacheMiss equivalent mapped by
	// the implementation to a (nil, error) pair callers treat as a miss.
	Get(ctx context.Context, registration string) (*Profile, error)

	// Set stores the profile under its registration for the given TTL.
	Set(ctx context.Context, p *Profile, ttl time.Duration) error

	// Invalidate drops the cached entry after a mutation.
	Invalidate(ctx context.Context, registration string) error
}
