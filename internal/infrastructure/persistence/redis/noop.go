package redis

import (
	"context"
	"time"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
)

// NoopProfileCache stands in for the profile cache when Redis is disabled.
// Every read misses and every write is dropped, so profile reads always fall
// through to Postgres.
type NoopProfileCache struct{}

// Get always reports a miss.
func (NoopProfileCache) Get(context.Context, string) (*transcript.Profile, error) {
	return nil, ErrCacheMiss
}

// Set drops the profile.
func (NoopProfileCache) Set(context.Context, *transcript.Profile, time.Duration) error {
	return nil
}

// Invalidate does nothing.
func (NoopProfileCache) Invalidate(context.Context, string) error {
	return nil
}

var _ transcript.Cache = NoopProfileCache{}
