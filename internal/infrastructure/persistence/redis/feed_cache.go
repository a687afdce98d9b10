package redis

import (
	"context"

	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/external/lms"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE FEED CACHE
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceCache caches raw attendance rows per registration number.
// Attendance scrapes are expensive on the upstream side, so rows are reused
// for TTLAttendanceCache before a fresh scrape is attempted.
type AttendanceCache struct {
	cache *Cache
	log   *logger.Logger
}

// NewAttendanceCache creates an AttendanceCache on top of a Cache.
func NewAttendanceCache(cache *Cache, log *logger.Logger) *AttendanceCache {
	if log == nil {
		log = logger.Default()
	}
	return &AttendanceCache{
		cache: cache,
		log:   log.With(logger.Component("attendance-cache")),
	}
}

// Get returns cached attendance rows for a registration number, or
// ErrCacheMiss when no fresh scrape exists.
func (ac *AttendanceCache) Get(ctx context.Context, registration string) ([]lms.AttendanceRowDTO, error) {
	var rows []lms.AttendanceRowDTO
	if err := ac.cache.Get(ctx, AttendanceKey(registration), &rows); err != nil {
		return nil, err
	}

	ac.log.Debug("attendance cache hit",
		logger.Registration(registration),
		logger.CourseCount(len(rows)))
	return rows, nil
}

// Set stores attendance rows for a registration number. An empty row set is
// cached too, so a student with no attendance data does not trigger a scrape
// on every request.
func (ac *AttendanceCache) Set(ctx context.Context, registration string, rows []lms.AttendanceRowDTO) error {
	if rows == nil {
		rows = []lms.AttendanceRowDTO{}
	}
	return ac.cache.Set(ctx, AttendanceKey(registration), rows, TTLAttendanceCache)
}

// Invalidate drops the cached rows for a registration number.
func (ac *AttendanceCache) Invalidate(ctx context.Context, registration string) error {
	return ac.cache.Delete(ctx, AttendanceKey(registration))
}
