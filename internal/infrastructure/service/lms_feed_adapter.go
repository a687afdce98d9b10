// Package service adapts infrastructure clients to the interfaces the
// application layer defines.
package service

import (
	"context"
	"errors"

	"github.com/m-saqi/aistudio-uafcgpa/internal/application/command"
	"github.com/m-saqi/aistudio-uafcgpa/internal/application/query"
	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/external/lms"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/persistence/redis"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// LMSFeedAdapter adapts the lms.Client to the command.ResultFeed,
// command.AttendanceFeed, and query.StatusFeed interfaces. Attendance rows
// pass through the Redis cache because the upstream attendance scrape is
// slow; result scrapes always go upstream.
type LMSFeedAdapter struct {
	client     *lms.Client
	attendance *redis.AttendanceCache
	log        *logger.Logger
}

// NewLMSFeedAdapter creates a new LMSFeedAdapter. The attendance cache is
// optional; without it every attendance fetch goes upstream.
func NewLMSFeedAdapter(client *lms.Client, attendance *redis.AttendanceCache, log *logger.Logger) *LMSFeedAdapter {
	if log == nil {
		log = logger.Default()
	}
	return &LMSFeedAdapter{
		client:     client,
		attendance: attendance,
		log:        log.With(logger.Component("lms-feed")),
	}
}

// FetchResult scrapes the result record and maps it to canonical form.
func (a *LMSFeedAdapter) FetchResult(ctx context.Context, registration string) (*command.ResultImport, error) {
	fetch, err := a.client.FetchResult(ctx, registration)
	if err != nil {
		return nil, err
	}

	return &command.ResultImport{
		StudentName:  fetch.StudentName,
		Registration: fetch.Registration,
		Records:      a.client.Mapper().ResultRecords(fetch.Records),
	}, nil
}

// FetchAttendance returns attendance rows in canonical form, reusing cached
// rows when a scrape ran within the cache TTL.
func (a *LMSFeedAdapter) FetchAttendance(ctx context.Context, registration string) ([]transcript.RawRecord, error) {
	if a.attendance != nil {
		rows, err := a.attendance.Get(ctx, registration)
		if err == nil {
			return a.client.Mapper().AttendanceRecords(rows), nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			a.log.Warn("attendance cache read failed", logger.Registration(registration), logger.Err(err))
		}
	}

	rows, err := a.client.FetchAttendance(ctx, registration)
	if err != nil {
		return nil, err
	}

	if a.attendance != nil {
		if err := a.attendance.Set(ctx, registration, rows); err != nil {
			a.log.Warn("attendance cache store failed", logger.Registration(registration), logger.Err(err))
		}
	}

	return a.client.Mapper().AttendanceRecords(rows), nil
}

// CheckStatus probes the upstream systems.
func (a *LMSFeedAdapter) CheckStatus(ctx context.Context) (query.FeedStatus, error) {
	status, err := a.client.CheckStatus(ctx)
	if err != nil {
		return query.FeedStatus{}, err
	}
	return query.FeedStatus{
		LMS:        status.LMSStatus,
		Attendance: status.AttendanceStatus,
	}, nil
}

var (
	_ command.ResultFeed     = (*LMSFeedAdapter)(nil)
	_ command.AttendanceFeed = (*LMSFeedAdapter)(nil)
	_ query.StatusFeed       = (*LMSFeedAdapter)(nil)
)
