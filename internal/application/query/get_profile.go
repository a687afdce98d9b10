// Package query contains read operations (CQRS - Queries). Queries never
// mutate stored state; track-filtered views are computed on deep copies so
// the stored record's flags stay untouched.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// ErrInvalidQuery is wrapped by every query validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// Track selects which view of a dual-track record a query returns.
type Track string

const (
	// TrackFull is the unfiltered record.
	TrackFull Track = ""

	// TrackMain is the primary program with secondary-track courses removed.
	TrackMain Track = "main"

	// TrackSecondary is the secondary (B.Ed) program only.
	TrackSecondary Track = "secondary"
)

// IsValid checks that the track selector is known.
func (t Track) IsValid() bool {
	switch t {
	case TrackFull, TrackMain, TrackSecondary:
		return true
	default:
		return false
	}
}

// GetProfileQuery requests one student's assembled record.
type GetProfileQuery struct {
	// Registration is the university registration number.
	Registration string

	// Track selects the view. Non-full views are only meaningful for
	// profiles with TrackMode set; for others they behave like the full
	// record minus an empty filter.
	Track Track
}

// Validate validates the query.
func (q GetProfileQuery) Validate() error {
	if strings.TrimSpace(q.Registration) == "" {
		return fmt.Errorf("%w: get_profile: registration is required", ErrInvalidQuery)
	}
	if !q.Track.IsValid() {
		return fmt.Errorf("%w: get_profile: unknown track %q", ErrInvalidQuery, q.Track)
	}
	return nil
}

// SemesterView is one semester in display order.
type SemesterView struct {
	Name            string
	OriginalName    string
	IsForecast      bool
	IsTrackForecast bool
	Courses         []*transcript.Course

	GPA                float64
	Percentage         float64
	TotalQualityPoints float64
	TotalCreditHours   int
	TotalMarksObtained float64
	TotalMaxMarks      float64
}

// ProfileView is the assembled read model for one track view.
type ProfileView struct {
	ProfileID    string
	StudentName  string
	Registration string
	TrackMode    bool
	Track        Track
	Semesters    []SemesterView
	Overall      transcript.Totals
	UpdatedAt    time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileHandler handles the GetProfileQuery with a cache-aside read
// path.
type GetProfileHandler struct {
	repo     transcript.Repository
	cache    transcript.Cache
	tracks   *transcript.TrackRegistry
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewGetProfileHandler creates a new GetProfileHandler.
func NewGetProfileHandler(
	repo transcript.Repository,
	cache transcript.Cache,
	tracks *transcript.TrackRegistry,
	cacheTTL time.Duration,
	log *logger.Logger,
) *GetProfileHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetProfileHandler{
		repo:     repo,
		cache:    cache,
		tracks:   tracks,
		cacheTTL: cacheTTL,
		log:      log.With(logger.Component("get-profile")),
	}
}

// Handle executes the get profile query.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*ProfileView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	registration := strings.TrimSpace(q.Registration)

	p, err := h.loadProfile(ctx, registration)
	if err != nil {
		return nil, err
	}

	semesters := p.Semesters
	overall := p.Overall

	// Track views are aggregated on a filtered deep copy. The stored record
	// keeps its own repeat flags; a course can be the best attempt within a
	// track view while being extra-enrolled in the full record.
	if q.Track != TrackFull {
		filtered := h.tracks.FilterSemesters(p.Semesters, q.Track == TrackSecondary)
		overall = transcript.Aggregate(filtered)
		semesters = filtered
	}

	view := &ProfileView{
		ProfileID:    p.ID,
		StudentName:  p.StudentName,
		Registration: p.Registration,
		TrackMode:    p.TrackMode,
		Track:        q.Track,
		Overall:      overall,
		UpdatedAt:    p.UpdatedAt,
	}

	for _, name := range transcript.SortedNames(semesters) {
		sem := semesters[name]
		view.Semesters = append(view.Semesters, SemesterView{
			Name:               sem.Name,
			OriginalName:       sem.OriginalName,
			IsForecast:         sem.IsForecast,
			IsTrackForecast:    sem.IsTrackForecast,
			Courses:            sem.Courses,
			GPA:                sem.GPA,
			Percentage:         sem.Percentage,
			TotalQualityPoints: sem.TotalQualityPoints,
			TotalCreditHours:   sem.TotalCreditHours,
			TotalMarksObtained: sem.TotalMarksObtained,
			TotalMaxMarks:      sem.TotalMaxMarks,
		})
	}

	return view, nil
}

// loadProfile reads through the cache. Cache failures other than a miss are
// logged and treated as misses; the database stays the source of truth.
func (h *GetProfileHandler) loadProfile(ctx context.Context, registration string) (*transcript.Profile, error) {
	p, err := h.cache.Get(ctx, registration)
	if err == nil {
		return p, nil
	}

	p, err = h.repo.GetByRegistration(ctx, registration)
	if err != nil {
		return nil, fmt.Errorf("get_profile: %w", err)
	}

	if err := h.cache.Set(ctx, p, h.cacheTTL); err != nil {
		h.log.Warn("profile cache store failed", logger.Registration(registration), logger.Err(err))
	}

	return p, nil
}
