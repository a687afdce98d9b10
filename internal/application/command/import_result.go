// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system. Every
// command that touches a profile ends with a full recompute and a cache
// invalidation, so readers only ever see consistent aggregates.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// ErrInvalidCommand is wrapped by every command validation failure.
var ErrInvalidCommand = errors.New("invalid command")

// ══════════════════════════════════════════════════════════════════════════════
// IMPORT RESULT COMMAND
// Scrapes the LMS result feed for a registration number and replaces the
// stored LMS portion of the profile with the fresh record.
// ══════════════════════════════════════════════════════════════════════════════

// ImportResultCommand contains the data needed to import a result record.
type ImportResultCommand struct {
	// Registration is the university registration number, e.g. "2020-ag-1234".
	Registration string
}

// Validate validates the command.
func (c ImportResultCommand) Validate() error {
	if strings.TrimSpace(c.Registration) == "" {
		return fmt.Errorf("%w: import_result: registration is required", ErrInvalidCommand)
	}
	return nil
}

// ImportResultResult contains the result of an import.
type ImportResultResult struct {
	// ProfileID is the internal ID of the imported profile.
	ProfileID string

	// StudentName as reported by the feed.
	StudentName string

	// WasCreated is true when no profile existed for this registration.
	WasCreated bool

	// CourseCount is the number of stored courses after the import.
	CourseCount int

	// SemesterCount is the number of semester buckets after the import.
	SemesterCount int

	// TrackMode is true when the imported record contains secondary-track
	// courses.
	TrackMode bool

	// Overall is the recomputed roll-up.
	Overall transcript.Totals
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// ResultImport is a scraped result record in canonical form.
type ResultImport struct {
	StudentName  string
	Registration string
	Records      []transcript.RawRecord
}

// ResultFeed defines the interface for the LMS result scraper.
type ResultFeed interface {
	// FetchResult scrapes the full result record for a registration number.
	FetchResult(ctx context.Context, registration string) (*ResultImport, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ImportResultHandler handles the ImportResultCommand.
type ImportResultHandler struct {
	repo   transcript.Repository
	cache  transcript.Cache
	feed   ResultFeed
	tracks *transcript.TrackRegistry
	log    *logger.Logger
}

// NewImportResultHandler creates a new ImportResultHandler.
func NewImportResultHandler(
	repo transcript.Repository,
	cache transcript.Cache,
	feed ResultFeed,
	tracks *transcript.TrackRegistry,
	log *logger.Logger,
) *ImportResultHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ImportResultHandler{
		repo:   repo,
		cache:  cache,
		feed:   feed,
		tracks: tracks,
		log:    log.With(logger.Component("import-result")),
	}
}

// Handle executes the import result command.
//
// A fresh scrape is authoritative for LMS rows: the previously stored LMS
// portion is replaced wholesale. Courses from other sources (attendance
// merges, manual entries) are carried over into the rebuilt buckets so a
// re-import never silently discards the student's own additions.
func (h *ImportResultHandler) Handle(ctx context.Context, cmd ImportResultCommand) (*ImportResultResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	registration := strings.TrimSpace(cmd.Registration)

	fetch, err := h.feed.FetchResult(ctx, registration)
	if err != nil {
		return nil, fmt.Errorf("import_result: %w", err)
	}

	semesters := transcript.BuildSemesters(fetch.Records)

	p, err := h.repo.GetByRegistration(ctx, registration)
	wasCreated := false
	switch {
	case err == nil:
		carryOverCustomCourses(p, semesters)
		p.StudentName = fetch.StudentName
		p.ReplaceSemesters(semesters)
	case errors.Is(err, transcript.ErrProfileNotFound):
		wasCreated = true
		p, err = transcript.NewProfile(uuid.New().String(), fetch.StudentName, registration)
		if err != nil {
			return nil, fmt.Errorf("import_result: %w", err)
		}
		p.ReplaceSemesters(semesters)
	default:
		return nil, fmt.Errorf("import_result: load profile: %w", err)
	}

	p.TrackMode = h.tracks.HasSecondaryTrack(p.Semesters)

	if err := h.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("import_result: save profile: %w", err)
	}
	if err := h.cache.Invalidate(ctx, registration); err != nil {
		h.log.Warn("cache invalidation failed", logger.Registration(registration), logger.Err(err))
	}

	h.log.Info("result imported",
		logger.Registration(registration),
		logger.ProfileID(p.ID),
		logger.CourseCount(p.CourseCount()),
		logger.CGPA(p.Overall.CGPA))

	return &ImportResultResult{
		ProfileID:     p.ID,
		StudentName:   p.StudentName,
		WasCreated:    wasCreated,
		CourseCount:   p.CourseCount(),
		SemesterCount: len(p.Semesters),
		TrackMode:     p.TrackMode,
		Overall:       p.Overall,
	}, nil
}

// carryOverCustomCourses moves non-LMS courses and forecast buckets from the
// old record into the freshly built semester map, recreating buckets the
// scrape no longer produces. The old bucket's identity is copied verbatim so
// forecast names and sort keys survive the rebuild.
func carryOverCustomCourses(old *transcript.Profile, fresh map[string]*transcript.Semester) {
	for _, name := range transcript.SortedNames(old.Semesters) {
		oldSem := old.Semesters[name]

		if oldSem.IsForecast {
			if _, ok := fresh[name]; !ok {
				carried := oldSem.Clone()
				carried.Courses = carried.Courses[:0]
				fresh[name] = carried
			}
		}

		for _, c := range oldSem.Courses {
			if c.Source == transcript.SourceLMS {
				continue
			}

			sem, ok := fresh[name]
			if !ok {
				sem = &transcript.Semester{
					Name:         oldSem.Name,
					OriginalName: oldSem.OriginalName,
					SortKey:      oldSem.SortKey,
				}
				fresh[name] = sem
			}
			sem.Courses = append(sem.Courses, c.Clone())
		}
	}
}
