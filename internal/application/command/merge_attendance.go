package command

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MERGE ATTENDANCE COMMAND
// Pulls the attendance feed for a registration number and merges rows that
// are not already present in the stored record.
// ══════════════════════════════════════════════════════════════════════════════

// marksTolerance is the window within which two marks values count as the
// same enrollment. The attendance feed rounds differently than the result
// feed, so exact equality misses genuine duplicates.
const marksTolerance = 0.1

// MergeAttendanceCommand contains the data needed to merge attendance rows.
type MergeAttendanceCommand struct {
	// Registration is the university registration number.
	Registration string
}

// Validate validates the command.
func (c MergeAttendanceCommand) Validate() error {
	if strings.TrimSpace(c.Registration) == "" {
		return fmt.Errorf("%w: merge_attendance: registration is required", ErrInvalidCommand)
	}
	return nil
}

// MergeAttendanceResult contains the result of an attendance merge.
type MergeAttendanceResult struct {
	// Added is the number of rows merged into the record.
	Added int

	// Skipped is the number of rows already covered by stored courses.
	Skipped int

	// Overall is the recomputed roll-up.
	Overall transcript.Totals
}

// AttendanceFeed defines the interface for the attendance scraper. Rows
// arrive in canonical form with the assumed credit hours already applied.
type AttendanceFeed interface {
	// FetchAttendance returns the attendance rows for a registration number.
	// An empty slice means the student has no attendance records.
	FetchAttendance(ctx context.Context, registration string) ([]transcript.RawRecord, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// MergeAttendanceHandler handles the MergeAttendanceCommand.
type MergeAttendanceHandler struct {
	repo  transcript.Repository
	cache transcript.Cache
	feed  AttendanceFeed
	log   *logger.Logger
}

// NewMergeAttendanceHandler creates a new MergeAttendanceHandler.
func NewMergeAttendanceHandler(
	repo transcript.Repository,
	cache transcript.Cache,
	feed AttendanceFeed,
	log *logger.Logger,
) *MergeAttendanceHandler {
	if log == nil {
		log = logger.Default()
	}
	return &MergeAttendanceHandler{
		repo:  repo,
		cache: cache,
		feed:  feed,
		log:   log.With(logger.Component("merge-attendance")),
	}
}

// Handle executes the merge attendance command. The merge requires an
// existing profile: attendance rows alone carry no student identity and no
// grades, so they only make sense layered over a scraped result record.
func (h *MergeAttendanceHandler) Handle(ctx context.Context, cmd MergeAttendanceCommand) (*MergeAttendanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	registration := strings.TrimSpace(cmd.Registration)

	p, err := h.repo.GetByRegistration(ctx, registration)
	if err != nil {
		return nil, fmt.Errorf("merge_attendance: %w", err)
	}

	rows, err := h.feed.FetchAttendance(ctx, registration)
	if err != nil {
		return nil, fmt.Errorf("merge_attendance: %w", err)
	}

	result := &MergeAttendanceResult{}

	for _, r := range rows {
		if isAlreadyEnrolled(p, r) {
			result.Skipped++
			continue
		}

		term := transcript.NormalizeTerm(r.Semester)
		course := transcript.CourseFromRecord(r, term.Canonical)
		if err := p.AddCourse(r.Semester, course); err != nil {
			h.log.Warn("attendance row rejected",
				logger.Registration(registration),
				logger.CourseCode(r.Code),
				logger.Err(err))
			continue
		}
		result.Added++
	}

	if result.Added > 0 {
		if err := h.repo.Save(ctx, p); err != nil {
			return nil, fmt.Errorf("merge_attendance: save profile: %w", err)
		}
		if err := h.cache.Invalidate(ctx, registration); err != nil {
			h.log.Warn("cache invalidation failed", logger.Registration(registration), logger.Err(err))
		}
	}

	result.Overall = p.Overall

	h.log.Info("attendance merged",
		logger.Registration(registration),
		logger.F("added", result.Added),
		logger.F("skipped", result.Skipped))

	return result, nil
}

// isAlreadyEnrolled reports whether the record duplicates a stored,
// non-deleted course: same normalized code with marks inside the tolerance
// window. A row that carries its own grade must also agree with the stored
// grade, so a feed correction landing on a band boundary is not swallowed.
// Rows without a grade (the usual attendance shape) match on code and marks.
func isAlreadyEnrolled(p *transcript.Profile, r transcript.RawRecord) bool {
	code := transcript.NormalizeCode(r.Code)
	grade := strings.TrimSpace(r.Grade)

	for _, sem := range p.Semesters {
		for _, c := range sem.Courses {
			if c.IsDeleted {
				continue
			}
			if c.NormalizedCode() != code || math.Abs(c.Marks-r.Marks) >= marksTolerance {
				continue
			}
			if grade != "" && !strings.EqualFold(grade, c.Grade) {
				continue
			}
			return true
		}
	}
	return false
}
