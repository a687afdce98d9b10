// Package transcript contains the quality-point reconciliation and
// aggregation engine for UAF academic records. This is the core of the
// business logic - there are no external dependencies here.
package transcript

import (
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Source identifies which feed a course record came from.
type Source string

const (
	// SourceLMS - record imported from the LMS result system.
	SourceLMS Source = "lms"
	// SourceAttendance - record merged from the attendance system feed.
	SourceAttendance Source = "attendance"
	// SourceManual - record entered by hand.
	SourceManual Source = "manual"
)

// IsValid checks that the source is one of the known feeds.
func (s Source) IsValid() bool {
	switch s {
	case SourceLMS, SourceAttendance, SourceManual:
		return true
	default:
		return false
	}
}

// NormalizeCode returns the comparison form of a course code: uppercased
// and trimmed. Display keeps the original casing.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ══════════════════════════════════════════════════════════════════════════════
// COURSE
// ══════════════════════════════════════════════════════════════════════════════

// Course is a single exam/enrollment record. The flag fields IsRepeated and
// IsExtraEnrolled, together with QualityPoints, are owned by the aggregation
// engine and must never be set by any other component.
type Course struct {
	// Code is the course identifier as reported by the feed.
	Code string

	// Title is the descriptive course title (non-authoritative).
	Title string

	// Teacher is the teacher display name, when the feed supplies one.
	Teacher string

	// CreditHours is the parsed credit-hour count (1-10 in the grading
	// table; 0 is a degenerate input that contributes nothing).
	CreditHours int

	// CreditHoursDisplay preserves the raw descriptor, e.g. "3(3-0)".
	CreditHoursDisplay string

	// Marks is the total marks obtained. Stored uncapped; capping happens
	// only inside the quality-point computation.
	Marks float64

	// Grade is the letter grade. Derived from marks when the feed omits it.
	Grade string

	// QualityPoints is computed, always in [0, CreditHours*4.0].
	QualityPoints float64

	// IsRepeated is true when the code appears two or more times among
	// non-deleted courses across the whole record.
	IsRepeated bool

	// IsExtraEnrolled marks a non-best repeat attempt: kept for display,
	// excluded from every total.
	IsExtraEnrolled bool

	// IsDeleted soft-removes the course. It contributes to no total and is
	// invisible to repeat grouping, but stays stored and displayable.
	IsDeleted bool

	// IsCustom is true for courses not originating from the LMS feed.
	IsCustom bool

	// Source is the provenance tag. Informational only.
	Source Source

	// OriginalSemester is the canonical name of the bucket the course was
	// first assigned to. Track filtering uses it for container visibility.
	OriginalSemester string

	// Component breakdown as reported by the LMS (display only).
	Mid        string
	Assignment string
	Final      string
	Practical  string
}

// NormalizedCode returns the comparison form of the course code.
func (c *Course) NormalizedCode() string {
	return NormalizeCode(c.Code)
}

// MaxMarks returns the maximum obtainable marks for this course.
// A pass/fail course at one credit hour is graded out of 100.
func (c *Course) MaxMarks() float64 {
	if c.Grade == "P" && c.CreditHours == 1 {
		return 100
	}
	return float64(c.CreditHours) * MarksPerCreditHour
}

// CountsTowardTotals reports whether the course contributes to semester
// and overall totals.
func (c *Course) CountsTowardTotals() bool {
	return !c.IsDeleted && !c.IsExtraEnrolled
}

// Clone returns a deep copy of the course.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// RAW RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// RawRecord is the canonical row shape every feed is adapted to before it
// reaches the engine. Feed-specific field naming is resolved by the
// infrastructure mappers, never here.
type RawRecord struct {
	Semester           string
	Code               string
	Title              string
	CreditHours        int
	CreditHoursDisplay string
	Marks              float64
	Grade              string
	Teacher            string
	Source             Source

	Mid        string
	Assignment string
	Final      string
	Practical  string
}

// CourseFromRecord builds a Course from a canonical raw record, deriving
// the letter grade when the feed did not supply one and computing quality
// points. The record's semester label is normalized by the caller.
func CourseFromRecord(r RawRecord, originalSemester string) *Course {
	code := strings.TrimSpace(r.Code)

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = code
	}

	grade := strings.TrimSpace(r.Grade)
	if grade == "" {
		grade = DetermineGrade(r.Marks, r.CreditHours)
	}

	return &Course{
		Code:               code,
		Title:              title,
		Teacher:            strings.TrimSpace(r.Teacher),
		CreditHours:        r.CreditHours,
		CreditHoursDisplay: r.CreditHoursDisplay,
		Marks:              r.Marks,
		Grade:              grade,
		QualityPoints:      QualityPoints(r.Marks, r.CreditHours, grade),
		IsCustom:           r.Source != SourceLMS,
		Source:             r.Source,
		OriginalSemester:   originalSemester,
		Mid:                r.Mid,
		Assignment:         r.Assignment,
		Final:              r.Final,
		Practical:          r.Practical,
	}
}

// BuildSemesters buckets canonical raw records into semesters keyed by
// canonical term name. Insertion order within a bucket is display order and
// carries no meaning for calculation. Aggregation is NOT run here; callers
// recompute after every mutation.
func BuildSemesters(records []RawRecord) map[string]*Semester {
	semesters := make(map[string]*Semester)

	for _, r := range records {
		term := NormalizeTerm(r.Semester)

		sem, ok := semesters[term.Canonical]
		if !ok {
			sem = NewSemester(term, r.Semester)
			semesters[term.Canonical] = sem
		}

		sem.Courses = append(sem.Courses, CourseFromRecord(r, term.Canonical))
	}

	return semesters
}
