package transcript

import "sort"

// ══════════════════════════════════════════════════════════════════════════════
// SEMESTER
// ══════════════════════════════════════════════════════════════════════════════

// Semester is a named bucket of courses plus cached aggregates. The cached
// fields are derived values recomputed on every aggregation pass; they are
// never hand-edited and never authoritative in storage.
type Semester struct {
	// Name is the canonical display name, e.g. "Winter 2020".
	Name string

	// OriginalName preserves the upstream label the bucket was created from.
	OriginalName string

	// SortKey is opaque and lexicographically comparable; string order
	// equals chronological order.
	SortKey string

	// Courses in insertion order. Insertion order is display order and has
	// no significance to calculation.
	Courses []*Course

	// Cached aggregates, owned by the aggregation engine.
	GPA                float64
	Percentage         float64
	TotalQualityPoints float64
	TotalCreditHours   int
	TotalMarksObtained float64
	TotalMaxMarks      float64

	// IsForecast marks a synthetic, user-created planning bucket.
	IsForecast bool

	// IsTrackForecast marks a forecast bucket created for the secondary
	// track view.
	IsTrackForecast bool
}

// NewSemester creates an empty bucket for the given term.
func NewSemester(term Term, originalName string) *Semester {
	if originalName == "" {
		originalName = term.Canonical
	}
	return &Semester{
		Name:         term.Canonical,
		OriginalName: originalName,
		SortKey:      term.SortKey,
		Courses:      make([]*Course, 0, 8),
	}
}

// NewForecastSemester creates the nth forecast bucket.
func NewForecastSemester(n int, secondaryTrack bool) *Semester {
	term := ForecastTerm(n)
	sem := NewSemester(term, term.Canonical)
	sem.IsForecast = true
	sem.IsTrackForecast = secondaryTrack
	return sem
}

// Clone returns a deep copy of the semester, including its courses.
func (s *Semester) Clone() *Semester {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Courses = make([]*Course, len(s.Courses))
	for i, c := range s.Courses {
		clone.Courses[i] = c.Clone()
	}
	return &clone
}

// resetTotals clears the cached aggregate fields before a recompute.
func (s *Semester) resetTotals() {
	s.GPA = 0
	s.Percentage = 0
	s.TotalQualityPoints = 0
	s.TotalCreditHours = 0
	s.TotalMarksObtained = 0
	s.TotalMaxMarks = 0
}

// SortedNames returns the semester names in chronological order, i.e. by
// sort key with the name as a tie breaker.
func SortedNames(semesters map[string]*Semester) []string {
	names := make([]string, 0, len(semesters))
	for name := range semesters {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := semesters[names[i]], semesters[names[j]]
		if a.SortKey != b.SortKey {
			return a.SortKey < b.SortKey
		}
		return names[i] < names[j]
	})
	return names
}
