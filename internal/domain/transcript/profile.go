package transcript

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrProfileNotFound - no stored profile matches the lookup.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileAlreadyExists - a profile with the same ID already exists.
	ErrProfileAlreadyExists = errors.New("profile already exists")

	// ErrInvalidRegistration - registration number is empty or malformed.
	ErrInvalidRegistration = errors.New("invalid registration number")

	// ErrSemesterNotFound - the named semester bucket does not exist.
	ErrSemesterNotFound = errors.New("semester not found")

	// ErrSemesterAlreadyExists - a bucket with that name already exists.
	ErrSemesterAlreadyExists = errors.New("semester already exists")

	// ErrCourseNotFound - the course index is out of range for the bucket.
	ErrCourseNotFound = errors.New("course not found")

	// ErrInvalidCourse - the course record fails basic validation.
	ErrInvalidCourse = errors.New("invalid course")
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile is the aggregate root: one student's full record of semesters plus
// the overall totals. All mutations go through Profile methods, and every
// mutation is followed by a full Recalculate - no component maintains
// aggregate state independently between recomputations.
type Profile struct {
	// ID is the internal unique identifier (UUID in string form).
	ID string

	// StudentName as reported by the LMS.
	StudentName string

	// Registration is the university registration number, e.g. "2020-ag-1234".
	Registration string

	// Semesters keyed by canonical term name.
	Semesters map[string]*Semester

	// TrackMode is true when the record contains secondary-track courses
	// and the dual-track view applies.
	TrackMode bool

	// Overall is the cached roll-up across all semesters, owned by the
	// aggregation engine.
	Overall Totals

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfile creates an empty profile.
func NewProfile(id, studentName, registration string) (*Profile, error) {
	registration = strings.TrimSpace(registration)
	if id == "" {
		return nil, errors.New("profile id is required")
	}
	if registration == "" {
		return nil, ErrInvalidRegistration
	}

	now := time.Now().UTC()
	return &Profile{
		ID:           id,
		StudentName:  strings.TrimSpace(studentName),
		Registration: registration,
		Semesters:    make(map[string]*Semester),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Recalculate runs the aggregation engine over the full semester set and
// refreshes the cached overall totals. Read paths call this after loading
// stored facts, so it leaves UpdatedAt alone; mutations stamp the profile
// through touch.
func (p *Profile) Recalculate() {
	p.Overall = Aggregate(p.Semesters)
}

// touch records that the stored facts changed.
func (p *Profile) touch() {
	p.UpdatedAt = time.Now().UTC()
}

// ReplaceSemesters swaps in a freshly built semester map (import path) and
// recomputes.
func (p *Profile) ReplaceSemesters(semesters map[string]*Semester) {
	if semesters == nil {
		semesters = make(map[string]*Semester)
	}
	p.Semesters = semesters
	p.touch()
	p.Recalculate()
}

// semester returns the bucket for a canonical name.
func (p *Profile) semester(name string) (*Semester, error) {
	sem, ok := p.Semesters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSemesterNotFound, name)
	}
	return sem, nil
}

// courseAt returns the course at index within the named bucket.
func (p *Profile) courseAt(semesterName string, index int) (*Semester, *Course, error) {
	sem, err := p.semester(semesterName)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(sem.Courses) {
		return nil, nil, fmt.Errorf("%w: %s[%d]", ErrCourseNotFound, semesterName, index)
	}
	return sem, sem.Courses[index], nil
}

// AddCourse appends a course to the semester named by label, creating the
// bucket on first need, and recomputes. The course's flags and quality
// points are refreshed by the recompute regardless of their input state.
func (p *Profile) AddCourse(semesterLabel string, c *Course) error {
	if c == nil || strings.TrimSpace(c.Code) == "" {
		return ErrInvalidCourse
	}

	term := NormalizeTerm(semesterLabel)
	sem, ok := p.Semesters[term.Canonical]
	if !ok {
		sem = NewSemester(term, semesterLabel)
		p.Semesters[term.Canonical] = sem
	}

	if c.OriginalSemester == "" {
		c.OriginalSemester = term.Canonical
	}
	sem.Courses = append(sem.Courses, c)

	p.touch()
	p.Recalculate()
	return nil
}

// SetCourseDeleted toggles the soft-delete flag on one course and
// recomputes. The course stays stored and displayable either way.
func (p *Profile) SetCourseDeleted(semesterName string, index int, deleted bool) error {
	_, c, err := p.courseAt(semesterName, index)
	if err != nil {
		return err
	}

	c.IsDeleted = deleted
	p.touch()
	p.Recalculate()
	return nil
}

// MoveCourse reassigns one course to a different existing bucket: removed
// from the source's collection, appended to the destination's. The
// destination must already exist; moving within one bucket is a no-op.
func (p *Profile) MoveCourse(fromSemester string, index int, toSemester string) error {
	if fromSemester == toSemester {
		return nil
	}

	src, c, err := p.courseAt(fromSemester, index)
	if err != nil {
		return err
	}
	dst, err := p.semester(toSemester)
	if err != nil {
		return err
	}

	src.Courses = append(src.Courses[:index], src.Courses[index+1:]...)
	dst.Courses = append(dst.Courses, c)

	p.touch()
	p.Recalculate()
	return nil
}

// AddForecast creates the next free forecast bucket for the given track and
// returns it.
func (p *Profile) AddForecast(secondaryTrack bool) *Semester {
	n := 1
	for {
		term := ForecastTerm(n)
		if _, exists := p.Semesters[term.Canonical]; !exists {
			break
		}
		n++
	}

	sem := NewForecastSemester(n, secondaryTrack)
	p.Semesters[sem.Name] = sem
	p.touch()
	p.Recalculate()
	return sem
}

// RemoveSemester detaches a whole bucket from the profile and returns it so
// the caller's undo layer can hold it for the grace window.
func (p *Profile) RemoveSemester(name string) (*Semester, error) {
	sem, err := p.semester(name)
	if err != nil {
		return nil, err
	}

	delete(p.Semesters, name)
	p.touch()
	p.Recalculate()
	return sem, nil
}

// RestoreSemester reinserts a previously removed bucket.
func (p *Profile) RestoreSemester(sem *Semester) error {
	if sem == nil {
		return fmt.Errorf("%w: nil semester", ErrSemesterNotFound)
	}
	if _, exists := p.Semesters[sem.Name]; exists {
		return fmt.Errorf("%w: %s", ErrSemesterAlreadyExists, sem.Name)
	}

	p.Semesters[sem.Name] = sem
	p.touch()
	p.Recalculate()
	return nil
}

// CourseCount returns the number of stored courses, deleted ones included.
func (p *Profile) CourseCount() int {
	total := 0
	for _, sem := range p.Semesters {
		total += len(sem.Courses)
	}
	return total
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Semesters = make(map[string]*Semester, len(p.Semesters))
	for name, sem := range p.Semesters {
		clone.Semesters[name] = sem.Clone()
	}
	return &clone
}

// String returns a short representation for logging.
func (p *Profile) String() string {
	return fmt.Sprintf("Profile{ID: %s, Reg: %s, Semesters: %d, CGPA: %.4f}",
		p.ID, p.Registration, len(p.Semesters), p.Overall.CGPA)
}
