package transcript

import "sort"

// ══════════════════════════════════════════════════════════════════════════════
// REPEAT RESOLUTION & AGGREGATION
// ══════════════════════════════════════════════════════════════════════════════

// Totals is the overall roll-up across a semester set.
type Totals struct {
	CGPA          float64
	Percentage    float64
	QualityPoints float64
	CreditHours   int
	MarksObtained float64
	MaxMarks      float64
}

// attemptRef points at one course occurrence inside the semester map.
type attemptRef struct {
	semester *Semester
	index    int
	marks    float64
}

// resolveRepeats designates exactly one best attempt per course code across
// the whole semester set and flags every other occurrence as extra-enrolled.
//
// The grouping index is rebuilt from scratch on every call and looks only at
// code and marks, never at prior flag state, which makes the pass
// idempotent. Deleted courses are invisible to grouping entirely.
func resolveRepeats(semesters map[string]*Semester) {
	index := make(map[string][]attemptRef)

	// Iterate semesters in sort-key order so tie breaking on equal marks is
	// stable across calls regardless of map iteration order.
	for _, name := range SortedNames(semesters) {
		sem := semesters[name]
		for i, c := range sem.Courses {
			if c.IsDeleted {
				// Deleted courses keep their last annotations cleared so a
				// restore starts from a neutral state.
				c.IsRepeated = false
				c.IsExtraEnrolled = false
				continue
			}
			code := c.NormalizedCode()
			index[code] = append(index[code], attemptRef{sem, i, c.Marks})
		}
	}

	for _, attempts := range index {
		if len(attempts) == 1 {
			c := attempts[0].semester.Courses[attempts[0].index]
			c.IsRepeated = false
			c.IsExtraEnrolled = false
			continue
		}

		// Best marks first; stable keeps first-encountered on ties.
		sort.SliceStable(attempts, func(i, j int) bool {
			return attempts[i].marks > attempts[j].marks
		})

		for i, att := range attempts {
			c := att.semester.Courses[att.index]
			c.IsRepeated = true
			c.IsExtraEnrolled = i > 0
		}
	}
}

// Aggregate refreshes every course's repeat flags and every semester's
// cached aggregate fields in place, and returns the overall totals.
//
// This is the single entry point collaborators call after any mutation:
// import merge, deletion, undo, manual add, or semester reassignment.
// Recomputation is O(total courses); callers treat every mutation as
// "edit, then fully recompute". The engine assumes single-writer access to
// one profile's semester set for the duration of a call.
func Aggregate(semesters map[string]*Semester) Totals {
	resolveRepeats(semesters)

	var overall Totals

	for _, sem := range semesters {
		sem.resetTotals()

		for _, c := range sem.Courses {
			if !c.CountsTowardTotals() {
				continue
			}
			sem.TotalQualityPoints += c.QualityPoints
			sem.TotalCreditHours += c.CreditHours
			sem.TotalMarksObtained += c.Marks
			sem.TotalMaxMarks += c.MaxMarks()
		}

		if sem.TotalCreditHours > 0 {
			sem.GPA = sem.TotalQualityPoints / float64(sem.TotalCreditHours)
		}
		if sem.TotalMaxMarks > 0 {
			sem.Percentage = sem.TotalMarksObtained / sem.TotalMaxMarks * 100
		}

		overall.QualityPoints += sem.TotalQualityPoints
		overall.CreditHours += sem.TotalCreditHours
		overall.MarksObtained += sem.TotalMarksObtained
		overall.MaxMarks += sem.TotalMaxMarks
	}

	if overall.CreditHours > 0 {
		overall.CGPA = overall.QualityPoints / float64(overall.CreditHours)
	}
	if overall.MaxMarks > 0 {
		overall.Percentage = overall.MarksObtained / overall.MaxMarks * 100
	}

	return overall
}
