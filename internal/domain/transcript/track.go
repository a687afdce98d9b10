package transcript

// ══════════════════════════════════════════════════════════════════════════════
// SECONDARY TRACK (B.Ed) CLASSIFICATION
// ══════════════════════════════════════════════════════════════════════════════

// TrackRegistry is a fixed membership set of course codes belonging to the
// secondary program track. Codes are held in normalized form.
type TrackRegistry struct {
	codes map[string]struct{}
}

// NewTrackRegistry builds a registry from configured course codes.
func NewTrackRegistry(codes []string) *TrackRegistry {
	r := &TrackRegistry{codes: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		norm := NormalizeCode(code)
		if norm == "" {
			continue
		}
		r.codes[norm] = struct{}{}
	}
	return r
}

// DefaultBEdCodes returns the B.Ed course codes of the UAF education
// program. Configuration may override the set.
func DefaultBEdCodes() []string {
	return []string{
		"EDU-501", "EDU-503", "EDU-505", "EDU-507", "EDU-509", "EDU-511", "EDU-513",
		"EDU-502", "EDU-504", "EDU-506", "EDU-508", "EDU-510", "EDU-512", "EDU-516",
		"EDU-601", "EDU-604", "EDU-605", "EDU-607", "EDU-608", "EDU-623",
	}
}

// IsSecondaryTrack reports whether the course code belongs to the secondary
// track.
func (r *TrackRegistry) IsSecondaryTrack(courseCode string) bool {
	_, ok := r.codes[NormalizeCode(courseCode)]
	return ok
}

// Size returns the number of registered codes.
func (r *TrackRegistry) Size() int {
	return len(r.codes)
}

// FilterSemesters returns a deep-copied view of the semester map containing
// only the courses of the requested track (secondary when includeTrack is
// true, primary otherwise). A semester survives filtering when it has at
// least one relevant course, or when it is a forecast bucket created for
// this track.
//
// Filtering happens strictly before aggregation: callers run Aggregate on
// the returned view. The copy keeps the filtered view from mutating flags
// on the full record.
func (r *TrackRegistry) FilterSemesters(semesters map[string]*Semester, includeTrack bool) map[string]*Semester {
	filtered := make(map[string]*Semester, len(semesters))

	for name, sem := range semesters {
		relevant := make([]*Course, 0, len(sem.Courses))
		for _, c := range sem.Courses {
			if r.IsSecondaryTrack(c.Code) == includeTrack {
				relevant = append(relevant, c.Clone())
			}
		}

		relevantForecast := sem.IsForecast && sem.IsTrackForecast == includeTrack

		if len(relevant) == 0 && !relevantForecast {
			continue
		}

		copied := *sem
		copied.Courses = relevant
		filtered[name] = &copied
	}

	return filtered
}

// HasSecondaryTrack reports whether any non-deleted course in the semester
// set belongs to the secondary track. Used to decide whether the dual-track
// view applies to a profile at all.
func (r *TrackRegistry) HasSecondaryTrack(semesters map[string]*Semester) bool {
	for _, sem := range semesters {
		for _, c := range sem.Courses {
			if !c.IsDeleted && r.IsSecondaryTrack(c.Code) {
				return true
			}
		}
	}
	return false
}
