package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackRegistry_Membership(t *testing.T) {
	registry := NewTrackRegistry(DefaultBEdCodes())

	assert.True(t, registry.IsSecondaryTrack("EDU-501"))
	assert.True(t, registry.IsSecondaryTrack("edu-501"))
	assert.True(t, registry.IsSecondaryTrack("  EDU-623  "))
	assert.False(t, registry.IsSecondaryTrack("CS-101"))
	assert.False(t, registry.IsSecondaryTrack("EDU-999"))
	assert.Equal(t, 20, registry.Size())
}

func TestTrackRegistry_ConfiguredOverride(t *testing.T) {
	registry := NewTrackRegistry([]string{"bba-101", "BBA-102", "", "  "})

	assert.Equal(t, 2, registry.Size())
	assert.True(t, registry.IsSecondaryTrack("BBA-101"))
	assert.False(t, registry.IsSecondaryTrack("EDU-501"))
}

func TestFilterSemesters_SplitsTracks(t *testing.T) {
	registry := NewTrackRegistry(DefaultBEdCodes())

	semesters := semesterSet(map[string][]*Course{
		"Winter 2020": {course("CS-101", 3, 48), course("EDU-501", 3, 42)},
		"Spring 2021": {course("EDU-502", 3, 39)},
	})

	primary := registry.FilterSemesters(semesters, false)
	assert.Len(t, primary, 1)
	assert.Len(t, primary["Winter 2020"].Courses, 1)
	assert.Equal(t, "CS-101", primary["Winter 2020"].Courses[0].Code)

	secondary := registry.FilterSemesters(semesters, true)
	assert.Len(t, secondary, 2)
	assert.Equal(t, "EDU-501", secondary["Winter 2020"].Courses[0].Code)
	assert.Equal(t, "EDU-502", secondary["Spring 2021"].Courses[0].Code)
}

func TestFilterSemesters_AggregationOnViewDoesNotLeak(t *testing.T) {
	registry := NewTrackRegistry(DefaultBEdCodes())

	first := course("EDU-501", 3, 30)
	second := course("EDU-501", 3, 50)
	semesters := semesterSet(map[string][]*Course{
		"Winter 2020": {first, course("CS-101", 3, 48)},
		"Winter 2021": {second},
	})
	Aggregate(semesters)

	view := registry.FilterSemesters(semesters, true)
	viewTotals := Aggregate(view)

	// The filtered view resolves its own repeats.
	assert.Equal(t, 3, viewTotals.CreditHours)
	assert.Equal(t, 50.0, viewTotals.MarksObtained)

	// The full record's flags are untouched by aggregating the copy.
	assert.True(t, first.IsExtraEnrolled)
	assert.False(t, second.IsExtraEnrolled)

	fullTotals := Aggregate(semesters)
	assert.Equal(t, 6, fullTotals.CreditHours)
}

func TestFilterSemesters_ForecastFollowsTrack(t *testing.T) {
	registry := NewTrackRegistry(DefaultBEdCodes())

	semesters := semesterSet(map[string][]*Course{
		"Winter 2020": {course("EDU-501", 3, 42)},
	})
	primaryForecast := NewForecastSemester(1, false)
	trackForecast := NewForecastSemester(2, true)
	semesters[primaryForecast.Name] = primaryForecast
	semesters[trackForecast.Name] = trackForecast

	secondary := registry.FilterSemesters(semesters, true)
	assert.Contains(t, secondary, "Forecast 2")
	assert.NotContains(t, secondary, "Forecast 1")

	primary := registry.FilterSemesters(semesters, false)
	assert.Contains(t, primary, "Forecast 1")
	assert.NotContains(t, primary, "Forecast 2")
	assert.NotContains(t, primary, "Winter 2020")
}

func TestHasSecondaryTrack(t *testing.T) {
	registry := NewTrackRegistry(DefaultBEdCodes())

	plain := semesterSet(map[string][]*Course{
		"Winter 2020": {course("CS-101", 3, 48)},
	})
	assert.False(t, registry.HasSecondaryTrack(plain))

	mixed := semesterSet(map[string][]*Course{
		"Winter 2020": {course("CS-101", 3, 48), course("EDU-501", 3, 42)},
	})
	assert.True(t, registry.HasSecondaryTrack(mixed))

	// Deleted secondary courses do not switch the dual-track view on.
	deleted := course("EDU-501", 3, 42)
	deleted.IsDeleted = true
	onlyDeleted := semesterSet(map[string][]*Course{
		"Winter 2020": {course("CS-101", 3, 48), deleted},
	})
	assert.False(t, registry.HasSecondaryTrack(onlyDeleted))
}
