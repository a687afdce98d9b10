package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityPoints_Ceiling(t *testing.T) {
	// 80% and above pins at creditHours * 4.0.
	assert.Equal(t, 12.0, QualityPoints(48, 3, "A"))
	assert.Equal(t, 12.0, QualityPoints(55, 3, "A"))
	assert.Equal(t, 12.0, QualityPoints(60, 3, "A"))
	assert.Equal(t, 4.0, QualityPoints(16, 1, "A"))
}

func TestQualityPoints_MarksCappedAtMax(t *testing.T) {
	// Marks above the creditHours*20 ceiling are capped, never amplified.
	assert.Equal(t, 12.0, QualityPoints(75, 3, "A"))
	assert.Equal(t, 8.0, QualityPoints(999, 2, "A"))
}

func TestQualityPoints_Floor(t *testing.T) {
	// Strictly below 40% earns zero.
	assert.Equal(t, 0.0, QualityPoints(23, 3, "D"))
	assert.Equal(t, 0.0, QualityPoints(0, 3, "F"))
	assert.Equal(t, 0.0, QualityPoints(7.9, 1, "D"))
}

func TestQualityPoints_FortyPercentBoundary(t *testing.T) {
	// Exactly 40% sits on the linear band and earns 1.0 GPA per credit hour.
	assert.Equal(t, 3.0, QualityPoints(24, 3, "D"))
	assert.Equal(t, 1.0, QualityPoints(8, 1, "D"))
}

func TestQualityPoints_LinearBand(t *testing.T) {
	// Midpoint of the band: 60% -> gpa 2.5 -> 7.5 quality points at 3 ch.
	assert.Equal(t, 7.5, QualityPoints(36, 3, "C"))
	// 70% -> gpa 3.25.
	assert.Equal(t, 9.75, QualityPoints(42, 3, "B"))
	// Rounded to two decimals: 61.67% -> gpa 2.625 -> 7.875 -> 7.88.
	assert.Equal(t, 7.88, QualityPoints(37, 3, "C"))
}

func TestQualityPoints_ExplicitGrades(t *testing.T) {
	// An explicit F is always zero, whatever the marks say.
	assert.Equal(t, 0.0, QualityPoints(59, 3, "F"))

	// An explicit P is always the full ceiling.
	assert.Equal(t, 4.0, QualityPoints(0, 1, "P"))
	assert.Equal(t, 12.0, QualityPoints(10, 3, "P"))
}

func TestQualityPoints_ZeroCreditHours(t *testing.T) {
	assert.Equal(t, 0.0, QualityPoints(50, 0, "A"))
	assert.Equal(t, 0.0, QualityPoints(50, 0, ""))
}

func TestDetermineGrade_TableRange(t *testing.T) {
	// 3 credit hours: A>=48, B>=39, C>=30, D>=24.
	assert.Equal(t, "A", DetermineGrade(48, 3))
	assert.Equal(t, "B", DetermineGrade(47.9, 3))
	assert.Equal(t, "B", DetermineGrade(39, 3))
	assert.Equal(t, "C", DetermineGrade(38, 3))
	assert.Equal(t, "C", DetermineGrade(30, 3))
	assert.Equal(t, "D", DetermineGrade(29, 3))
	assert.Equal(t, "D", DetermineGrade(24, 3))
	assert.Equal(t, "F", DetermineGrade(23.5, 3))

	// 1 credit hour row.
	assert.Equal(t, "A", DetermineGrade(16, 1))
	assert.Equal(t, "D", DetermineGrade(8, 1))
	assert.Equal(t, "F", DetermineGrade(7, 1))
}

func TestDetermineGrade_PercentageFallback(t *testing.T) {
	// 12 credit hours is outside the table; percentage bands apply.
	assert.Equal(t, "A", DetermineGrade(200, 12)) // 83.3%
	assert.Equal(t, "B", DetermineGrade(160, 12)) // 66.7%
	assert.Equal(t, "C", DetermineGrade(125, 12)) // 52.1%
	assert.Equal(t, "D", DetermineGrade(100, 12)) // 41.7%
	assert.Equal(t, "F", DetermineGrade(90, 12))  // 37.5%
}

func TestDetermineGrade_DegenerateCreditHours(t *testing.T) {
	assert.Equal(t, "F", DetermineGrade(50, 0))
	assert.Equal(t, "F", DetermineGrade(50, -1))
}

func TestCourseMaxMarks(t *testing.T) {
	regular := &Course{CreditHours: 3, Grade: "B"}
	assert.Equal(t, 60.0, regular.MaxMarks())

	passFail := &Course{CreditHours: 1, Grade: "P"}
	assert.Equal(t, 100.0, passFail.MaxMarks())

	// P at more than one credit hour follows the regular scale.
	passThree := &Course{CreditHours: 3, Grade: "P"}
	assert.Equal(t, 60.0, passThree.MaxMarks())
}

func TestCourseFromRecord_DerivesGradeWhenMissing(t *testing.T) {
	c := CourseFromRecord(RawRecord{
		Semester:    "Winter 2020-2021",
		Code:        "cs-101",
		Title:       "Intro to Computing",
		CreditHours: 3,
		Marks:       45,
		Source:      SourceLMS,
	}, "Winter 2020")

	assert.Equal(t, "B", c.Grade)
	assert.Equal(t, QualityPoints(45, 3, "B"), c.QualityPoints)
	assert.Equal(t, "Winter 2020", c.OriginalSemester)
	assert.False(t, c.IsCustom)
}

func TestCourseFromRecord_KeepsFeedGrade(t *testing.T) {
	c := CourseFromRecord(RawRecord{
		Code:        "ISL-401",
		CreditHours: 1,
		Marks:       0,
		Grade:       "P",
		Source:      SourceManual,
	}, "Spring 2021")

	assert.Equal(t, "P", c.Grade)
	assert.Equal(t, 4.0, c.QualityPoints)
	assert.True(t, c.IsCustom)
	// Title defaults to the code when the feed omits it.
	assert.Equal(t, "ISL-401", c.Title)
}
