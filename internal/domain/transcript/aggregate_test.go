package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func course(code string, ch int, marks float64) *Course {
	grade := DetermineGrade(marks, ch)
	return &Course{
		Code:          code,
		Title:         code,
		CreditHours:   ch,
		Marks:         marks,
		Grade:         grade,
		QualityPoints: QualityPoints(marks, ch, grade),
		Source:        SourceLMS,
	}
}

func semesterSet(buckets map[string][]*Course) map[string]*Semester {
	semesters := make(map[string]*Semester)
	for label, courses := range buckets {
		term := NormalizeTerm(label)
		sem := NewSemester(term, label)
		sem.Courses = courses
		semesters[term.Canonical] = sem
	}
	return semesters
}

func TestAggregate_SingleSemester(t *testing.T) {
	semesters := semesterSet(map[string][]*Course{
		"Winter 2020": {
			course("CS-101", 3, 48), // A, 12.00
			course("MA-101", 3, 36), // C, 7.50
		},
	})

	totals := Aggregate(semesters)

	sem := semesters["Winter 2020"]
	assert.Equal(t, 19.5, sem.TotalQualityPoints)
	assert.Equal(t, 6, sem.TotalCreditHours)
	assert.Equal(t, 84.0, sem.TotalMarksObtained)
	assert.Equal(t, 120.0, sem.TotalMaxMarks)
	assert.InDelta(t, 3.25, sem.GPA, 1e-9)
	assert.InDelta(t, 70.0, sem.Percentage, 1e-9)

	assert.InDelta(t, 3.25, totals.CGPA, 1e-9)
	assert.Equal(t, 6, totals.CreditHours)
	assert.Equal(t, 19.5, totals.QualityPoints)
}

func TestAggregate_RepeatKeepsBestAttempt(t *testing.T) {
	first := course("CS-101", 3, 30)
	second := course("CS-101", 3, 50)

	semesters := semesterSet(map[string][]*Course{
		"Winter 2020": {first},
		"Winter 2021": {second},
	})

	totals := Aggregate(semesters)

	assert.True(t, first.IsRepeated)
	assert.True(t, first.IsExtraEnrolled)
	assert.True(t, second.IsRepeated)
	assert.False(t, second.IsExtraEnrolled)

	// Only the best attempt counts: 3 credit hours, not 6.
	assert.Equal(t, 3, totals.CreditHours)
	assert.Equal(t, 50.0, totals.MarksObtained)
	assert.Equal(t, QualityPoints(50, 3, "A"), totals.QualityPoints)
}

func TestAggregate_RepeatMatchingIsCaseInsensitive(t *testing.T) {
	a := course("cs-101", 3, 30)
	b := course("CS-101 ", 3, 50)

	semesters := semesterSet(map[string][]*Course{
		"Winter 2020": {a},
		"Winter 2021": {b},
	})

	totals := Aggregate(semesters)

	assert.True(t, a.IsExtraEnrolled)
	assert.False(t, b.IsExtraEnrolled)
	assert.Equal(t, 3, totals.CreditHours)
}

func TestAggregate_RepeatTieBreaksOnChronology(t *testing.T) {
	earlier := course("CS-101", 3, 45)
	later := course("CS-101", 3, 45)

	semesters := semesterSet(map[string][]*Course{
		"Winter 2020": {earlier},
		"Winter 2021": {later},
	})

	Aggregate(semesters)

	// Equal marks keep the chronologically first attempt as best.
	assert.False(t, earlier.IsExtraEnrolled)
	assert.True(t, later.IsExtraEnrolled)
}

func TestAggregate_Idempotent(t *testing.T) {
	semesters := semesterSet(map[string][]*Course{
		"Winter 2020": {course("CS-101", 3, 30), course("MA-101", 2, 20)},
		"Winter 2021": {course("CS-101", 3, 50)},
	})

	first := Aggregate(semesters)
	second := Aggregate(semesters)
	third := Aggregate(semesters)

	assert.Equal(t, first, second)
	assert.Equal(t, second, third)
}

func TestAggregate_DeletedCourseInvisible(t *testing.T) {
	best := course("CS-101", 3, 50)
	worse := course("CS-101", 3, 30)

	semesters := semesterSet(map[string][]*Course{
		"Winter 2020": {worse},
		"Winter 2021": {best},
	})

	Aggregate(semesters)
	assert.True(t, worse.IsExtraEnrolled)

	// Deleting the best attempt promotes the remaining one on the next pass.
	best.IsDeleted = true
	totals := Aggregate(semesters)

	assert.False(t, best.IsRepeated)
	assert.False(t, best.IsExtraEnrolled)
	assert.False(t, worse.IsRepeated)
	assert.False(t, worse.IsExtraEnrolled)
	assert.Equal(t, 3, totals.CreditHours)
	assert.Equal(t, 30.0, totals.MarksObtained)

	// Restoring reverts to the original resolution.
	best.IsDeleted = false
	totals = Aggregate(semesters)
	assert.True(t, worse.IsExtraEnrolled)
	assert.Equal(t, 50.0, totals.MarksObtained)
}

func TestAggregate_EmptyAndZeroDenominator(t *testing.T) {
	totals := Aggregate(map[string]*Semester{})
	assert.Equal(t, 0.0, totals.CGPA)
	assert.Equal(t, 0.0, totals.Percentage)

	// A semester whose only courses are deleted divides by nothing.
	deleted := course("CS-101", 3, 48)
	deleted.IsDeleted = true
	semesters := semesterSet(map[string][]*Course{
		"Winter 2020": {deleted},
	})

	totals = Aggregate(semesters)
	sem := semesters["Winter 2020"]
	assert.Equal(t, 0.0, sem.GPA)
	assert.Equal(t, 0.0, sem.Percentage)
	assert.Equal(t, 0.0, totals.CGPA)
}

func TestAggregate_PassFailCourseMaxMarks(t *testing.T) {
	p := course("ISL-401", 1, 0)
	p.Grade = "P"
	p.QualityPoints = QualityPoints(0, 1, "P")

	semesters := semesterSet(map[string][]*Course{
		"Spring 2021": {p},
	})

	totals := Aggregate(semesters)

	// P at one credit hour is graded out of 100.
	assert.Equal(t, 100.0, totals.MaxMarks)
	assert.Equal(t, 4.0, totals.QualityPoints)
	assert.Equal(t, 1, totals.CreditHours)
}

func TestAggregate_EndToEndProfile(t *testing.T) {
	semesters := BuildSemesters([]RawRecord{
		{Semester: "Winter Semester 2020-2021", Code: "CS-101", CreditHours: 3, Marks: 30, Source: SourceLMS},
		{Semester: "Winter Semester 2020-2021", Code: "MA-101", CreditHours: 3, Marks: 48, Source: SourceLMS},
		{Semester: "Winter Semester 2021-2022", Code: "CS-101", CreditHours: 3, Marks: 50, Source: SourceLMS},
	})

	totals := Aggregate(semesters)

	// CS-101 counts once with its best marks.
	assert.Equal(t, 6, totals.CreditHours)
	assert.Equal(t, 98.0, totals.MarksObtained)

	expectedQP := QualityPoints(48, 3, "A") + QualityPoints(50, 3, "A")
	assert.Equal(t, expectedQP, totals.QualityPoints)
	assert.InDelta(t, expectedQP/6, totals.CGPA, 1e-9)
}
