package transcript

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// GRADING SCALE
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MarksPerCreditHour is the marks scale per credit hour: a course is
	// graded out of CreditHours * 20.
	MarksPerCreditHour = 20.0

	// MaxGradePoints is the GPA ceiling per credit hour.
	MaxGradePoints = 4.0
)

// letterThresholds maps credit hours to the minimum marks for each letter
// grade on the UAF scale. The rows are A = ch*16 (80%), B = ch*13 (65%),
// C = ch*10 (50%), D = ch*8 (40%), which makes the table an exact
// restatement of the percentage bands in DetermineGrade.
var letterThresholds = map[int]struct{ A, B, C, D float64 }{
	10: {160, 130, 100, 80},
	9:  {144, 117, 90, 72},
	8:  {128, 104, 80, 64},
	7:  {112, 91, 70, 56},
	6:  {96, 78, 60, 48},
	5:  {80, 65, 50, 40},
	4:  {64, 52, 40, 32},
	3:  {48, 39, 30, 24},
	2:  {32, 26, 20, 16},
	1:  {16, 13, 10, 8},
}

// QualityPoints computes the quality points earned for one course, always in
// [0, creditHours*4.0] and rounded to two decimal places.
//
// The closed form is the canonical definition: with percentage computed on a
// creditHours*20 scale, 80% and above pins at the ceiling, below 40% is zero,
// and in between points fall linearly from 4.0 GPA at 80% to 1.0 GPA at 40%.
// The per-credit-hour threshold table is a special-cased restatement of the
// same mapping and the closed form generalizes beyond credit hours 1-10
// without a hard failure.
//
// An explicit F yields zero; an explicit P yields the full ceiling.
func QualityPoints(marks float64, creditHours int, grade string) float64 {
	switch grade {
	case "F":
		return 0
	case "P":
		return float64(creditHours) * MaxGradePoints
	}

	maxMarks := float64(creditHours) * MarksPerCreditHour
	if maxMarks == 0 {
		return 0
	}

	// Excess marks cannot exceed the ceiling.
	if marks > maxMarks {
		marks = maxMarks
	}

	percentage := marks / maxMarks * 100

	if percentage >= 80 {
		return round2(float64(creditHours) * MaxGradePoints)
	}
	if percentage < 40 {
		return 0
	}

	gpa := 1 + (percentage-40)*(3.0/40.0)
	if gpa > MaxGradePoints {
		gpa = MaxGradePoints
	}

	return round2(gpa * float64(creditHours))
}

// DetermineGrade derives the letter grade from marks and credit hours. It is
// used only when the input record carries no grade of its own.
//
// Credit hours inside the supported 1-10 table use the marks thresholds
// directly; anything else falls back to the equivalent percentage bands.
// Zero credit hours is a degenerate input and grades F.
func DetermineGrade(marks float64, creditHours int) string {
	if creditHours <= 0 {
		return "F"
	}

	if t, ok := letterThresholds[creditHours]; ok {
		switch {
		case marks >= t.A:
			return "A"
		case marks >= t.B:
			return "B"
		case marks >= t.C:
			return "C"
		case marks >= t.D:
			return "D"
		default:
			return "F"
		}
	}

	percentage := marks / (float64(creditHours) * MarksPerCreditHour) * 100
	switch {
	case percentage >= 80:
		return "A"
	case percentage >= 65:
		return "B"
	case percentage >= 50:
		return "C"
	case percentage >= 40:
		return "D"
	default:
		return "F"
	}
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
