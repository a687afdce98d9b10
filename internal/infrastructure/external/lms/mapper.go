package lms

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
)

// attendanceCreditHours is assumed for attendance records because that feed
// carries no credit-hour information.
const attendanceCreditHours = 3

// attendanceCreditHoursDisplay marks the assumed value in the UI.
const attendanceCreditHoursDisplay = "3(3-0)*"

var leadingIntRe = regexp.MustCompile(`(\d+)`)

// Mapper converts feed DTOs to canonical raw records. Feed-specific field
// variance stops here; the domain never sees wire shapes.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// ParseCreditHours extracts the credit-hour count from a raw descriptor like
// "3(3-0)". Malformed descriptors coerce to zero rather than failing the
// whole import.
func ParseCreditHours(raw string) int {
	m := leadingIntRe.FindString(raw)
	if m == "" {
		return 0
	}
	ch, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return ch
}

// ParseMarks parses a marks string, coercing malformed input to zero.
func ParseMarks(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// ResultRecords converts result scraper rows into canonical records.
func (m *Mapper) ResultRecords(rows []ResultRowDTO) []transcript.RawRecord {
	records := make([]transcript.RawRecord, 0, len(rows))

	for _, row := range rows {
		records = append(records, transcript.RawRecord{
			Semester:           row.Semester,
			Code:               row.CourseCode,
			Title:              row.CourseTitle,
			CreditHours:        ParseCreditHours(row.CreditHours),
			CreditHoursDisplay: row.CreditHours,
			Marks:              ParseMarks(row.Total),
			Grade:              strings.TrimSpace(row.Grade),
			Teacher:            row.TeacherName,
			Source:             transcript.SourceLMS,
			Mid:                row.Mid,
			Assignment:         row.Assignment,
			Final:              row.Final,
			Practical:          row.Practical,
		})
	}

	return records
}

// AttendanceRecords converts attendance rows into canonical records. Credit
// hours are assumed at three and the grade is left for the domain to derive
// from marks.
func (m *Mapper) AttendanceRecords(rows []AttendanceRowDTO) []transcript.RawRecord {
	records := make([]transcript.RawRecord, 0, len(rows))

	for _, row := range rows {
		records = append(records, transcript.RawRecord{
			Semester:           row.Semester,
			Code:               row.CourseCode,
			Title:              row.CourseName,
			CreditHours:        attendanceCreditHours,
			CreditHoursDisplay: attendanceCreditHoursDisplay,
			Marks:              ParseMarks(row.Marks()),
			Source:             transcript.SourceAttendance,
		})
	}

	return records
}

// StudentIdentity extracts the student name and registration number from a
// result row set. Every row repeats both, so the first row is authoritative.
func (m *Mapper) StudentIdentity(rows []ResultRowDTO) (name, registration string) {
	if len(rows) == 0 {
		return "", ""
	}
	return strings.TrimSpace(rows[0].StudentName), strings.TrimSpace(rows[0].RegistrationNo)
}
