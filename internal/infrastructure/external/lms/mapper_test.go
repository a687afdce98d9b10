package lms

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
)

func TestResultRowDTO_Parsing(t *testing.T) {
	jsonData := `{
    "StudentName": "Ali Raza",
    "RegistrationNo": "2020-ag-1234",
    "Semester": "Winter Semester 2020-2021",
    "CourseCode": "CS-101",
    "CourseTitle": "Introduction to Computing",
    "CreditHours": "3(2-1)",
    "Total": "48",
    "Grade": "A",
    "TeacherName": "Dr. Ahmed",
    "Mid": "15",
    "Final": "25"
}`

	var row ResultRowDTO
	err := json.Unmarshal([]byte(jsonData), &row)
	assert.NoError(t, err)

	assert.Equal(t, "Ali Raza", row.StudentName)
	assert.Equal(t, "2020-ag-1234", row.RegistrationNo)
	assert.Equal(t, "CS-101", row.CourseCode)
	assert.Equal(t, "3(2-1)", row.CreditHours)
	assert.Equal(t, "48", row.Total)
	assert.Equal(t, "15", row.Mid)
}

func TestAttendanceRowDTO_MarksVariance(t *testing.T) {
	withTotalmark := AttendanceRowDTO{Totalmark: "42", Total: "0"}
	assert.Equal(t, "42", withTotalmark.Marks())

	withTotal := AttendanceRowDTO{Total: "37"}
	assert.Equal(t, "37", withTotal.Marks())
}

func TestParseCreditHours(t *testing.T) {
	assert.Equal(t, 3, ParseCreditHours("3(3-0)"))
	assert.Equal(t, 4, ParseCreditHours("4(3-1)"))
	assert.Equal(t, 1, ParseCreditHours("1(0-1)"))
	assert.Equal(t, 3, ParseCreditHours("3"))

	// Malformed descriptors coerce to zero.
	assert.Equal(t, 0, ParseCreditHours(""))
	assert.Equal(t, 0, ParseCreditHours("N/A"))
}

func TestParseMarks(t *testing.T) {
	assert.Equal(t, 48.0, ParseMarks("48"))
	assert.Equal(t, 36.5, ParseMarks(" 36.5 "))
	assert.Equal(t, 0.0, ParseMarks(""))
	assert.Equal(t, 0.0, ParseMarks("absent"))
}

func TestMapper_ResultRecords(t *testing.T) {
	mapper := NewMapper()

	records := mapper.ResultRecords([]ResultRowDTO{
		{
			Semester:    "Winter Semester 2020-2021",
			CourseCode:  "CS-101",
			CourseTitle: "Introduction to Computing",
			CreditHours: "3(2-1)",
			Total:       "48",
			Grade:       " A ",
			TeacherName: "Dr. Ahmed",
			Mid:         "15",
		},
	})

	assert.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "CS-101", r.Code)
	assert.Equal(t, 3, r.CreditHours)
	assert.Equal(t, "3(2-1)", r.CreditHoursDisplay)
	assert.Equal(t, 48.0, r.Marks)
	assert.Equal(t, "A", r.Grade)
	assert.Equal(t, transcript.SourceLMS, r.Source)
	assert.Equal(t, "15", r.Mid)
}

func TestMapper_AttendanceRecords(t *testing.T) {
	mapper := NewMapper()

	records := mapper.AttendanceRecords([]AttendanceRowDTO{
		{
			Semester:   "Spring-24",
			CourseCode: "AGR-201",
			CourseName: "Agronomy",
			Totalmark:  "42",
		},
	})

	assert.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "AGR-201", r.Code)
	assert.Equal(t, 3, r.CreditHours)
	assert.Equal(t, "3(3-0)*", r.CreditHoursDisplay)
	assert.Equal(t, 42.0, r.Marks)
	assert.Equal(t, transcript.SourceAttendance, r.Source)
	// No grade on the wire; the domain derives it from marks.
	assert.Empty(t, r.Grade)
}

func TestMapper_StudentIdentity(t *testing.T) {
	mapper := NewMapper()

	name, reg := mapper.StudentIdentity([]ResultRowDTO{
		{StudentName: " Ali Raza ", RegistrationNo: " 2020-ag-1234 "},
		{StudentName: "Ali Raza", RegistrationNo: "2020-ag-1234"},
	})
	assert.Equal(t, "Ali Raza", name)
	assert.Equal(t, "2020-ag-1234", reg)

	name, reg = mapper.StudentIdentity(nil)
	assert.Empty(t, name)
	assert.Empty(t, reg)
}
