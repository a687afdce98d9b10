package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
)

func buildProfile(t *testing.T) *transcript.Profile {
	t.Helper()

	p, err := transcript.NewProfile("id-1", "Ali Raza", "2020-ag-1234")
	assert.NoError(t, err)

	records := []transcript.RawRecord{
		{Semester: "Winter Semester 2020-2021", Code: "CS-101", Title: "Intro to Computing", CreditHours: 3, CreditHoursDisplay: "3(2-1)", Marks: 48, Source: transcript.SourceLMS},
		{Semester: "Winter Semester 2020-2021", Code: "MA-101", Title: "Calculus", CreditHours: 3, CreditHoursDisplay: "3(3-0)", Marks: 36, Source: transcript.SourceLMS},
		{Semester: "Spring Semester 2020-2021", Code: "CS-101", Title: "Intro to Computing", CreditHours: 3, CreditHoursDisplay: "3(2-1)", Marks: 30, Source: transcript.SourceLMS},
	}
	p.ReplaceSemesters(transcript.BuildSemesters(records))
	return p
}

func TestWriteCSV(t *testing.T) {
	p := buildProfile(t)

	var buf bytes.Buffer
	err := WriteCSV(&buf, p)
	assert.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	assert.NoError(t, err)

	// Preamble, header, 3 courses, 2 semester totals, overall summary.
	assert.Len(t, rows, 8)

	assert.Equal(t, "Ali Raza", rows[0][1])
	assert.Equal(t, "2020-ag-1234", rows[0][3])
	assert.Equal(t, "Semester", rows[1][0])

	// Winter courses come before the Spring repeat.
	assert.Equal(t, "Winter 2020", rows[2][0])
	assert.Equal(t, "CS-101", rows[2][1])
	assert.Equal(t, "Repeated (Best)", rows[2][8])

	// The losing Spring attempt is marked as extra enrollment.
	var extra []string
	for _, row := range rows {
		if row[8] == "Extra Enrollment" {
			extra = row
			break
		}
	}
	assert.NotNil(t, extra)
	assert.Equal(t, "Spring 2021", extra[0])
	assert.Equal(t, "30", extra[4])

	last := rows[len(rows)-1]
	assert.Equal(t, "Overall", last[0])
	assert.Equal(t, "6", last[3])
	assert.True(t, strings.HasPrefix(last[6], "CGPA "))
}

func TestWriteCSV_SkipsDeletedCourses(t *testing.T) {
	p := buildProfile(t)
	assert.NoError(t, p.SetCourseDeleted("Winter 2020", 1, true))

	var buf bytes.Buffer
	assert.NoError(t, WriteCSV(&buf, p))

	out := buf.String()
	assert.NotContains(t, out, "MA-101")
	assert.Contains(t, out, "CS-101")
}

func TestWriteCSV_EmptyProfile(t *testing.T) {
	p, err := transcript.NewProfile("id-2", "", "2021-ag-5678")
	assert.NoError(t, err)
	p.Recalculate()

	var buf bytes.Buffer
	assert.NoError(t, WriteCSV(&buf, p))

	rows, err := csv.NewReader(&buf).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "Overall", rows[2][0])
	assert.Equal(t, "0", rows[2][3])
}
