// Package export renders assembled profiles into downloadable formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// CSV EXPORT
// ══════════════════════════════════════════════════════════════════════════════

// csvHeader is the column layout for course rows. Semester totals and the
// overall summary reuse the same column count so the file opens cleanly in
// spreadsheet tools.
var csvHeader = []string{
	"Semester", "Course Code", "Course Title", "Credit Hours",
	"Marks", "Max Marks", "Grade", "Quality Points", "Status",
}

// WriteCSV renders the profile as CSV: a header, then each semester's course
// rows in chronological order followed by a semester total row, then an
// overall summary. Deleted courses are skipped; extra-enrolled attempts are
// listed with their status so the file matches what the student sees.
func WriteCSV(w io.Writer, p *transcript.Profile) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Student", p.StudentName, "Registration", p.Registration, "", "", "", "", ""}); err != nil {
		return fmt.Errorf("export: write preamble: %w", err)
	}
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for _, name := range transcript.SortedNames(p.Semesters) {
		sem := p.Semesters[name]

		for _, c := range sem.Courses {
			if c.IsDeleted {
				continue
			}
			row := []string{
				sem.Name,
				c.Code,
				c.Title,
				c.CreditHoursDisplay,
				formatFloat(c.Marks),
				formatFloat(c.MaxMarks()),
				c.Grade,
				formatFloat(c.QualityPoints),
				courseStatus(c),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("export: write course row: %w", err)
			}
		}

		total := []string{
			sem.Name,
			"", "Semester Total",
			strconv.Itoa(sem.TotalCreditHours),
			formatFloat(sem.TotalMarksObtained),
			formatFloat(sem.TotalMaxMarks),
			fmt.Sprintf("GPA %.4f", sem.GPA),
			formatFloat(sem.TotalQualityPoints),
			fmt.Sprintf("%.2f%%", sem.Percentage),
		}
		if err := cw.Write(total); err != nil {
			return fmt.Errorf("export: write semester total: %w", err)
		}
	}

	summary := []string{
		"Overall",
		"", "",
		strconv.Itoa(p.Overall.CreditHours),
		formatFloat(p.Overall.MarksObtained),
		formatFloat(p.Overall.MaxMarks),
		fmt.Sprintf("CGPA %.4f", p.Overall.CGPA),
		formatFloat(p.Overall.QualityPoints),
		fmt.Sprintf("%.2f%%", p.Overall.Percentage),
	}
	if err := cw.Write(summary); err != nil {
		return fmt.Errorf("export: write summary: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

func courseStatus(c *transcript.Course) string {
	switch {
	case c.IsExtraEnrolled:
		return "Extra Enrollment"
	case c.IsRepeated:
		return "Repeated (Best)"
	case c.IsCustom:
		return "Manual"
	default:
		return ""
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
