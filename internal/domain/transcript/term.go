package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ══════════════════════════════════════════════════════════════════════════════
// TERM NORMALIZATION
// ══════════════════════════════════════════════════════════════════════════════

// Term is the normalized form of a free-text semester label: a canonical
// display name plus a lexicographically sortable key that encodes academic
// ordering.
type Term struct {
	Canonical string
	SortKey   string
}

// Season ordering within an academic year. Unknown labels sort last within
// their year.
const (
	seasonOrderWinter  = 1
	seasonOrderSpring  = 2
	seasonOrderSummer  = 3
	seasonOrderFall    = 4
	seasonOrderUnknown = 9
)

// forecastYear is the reserved sentinel year for forecast buckets so they
// sort after every real semester.
const forecastYear = 3000

// unknownYear is used when no year can be extracted from the label.
const unknownYear = 9999

var (
	yearRangeRe   = regexp.MustCompile(`\b(\d{4})\s*-\s*(\d{2,4})\b`)
	fullYearRe    = regexp.MustCompile(`\b(\d{4})\b`)
	compactTermRe = regexp.MustCompile(`(?i)(winter|spring|summer|fall)\s*-?\s*(\d{2})\b`)
	forecastNumRe = regexp.MustCompile(`\b(\d+)\b`)
)

// seasons in detection order. Detection is a case-insensitive substring
// match, independent of position in the label.
var seasons = []struct {
	name  string
	order int
}{
	{"Winter", seasonOrderWinter},
	{"Spring", seasonOrderSpring},
	{"Summer", seasonOrderSummer},
	{"Fall", seasonOrderFall},
}

// NormalizeTerm maps a free-text semester label from any feed to its
// canonical term. Labels it cannot interpret degrade to a capitalized
// passthrough name with a stable sort key - never an error.
//
// Year resolution for range labels like "2020-2021" follows the university
// convention: Winter and Fall belong to the first calendar year, Spring and
// Summer to the second. Sort keys use the resolved calendar year directly
// with no academic-year adjustment, so "Winter 2020" (2020-1) orders before
// "Spring 2021" (2021-2).
func NormalizeTerm(label string) Term {
	trimmed := strings.TrimSpace(label)
	lower := strings.ToLower(trimmed)

	if strings.HasPrefix(lower, "forecast") {
		n := 1
		if m := forecastNumRe.FindString(lower); m != "" {
			if v, err := strconv.Atoi(m); err == nil && v > 0 {
				n = v
			}
		}
		return ForecastTerm(n)
	}

	seasonName := ""
	order := seasonOrderUnknown
	for _, s := range seasons {
		if strings.Contains(lower, strings.ToLower(s.name)) {
			seasonName = s.name
			order = s.order
			break
		}
	}

	year := extractYear(lower, order)

	if seasonName == "" {
		if trimmed == "" {
			return Term{Canonical: "Unknown", SortKey: fmt.Sprintf("%04d-%d", unknownYear, seasonOrderUnknown)}
		}
		// Stable order by the raw label so distinct unknown terms do not
		// collapse onto one key.
		return Term{
			Canonical: capitalizeFirst(trimmed),
			SortKey:   fmt.Sprintf("%04d-%d-%s", year, seasonOrderUnknown, lower),
		}
	}

	canonical := seasonName
	if year != unknownYear {
		canonical = fmt.Sprintf("%s %d", seasonName, year)
	}

	return Term{
		Canonical: canonical,
		SortKey:   fmt.Sprintf("%04d-%d", year, order),
	}
}

// ForecastTerm returns the term for the nth forecast bucket. The sequence
// number keeps multiple forecasts ordered among themselves.
func ForecastTerm(n int) Term {
	if n < 1 {
		n = 1
	}
	return Term{
		Canonical: fmt.Sprintf("Forecast %d", n),
		SortKey:   fmt.Sprintf("%04d-%02d", forecastYear, n),
	}
}

// extractYear pulls the calendar year out of a lowered label. Preference
// order: a year range, a single four-digit year, then the compact
// "<season><2-digit-year>" shorthand used by the attendance feed.
func extractYear(lower string, seasonOrder int) int {
	if m := yearRangeRe.FindStringSubmatch(lower); m != nil {
		first, _ := strconv.Atoi(m[1])
		if seasonOrder == seasonOrderSpring || seasonOrder == seasonOrderSummer {
			second := m[2]
			if len(second) == 2 {
				second = "20" + second
			}
			if v, err := strconv.Atoi(second); err == nil {
				return v
			}
		}
		return first
	}

	if m := fullYearRe.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.Atoi(m[1])
		return v
	}

	if m := compactTermRe.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.Atoi(m[2])
		return 2000 + v
	}

	return unknownYear
}

// capitalizeFirst upper-cases only the first rune of s.
func capitalizeFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
