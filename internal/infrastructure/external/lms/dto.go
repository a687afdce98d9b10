package lms

// ══════════════════════════════════════════════════════════════════════════════
// API RESPONSE WRAPPERS
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse is the envelope every scraper action returns.
type APIResponse[T any] struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	ResultData T      `json:"resultData,omitempty"`
}

// StatusDTO reports upstream feed health from the check_status action.
type StatusDTO struct {
	// LMSStatus is the result system state ("online", "offline", "error").
	LMSStatus string `json:"lms_status"`

	// AttendanceStatus is the attendance system state.
	AttendanceStatus string `json:"attnd_status"`
}

// ══════════════════════════════════════════════════════════════════════════════
// FEED ROW DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ResultRowDTO is one exam record as the result scraper returns it. Every
// field is a string on the wire; numeric parsing happens in the mapper.
type ResultRowDTO struct {
	// StudentName is the student's display name, repeated on every row.
	StudentName string `json:"StudentName"`

	// RegistrationNo is the registration number, repeated on every row.
	RegistrationNo string `json:"RegistrationNo"`

	// Semester is the free-text semester label, e.g. "Winter Semester 2020-2021".
	Semester string `json:"Semester"`

	// CourseCode is the course identifier, e.g. "CS-101".
	CourseCode string `json:"CourseCode"`

	// CourseTitle is the descriptive title.
	CourseTitle string `json:"CourseTitle"`

	// CreditHours is the raw descriptor, e.g. "3(3-0)".
	CreditHours string `json:"CreditHours"`

	// Total is the total marks obtained, as text.
	Total string `json:"Total"`

	// Grade is the letter grade reported by the LMS.
	Grade string `json:"Grade"`

	// TeacherName is optional.
	TeacherName string `json:"TeacherName,omitempty"`

	// Component marks, optional and display-only.
	Mid        string `json:"Mid,omitempty"`
	Assignment string `json:"Assignment,omitempty"`
	Final      string `json:"Final,omitempty"`
	Practical  string `json:"Practical,omitempty"`
}

// AttendanceRowDTO is one record from the attendance system feed. The feed
// is inconsistent about field names: marks arrive as Totalmark or Total,
// the title as CourseName.
type AttendanceRowDTO struct {
	Semester   string `json:"Semester"`
	CourseCode string `json:"CourseCode"`
	CourseName string `json:"CourseName,omitempty"`
	Totalmark  string `json:"Totalmark,omitempty"`
	Total      string `json:"Total,omitempty"`
}

// Marks returns the raw marks text, preferring Totalmark.
func (a *AttendanceRowDTO) Marks() string {
	if a.Totalmark != "" {
		return a.Totalmark
	}
	return a.Total
}
