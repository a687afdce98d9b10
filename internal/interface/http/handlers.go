package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/m-saqi/aistudio-uafcgpa/internal/application/command"
	"github.com/m-saqi/aistudio-uafcgpa/internal/application/query"
	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/export"
	"github.com/m-saqi/aistudio-uafcgpa/internal/infrastructure/external/lms"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "uaf-transcript-api",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok", "cache": "ok"}
	status := http.StatusOK

	if err := s.deps.Health.CheckDatabase(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := s.deps.Health.CheckCache(ctx); err != nil {
		// A cold cache degrades performance, not correctness.
		checks["cache"] = err.Error()
	}

	writeJSON(w, status, checks)
}

func (s *Server) handleFeedStatus(w http.ResponseWriter, r *http.Request) {
	status := s.deps.GetStatus.Handle(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"lms_status":   status.LMS,
		"attnd_status": status.Attendance,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE READ SIDE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.GetProfile.Handle(r.Context(), query.GetProfileQuery{
		Registration: r.PathValue("registration"),
		Track:        query.Track(r.URL.Query().Get("track")),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	registration := r.PathValue("registration")

	p, err := s.deps.Profiles.GetByRegistration(r.Context(), registration)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", registration+"-transcript.csv"))

	if err := export.WriteCSV(w, p); err != nil {
		s.logger.Error("csv export failed", logger.Registration(registration), logger.Err(err))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE WRITE SIDE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ImportResult.Handle(r.Context(), command.ImportResultCommand{
		Registration: r.PathValue("registration"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusOK
	if result.WasCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (s *Server) handleMergeAttendance(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.MergeAttendance.Handle(r.Context(), command.MergeAttendanceCommand{
		Registration: r.PathValue("registration"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type addCourseRequest struct {
	Semester    string  `json:"semester"`
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	CreditHours int     `json:"credit_hours"`
	Marks       float64 `json:"marks"`
	Grade       string  `json:"grade"`
}

func (s *Server) handleAddCourse(w http.ResponseWriter, r *http.Request) {
	var req addCourseRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	p, err := s.deps.AddCourse.Handle(r.Context(), command.AddCourseCommand{
		Registration: r.PathValue("registration"),
		Semester:     req.Semester,
		Code:         req.Code,
		Title:        req.Title,
		CreditHours:  req.CreditHours,
		Marks:        req.Marks,
		Grade:        req.Grade,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profileSummary(p))
}

type setCourseDeletedRequest struct {
	Semester string `json:"semester"`
	Index    int    `json:"index"`
	Deleted  bool   `json:"deleted"`
}

func (s *Server) handleSetCourseDeleted(w http.ResponseWriter, r *http.Request) {
	var req setCourseDeletedRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	p, err := s.deps.SetCourseDeleted.Handle(r.Context(), command.SetCourseDeletedCommand{
		Registration: r.PathValue("registration"),
		Semester:     req.Semester,
		Index:        req.Index,
		Deleted:      req.Deleted,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileSummary(p))
}

type moveCourseRequest struct {
	FromSemester string `json:"from_semester"`
	Index        int    `json:"index"`
	ToSemester   string `json:"to_semester"`
}

func (s *Server) handleMoveCourse(w http.ResponseWriter, r *http.Request) {
	var req moveCourseRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	p, err := s.deps.MoveCourse.Handle(r.Context(), command.MoveCourseCommand{
		Registration: r.PathValue("registration"),
		FromSemester: req.FromSemester,
		Index:        req.Index,
		ToSemester:   req.ToSemester,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileSummary(p))
}

type addForecastRequest struct {
	SecondaryTrack bool `json:"secondary_track"`
}

func (s *Server) handleAddForecast(w http.ResponseWriter, r *http.Request) {
	var req addForecastRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.AddForecast.Handle(r.Context(), command.AddForecastCommand{
		Registration:   r.PathValue("registration"),
		SecondaryTrack: req.SecondaryTrack,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"semester": result.SemesterName,
		"profile":  profileSummary(result.Profile),
	})
}

type semesterRequest struct {
	Semester string `json:"semester"`
}

func (s *Server) handleRemoveSemester(w http.ResponseWriter, r *http.Request) {
	var req semesterRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	p, err := s.deps.RemoveSemester.Handle(r.Context(), command.RemoveSemesterCommand{
		Registration: r.PathValue("registration"),
		Semester:     req.Semester,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileSummary(p))
}

func (s *Server) handleRestoreSemester(w http.ResponseWriter, r *http.Request) {
	var req semesterRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	p, err := s.deps.RestoreSemester.Handle(r.Context(), command.RestoreSemesterCommand{
		Registration: r.PathValue("registration"),
		Semester:     req.Semester,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileSummary(p))
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN
// ══════════════════════════════════════════════════════════════════════════════

// adminAuthMiddleware checks the X-API-Key header against the configured
// bcrypt hash.
func (s *Server) adminAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminKeyHash), []byte(key)); err != nil {
			writeJSONError(w, http.StatusForbidden, "forbidden", "Invalid API key")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	if s.deps.Registrations == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_available", "Profile listing is not available")
		return
	}

	registrations, err := s.deps.Registrations.ListRegistrations(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":         len(registrations),
		"registrations": registrations,
	})
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	registration := r.PathValue("registration")

	p, err := s.deps.Profiles.GetByRegistration(r.Context(), registration)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.deps.Profiles.Delete(r.Context(), p.ID); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": registration})
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// profileSummary is the compact write-side response: identity plus the
// recomputed totals, without the full course listing.
func profileSummary(p *transcript.Profile) map[string]interface{} {
	return map[string]interface{}{
		"profile_id":     p.ID,
		"registration":   p.Registration,
		"student_name":   p.StudentName,
		"track_mode":     p.TrackMode,
		"semesters":      len(p.Semesters),
		"courses":        p.CourseCount(),
		"cgpa":           p.Overall.CGPA,
		"percentage":     p.Overall.Percentage,
		"credit_hours":   p.Overall.CreditHours,
		"quality_points": p.Overall.QualityPoints,
	}
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return false
	}
	return true
}

// writeError maps domain and feed errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transcript.ErrProfileNotFound),
		errors.Is(err, transcript.ErrSemesterNotFound),
		errors.Is(err, transcript.ErrCourseNotFound),
		errors.Is(err, lms.ErrNoRecords):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, transcript.ErrSemesterAlreadyExists),
		errors.Is(err, command.ErrNothingToRestore):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, lms.ErrFeedUnavailable):
		writeJSONError(w, http.StatusBadGateway, "feed_unavailable", err.Error())

	case errors.Is(err, transcript.ErrInvalidRegistration),
		errors.Is(err, transcript.ErrInvalidCourse),
		errors.Is(err, command.ErrInvalidCommand),
		errors.Is(err, query.ErrInvalidQuery):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())

	default:
		s.logger.Error("request failed", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
