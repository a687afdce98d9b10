package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/m-saqi/aistudio-uafcgpa/internal/application/command"
	"github.com/m-saqi/aistudio-uafcgpa/internal/application/query"
	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeRepo struct {
	profiles map[string]*transcript.Profile
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: make(map[string]*transcript.Profile)}
}

func (r *fakeRepo) Save(_ context.Context, p *transcript.Profile) error {
	r.profiles[p.Registration] = p.Clone()
	return nil
}

func (r *fakeRepo) GetByRegistration(_ context.Context, registration string) (*transcript.Profile, error) {
	p, ok := r.profiles[registration]
	if !ok {
		return nil, transcript.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*transcript.Profile, error) {
	for _, p := range r.profiles {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return nil, transcript.ErrProfileNotFound
}

func (r *fakeRepo) ListRegistrations(_ context.Context) ([]string, error) {
	registrations := make([]string, 0, len(r.profiles))
	for reg := range r.profiles {
		registrations = append(registrations, reg)
	}
	return registrations, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	for reg, p := range r.profiles {
		if p.ID == id {
			delete(r.profiles, reg)
			return nil
		}
	}
	return transcript.ErrProfileNotFound
}

type noopCache struct{}

func (noopCache) Get(_ context.Context, _ string) (*transcript.Profile, error) {
	return nil, transcript.ErrProfileNotFound
}
func (noopCache) Set(_ context.Context, _ *transcript.Profile, _ time.Duration) error { return nil }
func (noopCache) Invalidate(_ context.Context, _ string) error                        { return nil }

type fakeResultFeed struct {
	result *command.ResultImport
	err    error
}

func (f *fakeResultFeed) FetchResult(_ context.Context, _ string) (*command.ResultImport, error) {
	return f.result, f.err
}

type fakeAttendanceFeed struct {
	rows []transcript.RawRecord
}

func (f *fakeAttendanceFeed) FetchAttendance(_ context.Context, _ string) ([]transcript.RawRecord, error) {
	return f.rows, nil
}

type fakeStatusFeed struct{}

func (fakeStatusFeed) CheckStatus(_ context.Context) (query.FeedStatus, error) {
	return query.FeedStatus{LMS: "online", Attendance: "offline"}, nil
}

// newTestServer wires a Server with in-memory dependencies.
func newTestServer(t *testing.T, cfg Config, repo *fakeRepo, resultFeed *fakeResultFeed) *Server {
	t.Helper()

	cache := noopCache{}
	tracks := transcript.NewTrackRegistry(transcript.DefaultBEdCodes())
	undo := command.NewUndoStore()

	deps := Dependencies{
		ImportResult:     command.NewImportResultHandler(repo, cache, resultFeed, tracks, nil),
		MergeAttendance:  command.NewMergeAttendanceHandler(repo, cache, &fakeAttendanceFeed{}, nil),
		AddCourse:        command.NewAddCourseHandler(repo, cache, nil),
		SetCourseDeleted: command.NewSetCourseDeletedHandler(repo, cache, nil),
		MoveCourse:       command.NewMoveCourseHandler(repo, cache, nil),
		AddForecast:      command.NewAddForecastHandler(repo, cache, nil),
		RemoveSemester:   command.NewRemoveSemesterHandler(repo, cache, undo, nil),
		RestoreSemester:  command.NewRestoreSemesterHandler(repo, cache, undo, nil),
		GetProfile:       query.NewGetProfileHandler(repo, cache, tracks, 10*time.Minute, nil),
		GetStatus:        query.NewGetStatusHandler(fakeStatusFeed{}, nil),
		Profiles:         repo,
		Registrations:    repo,
	}

	return NewServer(cfg, deps)
}

func seedProfile(t *testing.T, repo *fakeRepo) {
	t.Helper()

	p, err := transcript.NewProfile("id-1", "Ali Raza", "2020-ag-1234")
	assert.NoError(t, err)
	p.ReplaceSemesters(transcript.BuildSemesters([]transcript.RawRecord{
		{Semester: "Winter Semester 2020-2021", Code: "CS-101", CreditHours: 3, Marks: 48, Source: transcript.SourceLMS},
		{Semester: "Spring Semester 2020-2021", Code: "MA-101", CreditHours: 3, Marks: 36, Source: transcript.SourceLMS},
	}))
	assert.NoError(t, repo.Save(context.Background(), p))
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()

	var envelope JSONResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), newFakeRepo(), &fakeResultFeed{})

	rec := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
}

func TestServer_RequestID(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), newFakeRepo(), &fakeResultFeed{})

	rec := doRequest(s, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// A caller-supplied ID is echoed back unchanged.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	echo := httptest.NewRecorder()
	s.Router().ServeHTTP(echo, req)
	assert.Equal(t, "req-abc-123", echo.Header().Get("X-Request-ID"))
}

func TestServer_FeedStatus(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), newFakeRepo(), &fakeResultFeed{})

	rec := doRequest(s, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lms_status":"online"`)
}

func TestServer_GetProfile(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo)
	s := newTestServer(t, DefaultConfig(), repo, &fakeResultFeed{})

	rec := doRequest(s, http.MethodGet, "/api/v1/profiles/2020-ag-1234", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
	assert.Contains(t, rec.Body.String(), "Winter 2020")
}

func TestServer_GetProfile_NotFound(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), newFakeRepo(), &fakeResultFeed{})

	rec := doRequest(s, http.MethodGet, "/api/v1/profiles/1999-ag-0000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.False(t, envelope.Success)
	assert.Equal(t, "not_found", envelope.Error.Code)
}

func TestServer_GetProfile_InvalidTrack(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo)
	s := newTestServer(t, DefaultConfig(), repo, &fakeResultFeed{})

	rec := doRequest(s, http.MethodGet, "/api/v1/profiles/2020-ag-1234?track=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ImportResult(t *testing.T) {
	feed := &fakeResultFeed{result: &command.ResultImport{
		StudentName:  "Ali Raza",
		Registration: "2020-ag-1234",
		Records: []transcript.RawRecord{
			{Semester: "Winter Semester 2020-2021", Code: "CS-101", CreditHours: 3, Marks: 48, Source: transcript.SourceLMS},
		},
	}}
	s := newTestServer(t, DefaultConfig(), newFakeRepo(), feed)

	rec := doRequest(s, http.MethodPost, "/api/v1/profiles/2020-ag-1234/import", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Re-import of an existing profile is a 200.
	rec = doRequest(s, http.MethodPost, "/api/v1/profiles/2020-ag-1234/import", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_AddCourse(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo)
	s := newTestServer(t, DefaultConfig(), repo, &fakeResultFeed{})

	rec := doRequest(s, http.MethodPost, "/api/v1/profiles/2020-ag-1234/courses",
		`{"semester": "Fall Semester 2021-2022", "code": "PHY-101", "credit_hours": 3, "marks": 44}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	stored, err := repo.GetByRegistration(context.Background(), "2020-ag-1234")
	assert.NoError(t, err)
	assert.Equal(t, 3, stored.CourseCount())
}

func TestServer_AddCourse_InvalidBody(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo)
	s := newTestServer(t, DefaultConfig(), repo, &fakeResultFeed{})

	rec := doRequest(s, http.MethodPost, "/api/v1/profiles/2020-ag-1234/courses", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/profiles/2020-ag-1234/courses",
		`{"semester": "Fall 2021", "code": "", "credit_hours": 3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_SetCourseDeleted(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo)
	s := newTestServer(t, DefaultConfig(), repo, &fakeResultFeed{})

	rec := doRequest(s, http.MethodPost, "/api/v1/profiles/2020-ag-1234/courses/deleted",
		`{"semester": "Winter 2020", "index": 0, "deleted": true}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, _ := repo.GetByRegistration(context.Background(), "2020-ag-1234")
	assert.True(t, stored.Semesters["Winter 2020"].Courses[0].IsDeleted)
}

func TestServer_RemoveAndRestoreSemester(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo)
	s := newTestServer(t, DefaultConfig(), repo, &fakeResultFeed{})

	rec := doRequest(s, http.MethodPost, "/api/v1/profiles/2020-ag-1234/semesters/remove",
		`{"semester": "Winter 2020"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/profiles/2020-ag-1234/semesters/restore",
		`{"semester": "Winter 2020"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Nothing left to restore.
	rec = doRequest(s, http.MethodPost, "/api/v1/profiles/2020-ag-1234/semesters/restore",
		`{"semester": "Winter 2020"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_ExportCSV(t *testing.T) {
	repo := newFakeRepo()
	seedProfile(t, repo)
	s := newTestServer(t, DefaultConfig(), repo, &fakeResultFeed{})

	rec := doRequest(s, http.MethodGet, "/api/v1/profiles/2020-ag-1234/export.csv", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "2020-ag-1234-transcript.csv")
	assert.Contains(t, rec.Body.String(), "CS-101")
}

func TestServer_AdminListProfiles(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("topsecret"), bcrypt.MinCost)
	assert.NoError(t, err)

	cfg := DefaultConfig()
	cfg.AdminKeyHash = string(hash)

	repo := newFakeRepo()
	seedProfile(t, repo)
	s := newTestServer(t, cfg, repo, &fakeResultFeed{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/profiles", nil)
	req.Header.Set("X-API-Key", "topsecret")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2020-ag-1234")
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestServer_AdminDelete(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("topsecret"), bcrypt.MinCost)
	assert.NoError(t, err)

	cfg := DefaultConfig()
	cfg.AdminKeyHash = string(hash)

	repo := newFakeRepo()
	seedProfile(t, repo)
	s := newTestServer(t, cfg, repo, &fakeResultFeed{})

	// No key.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/profiles/2020-ag-1234", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/profiles/2020-ag-1234", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Correct key.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/profiles/2020-ag-1234", nil)
	req.Header.Set("X-API-Key", "topsecret")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = repo.GetByRegistration(context.Background(), "2020-ag-1234")
	assert.ErrorIs(t, err, transcript.ErrProfileNotFound)
}
