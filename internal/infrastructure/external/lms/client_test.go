package lms

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m-saqi/aistudio-uafcgpa/pkg/retry"
)

func newTestClient(serverURL string) *Client {
	cfg := DefaultClientConfig(serverURL)
	cfg.Retrier = retry.New(retry.WithMaxAttempts(1))
	return NewClient(cfg)
}

func TestClient_FetchResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/result-scraper", r.URL.Path)
		assert.Equal(t, "scrape_single", r.URL.Query().Get("action"))
		assert.Equal(t, "2020-ag-1234", r.URL.Query().Get("registrationNumber"))

		fmt.Fprint(w, `{
            "success": true,
            "resultData": [
                {
                    "StudentName": "Ali Raza",
                    "RegistrationNo": "2020-ag-1234",
                    "Semester": "Winter Semester 2020-2021",
                    "CourseCode": "CS-101",
                    "CourseTitle": "Introduction to Computing",
                    "CreditHours": "3(2-1)",
                    "Total": "48",
                    "Grade": "A"
                },
                {
                    "StudentName": "Ali Raza",
                    "RegistrationNo": "2020-ag-1234",
                    "Semester": "Spring Semester 2020-2021",
                    "CourseCode": "MA-101",
                    "CourseTitle": "Calculus",
                    "CreditHours": "3(3-0)",
                    "Total": "36",
                    "Grade": "C"
                }
            ]
        }`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	fetch, err := client.FetchResult(context.Background(), "2020-ag-1234")

	assert.NoError(t, err)
	assert.Equal(t, "Ali Raza", fetch.StudentName)
	assert.Equal(t, "2020-ag-1234", fetch.Registration)
	assert.Len(t, fetch.Records, 2)
	assert.Equal(t, "CS-101", fetch.Records[0].CourseCode)
}

func TestClient_FetchResult_FeedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": false, "message": "LMS is down for maintenance"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchResult(context.Background(), "2020-ag-1234")

	assert.ErrorIs(t, err, ErrFeedUnavailable)
	assert.Contains(t, err.Error(), "maintenance")
}

func TestClient_FetchResult_EmptyRowSet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": true, "resultData": []}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchResult(context.Background(), "1999-ag-0000")

	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestClient_FetchAttendance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "scrape_attendance", r.URL.Query().Get("action"))

		fmt.Fprint(w, `{
            "success": true,
            "resultData": [
                {"Semester": "Spring-24", "CourseCode": "AGR-201", "CourseName": "Agronomy", "Totalmark": "42"}
            ]
        }`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	rows, err := client.FetchAttendance(context.Background(), "2020-ag-1234")

	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "AGR-201", rows[0].CourseCode)
	assert.Equal(t, "42", rows[0].Marks())
}

func TestClient_FetchAttendance_EmptyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": true, "resultData": []}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	rows, err := client.FetchAttendance(context.Background(), "2020-ag-1234")

	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestClient_CheckStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "check_status", r.URL.Query().Get("action"))
		fmt.Fprint(w, `{"lms_status": "online", "attnd_status": "offline"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	status, err := client.CheckStatus(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "online", status.LMSStatus)
	assert.Equal(t, "offline", status.AttendanceStatus)
	assert.True(t, client.IsHealthy(context.Background()))
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchResult(context.Background(), "2020-ag-1234")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
