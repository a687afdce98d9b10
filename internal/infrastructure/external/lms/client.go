// Package lms implements the client for the university result and attendance
// scraper proxy. All communication with the upstream feeds goes through this
// package; the rest of the system only ever sees canonical raw records.
package lms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/m-saqi/aistudio-uafcgpa/pkg/circuitbreaker"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrFeedUnavailable - the upstream feed answered but reported failure.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrNoRecords - the feed answered success with an empty row set.
	ErrNoRecords = errors.New("no records for registration")
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the feed client.
type ClientConfig struct {
	// BaseURL of the scraper proxy.
	BaseURL string

	// APIKey is an optional bearer token for the proxy.
	APIKey string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Retrier handles transient upstream failures. Nil gets LMSRetrier.
	Retrier *retry.Retrier

	// Breaker guards the upstream. Nil gets LMSBreaker.
	Breaker *circuitbreaker.CircuitBreaker

	// Logger for structured logging. Nil gets the default logger.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the scraper proxy client.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	log        *logger.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	mapper     *Mapper
}

// NewClient creates a new feed client.
func NewClient(config ClientConfig) *Client {
	log := config.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("lms-client"))

	retrier := config.Retrier
	if retrier == nil {
		retrier = retry.LMSRetrier()
	}

	breaker := config.Breaker
	if breaker == nil {
		breaker = circuitbreaker.LMSBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		})
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		log:     log,
		retrier: retrier,
		breaker: breaker,
		mapper:  NewMapper(),
	}
}

// ResultFetch is the outcome of a result scrape: student identity plus the
// mapped canonical records.
type ResultFetch struct {
	StudentName  string
	Registration string
	Records      []ResultRowDTO
}

// FetchResult scrapes the full result record for a registration number.
func (c *Client) FetchResult(ctx context.Context, registration string) (*ResultFetch, error) {
	start := time.Now()

	var rows []ResultRowDTO
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			var response APIResponse[[]ResultRowDTO]
			if err := c.doRequest(ctx, "scrape_single", registration, &response); err != nil {
				return retry.Retryable(err)
			}
			if !response.Success {
				// Upstream said no. Retrying the same registration will not
				// change the answer.
				return retry.Permanent(fmt.Errorf("%w: %s", ErrFeedUnavailable, response.Message))
			}
			rows = response.ResultData
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch result %s: %w", registration, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecords, registration)
	}

	name, reg := c.mapper.StudentIdentity(rows)

	c.log.Info("result fetched",
		logger.Registration(reg),
		logger.CourseCount(len(rows)),
		logger.Latency(time.Since(start)))

	return &ResultFetch{
		StudentName:  name,
		Registration: reg,
		Records:      rows,
	}, nil
}

// FetchAttendance scrapes the attendance feed for a registration number.
// An empty row set is not an error here: many students have no attendance
// records at all.
func (c *Client) FetchAttendance(ctx context.Context, registration string) ([]AttendanceRowDTO, error) {
	start := time.Now()

	var rows []AttendanceRowDTO
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			var response APIResponse[[]AttendanceRowDTO]
			if err := c.doRequest(ctx, "scrape_attendance", registration, &response); err != nil {
				return retry.Retryable(err)
			}
			if !response.Success {
				return retry.Permanent(fmt.Errorf("%w: %s", ErrFeedUnavailable, response.Message))
			}
			rows = response.ResultData
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch attendance %s: %w", registration, err)
	}

	c.log.Info("attendance fetched",
		logger.Registration(registration),
		logger.CourseCount(len(rows)),
		logger.Latency(time.Since(start)))

	return rows, nil
}

// CheckStatus asks the proxy about upstream feed health.
func (c *Client) CheckStatus(ctx context.Context) (*StatusDTO, error) {
	var status StatusDTO
	if err := c.doRequest(ctx, "check_status", "", &status); err != nil {
		return nil, fmt.Errorf("check status: %w", err)
	}
	return &status, nil
}

// Mapper returns the client's DTO mapper.
func (c *Client) Mapper() *Mapper {
	return c.mapper
}

// doRequest performs a single GET against the scraper proxy.
func (c *Client) doRequest(ctx context.Context, action, registration string, result any) error {
	params := url.Values{}
	params.Set("action", action)
	if registration != "" {
		params.Set("registrationNumber", registration)
	}

	fullURL := c.config.BaseURL + "/api/result-scraper?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("scraper returned status %d", resp.StatusCode)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// IsHealthy checks if the scraper proxy is reachable and the result feed is up.
func (c *Client) IsHealthy(ctx context.Context) bool {
	status, err := c.CheckStatus(ctx)
	return err == nil && status.LMSStatus == "online"
}
