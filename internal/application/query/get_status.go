package query

import (
	"context"

	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET FEED STATUS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// FeedStatus reports the reachability of the upstream systems.
type FeedStatus struct {
	// LMS is the result system status, e.g. "online".
	LMS string

	// Attendance is the attendance system status.
	Attendance string
}

// Online reports whether the result system accepts scrapes.
func (s FeedStatus) Online() bool {
	return s.LMS == "online"
}

// StatusFeed defines the interface for the upstream status probe.
type StatusFeed interface {
	// CheckStatus probes both upstream systems.
	CheckStatus(ctx context.Context) (FeedStatus, error)
}

// GetStatusHandler handles feed status queries.
type GetStatusHandler struct {
	feed StatusFeed
	log  *logger.Logger
}

// NewGetStatusHandler creates a new GetStatusHandler.
func NewGetStatusHandler(feed StatusFeed, log *logger.Logger) *GetStatusHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetStatusHandler{
		feed: feed,
		log:  log.With(logger.Component("get-status")),
	}
}

// Handle probes the upstream feeds. Probe failures degrade to an "offline"
// report rather than an error: the caller is a status endpoint, and an
// unreachable upstream is a valid answer.
func (h *GetStatusHandler) Handle(ctx context.Context) FeedStatus {
	status, err := h.feed.CheckStatus(ctx)
	if err != nil {
		h.log.Warn("status probe failed", logger.Err(err))
		return FeedStatus{LMS: "offline", Attendance: "offline"}
	}
	return status
}
