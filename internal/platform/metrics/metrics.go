package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-wide counters for the metrics endpoint.
type Collector struct {
	totalRequests      atomic.Uint64
	clientErrors       atomic.Uint64
	serverErrors       atomic.Uint64
	rateLimited        atomic.Uint64
	totalDurationMs    atomic.Uint64
	assignmentsCreated atomic.Uint64
	assignmentsSkipped atomic.Uint64
	feedbackSubmitted  atomic.Uint64
}

type Snapshot struct {
	RequestsTotal      uint64  `json:"requestsTotal"`
	ClientErrorsTotal  uint64  `json:"clientErrorsTotal"`
	ServerErrorsTotal  uint64  `json:"serverErrorsTotal"`
	RateLimitedTotal   uint64  `json:"rateLimitedTotal"`
	AvgDurationMs      float64 `json:"avgDurationMs"`
	TotalDurationMs    uint64  `json:"totalDurationMs"`
	AssignmentsCreated uint64  `json:"assignmentsCreated"`
	AssignmentsSkipped uint64  `json:"assignmentsSkipped"`
	FeedbackSubmitted  uint64  `json:"feedbackSubmitted"`
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.totalRequests.Add(1)
	switch {
	case status == 429:
		c.rateLimited.Add(1)
		c.clientErrors.Add(1)
	case status >= 500:
		c.serverErrors.Add(1)
	case status >= 400:
		c.clientErrors.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

func (c *Collector) RecordCommit(created, skipped int) {
	c.assignmentsCreated.Add(uint64(created))
	c.assignmentsSkipped.Add(uint64(skipped))
}

func (c *Collector) RecordFeedback() {
	c.feedbackSubmitted.Add(1)
}

func (c *Collector) Snapshot() Snapshot {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return Snapshot{
		RequestsTotal:      total,
		ClientErrorsTotal:  c.clientErrors.Load(),
		ServerErrorsTotal:  c.serverErrors.Load(),
		RateLimitedTotal:   c.rateLimited.Load(),
		AvgDurationMs:      avg,
		TotalDurationMs:    totalMs,
		AssignmentsCreated: c.assignmentsCreated.Load(),
		AssignmentsSkipped: c.assignmentsSkipped.Load(),
		FeedbackSubmitted:  c.feedbackSubmitted.Load(),
	}
}
