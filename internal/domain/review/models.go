package review

import (
	"time"

	"feedback360/internal/domain/directory"
)

// Config selects which relation kinds the generator emits.
type Config struct {
	Self        bool `json:"self"`
	Manager     bool `json:"manager"`
	Subordinate bool `json:"subordinate"`
	Peer        bool `json:"peer"`
}

func (c Config) Any() bool {
	return c.Self || c.Manager || c.Subordinate || c.Peer
}

type Pair struct {
	ReviewerID   int64  `json:"reviewerId"`
	RevieweeID   int64  `json:"revieweeId"`
	RelationType string `json:"relationType"`
}

type PreviewItem struct {
	ReviewerID    int64  `json:"reviewerId"`
	ReviewerName  string `json:"reviewerName"`
	ReviewerEmail string `json:"reviewerEmail"`
	RevieweeID    int64  `json:"revieweeId"`
	RevieweeName  string `json:"revieweeName"`
	RevieweeEmail string `json:"revieweeEmail"`
	RelationType  string `json:"relationType"`
	Enabled       bool   `json:"enabled"`
}

type CycleRef struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Status    string    `json:"status"`
}

type ReviewCycle struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	StartDate   time.Time    `json:"startDate"`
	EndDate     time.Time    `json:"endDate"`
	Status      string       `json:"status"`
	Config      Config       `json:"config"`
	Assignments []Assignment `json:"assignments"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type Assignment struct {
	ID            int64             `json:"id"`
	ReviewCycleID int64             `json:"reviewCycleId"`
	ReviewerID    int64             `json:"reviewerId"`
	RevieweeID    int64             `json:"revieweeId"`
	RelationType  string            `json:"relationType"`
	Reviewer      directory.UserRef `json:"reviewer"`
	Reviewee      directory.UserRef `json:"reviewee"`
	ReviewCycle   *CycleRef         `json:"reviewCycle,omitempty"`
	FeedbackCount int               `json:"feedbackCount"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type CycleInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Config    Config
}

type CyclePatch struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	Config    *Config
}

type AssignmentFilter struct {
	CycleID      int64
	ReviewerID   int64
	RevieweeID   int64
	RelationType string
}

type CommitResult struct {
	Requested int `json:"requested"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
}

type CreateCycleResult struct {
	CycleID              int64  `json:"cycleId"`
	AssignmentsRequested int    `json:"assignmentsRequested"`
	AssignmentsCreated   int    `json:"assignmentsCreated"`
	AssignmentsSkipped   int    `json:"assignmentsSkipped"`
	Incomplete           bool   `json:"incomplete"`
	Config               Config `json:"config"`
}
