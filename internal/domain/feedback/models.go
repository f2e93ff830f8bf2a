package feedback

import (
	"time"

	"feedback360/internal/domain/directory"
)

type QuestionRef struct {
	ID           int64  `json:"id"`
	Text         string `json:"text"`
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

type CycleRef struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type Feedback struct {
	ID                 int64             `json:"id"`
	ReviewAssignmentID int64             `json:"reviewAssignmentId"`
	QuestionID         int64             `json:"questionId"`
	Score              int               `json:"score"`
	Comment            string            `json:"comment"`
	RelationType       string            `json:"relationType"`
	Question           QuestionRef       `json:"question"`
	Reviewer           directory.UserRef `json:"reviewer"`
	Reviewee           directory.UserRef `json:"reviewee"`
	ReviewCycle        CycleRef          `json:"reviewCycle"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// AssignmentContext is what submission checks need from an assignment.
type AssignmentContext struct {
	ID         int64
	ReviewerID int64
	StartDate  time.Time
	EndDate    time.Time
}

type SubmitInput struct {
	AssignmentID int64
	QuestionID   int64
	Score        int
	Comment      string
}

type Patch struct {
	Score   *int
	Comment *string
}

type ListFilter struct {
	CycleID int64
	Limit   int
	Offset  int
}
