package reports

import (
	"time"

	"feedback360/internal/domain/catalog"
	"feedback360/internal/domain/directory"
)

type ScoreFilter struct {
	RevieweeID   int64
	ReviewerID   int64
	CycleID      int64
	RelationType string
}

type CategoryScore struct {
	CategoryID     int64   `json:"categoryId"`
	CategoryName   string  `json:"categoryName"`
	AverageScore   float64 `json:"averageScore"`
	TotalFeedbacks int     `json:"totalFeedbacks"`
}

type CycleRef struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// ScoreRow is one feedback answer flattened for report grouping.
type ScoreRow struct {
	CategoryID    int64
	CategoryName  string
	QuestionID    int64
	QuestionText  string
	RelationType  string
	Score         int
	Comment       string
	ReviewerID    int64
	ReviewerName  string
	ReviewerEmail string
	CreatedAt     time.Time
}

type RelationScore struct {
	RelationType string  `json:"relationType"`
	AverageScore float64 `json:"averageScore"`
	Count        int     `json:"count"`
}

type FeedbackEntry struct {
	Score        int               `json:"score"`
	Comment      string            `json:"comment"`
	RelationType string            `json:"relationType"`
	Reviewer     directory.UserRef `json:"reviewer"`
	CreatedAt    time.Time         `json:"createdAt"`
}

type QuestionDetail struct {
	QuestionID int64           `json:"questionId"`
	Text       string          `json:"text"`
	Feedback   []FeedbackEntry `json:"feedback"`
}

type CategoryDetail struct {
	CategoryID     int64            `json:"categoryId"`
	CategoryName   string           `json:"categoryName"`
	AverageScore   float64          `json:"averageScore"`
	TotalFeedbacks int              `json:"totalFeedbacks"`
	RelationTypes  []RelationScore  `json:"relationTypes"`
	Questions      []QuestionDetail `json:"questions"`
}

type DetailedReport struct {
	Reviewee       directory.UserRef `json:"reviewee"`
	ReviewCycle    CycleRef          `json:"reviewCycle"`
	Categories     []CategoryDetail  `json:"categories"`
	OverallAverage float64           `json:"overallAverage"`
	TotalFeedbacks int               `json:"totalFeedbacks"`
}

type RelationStat struct {
	RelationType string  `json:"relationType"`
	Assignments  int     `json:"assignments"`
	AverageScore float64 `json:"averageScore"`
}

type OverallStats struct {
	Employees    int `json:"employees"`
	Departments  int `json:"departments"`
	Categories   int `json:"categories"`
	Questions    int `json:"questions"`
	ReviewCycles int `json:"reviewCycles"`
}

type Summary struct {
	TotalAssignments     int            `json:"totalAssignments"`
	CompletedAssignments int            `json:"completedAssignments"`
	TotalFeedbacks       int            `json:"totalFeedbacks"`
	AverageScore         float64        `json:"averageScore"`
	CompletionRate       float64        `json:"completionRate"`
	RelationTypeStats    []RelationStat `json:"relationTypeStats"`
	OverallStats         OverallStats   `json:"overallStats"`
}

type PairScore struct {
	ReviewCycleID   int64             `json:"reviewCycleId"`
	ReviewCycleName string            `json:"reviewCycleName"`
	Reviewer        directory.UserRef `json:"reviewer"`
	Reviewee        directory.UserRef `json:"reviewee"`
	RelationTypes   []string          `json:"relationTypes"`
	FeedbackCount   int               `json:"feedbackCount"`
	AverageScore    float64           `json:"averageScore"`
}

type Snapshot struct {
	ExportedAt  time.Time              `json:"exportedAt"`
	Departments []directory.Department `json:"departments"`
	Employees   []directory.Employee   `json:"employees"`
	Categories  []catalog.Category     `json:"categories"`
	Questions   []catalog.Question     `json:"questions"`
}

type FeedbackExportRow struct {
	FeedbackID    int64
	CycleName     string
	ReviewerName  string
	ReviewerEmail string
	RevieweeName  string
	RevieweeEmail string
	RelationType  string
	CategoryName  string
	QuestionText  string
	Score         int
	Comment       string
	SubmittedAt   time.Time
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

type JobRun struct {
	ID          int64          `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt"`
}

func reviewerRef(row ScoreRow) directory.UserRef {
	return directory.UserRef{ID: row.ReviewerID, Name: row.ReviewerName, Email: row.ReviewerEmail}
}
