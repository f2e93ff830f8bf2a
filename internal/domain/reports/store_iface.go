package reports

import (
	"context"

	"feedback360/internal/domain/catalog"
	"feedback360/internal/domain/directory"
)

type StoreAPI interface {
	ScoresByCategory(ctx context.Context, filter ScoreFilter) ([]CategoryScore, error)
	Reviewee(ctx context.Context, id int64) (directory.UserRef, error)
	Cycle(ctx context.Context, id int64) (CycleRef, error)
	DetailedRows(ctx context.Context, revieweeID, cycleID int64) ([]ScoreRow, error)
	CountAssignments(ctx context.Context, cycleID int64) (int, error)
	CountCompletedAssignments(ctx context.Context, cycleID int64) (int, error)
	FeedbackStats(ctx context.Context, cycleID int64) (int, float64, error)
	RelationStats(ctx context.Context, cycleID int64) ([]RelationStat, error)
	OverallStats(ctx context.Context) (OverallStats, error)
	Pairs(ctx context.Context, cycleID int64) ([]PairScore, error)
	FeedbackExportRows(ctx context.Context) ([]FeedbackExportRow, error)
	ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error)
}

// DirectorySource and CatalogSource feed the JSON snapshot export.
type DirectorySource interface {
	ListDepartments(ctx context.Context) ([]directory.Department, error)
	ListEmployees(ctx context.Context) ([]directory.Employee, error)
}

type CatalogSource interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListQuestions(ctx context.Context) ([]catalog.Question, error)
}
