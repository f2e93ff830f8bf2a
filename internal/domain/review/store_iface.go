package review

import (
	"context"
	"time"
)

type StoreAPI interface {
	AssignmentWriter

	ListCycles(ctx context.Context) ([]ReviewCycle, error)
	GetCycle(ctx context.Context, id int64) (ReviewCycle, error)
	CreateCycle(ctx context.Context, input CycleInput, status string) (int64, error)
	UpdateCycle(ctx context.Context, id int64, input CycleInput, status string) error
	DeleteCycle(ctx context.Context, id int64) (bool, error)
	SyncCycleStatuses(ctx context.Context, now time.Time) (int64, error)
	CycleReviewerIDs(ctx context.Context, cycleID int64) ([]int64, error)

	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	ListReviewerAssignments(ctx context.Context, reviewerID int64) ([]Assignment, error)
	GetAssignment(ctx context.Context, id int64) (Assignment, error)
	UpdateAssignmentRelation(ctx context.Context, id int64, relation string) error
	DeleteAssignment(ctx context.Context, id int64) (bool, error)
	UsersExist(ctx context.Context, ids ...int64) (bool, error)
}
