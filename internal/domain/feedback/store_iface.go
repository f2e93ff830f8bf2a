package feedback

import "context"

type StoreAPI interface {
	AssignmentContext(ctx context.Context, assignmentID int64) (AssignmentContext, error)
	QuestionExists(ctx context.Context, questionID int64) (bool, error)
	Upsert(ctx context.Context, input SubmitInput) (int64, bool, error)
	List(ctx context.Context, filter ListFilter) ([]Feedback, int, error)
	ListByAssignment(ctx context.Context, assignmentID int64) ([]Feedback, error)
	Get(ctx context.Context, id int64) (Feedback, error)
	Update(ctx context.Context, id int64, score int, comment string) error
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}
