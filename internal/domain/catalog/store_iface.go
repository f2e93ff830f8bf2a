package catalog

import "context"

type StoreAPI interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	CategoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	CreateCategory(ctx context.Context, input CategoryInput) (int64, error)
	UpdateCategory(ctx context.Context, id int64, input CategoryInput) error
	DeleteCategory(ctx context.Context, id int64) (bool, error)
	CountQuestions(ctx context.Context, categoryID int64) (int, error)

	ListQuestions(ctx context.Context, categoryID int64) ([]Question, error)
	GetQuestion(ctx context.Context, id int64) (Question, error)
	CreateQuestion(ctx context.Context, input QuestionInput) (int64, error)
	UpdateQuestion(ctx context.Context, id int64, input QuestionInput) error
	DeleteQuestion(ctx context.Context, id int64) (bool, error)
}
