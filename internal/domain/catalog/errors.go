package catalog

import "errors"

var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrCategoryNameTaken    = errors.New("category name already exists")
	ErrCategoryHasQuestions = errors.New("category still has questions")
	ErrUnknownCategory      = errors.New("category does not exist")
)
