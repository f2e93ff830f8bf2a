package catalog

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	taken, err := s.store.CategoryNameTaken(ctx, input.Name, 0)
	if err != nil {
		return Category{}, err
	}
	if taken {
		return Category{}, ErrCategoryNameTaken
	}
	id, err := s.store.CreateCategory(ctx, input)
	if err != nil {
		return Category{}, err
	}
	return s.store.GetCategory(ctx, id)
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, patch CategoryPatch) (Category, error) {
	current, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}
	input := CategoryInput{Name: current.Name, Description: current.Description}
	if patch.Name != nil {
		input.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		input.Description = strings.TrimSpace(*patch.Description)
	}
	taken, err := s.store.CategoryNameTaken(ctx, input.Name, id)
	if err != nil {
		return Category{}, err
	}
	if taken {
		return Category{}, ErrCategoryNameTaken
	}
	if err := s.store.UpdateCategory(ctx, id, input); err != nil {
		return Category{}, err
	}
	return s.store.GetCategory(ctx, id)
}

// DeleteCategory refuses while any question still references the category.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return err
	}
	count, err := s.store.CountQuestions(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryHasQuestions
	}
	deleted, err := s.store.DeleteCategory(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *Service) ListQuestions(ctx context.Context) ([]Question, error) {
	return s.store.ListQuestions(ctx, 0)
}

func (s *Service) ListQuestionsByCategory(ctx context.Context, categoryID int64) ([]Question, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.store.ListQuestions(ctx, categoryID)
}

func (s *Service) GetQuestion(ctx context.Context, id int64) (Question, error) {
	return s.store.GetQuestion(ctx, id)
}

func (s *Service) CreateQuestion(ctx context.Context, input QuestionInput) (Question, error) {
	input.Text = strings.TrimSpace(input.Text)
	if err := s.requireCategory(ctx, input.CategoryID); err != nil {
		return Question{}, err
	}
	id, err := s.store.CreateQuestion(ctx, input)
	if err != nil {
		return Question{}, err
	}
	return s.store.GetQuestion(ctx, id)
}

func (s *Service) UpdateQuestion(ctx context.Context, id int64, patch QuestionPatch) (Question, error) {
	current, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	input := QuestionInput{Text: current.Text, CategoryID: current.CategoryID}
	if patch.Text != nil {
		input.Text = strings.TrimSpace(*patch.Text)
	}
	if patch.CategoryID != nil && *patch.CategoryID != current.CategoryID {
		if err := s.requireCategory(ctx, *patch.CategoryID); err != nil {
			return Question{}, err
		}
		input.CategoryID = *patch.CategoryID
	}
	if err := s.store.UpdateQuestion(ctx, id, input); err != nil {
		return Question{}, err
	}
	return s.store.GetQuestion(ctx, id)
}

func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteQuestion(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *Service) requireCategory(ctx context.Context, categoryID int64) error {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return ErrUnknownCategory
		}
		return err
	}
	return nil
}
