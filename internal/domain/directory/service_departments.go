package directory

import (
	"context"
	"strings"
)

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.store.ListDepartments(ctx)
}

func (s *Service) GetDepartment(ctx context.Context, id int64) (Department, error) {
	return s.store.GetDepartment(ctx, id)
}

func (s *Service) CreateDepartment(ctx context.Context, input DepartmentInput) (Department, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	taken, err := s.store.DepartmentNameTaken(ctx, input.Name, 0)
	if err != nil {
		return Department{}, err
	}
	if taken {
		return Department{}, ErrDepartmentNameTaken
	}
	id, err := s.store.CreateDepartment(ctx, input)
	if err != nil {
		return Department{}, err
	}
	return s.store.GetDepartment(ctx, id)
}

func (s *Service) UpdateDepartment(ctx context.Context, id int64, input DepartmentInput) (Department, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	taken, err := s.store.DepartmentNameTaken(ctx, input.Name, id)
	if err != nil {
		return Department{}, err
	}
	if taken {
		return Department{}, ErrDepartmentNameTaken
	}
	if err := s.store.UpdateDepartment(ctx, id, input); err != nil {
		return Department{}, err
	}
	return s.store.GetDepartment(ctx, id)
}

func (s *Service) DeleteDepartment(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteDepartment(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrDepartmentNotFound
	}
	return nil
}
