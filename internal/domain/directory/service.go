package directory

import (
	"context"
	"strings"

	"feedback360/internal/domain/auth"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

func (s *Service) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) ListOrgMembers(ctx context.Context) ([]OrgMember, error) {
	return s.store.ListOrgMembers(ctx)
}

func (s *Service) DirectReports(ctx context.Context, managerID int64) ([]UserRef, error) {
	return s.store.DirectReports(ctx, managerID)
}

// CreateUser registers an account. Role defaults to EMPLOYEE.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (Employee, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = auth.NormalizeEmail(input.Email)
	role, err := auth.NormalizeRole(input.Role)
	if err != nil {
		return Employee{}, err
	}
	input.Role = role
	if err := auth.ValidatePassword(input.Password); err != nil {
		return Employee{}, err
	}

	taken, err := s.store.EmailTaken(ctx, input.Email, 0)
	if err != nil {
		return Employee{}, err
	}
	if taken {
		return Employee{}, ErrEmailTaken
	}
	if err := s.checkManager(ctx, input.ManagerID); err != nil {
		return Employee{}, err
	}
	if err := s.checkDepartment(ctx, input.DepartmentID); err != nil {
		return Employee{}, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return Employee{}, err
	}
	id, err := s.store.CreateUser(ctx, input, hash)
	if err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) UpdateEmployee(ctx context.Context, id int64, input UpdateEmployeeInput) (Employee, error) {
	if _, err := s.store.GetEmployee(ctx, id); err != nil {
		return Employee{}, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if input.Email != nil {
		email := auth.NormalizeEmail(*input.Email)
		input.Email = &email
		taken, err := s.store.EmailTaken(ctx, email, id)
		if err != nil {
			return Employee{}, err
		}
		if taken {
			return Employee{}, ErrEmailTaken
		}
	}
	if input.ManagerID.Set {
		if err := s.checkManager(ctx, input.ManagerID.ID); err != nil {
			return Employee{}, err
		}
	}
	if input.DepartmentID.Set {
		if err := s.checkDepartment(ctx, input.DepartmentID.ID); err != nil {
			return Employee{}, err
		}
	}
	if err := s.store.UpdateEmployee(ctx, id, input); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Service) ResetEmployees(ctx context.Context) (int, error) {
	return s.store.ResetEmployees(ctx)
}

func (s *Service) checkManager(ctx context.Context, managerID *int64) error {
	if managerID == nil {
		return nil
	}
	ok, err := s.store.IsEmployee(ctx, *managerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrManagerNotEmployee
	}
	return nil
}

func (s *Service) checkDepartment(ctx context.Context, departmentID *int64) error {
	if departmentID == nil {
		return nil
	}
	ok, err := s.store.DepartmentExists(ctx, *departmentID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownDepartment
	}
	return nil
}
