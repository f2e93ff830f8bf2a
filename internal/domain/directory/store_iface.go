package directory

import "context"

type StoreAPI interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	IsEmployee(ctx context.Context, id int64) (bool, error)
	CreateUser(ctx context.Context, input CreateUserInput, passwordHash string) (int64, error)
	UpdateEmployee(ctx context.Context, id int64, input UpdateEmployeeInput) error
	DeleteUser(ctx context.Context, id int64) (bool, error)
	ResetEmployees(ctx context.Context) (int, error)
	ListOrgMembers(ctx context.Context) ([]OrgMember, error)
	DirectReports(ctx context.Context, managerID int64) ([]UserRef, error)

	ListDepartments(ctx context.Context) ([]Department, error)
	GetDepartment(ctx context.Context, id int64) (Department, error)
	DepartmentExists(ctx context.Context, id int64) (bool, error)
	DepartmentNameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	CreateDepartment(ctx context.Context, input DepartmentInput) (int64, error)
	UpdateDepartment(ctx context.Context, id int64, input DepartmentInput) error
	DeleteDepartment(ctx context.Context, id int64) (bool, error)
}
