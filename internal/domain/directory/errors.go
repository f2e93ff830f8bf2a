package directory

import "errors"

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrEmailTaken          = errors.New("email already taken")
	ErrDepartmentNameTaken = errors.New("department name already exists")
	ErrManagerNotEmployee  = errors.New("manager must be an existing EMPLOYEE")
	ErrUnknownDepartment   = errors.New("department does not exist")
)
