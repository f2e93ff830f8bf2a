package directory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"feedback360/internal/domain/auth"
)

type memStore struct {
	users       map[int64]Employee
	departments map[int64]Department
	nextID      int64
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]Employee{}, departments: map[int64]Department{}, nextID: 1}
}

func (m *memStore) ListEmployees(context.Context) ([]Employee, error) {
	var out []Employee
	for _, e := range m.users {
		if e.Role != auth.RoleAdmin {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) GetEmployee(_ context.Context, id int64) (Employee, error) {
	e, ok := m.users[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}

func (m *memStore) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	for id, e := range m.users {
		if e.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) IsEmployee(_ context.Context, id int64) (bool, error) {
	e, ok := m.users[id]
	return ok && e.Role == auth.RoleEmployee, nil
}

func (m *memStore) CreateUser(_ context.Context, input CreateUserInput, _ string) (int64, error) {
	id := m.nextID
	m.nextID++
	m.users[id] = Employee{ID: id, Name: input.Name, Email: input.Email, Role: input.Role, ManagerID: input.ManagerID, DepartmentID: input.DepartmentID}
	return id, nil
}

func (m *memStore) UpdateEmployee(_ context.Context, id int64, input UpdateEmployeeInput) error {
	e := m.users[id]
	if input.Name != nil {
		e.Name = *input.Name
	}
	if input.Email != nil {
		e.Email = *input.Email
	}
	if input.ManagerID.Set {
		e.ManagerID = input.ManagerID.ID
	}
	if input.DepartmentID.Set {
		e.DepartmentID = input.DepartmentID.ID
	}
	m.users[id] = e
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id int64) (bool, error) {
	_, ok := m.users[id]
	delete(m.users, id)
	return ok, nil
}

func (m *memStore) ResetEmployees(context.Context) (int, error) {
	count := 0
	for id, e := range m.users {
		if e.Role == auth.RoleEmployee {
			delete(m.users, id)
			count++
		}
	}
	return count, nil
}

func (m *memStore) ListOrgMembers(context.Context) ([]OrgMember, error) { return nil, nil }

func (m *memStore) DirectReports(context.Context, int64) ([]UserRef, error) { return nil, nil }

func (m *memStore) ListDepartments(context.Context) ([]Department, error) { return nil, nil }

func (m *memStore) GetDepartment(_ context.Context, id int64) (Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return Department{}, ErrDepartmentNotFound
	}
	return d, nil
}

func (m *memStore) DepartmentExists(_ context.Context, id int64) (bool, error) {
	_, ok := m.departments[id]
	return ok, nil
}

func (m *memStore) DepartmentNameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	for id, d := range m.departments {
		if d.Name == name && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateDepartment(_ context.Context, input DepartmentInput) (int64, error) {
	id := m.nextID
	m.nextID++
	m.departments[id] = Department{ID: id, Name: input.Name, Description: input.Description}
	return id, nil
}

func (m *memStore) UpdateDepartment(_ context.Context, id int64, input DepartmentInput) error {
	if _, ok := m.departments[id]; !ok {
		return ErrDepartmentNotFound
	}
	m.departments[id] = Department{ID: id, Name: input.Name, Description: input.Description}
	return nil
}

func (m *memStore) DeleteDepartment(_ context.Context, id int64) (bool, error) {
	_, ok := m.departments[id]
	delete(m.departments, id)
	return ok, nil
}

func int64Ptr(v int64) *int64 { return &v }

func TestCreateUserValidatesReferences(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	admin, err := svc.CreateUser(ctx, CreateUserInput{Name: "Admin", Email: "admin@company.com", Password: "admin123", Role: "admin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admin.Role != auth.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}

	lead, err := svc.CreateUser(ctx, CreateUserInput{Name: " Lead ", Email: "LEAD@company.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Role != auth.RoleEmployee || lead.Email != "lead@company.com" || lead.Name != "Lead" {
		t.Fatalf("expected normalized employee, got %+v", lead)
	}

	tests := []struct {
		name  string
		input CreateUserInput
		want  error
	}{
		{"duplicate email", CreateUserInput{Name: "Dup", Email: "lead@company.com", Password: "secret1"}, ErrEmailTaken},
		{"admin as manager", CreateUserInput{Name: "A", Email: "a@company.com", Password: "secret1", ManagerID: int64Ptr(admin.ID)}, ErrManagerNotEmployee},
		{"missing manager", CreateUserInput{Name: "B", Email: "b@company.com", Password: "secret1", ManagerID: int64Ptr(999)}, ErrManagerNotEmployee},
		{"missing department", CreateUserInput{Name: "C", Email: "c@company.com", Password: "secret1", DepartmentID: int64Ptr(999)}, ErrUnknownDepartment},
		{"weak password", CreateUserInput{Name: "D", Email: "d@company.com", Password: "123"}, auth.ErrWeakPassword},
		{"bad role", CreateUserInput{Name: "E", Email: "e@company.com", Password: "secret1", Role: "owner"}, auth.ErrInvalidRole},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateUser(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	report, err := svc.CreateUser(ctx, CreateUserInput{Name: "Report", Email: "report@company.com", Password: "secret1", ManagerID: int64Ptr(lead.ID)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ManagerID == nil || *report.ManagerID != lead.ID {
		t.Fatalf("expected manager %d, got %v", lead.ID, report.ManagerID)
	}
}

func TestUpdateEmployeeClearsManager(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	lead, _ := svc.CreateUser(ctx, CreateUserInput{Name: "Lead", Email: "lead@company.com", Password: "secret1"})
	report, _ := svc.CreateUser(ctx, CreateUserInput{Name: "Report", Email: "report@company.com", Password: "secret1", ManagerID: int64Ptr(lead.ID)})

	var input UpdateEmployeeInput
	if err := json.Unmarshal([]byte(`{"ManagerID": null}`), &input); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	updated, err := svc.UpdateEmployee(ctx, report.ID, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ManagerID != nil {
		t.Fatalf("expected manager cleared, got %v", *updated.ManagerID)
	}

	email := "lead@company.com"
	if _, err := svc.UpdateEmployee(ctx, report.ID, UpdateEmployeeInput{Email: &email}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	if _, err := svc.UpdateEmployee(ctx, 404, UpdateEmployeeInput{}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOptionalIDUnmarshal(t *testing.T) {
	type payload struct {
		ManagerID OptionalID `json:"managerId"`
	}
	tests := []struct {
		raw    string
		set    bool
		wantID *int64
	}{
		{`{}`, false, nil},
		{`{"managerId": null}`, true, nil},
		{`{"managerId": ""}`, true, nil},
		{`{"managerId": 4}`, true, int64Ptr(4)},
		{`{"managerId": "12"}`, true, int64Ptr(12)},
	}
	for _, tc := range tests {
		var p payload
		if err := json.Unmarshal([]byte(tc.raw), &p); err != nil {
			t.Fatalf("%s: decode error: %v", tc.raw, err)
		}
		if p.ManagerID.Set != tc.set {
			t.Fatalf("%s: expected set=%v, got %v", tc.raw, tc.set, p.ManagerID.Set)
		}
		if (tc.wantID == nil) != (p.ManagerID.ID == nil) {
			t.Fatalf("%s: unexpected id %v", tc.raw, p.ManagerID.ID)
		}
		if tc.wantID != nil && *tc.wantID != *p.ManagerID.ID {
			t.Fatalf("%s: expected %d, got %d", tc.raw, *tc.wantID, *p.ManagerID.ID)
		}
	}

	var p payload
	if err := json.Unmarshal([]byte(`{"managerId": "abc"}`), &p); err == nil {
		t.Fatal("expected error for non numeric id")
	}
}

func TestDepartmentNamesUnique(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	eng, err := svc.CreateDepartment(ctx, DepartmentInput{Name: " Engineering "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eng.Name != "Engineering" {
		t.Fatalf("expected trimmed name, got %q", eng.Name)
	}
	if _, err := svc.CreateDepartment(ctx, DepartmentInput{Name: "Engineering"}); !errors.Is(err, ErrDepartmentNameTaken) {
		t.Fatalf("expected name taken, got %v", err)
	}
	if _, err := svc.UpdateDepartment(ctx, eng.ID, DepartmentInput{Name: "Engineering", Description: "renamed"}); err != nil {
		t.Fatalf("expected self rename to pass, got %v", err)
	}
	if err := svc.DeleteDepartment(ctx, 999); !errors.Is(err, ErrDepartmentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
