package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const employeeSelect = `
    SELECT u.id, u.name, u.email, u.role, u.manager_id, u.department_id, u.created_at, u.updated_at,
           m.id, COALESCE(m.name, ''), COALESCE(m.email, ''),
           d.id, COALESCE(d.name, '')
    FROM users u
    LEFT JOIN users m ON m.id = u.manager_id
    LEFT JOIN departments d ON d.id = u.department_id
`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	var managerID, departmentID *int64
	var managerName, managerEmail, departmentName string
	if err := row.Scan(
		&e.ID, &e.Name, &e.Email, &e.Role, &e.ManagerID, &e.DepartmentID, &e.CreatedAt, &e.UpdatedAt,
		&managerID, &managerName, &managerEmail,
		&departmentID, &departmentName,
	); err != nil {
		return Employee{}, err
	}
	if managerID != nil {
		e.Manager = &UserRef{ID: *managerID, Name: managerName, Email: managerEmail}
	}
	if departmentID != nil {
		e.Department = &DepartmentRef{ID: *departmentID, Name: departmentName}
	}
	e.Subordinates = []UserRef{}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, employeeSelect+" WHERE u.role <> $1 ORDER BY u.name, u.id", auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	index := map[int64]int{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subRows, err := s.DB.Query(ctx, "SELECT id, name, email, manager_id FROM users WHERE manager_id IS NOT NULL ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer subRows.Close()
	for subRows.Next() {
		var ref UserRef
		var managerID int64
		if err := subRows.Scan(&ref.ID, &ref.Name, &ref.Email, &managerID); err != nil {
			return nil, err
		}
		if pos, ok := index[managerID]; ok {
			out[pos].Subordinates = append(out[pos].Subordinates, ref)
		}
	}
	return out, subRows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, employeeSelect+" WHERE u.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	subs, err := s.DirectReports(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	e.Subordinates = subs
	return e, nil
}

func (s *Store) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE lower(email) = lower($1) AND id <> $2", email, excludeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) IsEmployee(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE id = $1 AND role = $2", id, auth.RoleEmployee).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateUser(ctx context.Context, input CreateUserInput, passwordHash string) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (name, email, password_hash, role, manager_id, department_id)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, input.Name, input.Email, passwordHash, input.Role, input.ManagerID, input.DepartmentID).Scan(&id)
	return id, err
}

func (s *Store) UpdateEmployee(ctx context.Context, id int64, input UpdateEmployeeInput) error {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if input.Name != nil {
		add("name", *input.Name)
	}
	if input.Email != nil {
		add("email", *input.Email)
	}
	if input.ManagerID.Set {
		add("manager_id", input.ManagerID.ID)
	}
	if input.DepartmentID.Set {
		add("department_id", input.DepartmentID.ID)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	tag, err := s.DB.Exec(ctx, fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ResetEmployees removes all review data and every non-admin account in one transaction when possible.
func (s *Store) ResetEmployees(ctx context.Context) (int, error) {
	db := s.DB
	var tx pgx.Tx
	if beginner, ok := s.DB.(txBeginner); ok {
		var err error
		tx, err = beginner.Begin(ctx)
		if err != nil {
			return 0, err
		}
		defer func() { _ = tx.Rollback(ctx) }()
		db = tx
	}

	for _, stmt := range []string{
		"DELETE FROM feedbacks",
		"DELETE FROM review_assignments",
		"DELETE FROM review_cycles",
	} {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return 0, err
		}
	}
	tag, err := db.Exec(ctx, "DELETE FROM users WHERE role = $1", auth.RoleEmployee)
	if err != nil {
		return 0, err
	}
	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			return 0, err
		}
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) ListOrgMembers(ctx context.Context) ([]OrgMember, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, manager_id, name, email FROM users WHERE role = $1 ORDER BY id", auth.RoleEmployee)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrgMember
	for rows.Next() {
		var m OrgMember
		if err := rows.Scan(&m.ID, &m.ManagerID, &m.Name, &m.Email); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) DirectReports(ctx context.Context, managerID int64) ([]UserRef, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name, email FROM users WHERE manager_id = $1 ORDER BY name, id", managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UserRef{}
	for rows.Next() {
		var ref UserRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Email); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}
