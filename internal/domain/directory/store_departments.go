package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT d.id, d.name, COALESCE(d.description, ''), d.created_at, d.updated_at, COUNT(u.id)
    FROM departments d
    LEFT JOIN users u ON u.department_id = d.id
    GROUP BY d.id
    ORDER BY d.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt, &d.EmployeeCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDepartment(ctx context.Context, id int64) (Department, error) {
	var d Department
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(description, ''), created_at, updated_at
    FROM departments
    WHERE id = $1
  `, id).Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Department{}, ErrDepartmentNotFound
	}
	if err != nil {
		return Department{}, err
	}

	rows, err := s.DB.Query(ctx, "SELECT id, name, email FROM users WHERE department_id = $1 ORDER BY name, id", id)
	if err != nil {
		return Department{}, err
	}
	defer rows.Close()
	d.Members = []UserRef{}
	for rows.Next() {
		var ref UserRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Email); err != nil {
			return Department{}, err
		}
		d.Members = append(d.Members, ref)
	}
	d.EmployeeCount = len(d.Members)
	return d, rows.Err()
}

func (s *Store) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM departments WHERE id = $1", id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) DepartmentNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM departments WHERE lower(name) = lower($1) AND id <> $2", name, excludeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateDepartment(ctx context.Context, input DepartmentInput) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (name, description)
    VALUES ($1, NULLIF($2, ''))
    RETURNING id
  `, input.Name, input.Description).Scan(&id)
	return id, err
}

func (s *Store) UpdateDepartment(ctx context.Context, id int64, input DepartmentInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE departments SET name = $1, description = NULLIF($2, ''), updated_at = now()
    WHERE id = $3
  `, input.Name, input.Description, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

// DeleteDepartment relies on ON DELETE SET NULL to detach members.
func (s *Store) DeleteDepartment(ctx context.Context, id int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM departments WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
