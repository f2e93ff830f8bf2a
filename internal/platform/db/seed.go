package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"

	"feedback360/internal/domain/auth"
	"feedback360/internal/platform/config"
	"feedback360/internal/platform/querier"
)

// Fixture describes an organisation loaded from SEED_FILE.
type Fixture struct {
	Departments []FixtureDepartment `yaml:"departments"`
	Employees   []FixtureEmployee   `yaml:"employees"`
	Categories  []FixtureCategory   `yaml:"categories"`
}

type FixtureDepartment struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type FixtureEmployee struct {
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
	Department string `yaml:"department"`
	Manager    string `yaml:"manager"`
}

type FixtureCategory struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Questions   []string `yaml:"questions"`
}

func LoadFixture(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	return ParseFixture(raw)
}

func ParseFixture(raw []byte) (Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return Fixture{}, fmt.Errorf("parse seed fixture: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return Fixture{}, err
	}
	return fx, nil
}

// Validate checks that managers and departments referenced by employees are declared in the fixture.
func (fx Fixture) Validate() error {
	departments := map[string]struct{}{}
	for _, d := range fx.Departments {
		if strings.TrimSpace(d.Name) == "" {
			return errors.New("seed fixture: department name is required")
		}
		departments[d.Name] = struct{}{}
	}
	emails := map[string]struct{}{}
	for _, e := range fx.Employees {
		if strings.TrimSpace(e.Email) == "" || strings.TrimSpace(e.Name) == "" {
			return errors.New("seed fixture: employee name and email are required")
		}
		emails[strings.ToLower(e.Email)] = struct{}{}
	}
	for _, e := range fx.Employees {
		if e.Department != "" {
			if _, ok := departments[e.Department]; !ok {
				return fmt.Errorf("seed fixture: employee %s references unknown department %q", e.Email, e.Department)
			}
		}
		if e.Manager != "" {
			if _, ok := emails[strings.ToLower(e.Manager)]; !ok {
				return fmt.Errorf("seed fixture: employee %s references unknown manager %q", e.Email, e.Manager)
			}
		}
	}
	for _, c := range fx.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return errors.New("seed fixture: category name is required")
		}
	}
	return nil
}

func Seed(ctx context.Context, db querier.Querier, cfg config.Config) error {
	if err := ensureUser(ctx, db, cfg.SeedAdminName, cfg.SeedAdminEmail, cfg.SeedAdminPassword, auth.RoleAdmin); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.SeedFile) == "" {
		return nil
	}
	fx, err := LoadFixture(cfg.SeedFile)
	if err != nil {
		return err
	}
	return SeedFixture(ctx, db, fx)
}

func SeedFixture(ctx context.Context, db querier.Querier, fx Fixture) error {
	departmentIDs := map[string]int64{}
	for _, d := range fx.Departments {
		id, err := ensureDepartment(ctx, db, d)
		if err != nil {
			return err
		}
		departmentIDs[d.Name] = id
	}

	for _, e := range fx.Employees {
		if err := ensureUser(ctx, db, e.Name, e.Email, e.Password, auth.RoleEmployee); err != nil {
			return err
		}
		if id, ok := departmentIDs[e.Department]; ok {
			if _, err := db.Exec(ctx, "UPDATE users SET department_id = $1 WHERE email = $2 AND department_id IS NULL", id, e.Email); err != nil {
				return err
			}
		}
	}
	for _, e := range fx.Employees {
		if e.Manager == "" {
			continue
		}
		if _, err := db.Exec(ctx, `
      UPDATE users SET manager_id = (SELECT id FROM users WHERE lower(email) = lower($1))
      WHERE lower(email) = lower($2) AND manager_id IS NULL
    `, e.Manager, e.Email); err != nil {
			return err
		}
	}

	for _, c := range fx.Categories {
		categoryID, err := ensureCategory(ctx, db, c)
		if err != nil {
			return err
		}
		for _, text := range c.Questions {
			if err := ensureQuestion(ctx, db, categoryID, text); err != nil {
				return err
			}
		}
	}
	slog.Info("seed fixture applied",
		"departments", len(fx.Departments),
		"employees", len(fx.Employees),
		"categories", len(fx.Categories),
	)
	return nil
}

func ensureUser(ctx context.Context, db querier.Querier, name, email, password, role string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	var id int64
	err := db.QueryRow(ctx, "SELECT id FROM users WHERE lower(email) = lower($1)", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		name = email
	}
	_, err = db.Exec(ctx, "INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4)", name, email, hash, role)
	return err
}

func ensureDepartment(ctx context.Context, db querier.Querier, d FixtureDepartment) (int64, error) {
	var id int64
	err := db.QueryRow(ctx, "SELECT id FROM departments WHERE name = $1", d.Name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	err = db.QueryRow(ctx, "INSERT INTO departments (name, description) VALUES ($1, NULLIF($2, '')) RETURNING id", d.Name, d.Description).Scan(&id)
	return id, err
}

func ensureCategory(ctx context.Context, db querier.Querier, c FixtureCategory) (int64, error) {
	var id int64
	err := db.QueryRow(ctx, "SELECT id FROM categories WHERE name = $1", c.Name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	err = db.QueryRow(ctx, "INSERT INTO categories (name, description) VALUES ($1, NULLIF($2, '')) RETURNING id", c.Name, c.Description).Scan(&id)
	return id, err
}

func ensureQuestion(ctx context.Context, db querier.Querier, categoryID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var count int
	if err := db.QueryRow(ctx, "SELECT COUNT(1) FROM questions WHERE category_id = $1 AND text = $2", categoryID, text).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := db.Exec(ctx, "INSERT INTO questions (text, category_id) VALUES ($1, $2)", text, categoryID)
	return err
}
