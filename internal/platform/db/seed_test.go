package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFixture(t *testing.T) {
	raw := []byte(`
departments:
  - name: Engineering
employees:
  - name: Lead
    email: lead@example.com
    password: secret1
    department: Engineering
  - name: Dev
    email: dev@example.com
    password: secret1
    manager: LEAD@example.com
categories:
  - name: Teamwork
    questions:
      - Works well with others.
`)
	fx, err := ParseFixture(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.Employees) != 2 || fx.Employees[1].Manager != "LEAD@example.com" {
		t.Fatalf("unexpected employees: %+v", fx.Employees)
	}
	if len(fx.Categories) != 1 || len(fx.Categories[0].Questions) != 1 {
		t.Fatalf("unexpected categories: %+v", fx.Categories)
	}
}

func TestParseFixtureRejectsDanglingReferences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "unknown manager",
			raw:  "employees:\n  - name: A\n    email: a@example.com\n    manager: ghost@example.com\n",
			want: "unknown manager",
		},
		{
			name: "unknown department",
			raw:  "employees:\n  - name: A\n    email: a@example.com\n    department: Sales\n",
			want: "unknown department",
		},
		{
			name: "missing email",
			raw:  "employees:\n  - name: A\n",
			want: "name and email are required",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tc.raw))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestShippedFixtureParses(t *testing.T) {
	path := filepath.Join("..", "..", "..", "seed", "organisation.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("seed fixture not present")
	}
	fx, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.Employees) == 0 || len(fx.Categories) == 0 {
		t.Fatal("expected shipped fixture to contain employees and categories")
	}
}

func TestMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	files, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || files[0] != "0001_a.sql" || files[1] != "0002_b.sql" {
		t.Fatalf("unexpected migration order: %v", files)
	}
}
