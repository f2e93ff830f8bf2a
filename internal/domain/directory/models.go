package directory

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type UserRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type DepartmentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Employee struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	ManagerID    *int64         `json:"managerId"`
	DepartmentID *int64         `json:"departmentId"`
	Manager      *UserRef       `json:"manager"`
	Department   *DepartmentRef `json:"department"`
	Subordinates []UserRef      `json:"subordinates"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// OrgMember is the slice of an employee the assignment generator needs.
type OrgMember struct {
	ID        int64
	ManagerID *int64
	Name      string
	Email     string
}

type Department struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	EmployeeCount int       `json:"employeeCount"`
	Members       []UserRef `json:"members,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CreateUserInput struct {
	Name         string
	Email        string
	Password     string
	Role         string
	ManagerID    *int64
	DepartmentID *int64
}

type UpdateEmployeeInput struct {
	Name         *string
	Email        *string
	ManagerID    OptionalID
	DepartmentID OptionalID
}

type DepartmentInput struct {
	Name        string
	Description string
}

// OptionalID distinguishes an absent field from an explicit null or empty string.
type OptionalID struct {
	Set bool
	ID  *int64
}

func (o *OptionalID) UnmarshalJSON(raw []byte) error {
	o.Set = true
	o.ID = nil
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return err
		}
		o.ID = &id
		return nil
	}
	var id int64
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}
