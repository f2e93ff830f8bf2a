package catalog

import "time"

type Category struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Question struct {
	ID           int64     `json:"id"`
	Text         string    `json:"text"`
	CategoryID   int64     `json:"categoryId"`
	CategoryName string    `json:"categoryName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CategoryInput struct {
	Name        string
	Description string
}

type QuestionInput struct {
	Text       string
	CategoryID int64
}

type CategoryPatch struct {
	Name        *string
	Description *string
}

type QuestionPatch struct {
	Text       *string
	CategoryID *int64
}
