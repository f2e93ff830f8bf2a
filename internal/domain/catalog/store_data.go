package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"feedback360/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, COALESCE(description, ''), created_at, updated_at
    FROM categories
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	index := map[int64]int{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Questions = []Question{}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	questions, err := s.ListQuestions(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		if pos, ok := index[q.CategoryID]; ok {
			out[pos].Questions = append(out[pos].Questions, q)
		}
	}
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(description, ''), created_at, updated_at
    FROM categories
    WHERE id = $1
  `, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	if err != nil {
		return Category{}, err
	}
	questions, err := s.ListQuestions(ctx, id)
	if err != nil {
		return Category{}, err
	}
	c.Questions = questions
	return c, nil
}

func (s *Store) CategoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM categories WHERE lower(name) = lower($1) AND id <> $2", name, excludeID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateCategory(ctx context.Context, input CategoryInput) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO categories (name, description)
    VALUES ($1, NULLIF($2, ''))
    RETURNING id
  `, input.Name, input.Description).Scan(&id)
	return id, err
}

func (s *Store) UpdateCategory(ctx context.Context, id int64, input CategoryInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE categories SET name = $1, description = NULLIF($2, ''), updated_at = now()
    WHERE id = $3
  `, input.Name, input.Description, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) CountQuestions(ctx context.Context, categoryID int64) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM questions WHERE category_id = $1", categoryID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListQuestions returns every question when categoryID is zero.
func (s *Store) ListQuestions(ctx context.Context, categoryID int64) ([]Question, error) {
	query := `
    SELECT q.id, q.text, q.category_id, c.name, q.created_at, q.updated_at
    FROM questions q
    JOIN categories c ON c.id = q.category_id
  `
	args := []any{}
	if categoryID > 0 {
		query += " WHERE q.category_id = $1"
		args = append(args, categoryID)
	}
	query += " ORDER BY c.name, q.created_at, q.id"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Text, &q.CategoryID, &q.CategoryName, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (Question, error) {
	var q Question
	err := s.DB.QueryRow(ctx, `
    SELECT q.id, q.text, q.category_id, c.name, q.created_at, q.updated_at
    FROM questions q
    JOIN categories c ON c.id = q.category_id
    WHERE q.id = $1
  `, id).Scan(&q.ID, &q.Text, &q.CategoryID, &q.CategoryName, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Question{}, ErrQuestionNotFound
	}
	return q, err
}

func (s *Store) CreateQuestion(ctx context.Context, input QuestionInput) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, "INSERT INTO questions (text, category_id) VALUES ($1, $2) RETURNING id", input.Text, input.CategoryID).Scan(&id)
	return id, err
}

func (s *Store) UpdateQuestion(ctx context.Context, id int64, input QuestionInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE questions SET text = $1, category_id = $2, updated_at = now()
    WHERE id = $3
  `, input.Text, input.CategoryID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM questions WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
