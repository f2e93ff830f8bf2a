package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"feedback360/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const feedbackSelect = `
    SELECT f.id, f.review_assignment_id, f.question_id, f.score, COALESCE(f.comment, ''), f.created_at, f.updated_at,
           a.relation_type,
           q.text, q.category_id, c.name,
           rv.id, rv.name, rv.email,
           re.id, re.name, re.email,
           rc.id, rc.name, rc.start_date, rc.end_date
    FROM feedbacks f
    JOIN review_assignments a ON a.id = f.review_assignment_id
    JOIN questions q ON q.id = f.question_id
    JOIN categories c ON c.id = q.category_id
    JOIN users rv ON rv.id = a.reviewer_id
    JOIN users re ON re.id = a.reviewee_id
    JOIN review_cycles rc ON rc.id = a.review_cycle_id
`

func scanFeedback(row pgx.Row) (Feedback, error) {
	var f Feedback
	if err := row.Scan(
		&f.ID, &f.ReviewAssignmentID, &f.QuestionID, &f.Score, &f.Comment, &f.CreatedAt, &f.UpdatedAt,
		&f.RelationType,
		&f.Question.Text, &f.Question.CategoryID, &f.Question.CategoryName,
		&f.Reviewer.ID, &f.Reviewer.Name, &f.Reviewer.Email,
		&f.Reviewee.ID, &f.Reviewee.Name, &f.Reviewee.Email,
		&f.ReviewCycle.ID, &f.ReviewCycle.Name, &f.ReviewCycle.StartDate, &f.ReviewCycle.EndDate,
	); err != nil {
		return Feedback{}, err
	}
	f.Question.ID = f.QuestionID
	return f, nil
}

func (s *Store) collect(ctx context.Context, query string, args ...any) ([]Feedback, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Feedback{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) AssignmentContext(ctx context.Context, assignmentID int64) (AssignmentContext, error) {
	var out AssignmentContext
	err := s.DB.QueryRow(ctx, `
    SELECT a.id, a.reviewer_id, c.start_date, c.end_date
    FROM review_assignments a
    JOIN review_cycles c ON c.id = a.review_cycle_id
    WHERE a.id = $1
  `, assignmentID).Scan(&out.ID, &out.ReviewerID, &out.StartDate, &out.EndDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AssignmentContext{}, ErrAssignmentNotFound
		}
		return AssignmentContext{}, err
	}
	return out, nil
}

func (s *Store) QuestionExists(ctx context.Context, questionID int64) (bool, error) {
	var exists bool
	if err := s.DB.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM questions WHERE id = $1)", questionID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Upsert reports whether the row was newly inserted.
func (s *Store) Upsert(ctx context.Context, input SubmitInput) (int64, bool, error) {
	var id int64
	var inserted bool
	err := s.DB.QueryRow(ctx, `
    INSERT INTO feedbacks (review_assignment_id, question_id, score, comment)
    VALUES ($1,$2,$3,NULLIF($4,''))
    ON CONFLICT (review_assignment_id, question_id)
    DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = now()
    RETURNING id, (xmax = 0)
  `, input.AssignmentID, input.QuestionID, input.Score, input.Comment).Scan(&id, &inserted)
	if err != nil {
		return 0, false, err
	}
	return id, inserted, nil
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Feedback, int, error) {
	where := ""
	args := []any{}
	if filter.CycleID != 0 {
		args = append(args, filter.CycleID)
		where = " WHERE a.review_cycle_id = $1"
	}

	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM feedbacks f
    JOIN review_assignments a ON a.id = f.review_assignment_id
  `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := feedbackSelect + where + fmt.Sprintf(" ORDER BY f.created_at DESC, f.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	out, err := s.collect(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) ListByAssignment(ctx context.Context, assignmentID int64) ([]Feedback, error) {
	return s.collect(ctx, feedbackSelect+" WHERE f.review_assignment_id = $1 ORDER BY c.name, q.created_at", assignmentID)
}

func (s *Store) Get(ctx context.Context, id int64) (Feedback, error) {
	f, err := scanFeedback(s.DB.QueryRow(ctx, feedbackSelect+" WHERE f.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Feedback{}, ErrFeedbackNotFound
		}
		return Feedback{}, err
	}
	return f, nil
}

func (s *Store) Update(ctx context.Context, id int64, score int, comment string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE feedbacks SET score = $1, comment = NULLIF($2,''), updated_at = now() WHERE id = $3", score, comment, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFeedbackNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM feedbacks WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM feedbacks")
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
