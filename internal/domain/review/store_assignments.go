package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const assignmentSelect = `
    SELECT a.id, a.review_cycle_id, a.reviewer_id, a.reviewee_id, a.relation_type, a.created_at,
           rv.name, rv.email, re.name, re.email,
           c.name, c.start_date, c.end_date, c.status,
           (SELECT COUNT(1) FROM feedbacks f WHERE f.review_assignment_id = a.id)
    FROM review_assignments a
    JOIN users rv ON rv.id = a.reviewer_id
    JOIN users re ON re.id = a.reviewee_id
    JOIN review_cycles c ON c.id = a.review_cycle_id
`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	cycle := CycleRef{}
	if err := row.Scan(
		&a.ID, &a.ReviewCycleID, &a.ReviewerID, &a.RevieweeID, &a.RelationType, &a.CreatedAt,
		&a.Reviewer.Name, &a.Reviewer.Email, &a.Reviewee.Name, &a.Reviewee.Email,
		&cycle.Name, &cycle.StartDate, &cycle.EndDate, &cycle.Status,
		&a.FeedbackCount,
	); err != nil {
		return Assignment{}, err
	}
	a.Reviewer.ID = a.ReviewerID
	a.Reviewee.ID = a.RevieweeID
	cycle.ID = a.ReviewCycleID
	a.ReviewCycle = &cycle
	return a, nil
}

func (s *Store) queryAssignments(ctx context.Context, query string, args ...any) ([]Assignment, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error) {
	query := assignmentSelect + " WHERE 1=1"
	args := []any{}
	if filter.CycleID != 0 {
		args = append(args, filter.CycleID)
		query += fmt.Sprintf(" AND a.review_cycle_id = $%d", len(args))
	}
	if filter.ReviewerID != 0 {
		args = append(args, filter.ReviewerID)
		query += fmt.Sprintf(" AND a.reviewer_id = $%d", len(args))
	}
	if filter.RevieweeID != 0 {
		args = append(args, filter.RevieweeID)
		query += fmt.Sprintf(" AND a.reviewee_id = $%d", len(args))
	}
	if filter.RelationType != "" {
		args = append(args, filter.RelationType)
		query += fmt.Sprintf(" AND a.relation_type = $%d", len(args))
	}
	query += " ORDER BY a.review_cycle_id, a.id"
	return s.queryAssignments(ctx, query, args...)
}

func (s *Store) ListReviewerAssignments(ctx context.Context, reviewerID int64) ([]Assignment, error) {
	return s.queryAssignments(ctx, assignmentSelect+" WHERE a.reviewer_id = $1 ORDER BY c.start_date DESC, a.id", reviewerID)
}

func (s *Store) GetAssignment(ctx context.Context, id int64) (Assignment, error) {
	a, err := scanAssignment(s.DB.QueryRow(ctx, assignmentSelect+" WHERE a.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, ErrAssignmentNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

// InsertAssignmentIfAbsent relies on the unique tuple constraint instead of a
// separate existence check.
func (s *Store) InsertAssignmentIfAbsent(ctx context.Context, cycleID int64, pair Pair) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO review_assignments (review_cycle_id, reviewer_id, reviewee_id, relation_type)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (review_cycle_id, reviewer_id, reviewee_id, relation_type) DO NOTHING
  `, cycleID, pair.ReviewerID, pair.RevieweeID, pair.RelationType)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) UpdateAssignmentRelation(ctx context.Context, id int64, relation string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE review_assignments SET relation_type = $1, updated_at = now() WHERE id = $2", relation, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAssignmentExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (s *Store) DeleteAssignment(ctx context.Context, id int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM review_assignments WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
