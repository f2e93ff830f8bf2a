package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/directory"
	"feedback360/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func scoreWhere(filter ScoreFilter) (string, []any) {
	clauses := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.RevieweeID != 0 {
		add("a.reviewee_id", filter.RevieweeID)
	}
	if filter.ReviewerID != 0 {
		add("a.reviewer_id", filter.ReviewerID)
	}
	if filter.CycleID != 0 {
		add("a.review_cycle_id", filter.CycleID)
	}
	if filter.RelationType != "" {
		add("a.relation_type", filter.RelationType)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) ScoresByCategory(ctx context.Context, filter ScoreFilter) ([]CategoryScore, error) {
	where, args := scoreWhere(filter)
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.name, AVG(f.score)::float8, COUNT(f.id)
    FROM feedbacks f
    JOIN review_assignments a ON a.id = f.review_assignment_id
    JOIN questions q ON q.id = f.question_id
    JOIN categories c ON c.id = q.category_id
  `+where+" GROUP BY c.id, c.name ORDER BY c.name", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CategoryScore{}
	for rows.Next() {
		var score CategoryScore
		if err := rows.Scan(&score.CategoryID, &score.CategoryName, &score.AverageScore, &score.TotalFeedbacks); err != nil {
			return nil, err
		}
		out = append(out, score)
	}
	return out, rows.Err()
}

func (s *Store) Reviewee(ctx context.Context, id int64) (directory.UserRef, error) {
	var ref directory.UserRef
	if err := s.DB.QueryRow(ctx, "SELECT id, name, email FROM users WHERE id = $1", id).Scan(&ref.ID, &ref.Name, &ref.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return directory.UserRef{}, ErrRevieweeNotFound
		}
		return directory.UserRef{}, err
	}
	return ref, nil
}

func (s *Store) Cycle(ctx context.Context, id int64) (CycleRef, error) {
	var ref CycleRef
	if err := s.DB.QueryRow(ctx, "SELECT id, name, start_date, end_date FROM review_cycles WHERE id = $1", id).Scan(&ref.ID, &ref.Name, &ref.StartDate, &ref.EndDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CycleRef{}, ErrCycleNotFound
		}
		return CycleRef{}, err
	}
	return ref, nil
}

func (s *Store) DetailedRows(ctx context.Context, revieweeID, cycleID int64) ([]ScoreRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT c.id, c.name, q.id, q.text, a.relation_type, f.score, COALESCE(f.comment, ''),
           rv.id, rv.name, rv.email, f.created_at
    FROM feedbacks f
    JOIN review_assignments a ON a.id = f.review_assignment_id
    JOIN questions q ON q.id = f.question_id
    JOIN categories c ON c.id = q.category_id
    JOIN users rv ON rv.id = a.reviewer_id
    WHERE a.reviewee_id = $1 AND a.review_cycle_id = $2
    ORDER BY c.name, a.relation_type, q.created_at, f.id
  `, revieweeID, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var row ScoreRow
		if err := rows.Scan(
			&row.CategoryID, &row.CategoryName, &row.QuestionID, &row.QuestionText, &row.RelationType, &row.Score, &row.Comment,
			&row.ReviewerID, &row.ReviewerName, &row.ReviewerEmail, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func cycleClause(prefix string, cycleID int64) (string, []any) {
	if cycleID == 0 {
		return "", nil
	}
	return " " + prefix + " a.review_cycle_id = $1", []any{cycleID}
}

func (s *Store) CountAssignments(ctx context.Context, cycleID int64) (int, error) {
	where, args := cycleClause("WHERE", cycleID)
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM review_assignments a"+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) CountCompletedAssignments(ctx context.Context, cycleID int64) (int, error) {
	and, args := cycleClause("AND", cycleID)
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM review_assignments a
    WHERE EXISTS (SELECT 1 FROM feedbacks f WHERE f.review_assignment_id = a.id)
  `+and, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// FeedbackStats returns the feedback count and the mean score.
func (s *Store) FeedbackStats(ctx context.Context, cycleID int64) (int, float64, error) {
	where, args := cycleClause("WHERE", cycleID)
	var count int
	var avg float64
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(f.id), COALESCE(AVG(f.score), 0)::float8
    FROM feedbacks f
    JOIN review_assignments a ON a.id = f.review_assignment_id
  `+where, args...).Scan(&count, &avg); err != nil {
		return 0, 0, err
	}
	return count, avg, nil
}

func (s *Store) RelationStats(ctx context.Context, cycleID int64) ([]RelationStat, error) {
	where, args := cycleClause("WHERE", cycleID)
	rows, err := s.DB.Query(ctx, `
    SELECT a.relation_type, COUNT(DISTINCT a.id), COALESCE(AVG(f.score), 0)::float8
    FROM review_assignments a
    LEFT JOIN feedbacks f ON f.review_assignment_id = a.id
  `+where+" GROUP BY a.relation_type ORDER BY a.relation_type", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RelationStat{}
	for rows.Next() {
		var stat RelationStat
		if err := rows.Scan(&stat.RelationType, &stat.Assignments, &stat.AverageScore); err != nil {
			return nil, err
		}
		out = append(out, stat)
	}
	return out, rows.Err()
}

func (s *Store) OverallStats(ctx context.Context) (OverallStats, error) {
	var stats OverallStats
	if err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM users WHERE role = $1),
      (SELECT COUNT(1) FROM departments),
      (SELECT COUNT(1) FROM categories),
      (SELECT COUNT(1) FROM questions),
      (SELECT COUNT(1) FROM review_cycles)
  `, auth.RoleEmployee).Scan(&stats.Employees, &stats.Departments, &stats.Categories, &stats.Questions, &stats.ReviewCycles); err != nil {
		return OverallStats{}, err
	}
	return stats, nil
}

func (s *Store) Pairs(ctx context.Context, cycleID int64) ([]PairScore, error) {
	where, args := cycleClause("WHERE", cycleID)
	rows, err := s.DB.Query(ctx, `
    SELECT a.review_cycle_id, rc.name,
           rv.id, rv.name, rv.email,
           re.id, re.name, re.email,
           ARRAY_AGG(DISTINCT a.relation_type),
           COUNT(f.id), COALESCE(AVG(f.score), 0)::float8
    FROM review_assignments a
    JOIN review_cycles rc ON rc.id = a.review_cycle_id
    JOIN users rv ON rv.id = a.reviewer_id
    JOIN users re ON re.id = a.reviewee_id
    LEFT JOIN feedbacks f ON f.review_assignment_id = a.id
  `+where+`
    GROUP BY a.review_cycle_id, rc.name, rv.id, rv.name, rv.email, re.id, re.name, re.email
    ORDER BY rc.name, re.name, rv.name
  `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PairScore{}
	for rows.Next() {
		var p PairScore
		if err := rows.Scan(
			&p.ReviewCycleID, &p.ReviewCycleName,
			&p.Reviewer.ID, &p.Reviewer.Name, &p.Reviewer.Email,
			&p.Reviewee.ID, &p.Reviewee.Name, &p.Reviewee.Email,
			&p.RelationTypes, &p.FeedbackCount, &p.AverageScore,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) FeedbackExportRows(ctx context.Context) ([]FeedbackExportRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT f.id, rc.name, rv.name, rv.email, re.name, re.email, a.relation_type,
           c.name, q.text, f.score, COALESCE(f.comment, ''), f.updated_at
    FROM feedbacks f
    JOIN review_assignments a ON a.id = f.review_assignment_id
    JOIN review_cycles rc ON rc.id = a.review_cycle_id
    JOIN users rv ON rv.id = a.reviewer_id
    JOIN users re ON re.id = a.reviewee_id
    JOIN questions q ON q.id = f.question_id
    JOIN categories c ON c.id = q.category_id
    ORDER BY rc.start_date, re.name, rv.name, c.name, q.id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FeedbackExportRow
	for rows.Next() {
		var row FeedbackExportRow
		if err := rows.Scan(
			&row.FeedbackID, &row.CycleName, &row.ReviewerName, &row.ReviewerEmail, &row.RevieweeName, &row.RevieweeEmail,
			&row.RelationType, &row.CategoryName, &row.QuestionText, &row.Score, &row.Comment, &row.SubmittedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsBaseQuery(filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []JobRun{}
	for rows.Next() {
		var run JobRun
		var detailsRaw []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &detailsRaw, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		run.Details = decodeDetails(detailsRaw)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsBaseQuery(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ("+query+") job_runs", args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildJobRunsBaseQuery(filter JobRunFilter) (string, []any) {
	query := `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE 1=1
  `
	args := []any{}

	if value := strings.TrimSpace(filter.JobType); value != "" {
		query += " AND job_type = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		query += " AND status = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		query += " AND started_at >= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedFrom)
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		query += " AND started_at <= $" + strconv.Itoa(len(args)+1)
		args = append(args, *filter.StartedTo)
	}
	return query, args
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{
			"raw": string(raw),
		}
	}
	return details
}
