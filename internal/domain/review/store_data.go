package review

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"feedback360/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const cycleSelect = `
    SELECT id, name, start_date, end_date, status, config, created_at, updated_at
    FROM review_cycles
`

func scanCycle(row pgx.Row) (ReviewCycle, error) {
	var c ReviewCycle
	var configJSON []byte
	if err := row.Scan(&c.ID, &c.Name, &c.StartDate, &c.EndDate, &c.Status, &configJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return ReviewCycle{}, err
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &c.Config); err != nil {
			return ReviewCycle{}, err
		}
	}
	c.Assignments = []Assignment{}
	return c, nil
}

func (s *Store) ListCycles(ctx context.Context) ([]ReviewCycle, error) {
	rows, err := s.DB.Query(ctx, cycleSelect+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReviewCycle{}
	index := map[int64]int{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	assignments, err := s.ListAssignments(ctx, AssignmentFilter{})
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		if i, ok := index[a.ReviewCycleID]; ok {
			out[i].Assignments = append(out[i].Assignments, a)
		}
	}
	return out, nil
}

func (s *Store) GetCycle(ctx context.Context, id int64) (ReviewCycle, error) {
	c, err := scanCycle(s.DB.QueryRow(ctx, cycleSelect+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReviewCycle{}, ErrCycleNotFound
		}
		return ReviewCycle{}, err
	}
	assignments, err := s.ListAssignments(ctx, AssignmentFilter{CycleID: id})
	if err != nil {
		return ReviewCycle{}, err
	}
	c.Assignments = assignments
	return c, nil
}

func (s *Store) CreateCycle(ctx context.Context, input CycleInput, status string) (int64, error) {
	configJSON, err := json.Marshal(input.Config)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO review_cycles (name, start_date, end_date, status, config)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, input.Name, input.StartDate, input.EndDate, status, configJSON).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) UpdateCycle(ctx context.Context, id int64, input CycleInput, status string) error {
	configJSON, err := json.Marshal(input.Config)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE review_cycles
    SET name = $1, start_date = $2, end_date = $3, status = $4, config = $5, updated_at = now()
    WHERE id = $6
  `, input.Name, input.StartDate, input.EndDate, status, configJSON, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCycleNotFound
	}
	return nil
}

func (s *Store) DeleteCycle(ctx context.Context, id int64) (bool, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM review_cycles WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SyncCycleStatuses rewrites stored statuses that no longer match the dates.
func (s *Store) SyncCycleStatuses(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE review_cycles
    SET status = computed.status, updated_at = now()
    FROM (
      SELECT id,
             CASE
               WHEN $1 < start_date THEN 'upcoming'
               WHEN $1 > end_date THEN 'closed'
               ELSE 'active'
             END AS status
      FROM review_cycles
    ) computed
    WHERE review_cycles.id = computed.id AND review_cycles.status <> computed.status
  `, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CycleReviewerIDs(ctx context.Context, cycleID int64) ([]int64, error) {
	rows, err := s.DB.Query(ctx, "SELECT DISTINCT reviewer_id FROM review_assignments WHERE review_cycle_id = $1 ORDER BY reviewer_id", cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) UsersExist(ctx context.Context, ids ...int64) (bool, error) {
	unique := map[int64]struct{}{}
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	list := make([]int64, 0, len(unique))
	for id := range unique {
		list = append(list, id)
	}
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE id = ANY($1)", list).Scan(&count); err != nil {
		return false, err
	}
	return count == len(list), nil
}
