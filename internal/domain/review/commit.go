package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type AssignmentWriter interface {
	// InsertAssignmentIfAbsent reports false when the tuple already exists.
	InsertAssignmentIfAbsent(ctx context.Context, cycleID int64, pair Pair) (bool, error)
}

// Commit persists pairs one at a time. Existing tuples and rows rejected by a
// unique or foreign key constraint count as skipped. Any other error stops the
// loop and the counts reached so far are returned with it.
func Commit(ctx context.Context, w AssignmentWriter, cycleID int64, pairs []Pair) (CommitResult, error) {
	result := CommitResult{Requested: len(pairs)}
	for _, pair := range pairs {
		inserted, err := w.InsertAssignmentIfAbsent(ctx, cycleID, pair)
		if err != nil {
			if isSkippable(err) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("insert assignment %d->%d %s: %w", pair.ReviewerID, pair.RevieweeID, pair.RelationType, err)
		}
		if inserted {
			result.Created++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

func isSkippable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation || pgErr.Code == pgForeignKeyViolation
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
