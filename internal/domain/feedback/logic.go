package feedback

import (
	"time"

	"feedback360/internal/domain/review"
)

const (
	MinScore = 1
	MaxScore = 5

	defaultListLimit = 100
	maxListLimit     = 500
)

func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrInvalidScore
	}
	return nil
}

func cycleOpen(start, end, now time.Time) bool {
	return review.CycleStatus(start, end, now) == review.StatusActive
}

func normalizeFilter(filter ListFilter) ListFilter {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter
}
