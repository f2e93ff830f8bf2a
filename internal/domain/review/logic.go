package review

import (
	"slices"
	"time"
)

// CycleStatus derives the status of a cycle at now. Both bounds are inclusive.
func CycleStatus(start, end, now time.Time) string {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.After(end):
		return StatusClosed
	default:
		return StatusActive
	}
}

func ValidateDates(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidDateRange
	}
	return nil
}

func ValidRelation(relation string) bool {
	return slices.Contains(RelationTypes, relation)
}
