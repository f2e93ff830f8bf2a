package reports

import "errors"

var (
	ErrRevieweeNotFound = errors.New("reviewee not found")
	ErrCycleNotFound    = errors.New("review cycle not found")
)
