package review

import "errors"

var (
	ErrCycleNotFound      = errors.New("review cycle not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAssignmentExists   = errors.New("assignment already exists")
	ErrInvalidDateRange   = errors.New("end date must be after start date")
	ErrEmptyConfig        = errors.New("at least one relation type must be enabled")
	ErrInvalidRelation    = errors.New("invalid relation type")
	ErrUnknownCycle       = errors.New("review cycle does not exist")
	ErrUnknownUser        = errors.New("reviewer or reviewee does not exist")
	ErrForbidden          = errors.New("not the reviewer of this assignment")
)
