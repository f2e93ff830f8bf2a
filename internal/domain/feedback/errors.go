package feedback

import "errors"

var (
	ErrFeedbackNotFound   = errors.New("feedback not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrUnknownQuestion    = errors.New("question does not exist")
	ErrInvalidScore       = errors.New("score must be an integer between 1 and 5")
	ErrForbidden          = errors.New("not the reviewer of this assignment")
	ErrCycleNotActive     = errors.New("review cycle is not active")
)
