package feedback

import (
	"context"
	"strings"
	"time"

	"feedback360/internal/domain/auth"
)

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

// Submit upserts the caller's answer for one question of an assignment.
// The bool result is true when a new row was written.
func (s *Service) Submit(ctx context.Context, viewer auth.UserContext, input SubmitInput) (Feedback, bool, error) {
	if err := ValidateScore(input.Score); err != nil {
		return Feedback{}, false, err
	}
	assignment, err := s.store.AssignmentContext(ctx, input.AssignmentID)
	if err != nil {
		return Feedback{}, false, err
	}
	if assignment.ReviewerID != viewer.UserID {
		return Feedback{}, false, ErrForbidden
	}
	exists, err := s.store.QuestionExists(ctx, input.QuestionID)
	if err != nil {
		return Feedback{}, false, err
	}
	if !exists {
		return Feedback{}, false, ErrUnknownQuestion
	}
	if !cycleOpen(assignment.StartDate, assignment.EndDate, s.now()) {
		return Feedback{}, false, ErrCycleNotActive
	}

	input.Comment = strings.TrimSpace(input.Comment)
	id, created, err := s.store.Upsert(ctx, input)
	if err != nil {
		return Feedback{}, false, err
	}
	saved, err := s.store.Get(ctx, id)
	if err != nil {
		return Feedback{}, false, err
	}
	return saved, created, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Feedback, int, error) {
	return s.store.List(ctx, normalizeFilter(filter))
}

func (s *Service) ForAssignment(ctx context.Context, viewer auth.UserContext, assignmentID int64) ([]Feedback, error) {
	assignment, err := s.store.AssignmentContext(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() && assignment.ReviewerID != viewer.UserID {
		return nil, ErrForbidden
	}
	return s.store.ListByAssignment(ctx, assignmentID)
}

func (s *Service) Get(ctx context.Context, viewer auth.UserContext, id int64) (Feedback, error) {
	f, err := s.store.Get(ctx, id)
	if err != nil {
		return Feedback{}, err
	}
	if !viewer.IsAdmin() && f.Reviewer.ID != viewer.UserID {
		return Feedback{}, ErrForbidden
	}
	return f, nil
}

// Update lets admins edit at any time; reviewers only while the cycle runs.
func (s *Service) Update(ctx context.Context, viewer auth.UserContext, id int64, patch Patch) (Feedback, error) {
	current, err := s.Get(ctx, viewer, id)
	if err != nil {
		return Feedback{}, err
	}
	if !viewer.IsAdmin() && !cycleOpen(current.ReviewCycle.StartDate, current.ReviewCycle.EndDate, s.now()) {
		return Feedback{}, ErrCycleNotActive
	}
	score := current.Score
	comment := current.Comment
	if patch.Score != nil {
		if err := ValidateScore(*patch.Score); err != nil {
			return Feedback{}, err
		}
		score = *patch.Score
	}
	if patch.Comment != nil {
		comment = strings.TrimSpace(*patch.Comment)
	}
	if err := s.store.Update(ctx, id, score, comment); err != nil {
		return Feedback{}, err
	}
	return s.store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, viewer auth.UserContext, id int64) error {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return err
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrFeedbackNotFound
	}
	return nil
}

func (s *Service) Reset(ctx context.Context) (int64, error) {
	return s.store.DeleteAll(ctx)
}
