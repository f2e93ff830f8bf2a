package review

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"feedback360/internal/domain/auth"
	"feedback360/internal/domain/directory"
)

// DirectoryAPI is the employee lookup the generator runs against.
type DirectoryAPI interface {
	ListOrgMembers(ctx context.Context) ([]directory.OrgMember, error)
}

type Service struct {
	store     StoreAPI
	directory DirectoryAPI
	now       func() time.Time
}

func NewService(store StoreAPI, dir DirectoryAPI) *Service {
	return &Service{store: store, directory: dir, now: time.Now}
}

// Preview runs the generator without touching storage.
func (s *Service) Preview(ctx context.Context, start, end time.Time, cfg Config) ([]PreviewItem, error) {
	if err := ValidateDates(start, end); err != nil {
		return nil, err
	}
	if !cfg.Any() {
		return nil, ErrEmptyConfig
	}
	members, err := s.directory.ListOrgMembers(ctx)
	if err != nil {
		return nil, err
	}
	return BuildPreview(members, Generate(members, cfg)), nil
}

// CreateCycle stores the cycle and commits its assignments. A nil selected
// slice regenerates from the directory; a non-nil one is persisted as given.
// Assignment failures after the cycle exists mark the result incomplete.
func (s *Service) CreateCycle(ctx context.Context, input CycleInput, selected []Pair) (CreateCycleResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := ValidateDates(input.StartDate, input.EndDate); err != nil {
		return CreateCycleResult{}, err
	}
	if !input.Config.Any() {
		return CreateCycleResult{}, ErrEmptyConfig
	}
	for _, pair := range selected {
		if !ValidRelation(pair.RelationType) {
			return CreateCycleResult{}, ErrInvalidRelation
		}
	}

	pairs := selected
	if pairs == nil {
		members, err := s.directory.ListOrgMembers(ctx)
		if err != nil {
			return CreateCycleResult{}, err
		}
		pairs = Generate(members, input.Config)
	}

	status := CycleStatus(input.StartDate, input.EndDate, s.now())
	cycleID, err := s.store.CreateCycle(ctx, input, status)
	if err != nil {
		return CreateCycleResult{}, err
	}

	committed, err := Commit(ctx, s.store, cycleID, pairs)
	result := CreateCycleResult{
		CycleID:              cycleID,
		AssignmentsRequested: committed.Requested,
		AssignmentsCreated:   committed.Created,
		AssignmentsSkipped:   committed.Skipped,
		Config:               input.Config,
	}
	if err != nil {
		slog.Warn("assignment commit aborted", "cycleId", cycleID, "created", committed.Created, "requested", committed.Requested, "err", err)
		result.Incomplete = true
	}
	return result, nil
}

func (s *Service) ListCycles(ctx context.Context) ([]ReviewCycle, error) {
	return s.store.ListCycles(ctx)
}

func (s *Service) GetCycle(ctx context.Context, id int64) (ReviewCycle, error) {
	return s.store.GetCycle(ctx, id)
}

// UpdateCycle changes the stored fields only; assignments are left alone.
func (s *Service) UpdateCycle(ctx context.Context, id int64, patch CyclePatch) (ReviewCycle, error) {
	current, err := s.store.GetCycle(ctx, id)
	if err != nil {
		return ReviewCycle{}, err
	}
	input := CycleInput{Name: current.Name, StartDate: current.StartDate, EndDate: current.EndDate, Config: current.Config}
	if patch.Name != nil {
		input.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.StartDate != nil {
		input.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		input.EndDate = *patch.EndDate
	}
	if patch.Config != nil {
		if !patch.Config.Any() {
			return ReviewCycle{}, ErrEmptyConfig
		}
		input.Config = *patch.Config
	}
	if err := ValidateDates(input.StartDate, input.EndDate); err != nil {
		return ReviewCycle{}, err
	}
	status := CycleStatus(input.StartDate, input.EndDate, s.now())
	if err := s.store.UpdateCycle(ctx, id, input, status); err != nil {
		return ReviewCycle{}, err
	}
	return s.store.GetCycle(ctx, id)
}

func (s *Service) DeleteCycle(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteCycle(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrCycleNotFound
	}
	return nil
}

func (s *Service) SyncStatuses(ctx context.Context) (int64, error) {
	return s.store.SyncCycleStatuses(ctx, s.now())
}

func (s *Service) CycleReviewerIDs(ctx context.Context, cycleID int64) ([]int64, error) {
	return s.store.CycleReviewerIDs(ctx, cycleID)
}

func (s *Service) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error) {
	if filter.RelationType != "" && !ValidRelation(filter.RelationType) {
		return nil, ErrInvalidRelation
	}
	return s.store.ListAssignments(ctx, filter)
}

func (s *Service) MyAssignments(ctx context.Context, reviewerID int64) ([]Assignment, error) {
	return s.store.ListReviewerAssignments(ctx, reviewerID)
}

// GetAssignment returns the assignment when viewer is its reviewer or an admin.
func (s *Service) GetAssignment(ctx context.Context, id int64, viewer auth.UserContext) (Assignment, error) {
	a, err := s.store.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if !viewer.IsAdmin() && a.ReviewerID != viewer.UserID {
		return Assignment{}, ErrForbidden
	}
	return a, nil
}

func (s *Service) CreateAssignment(ctx context.Context, cycleID int64, pair Pair) (Assignment, error) {
	if !ValidRelation(pair.RelationType) {
		return Assignment{}, ErrInvalidRelation
	}
	if _, err := s.store.GetCycle(ctx, cycleID); err != nil {
		if errors.Is(err, ErrCycleNotFound) {
			return Assignment{}, ErrUnknownCycle
		}
		return Assignment{}, err
	}
	exist, err := s.store.UsersExist(ctx, pair.ReviewerID, pair.RevieweeID)
	if err != nil {
		return Assignment{}, err
	}
	if !exist {
		return Assignment{}, ErrUnknownUser
	}
	inserted, err := s.store.InsertAssignmentIfAbsent(ctx, cycleID, pair)
	if err != nil {
		return Assignment{}, err
	}
	if !inserted {
		return Assignment{}, ErrAssignmentExists
	}
	created, err := s.store.ListAssignments(ctx, AssignmentFilter{
		CycleID:      cycleID,
		ReviewerID:   pair.ReviewerID,
		RevieweeID:   pair.RevieweeID,
		RelationType: pair.RelationType,
	})
	if err != nil {
		return Assignment{}, err
	}
	if len(created) == 0 {
		return Assignment{}, ErrAssignmentNotFound
	}
	return created[0], nil
}

func (s *Service) UpdateAssignmentRelation(ctx context.Context, id int64, relation string) (Assignment, error) {
	if !ValidRelation(relation) {
		return Assignment{}, ErrInvalidRelation
	}
	if err := s.store.UpdateAssignmentRelation(ctx, id, relation); err != nil {
		return Assignment{}, err
	}
	return s.store.GetAssignment(ctx, id)
}

func (s *Service) DeleteAssignment(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteAssignment(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAssignmentNotFound
	}
	return nil
}
