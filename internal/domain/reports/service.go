package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type Service struct {
	store     StoreAPI
	directory DirectorySource
	catalog   CatalogSource
	now       func() time.Time
}

func NewService(store StoreAPI, dir DirectorySource, cat CatalogSource) *Service {
	return &Service{store: store, directory: dir, catalog: cat, now: time.Now}
}

func (s *Service) ScoresByCategory(ctx context.Context, filter ScoreFilter) ([]CategoryScore, error) {
	scores, err := s.store.ScoresByCategory(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range scores {
		scores[i].AverageScore = round2(scores[i].AverageScore)
	}
	return scores, nil
}

// PairCategories narrows the category averages to one reviewer and reviewee.
func (s *Service) PairCategories(ctx context.Context, reviewerID, revieweeID, cycleID int64) ([]CategoryScore, error) {
	return s.ScoresByCategory(ctx, ScoreFilter{ReviewerID: reviewerID, RevieweeID: revieweeID, CycleID: cycleID})
}

func (s *Service) Detailed(ctx context.Context, revieweeID, cycleID int64) (DetailedReport, error) {
	reviewee, err := s.store.Reviewee(ctx, revieweeID)
	if err != nil {
		return DetailedReport{}, err
	}
	cycle, err := s.store.Cycle(ctx, cycleID)
	if err != nil {
		return DetailedReport{}, err
	}
	rows, err := s.store.DetailedRows(ctx, revieweeID, cycleID)
	if err != nil {
		return DetailedReport{}, err
	}
	categories, overall := BuildCategoryDetails(rows)
	return DetailedReport{
		Reviewee:       reviewee,
		ReviewCycle:    cycle,
		Categories:     categories,
		OverallAverage: overall,
		TotalFeedbacks: len(rows),
	}, nil
}

// Summary runs its aggregate queries concurrently. A zero cycleID covers all cycles.
func (s *Service) Summary(ctx context.Context, cycleID int64) (Summary, error) {
	var out Summary
	var avg float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.TotalAssignments, err = s.store.CountAssignments(gctx, cycleID)
		return err
	})
	g.Go(func() error {
		var err error
		out.CompletedAssignments, err = s.store.CountCompletedAssignments(gctx, cycleID)
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalFeedbacks, avg, err = s.store.FeedbackStats(gctx, cycleID)
		return err
	})
	g.Go(func() error {
		var err error
		out.RelationTypeStats, err = s.store.RelationStats(gctx, cycleID)
		return err
	})
	g.Go(func() error {
		var err error
		out.OverallStats, err = s.store.OverallStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	out.AverageScore = round2(avg)
	out.CompletionRate = CompletionRate(out.CompletedAssignments, out.TotalAssignments)
	for i := range out.RelationTypeStats {
		out.RelationTypeStats[i].AverageScore = round2(out.RelationTypeStats[i].AverageScore)
	}
	return out, nil
}

func (s *Service) Pairs(ctx context.Context, cycleID int64) ([]PairScore, error) {
	pairs, err := s.store.Pairs(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	for i := range pairs {
		pairs[i].AverageScore = round2(pairs[i].AverageScore)
	}
	return pairs, nil
}

// Export collects the reference data for a JSON snapshot.
func (s *Service) Export(ctx context.Context) (Snapshot, error) {
	out := Snapshot{ExportedAt: s.now().UTC()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Departments, err = s.directory.ListDepartments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Employees, err = s.directory.ListEmployees(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Categories, err = s.catalog.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Questions, err = s.catalog.ListQuestions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return out, nil
}

func (s *Service) FeedbackExport(ctx context.Context) ([]FeedbackExportRow, error) {
	return s.store.FeedbackExportRows(ctx)
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	runs, err := s.store.ListJobRuns(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountJobRuns(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
