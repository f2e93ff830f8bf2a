package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"feedback360/internal/domain/catalog"
	"feedback360/internal/domain/directory"
)

type fakeStore struct {
	assignments int
	completed   int
	feedbacks   int
	average     float64
	failOverall error
	rows        []ScoreRow
}

func (f *fakeStore) ScoresByCategory(context.Context, ScoreFilter) ([]CategoryScore, error) {
	return []CategoryScore{{CategoryID: 1, CategoryName: "Teamwork", AverageScore: 3.456, TotalFeedbacks: 3}}, nil
}

func (f *fakeStore) Reviewee(_ context.Context, id int64) (directory.UserRef, error) {
	if id != 2 {
		return directory.UserRef{}, ErrRevieweeNotFound
	}
	return directory.UserRef{ID: 2, Name: "Grace", Email: "grace@example.com"}, nil
}

func (f *fakeStore) Cycle(_ context.Context, id int64) (CycleRef, error) {
	if id != 1 {
		return CycleRef{}, ErrCycleNotFound
	}
	return CycleRef{ID: 1, Name: "H1", StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeStore) DetailedRows(context.Context, int64, int64) ([]ScoreRow, error) {
	return f.rows, nil
}

func (f *fakeStore) CountAssignments(context.Context, int64) (int, error) {
	return f.assignments, nil
}

func (f *fakeStore) CountCompletedAssignments(context.Context, int64) (int, error) {
	return f.completed, nil
}

func (f *fakeStore) FeedbackStats(context.Context, int64) (int, float64, error) {
	return f.feedbacks, f.average, nil
}

func (f *fakeStore) RelationStats(context.Context, int64) ([]RelationStat, error) {
	return []RelationStat{{RelationType: "PEER", Assignments: 2, AverageScore: 3.333}}, nil
}

func (f *fakeStore) OverallStats(context.Context) (OverallStats, error) {
	if f.failOverall != nil {
		return OverallStats{}, f.failOverall
	}
	return OverallStats{Employees: 3, Categories: 2}, nil
}

func (f *fakeStore) Pairs(context.Context, int64) ([]PairScore, error) {
	return []PairScore{{FeedbackCount: 2, AverageScore: 4.125}}, nil
}

func (f *fakeStore) FeedbackExportRows(context.Context) ([]FeedbackExportRow, error) {
	return nil, nil
}

func (f *fakeStore) ListJobRuns(context.Context, JobRunFilter, int, int) ([]JobRun, error) {
	return []JobRun{{ID: 1, JobType: "cycle_status_sync"}}, nil
}

func (f *fakeStore) CountJobRuns(context.Context, JobRunFilter) (int, error) {
	return 1, nil
}

type fakeDirectory struct{}

func (fakeDirectory) ListDepartments(context.Context) ([]directory.Department, error) {
	return []directory.Department{{ID: 1, Name: "Engineering"}}, nil
}

func (fakeDirectory) ListEmployees(context.Context) ([]directory.Employee, error) {
	return []directory.Employee{{ID: 2, Name: "Grace"}}, nil
}

type fakeCatalog struct{}

func (fakeCatalog) ListCategories(context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{ID: 1, Name: "Teamwork"}}, nil
}

func (fakeCatalog) ListQuestions(context.Context) ([]catalog.Question, error) {
	return []catalog.Question{{ID: 1, Text: "Helps others"}}, nil
}

func TestSummaryRoundsAndRates(t *testing.T) {
	svc := NewService(&fakeStore{assignments: 3, completed: 1, feedbacks: 4, average: 3.14159}, fakeDirectory{}, fakeCatalog{})

	summary, err := svc.Summary(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.AverageScore != 3.14 || summary.CompletionRate != 33.33 {
		t.Fatalf("unexpected rounding: %+v", summary)
	}
	if summary.RelationTypeStats[0].AverageScore != 3.33 {
		t.Fatalf("expected relation average rounded, got %v", summary.RelationTypeStats[0].AverageScore)
	}
	if summary.OverallStats.Employees != 3 {
		t.Fatalf("unexpected overall stats: %+v", summary.OverallStats)
	}
}

func TestSummaryPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&fakeStore{failOverall: boom}, fakeDirectory{}, fakeCatalog{})
	if _, err := svc.Summary(context.Background(), 1); !errors.Is(err, boom) {
		t.Fatalf("expected db error, got %v", err)
	}
}

func TestDetailedReport(t *testing.T) {
	store := &fakeStore{rows: []ScoreRow{
		{CategoryID: 1, CategoryName: "Teamwork", QuestionID: 5, QuestionText: "Helps others", RelationType: "PEER", Score: 4, Comment: "Always there"},
	}}
	svc := NewService(store, fakeDirectory{}, fakeCatalog{})

	report, err := svc.Detailed(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Reviewee.Name != "Grace" || report.ReviewCycle.Name != "H1" || report.OverallAverage != 4 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, err := svc.Detailed(context.Background(), 99, 1); !errors.Is(err, ErrRevieweeNotFound) {
		t.Fatalf("expected reviewee not found, got %v", err)
	}
	if _, err := svc.Detailed(context.Background(), 2, 99); !errors.Is(err, ErrCycleNotFound) {
		t.Fatalf("expected cycle not found, got %v", err)
	}

	var buf bytes.Buffer
	if err := WriteDetailedPDF(&buf, report); err != nil {
		t.Fatalf("unexpected pdf error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected PDF output")
	}
}

func TestScoresRounded(t *testing.T) {
	svc := NewService(&fakeStore{}, fakeDirectory{}, fakeCatalog{})
	scores, err := svc.PairCategories(context.Background(), 1, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scores[0].AverageScore != 3.46 {
		t.Fatalf("expected 3.46, got %v", scores[0].AverageScore)
	}
	pairs, _ := svc.Pairs(context.Background(), 0)
	if pairs[0].AverageScore != 4.13 {
		t.Fatalf("expected 4.13, got %v", pairs[0].AverageScore)
	}
}

func TestExportSnapshot(t *testing.T) {
	svc := NewService(&fakeStore{}, fakeDirectory{}, fakeCatalog{})
	svc.now = func() time.Time { return time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC) }

	snapshot, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshot.Departments) != 1 || len(snapshot.Employees) != 1 || len(snapshot.Categories) != 1 || len(snapshot.Questions) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if !snapshot.ExportedAt.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected export time: %v", snapshot.ExportedAt)
	}
}

func TestWriteFeedbackCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := []FeedbackExportRow{{
		FeedbackID:   3,
		CycleName:    "H1",
		ReviewerName: "Ada",
		RevieweeName: "Grace",
		RelationType: "MANAGER",
		CategoryName: "Teamwork",
		QuestionText: "Helps others, often",
		Score:        5,
		SubmittedAt:  time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}}
	if err := WriteFeedbackCSV(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("unexpected csv error: %v", err)
	}
	if len(records) != 2 || len(records[1]) != len(feedbackCSVHeader) {
		t.Fatalf("unexpected csv shape: %v", records)
	}
	if records[1][8] != "Helps others, often" || records[1][9] != "5" || records[1][11] != "2026-02-01T09:00:00Z" {
		t.Fatalf("unexpected csv row: %v", records[1])
	}
}
