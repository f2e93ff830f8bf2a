package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"feedback360/internal/platform/querier"
)

const (
	JobCycleStatusSync         = "cycle_status_sync"
	JobAssignmentNotifications = "assignment_notifications"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunFunc does the work of one job and returns details for job_runs.
type RunFunc func(context.Context) (any, error)

// StatusSyncer recomputes stored cycle statuses from their dates.
type StatusSyncer interface {
	SyncStatuses(ctx context.Context) (int64, error)
}

type Service struct {
	DB       querier.Querier
	Syncer   StatusSyncer
	Interval time.Duration
	queue    chan job
}

type job struct {
	Type string
	Run  RunFunc
}

func New(db querier.Querier, syncer StatusSyncer, interval time.Duration) *Service {
	return &Service{
		DB:       db,
		Syncer:   syncer,
		Interval: interval,
		queue:    make(chan job, 128),
	}
}

// Start runs the queue worker and, when an interval is set, the cycle status
// scheduler until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Interval > 0 && s.Syncer != nil {
		go s.scheduleStatusSync(ctx, s.Interval)
	}
}

func (s *Service) Enqueue(jobType string, run RunFunc) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) SyncStatusesJob() RunFunc {
	return func(ctx context.Context) (any, error) {
		updated, err := s.Syncer.SyncStatuses(ctx)
		return map[string]any{"updated": updated}, err
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	var runID int64
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, StatusRunning).Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		}
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error(), "partial": details}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != 0 {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleStatusSync(ctx context.Context, interval time.Duration) {
	s.Enqueue(JobCycleStatusSync, s.SyncStatusesJob())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobCycleStatusSync, s.SyncStatusesJob())
		}
	}
}
