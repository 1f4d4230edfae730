// Package scheduler owns the per-user recurring publication jobs using the
// gocron library. Each user has at most one live job; starting a new job
// cancels the previous one under a single critical section.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/avolkov/genpost/internal/publisher"
)

// Publisher runs one publication cycle; the scheduler reacts to its outcome.
type Publisher interface {
	PublishOnce(ctx context.Context, userID int64) publisher.Outcome
}

type entry struct {
	job   gocron.Job
	token uint64
}

// Scheduler manages per-user recurring publication jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	publisher Publisher

	mu        sync.Mutex
	jobs      map[int64]entry
	nextToken uint64
	running   bool
}

// NewScheduler creates a scheduler instance. Jobs are registered later via
// Start as users complete their setup dialogs.
func NewScheduler(logger *slog.Logger, pub Publisher) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "scheduler")

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log,
		publisher: pub,
		jobs:      make(map[int64]entry),
	}, nil
}

// Run starts the scheduler's internal ticking.
func (s *Scheduler) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started")
}

// Start schedules a recurring publication job for the user, replacing any
// existing one. The first firing happens one full period after now; the
// caller decides whether to publish immediately beforehand. Singleton mode
// keeps firings for one user strictly sequential.
func (s *Scheduler) Start(userID int64, period time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(userID)

	s.nextToken++
	token := s.nextToken

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(s.runJob, context.Background(), userID, token),
		gocron.WithName(fmt.Sprintf("publish-user-%d", userID)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule publication job: %w", err)
	}

	s.jobs[userID] = entry{job: job, token: token}
	s.logger.Info("Scheduled publication job", "user_id", userID, "period", period)
	return nil
}

// Stop cancels the user's job if present and reports whether one existed.
// Stopping an already stopped user is a no-op.
func (s *Scheduler) Stop(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[userID]; !ok {
		return false
	}
	s.removeLocked(userID)
	s.logger.Info("Cancelled publication job", "user_id", userID)
	return true
}

// Active reports whether the user currently has a live job.
func (s *Scheduler) Active(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[userID]
	return ok
}

// Shutdown stops the scheduler and waits for running jobs to complete.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
		return err
	}
	s.logger.Info("Scheduler stopped")
	return nil
}

// runJob is the per-firing task. A firing whose token no longer matches the
// user's current job is stale (the job was stopped or replaced after this
// firing was queued) and is discarded without side effects.
func (s *Scheduler) runJob(ctx context.Context, userID int64, token uint64) {
	if !s.tokenValid(userID, token) {
		s.logger.Debug("Discarding stale firing", "user_id", userID)
		return
	}

	start := time.Now()
	outcome := s.publisher.PublishOnce(ctx, userID)
	s.logger.Debug("Publication firing finished", "user_id", userID, "duration", time.Since(start))

	if outcome == publisher.SkippedMissingConfig {
		// Configuration disappeared underneath the job; cancel it rather
		// than keep firing into the void.
		s.cancelIfCurrent(userID, token)
	}
}

func (s *Scheduler) tokenValid(userID int64, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[userID]
	return ok && e.token == token
}

// cancelIfCurrent removes the user's job only if this firing still owns it.
func (s *Scheduler) cancelIfCurrent(userID int64, token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.jobs[userID]; ok && e.token == token {
		s.removeLocked(userID)
		s.logger.Warn("Cancelled publication job, configuration incomplete", "user_id", userID)
	}
}

// removeLocked removes the user's job from gocron. Callers must hold mu.
func (s *Scheduler) removeLocked(userID int64) {
	e, ok := s.jobs[userID]
	if !ok {
		return
	}
	if err := s.scheduler.RemoveJob(e.job.ID()); err != nil {
		s.logger.Warn("Failed to remove job", "user_id", userID, "error", err)
	}
	delete(s.jobs, userID)
}
