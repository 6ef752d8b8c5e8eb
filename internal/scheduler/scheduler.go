package scheduler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JobCategory classifies jobs for semaphore-based concurrency limits.
type JobCategory string

const (
	CategorySync      JobCategory = "sync"
	CategoryAnalytics JobCategory = "analytics"
	CategoryDefault   JobCategory = "default"
)

// Job is a schedulable unit of work.
type Job struct {
	Name     string
	Cron     *CronExpr
	Category JobCategory
	Run      func(ctx context.Context) error
}

// Config holds scheduler settings.
type Config struct {
	Enabled          bool          `json:"enabled" envconfig:"ENABLED"`
	TickInterval     time.Duration `json:"tickInterval"`
	MaxConcSync      int           `json:"maxConcSync"`
	MaxConcAnalytics int           `json:"maxConcAnalytics"`
	MaxConcDefault   int           `json:"maxConcDefault"`
	LockPath         string        `json:"lockPath"`
}

// DefaultConfig returns sensible scheduler defaults.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Enabled:          false,
		TickInterval:     60 * time.Second,
		MaxConcSync:      2,
		MaxConcAnalytics: 1,
		MaxConcDefault:   4,
		LockPath:         filepath.Join(home, ".tracksync", "scheduler.lock"),
	}
}

// RunRecord is the last observed outcome of a job.
type RunRecord struct {
	Status string
	At     time.Time
}

// Scheduler manages job registration, tick dispatch, and concurrency
// control. One tick runs per process at a time, enforced by a file lock.
type Scheduler struct {
	cfg        Config
	jobs       map[string]*Job
	runs       map[string]RunRecord
	mu         sync.RWMutex
	semaphores map[JobCategory]*Semaphore
	lock       *FileLock
}

// New creates a Scheduler.
func New(cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.MaxConcSync <= 0 {
		cfg.MaxConcSync = def.MaxConcSync
	}
	if cfg.MaxConcAnalytics <= 0 {
		cfg.MaxConcAnalytics = def.MaxConcAnalytics
	}
	if cfg.MaxConcDefault <= 0 {
		cfg.MaxConcDefault = def.MaxConcDefault
	}
	if cfg.LockPath == "" {
		cfg.LockPath = def.LockPath
	}

	return &Scheduler{
		cfg:  cfg,
		jobs: make(map[string]*Job),
		runs: make(map[string]RunRecord),
		semaphores: map[JobCategory]*Semaphore{
			CategorySync:      NewSemaphore(cfg.MaxConcSync),
			CategoryAnalytics: NewSemaphore(cfg.MaxConcAnalytics),
			CategoryDefault:   NewSemaphore(cfg.MaxConcDefault),
		},
		lock: NewFileLock(cfg.LockPath),
	}
}

// Register adds a job to the scheduler.
func (s *Scheduler) Register(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Name] = job
	slog.Info("scheduler job registered", "name", job.Name, "category", job.Category)
}

// Unregister removes a job by name.
func (s *Scheduler) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, name)
}

// Jobs returns a snapshot of the registered jobs.
func (s *Scheduler) Jobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

// LastRun returns the last recorded outcome for a job name.
func (s *Scheduler) LastRun(name string) (RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[name]
	return r, ok
}

// Run starts the tick loop and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler started", "tick", s.cfg.TickInterval, "jobs", len(s.jobs))
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return ctx.Err()
		case t := <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

// tick acquires the global file lock, then dispatches every job whose
// expression matches now.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	acquired, err := s.lock.TryLock()
	if err != nil {
		slog.Warn("scheduler lock error", "error", err)
		return
	}
	if !acquired {
		slog.Debug("scheduler tick skipped: lock held by another process")
		return
	}
	defer s.lock.Unlock()

	s.mu.RLock()
	var due []*Job
	for _, job := range s.jobs {
		if job.Cron.Matches(now) {
			due = append(due, job)
		}
	}
	s.mu.RUnlock()

	for _, job := range due {
		s.dispatch(ctx, job, now)
	}
}

// dispatch runs the job on its own goroutine if a semaphore slot is free.
func (s *Scheduler) dispatch(ctx context.Context, job *Job, now time.Time) {
	sem := s.semaphores[job.Category]
	if sem == nil {
		sem = s.semaphores[CategoryDefault]
	}

	if !sem.TryAcquire() {
		slog.Warn("scheduler job skipped: concurrency limit", "job", job.Name, "category", job.Category)
		s.recordRun(job.Name, "skipped_concurrency", now)
		return
	}

	slog.Info("scheduler dispatching job", "job", job.Name)

	go func() {
		defer sem.Release()

		if err := job.Run(ctx); err != nil {
			slog.Error("scheduler job failed", "job", job.Name, "error", err)
			s.recordRun(job.Name, "failed", now)
			return
		}
		s.recordRun(job.Name, "ok", now)
	}()
}

func (s *Scheduler) recordRun(name, status string, tick time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[name] = RunRecord{Status: status, At: tick}
}
