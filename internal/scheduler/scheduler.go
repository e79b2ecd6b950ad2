// Package scheduler runs maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"anoa.com/taskmanager/pkg/apperror"
	"github.com/robfig/cron/v3"
)

// Job is a named unit of background work. An empty Schedule registers it for on-demand runs only.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

type funcJob struct {
	name     string
	schedule string
	fn       func(ctx context.Context) error
}

// NewJob adapts fn into a Job.
func NewJob(name, schedule string, fn func(ctx context.Context) error) Job {
	return &funcJob{name: name, schedule: schedule, fn: fn}
}

func (j *funcJob) Name() string { return j.name }

func (j *funcJob) Schedule() string { return j.schedule }

func (j *funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
}

// New returns a scheduler whose scheduled runs are bounded by timeout.
func New(timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		timeout: timeout,
	}
}

// Register adds job and schedules it when it carries a cron expression.
func (s *Scheduler) Register(job Job) error {
	if expr := job.Schedule(); expr != "" {
		if _, err := s.cron.AddFunc(expr, func() { s.runScheduled(job) }); err != nil {
			return fmt.Errorf("invalid schedule %q for job %s: %w", expr, job.Name(), err)
		}
		log.Printf("[%s] scheduled with cron: %s", job.Name(), expr)
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) runScheduled(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		log.Printf("[%s] job failed: %v", job.Name(), err)
		return
	}
	log.Printf("[%s] job completed in %s", job.Name(), time.Since(start).Round(time.Millisecond))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("Scheduler started with %d jobs", len(s.jobs))
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("Scheduler stopped")
}

// RunByName runs a registered job immediately on the caller's goroutine.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("job %q: %w", name, apperror.ErrNotFound)
}

// Jobs lists the registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}
