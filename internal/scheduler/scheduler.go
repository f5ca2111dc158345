// Package scheduler keeps the provider caches warm so that summary requests
// rarely wait on an upstream call.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultJobTimeout bounds one refresh run.
const DefaultJobTimeout = 30 * time.Second

// Refresher reloads a cache from its upstream.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Job is a named refresh on a cron schedule.
type Job struct {
	Name      string
	Spec      string
	Refresher Refresher
}

// Scheduler runs refresh jobs on their cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
	log     zerolog.Logger
}

// New registers jobs and returns a stopped Scheduler. Specs use the standard
// five-field cron syntax or descriptors such as "@every 5m".
func New(jobs []Job, log zerolog.Logger) (*Scheduler, error) {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		timeout: DefaultJobTimeout,
		log:     log,
	}

	for _, job := range jobs {
		if job.Refresher == nil {
			continue
		}
		if _, err := s.cron.AddFunc(job.Spec, func() { s.run(context.Background(), job) }); err != nil {
			return nil, fmt.Errorf("failed to schedule %s refresh %q: %w", job.Name, job.Spec, err)
		}
		s.jobs = append(s.jobs, job)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out with jobs still running")
	}
}

// RunNow runs every job once, synchronously. Failures are logged and the
// first one is returned.
func (s *Scheduler) RunNow(ctx context.Context) error {
	var first error
	for _, job := range s.jobs {
		if err := s.run(ctx, job); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name
	}
	return names
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Refresher.Refresh(ctx); err != nil {
		s.log.Warn().Err(err).Str("job", job.Name).Msg("cache refresh failed")
		return fmt.Errorf("failed to refresh %s: %w", job.Name, err)
	}
	s.log.Debug().Str("job", job.Name).Dur("took", time.Since(start)).Msg("cache refreshed")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
