// Package scheduler runs recurring background jobs on cron schedules.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron"
	"github.com/sangkips/investify-billing/pkg/logger"
)

// ErrJobRunning is returned by RunNow while the previous run has not finished
var ErrJobRunning = errors.New("job is already running")

// ErrUnknownJob is returned by RunNow for a name that was never registered
var ErrUnknownJob = errors.New("unknown job")

// Job is a named unit of background work. Spec uses the six-field cron
// format with a leading seconds column, e.g. "0 0 9 * * *".
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type entry struct {
	job     Job
	running atomic.Bool
}

// Scheduler owns a cron runner and the jobs registered on it
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger

	mu   sync.RWMutex
	jobs map[string]*entry

	// base is cancelled by Stop so in-flight jobs see shutdown
	base   context.Context
	cancel context.CancelFunc
}

// New creates a scheduler that evaluates schedules in the named IANA timezone
func New(timezone string, log *logger.Logger) (*Scheduler, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, errors.Wrapf(err, "load scheduler timezone %q", timezone)
		}
		loc = l
	}

	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.NewWithLocation(loc),
		log:    log.With("component", "scheduler"),
		jobs:   make(map[string]*entry),
		base:   base,
		cancel: cancel,
	}, nil
}

// Register validates the job's schedule and adds it to the runner
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}
	if _, err := cron.Parse(job.Spec); err != nil {
		return errors.Wrapf(err, "invalid schedule %q for job %s", job.Spec, job.Name)
	}

	s.mu.Lock()
	if _, dup := s.jobs[job.Name]; dup {
		s.mu.Unlock()
		return errors.Newf("job %s is already registered", job.Name)
	}
	e := &entry{job: job}
	s.jobs[job.Name] = e
	s.mu.Unlock()

	if err := s.cron.AddFunc(job.Spec, func() {
		if err := s.execute(s.base, e); err != nil && !errors.Is(err, ErrJobRunning) {
			s.log.Errorw("scheduled job failed", "job", job.Name, "error", err)
		}
	}); err != nil {
		s.mu.Lock()
		delete(s.jobs, job.Name)
		s.mu.Unlock()
		return errors.Wrapf(err, "schedule job %s", job.Name)
	}

	s.log.Infow("job registered", "job", job.Name, "spec", job.Spec)
	return nil
}

// RunNow executes a registered job immediately on the calling goroutine
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	e, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return errors.Wrap(ErrUnknownJob, name)
	}
	return s.execute(ctx, e)
}

// Jobs lists the registered job names in alphabetical order
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start begins firing jobs on their schedules in a background goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infow("scheduler started", "jobs", s.Jobs())
}

// Stop halts the schedule and cancels the context of running jobs
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.cancel()
	s.log.Info("scheduler stopped")
}

// execute runs a job unless its previous run is still in progress. A panic
// inside the job is converted into an error.
func (s *Scheduler) execute(ctx context.Context, e *entry) (err error) {
	if !e.running.CompareAndSwap(false, true) {
		s.log.Warnw("skipping job, previous run still in progress", "job", e.job.Name)
		return ErrJobRunning
	}
	defer e.running.Store(false)

	if e.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.job.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("job %s panicked: %v", e.job.Name, r)
		}
	}()

	started := time.Now()
	s.log.Infow("job started", "job", e.job.Name)
	err = e.job.Run(ctx)
	s.log.Infow("job finished", "job", e.job.Name, "duration", time.Since(started), "error", err)
	return err
}
