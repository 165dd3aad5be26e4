package main

import (
	"context"
	"time"

	"github.com/sangkips/investify-billing/internal/infrastructure/scheduler"
)

// Background job names, also used by POST /admin/jobs/:name/run
const (
	jobReminderSweep    = "reminder-sweep"
	jobSubscriptionSync = "subscription-sync"
	jobIdempotencyPurge = "idempotency-purge"
)

func (a *app) registerJobs(s *scheduler.Scheduler) error {
	rc := a.cfg.Reminder

	jobs := []scheduler.Job{
		{
			Name:    jobSubscriptionSync,
			Spec:    rc.SyncSpec,
			Timeout: 30 * time.Minute,
			Run: func(ctx context.Context) error {
				_, err := a.subscriptions.SyncAll(ctx)
				return err
			},
		},
		{
			Name:    jobIdempotencyPurge,
			Spec:    "0 15 * * * *",
			Timeout: 5 * time.Minute,
			Run: func(ctx context.Context) error {
				n, err := a.idempotencyRepo.DeleteExpired(ctx, time.Now())
				if err != nil {
					return err
				}
				if n > 0 {
					a.log.Infow("expired idempotency keys removed", "count", n)
				}
				return nil
			},
		},
	}

	if rc.Enabled {
		jobs = append(jobs, scheduler.Job{
			Name:    jobReminderSweep,
			Spec:    rc.Schedule,
			Timeout: time.Hour,
			Run:     a.runSweep,
		})
	} else {
		a.log.Info("payment reminders disabled")
	}

	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) runSweep(ctx context.Context) error {
	return a.sweepAt(ctx, time.Now())
}

func (a *app) sweepAt(ctx context.Context, at time.Time) error {
	_, err := a.reminders.RunDailySweep(ctx, at)
	return err
}
