// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// LimiterSweepInterval is how often expired rate-limit windows are dropped.
const LimiterSweepInterval = 5 * time.Minute

// MaintenanceJob is a periodic background task.
type MaintenanceJob struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context)
}

// StartMaintenanceScheduler registers jobs and starts the scheduler. A job that is
// still running when its next tick comes is rescheduled rather than doubled up.
func StartMaintenanceScheduler(ctx context.Context, jobs ...MaintenanceJob) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	for _, job := range jobs {
		run := job.Run
		name := job.Name
		if _, err := sched.NewJob(
			gocron.DurationJob(job.Every),
			gocron.NewTask(func() {
				if ctx.Err() != nil {
					return
				}
				run(ctx)
			}),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			_ = sched.Shutdown()
			return nil, err
		}
		log.Printf("⏱️ [Scheduler] %s every %s", name, job.Every)
	}

	sched.Start()
	return sched, nil
}

// LimiterSweepJob evicts stale in-memory rate-limit windows.
func LimiterSweepJob(l *MemoryLimiter) MaintenanceJob {
	return MaintenanceJob{
		Name:  "rate-limit-sweep",
		Every: LimiterSweepInterval,
		Run: func(context.Context) {
			if n := l.Sweep(); n > 0 {
				log.Printf("🧹 [Scheduler] swept %d expired rate-limit windows", n)
			}
		},
	}
}
