package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// CronRunner enqueues an execution for the default key on every tick of a
// standard cron expression, using the statically configured target and
// default delay. Useful for nightly builds alongside push-driven debouncing.
type CronRunner struct {
	cron         *cron.Cron
	sched        *Scheduler
	delaySeconds int
}

// NewCronRunner validates the expression and prepares the runner. The
// configured trigger URL must be set; the gateway-level validation in
// config enforces that.
func NewCronRunner(sched *Scheduler, expression string, delaySeconds int) (*CronRunner, error) {
	if delaySeconds < 1 {
		delaySeconds = 1
	}

	r := &CronRunner{
		cron:         cron.New(),
		sched:        sched,
		delaySeconds: delaySeconds,
	}

	if _, err := r.cron.AddFunc(expression, r.tick); err != nil {
		return nil, fmt.Errorf("parsing cron expression: %w", err)
	}

	return r, nil
}

func (r *CronRunner) tick() {
	accepted, err := r.sched.QueueExecution(context.Background(), DefaultKey, r.delaySeconds, "")
	if err != nil {
		log.Error().Err(err).Msg("Failed to enqueue cron-triggered execution")
		return
	}

	log.Info().
		Time("scheduled_for", accepted.ScheduledFor).
		Msg("Cron tick queued execution")
}

func (r *CronRunner) Start() {
	r.cron.Start()
	log.Info().Msg("Cron trigger started")
}

func (r *CronRunner) Stop() {
	r.cron.Stop()
	log.Info().Msg("Cron trigger stopped")
}
