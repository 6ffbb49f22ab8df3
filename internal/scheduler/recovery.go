package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/watzon/holdoff/internal/metrics"
)

// Recover re-arms wake timers for every record with a pending execution.
// Overdue schedules fire immediately; the armed instant is kept at the
// persisted due time so the staleness guard in onAlarm still matches.
func (s *Scheduler) Recover(ctx context.Context) error {
	records, err := s.store.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("loading pending schedules: %w", err)
	}

	for _, rec := range records {
		s.timers.Arm(rec.Key, *rec.ScheduledFor, s.onAlarm)

		log.Info().
			Str("key", rec.Key).
			Time("scheduled_for", *rec.ScheduledFor).
			Int("retry_count", rec.RetryCount).
			Msg("Re-armed pending schedule")
	}

	metrics.SetPendingSchedules(s.timers.Len())

	log.Info().Int("count", len(records)).Msg("Schedule recovery complete")
	return nil
}
