// Package scheduler implements the single-slot delayed-trigger state machine:
// one pending execution per scheduler identity, superseded by newer requests,
// retried on failure with bounded exponential backoff.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/holdoff/internal/config"
	"github.com/watzon/holdoff/internal/database"
	"github.com/watzon/holdoff/internal/metrics"
)

// redeliverDelay is how long to wait before redelivering an alarm whose
// handling failed at the storage layer.
const redeliverDelay = 10 * time.Second

// maxResponseBody caps how much of a failed response body is captured for
// the error message.
const maxResponseBody = 1024

// Scheduler owns the persisted scheduling records and decides when the
// outbound trigger call fires. All operations for one key are serialized;
// independent keys run concurrently.
type Scheduler struct {
	store      *Store
	timers     *Timers
	cfg        *config.TriggerConfig
	httpClient *http.Client

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

// Accepted echoes the parameters of an accepted schedule request.
type Accepted struct {
	RequestedAt  time.Time
	ScheduledFor time.Time
	DelayMs      int64
	TargetURL    string
}

func New(db *database.DB, cfg *config.TriggerConfig) *Scheduler {
	return &Scheduler{
		store:  NewStore(db),
		timers: NewTimers(),
		cfg:    cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
}

// Stop cancels all armed timers. Pending executions survive in the store and
// are re-armed by Recover on the next start.
func (s *Scheduler) Stop() {
	s.timers.Stop()
	log.Info().Msg("Scheduler stopped")
}

// QueueExecution schedules the trigger call delaySeconds from now,
// unconditionally replacing any pending execution for the key and resetting
// the retry streak. Input validation is the gateway's responsibility.
func (s *Scheduler) QueueExecution(ctx context.Context, key string, delaySeconds int, targetURL string) (*Accepted, error) {
	unlock := s.lock(key)
	defer unlock()

	now := s.now().UTC().Truncate(time.Second)
	at := now.Add(time.Duration(delaySeconds) * time.Second)

	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &Record{Key: key}
	}

	rec.LastRequestedAt = &now
	rec.ScheduledFor = &at
	rec.DelayMs = int64(delaySeconds) * 1000
	rec.TargetURL = targetURL
	rec.RetryCount = 0

	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}

	// Arming under the key lock makes persist+arm atomic with respect to
	// every other operation on this key.
	s.timers.Arm(key, at, s.onAlarm)
	metrics.RecordScheduleRequest()
	metrics.SetPendingSchedules(s.timers.Len())

	log.Info().
		Str("key", key).
		Int("delay_seconds", delaySeconds).
		Time("scheduled_for", at).
		Msg("Execution queued")

	return &Accepted{
		RequestedAt:  now,
		ScheduledFor: at,
		DelayMs:      rec.DelayMs,
		TargetURL:    targetURL,
	}, nil
}

// Status returns the current projection of the record for a key. Keys that
// were never scheduled yield an empty record with RetryCount 0.
func (s *Scheduler) Status(ctx context.Context, key string) (*Record, error) {
	rec, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &Record{Key: key}
	}
	return rec, nil
}

// onAlarm handles a wake-timer fire. Fires for superseded or cleared
// schedules are no-ops; storage failures leave the alarm armed so the fire
// is redelivered.
func (s *Scheduler) onAlarm(key string, firedFor time.Time) {
	unlock := s.lock(key)
	defer unlock()

	ctx := context.Background()

	rec, err := s.store.Get(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to load record on alarm, redelivering")
		s.timers.Rearm(key, redeliverDelay, firedFor, s.onAlarm)
		return
	}

	if rec == nil || rec.ScheduledFor == nil || !rec.ScheduledFor.Equal(firedFor) {
		log.Debug().
			Str("key", key).
			Time("fired_for", firedFor).
			Msg("Stale alarm fire, ignoring")
		metrics.SetPendingSchedules(s.timers.Len())
		return
	}

	now := s.now().UTC().Truncate(time.Second)

	target := rec.TargetURL
	if target == "" {
		target = s.cfg.URL
	}

	if target == "" {
		// Misconfiguration: record the failure but do not retry, this
		// needs operator intervention.
		rec.LastExecutedAt = &now
		rec.LastOutcome = OutcomeError
		rec.LastError = "no webhook URL configured"
		rec.RetryCount++
		rec.ScheduledFor = nil

		if err := s.store.Save(ctx, rec); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to persist configuration failure, redelivering")
			s.timers.Rearm(key, redeliverDelay, firedFor, s.onAlarm)
			return
		}

		metrics.RecordTriggerExecution("config_error", 0)
		metrics.SetPendingSchedules(s.timers.Len())
		log.Error().Str("key", key).Msg("No webhook URL configured, execution not retried")
		return
	}

	start := s.now()
	execErr := s.trigger(ctx, target)
	elapsed := s.now().Sub(start)

	if execErr == nil {
		rec.LastExecutedAt = &now
		rec.LastOutcome = OutcomeSuccess
		rec.LastError = ""
		rec.RetryCount = 0
		rec.ScheduledFor = nil

		if err := s.store.Save(ctx, rec); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to persist success, redelivering")
			s.timers.Rearm(key, redeliverDelay, firedFor, s.onAlarm)
			return
		}

		metrics.RecordTriggerExecution("success", elapsed)
		metrics.SetPendingSchedules(s.timers.Len())
		log.Info().
			Str("key", key).
			Str("url", target).
			Dur("duration", elapsed).
			Msg("Trigger call succeeded")
		return
	}

	rec.RetryCount++
	retryAt := now.Add(retryDelay(rec.RetryCount))
	rec.LastExecutedAt = &now
	rec.LastOutcome = OutcomeError
	rec.LastError = truncateError(execErr.Error())
	rec.ScheduledFor = &retryAt

	if err := s.store.Save(ctx, rec); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to persist failure, redelivering")
		s.timers.Rearm(key, redeliverDelay, firedFor, s.onAlarm)
		return
	}

	s.timers.Arm(key, retryAt, s.onAlarm)
	metrics.RecordTriggerExecution("error", elapsed)
	metrics.RecordRetryScheduled()
	metrics.SetPendingSchedules(s.timers.Len())

	log.Warn().
		Str("key", key).
		Str("url", target).
		Int("retry_count", rec.RetryCount).
		Time("next_retry", retryAt).
		Str("error", rec.LastError).
		Msg("Trigger call failed, retry scheduled")
}

// trigger performs the outbound HTTP call. A nil return means the target
// answered with a 2xx status.
func (s *Scheduler) trigger(ctx context.Context, target string) error {
	method := s.cfg.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
}

// lock serializes operations per key, modeling the single-actor execution of
// one scheduling record.
func (s *Scheduler) lock(key string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
