package scheduler

import "time"

// DefaultKey is the scheduler identity served by the root endpoints.
const DefaultKey = "scheduler"

// Outcome classifies the most recent execution attempt.
type Outcome string

const (
	// OutcomeSuccess means the trigger call returned a 2xx status.
	OutcomeSuccess Outcome = "success"
	// OutcomeError means the call failed or returned a non-2xx status.
	OutcomeError Outcome = "error"
)

// Record is the persisted scheduling state for one scheduler identity.
// It is created lazily on first access and never deleted.
type Record struct {
	Key             string     // Scheduler identity
	LastRequestedAt *time.Time // Most recent accepted schedule request
	ScheduledFor    *time.Time // Due time of the pending execution, nil when idle
	LastExecutedAt  *time.Time // Most recent execution attempt
	LastOutcome     Outcome    // Empty until the first execution
	LastError       string     // Failure description, cleared on success
	RetryCount      int        // Consecutive failures since the last success
	DelayMs         int64      // Delay used for the most recent schedule request
	TargetURL       string     // Caller-supplied target, empty for the static target
	UpdatedAt       time.Time  // When the record was last written
}

// maxErrorLength bounds LastError, truncation marker included.
const maxErrorLength = 500

const truncationMarker = "..."

// truncateError caps a failure description at maxErrorLength characters.
func truncateError(msg string) string {
	if len(msg) <= maxErrorLength {
		return msg
	}
	return msg[:maxErrorLength-len(truncationMarker)] + truncationMarker
}

// backoffDelays maps consecutive-failure counts to retry delays. Failure
// streaks longer than the table retry at the last entry indefinitely; a
// success or a fresh schedule request is the only way out.
var backoffDelays = []time.Duration{
	1 * time.Minute,
	2 * time.Minute,
	5 * time.Minute,
}

// retryDelay returns the backoff delay for a 1-based consecutive-failure
// count, clamped to the last table entry.
func retryDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	if retryCount > len(backoffDelays) {
		retryCount = len(backoffDelays)
	}
	return backoffDelays[retryCount-1]
}
