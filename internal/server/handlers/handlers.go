// Package handlers implements the request gateway: it validates schedule
// requests and status queries and translates them into scheduler operations.
package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/holdoff/internal/config"
	"github.com/watzon/holdoff/internal/scheduler"
)

// Request headers for schedule requests.
const (
	WebhookURLHeader   = "X-Webhook-Url"
	DelaySecondsHeader = "X-Delay-Seconds"
)

// Handlers holds the gateway endpoints.
type Handlers struct {
	sched *scheduler.Scheduler
	cfg   *config.TriggerConfig
}

func New(sched *scheduler.Scheduler, cfg *config.TriggerConfig) *Handlers {
	return &Handlers{
		sched: sched,
		cfg:   cfg,
	}
}

// ScheduleResponse acknowledges an accepted schedule request.
type ScheduleResponse struct {
	OK           bool   `json:"ok"`
	ScheduledFor string `json:"scheduledFor"`
	DelaySeconds int    `json:"delaySeconds"`
	WebhookURL   string `json:"webhookUrl,omitempty"`
}

// StatusResponse projects the persisted scheduling record. Timestamps are
// RFC 3339 strings and absent when unset.
type StatusResponse struct {
	LastWebhookAt   string `json:"lastWebhookAt,omitempty"`
	ScheduledFor    string `json:"scheduledFor,omitempty"`
	LastBuildAt     string `json:"lastBuildAt,omitempty"`
	LastBuildStatus string `json:"lastBuildStatus,omitempty"`
	LastError       string `json:"lastError,omitempty"`
	RetryCount      int    `json:"retryCount"`
	DelayMs         int64  `json:"delayMs,omitempty"`
	WebhookURL      string `json:"webhookUrl,omitempty"`
}

// Schedule handles POST / and POST /hooks/{key}. It validates the secret,
// target URL and delay, then queues the execution. Validation failures never
// reach the scheduler.
func (h *Handlers) Schedule(w http.ResponseWriter, r *http.Request) {
	if !secretMatches(r, h.cfg.Secret) {
		Unauthorized(w, "Invalid or missing webhook secret")
		return
	}

	key := schedulerKey(r)

	targetURL := r.Header.Get(WebhookURLHeader)
	if targetURL != "" {
		if msg := validateTargetURL(targetURL); msg != "" {
			BadRequest(w, msg)
			return
		}
	} else if h.cfg.URL == "" {
		BadRequest(w, "Missing "+WebhookURLHeader+" header and no webhook URL configured")
		return
	}

	delaySeconds := h.cfg.DelaySeconds
	if raw := r.Header.Get(DelaySecondsHeader); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			BadRequest(w, "Invalid "+DelaySecondsHeader+" header: must be a positive integer")
			return
		}
		delaySeconds = parsed
	} else if delaySeconds < 1 {
		BadRequest(w, "Missing "+DelaySecondsHeader+" header and no default delay configured")
		return
	}

	accepted, err := h.sched.QueueExecution(r.Context(), key, delaySeconds, targetURL)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to queue execution")
		InternalError(w, "Failed to queue execution")
		return
	}

	JSON(w, http.StatusAccepted, ScheduleResponse{
		OK:           true,
		ScheduledFor: accepted.ScheduledFor.UTC().Format(time.RFC3339),
		DelaySeconds: delaySeconds,
		WebhookURL:   accepted.TargetURL,
	})
}

// Status handles GET /status and GET /hooks/{key}/status. It always
// succeeds and reflects the best-known state.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	if !secretMatches(r, h.cfg.Secret) {
		Unauthorized(w, "Invalid or missing webhook secret")
		return
	}

	key := schedulerKey(r)

	rec, err := h.sched.Status(r.Context(), key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to load status")
		InternalError(w, "Failed to load status")
		return
	}

	JSON(w, http.StatusOK, StatusResponse{
		LastWebhookAt:   formatTime(rec.LastRequestedAt),
		ScheduledFor:    formatTime(rec.ScheduledFor),
		LastBuildAt:     formatTime(rec.LastExecutedAt),
		LastBuildStatus: string(rec.LastOutcome),
		LastError:       rec.LastError,
		RetryCount:      rec.RetryCount,
		DelayMs:         rec.DelayMs,
		WebhookURL:      rec.TargetURL,
	})
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// schedulerKey resolves the scheduler identity from the path, defaulting to
// the singleton key for the root routes.
func schedulerKey(r *http.Request) string {
	if key := r.PathValue("key"); key != "" {
		return key
	}
	return scheduler.DefaultKey
}

// validateTargetURL returns a client-error message, or empty when the URL is
// an absolute http/https URL.
func validateTargetURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "Invalid " + WebhookURLHeader + " header: must be an absolute URL"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "Invalid " + WebhookURLHeader + " header: scheme must be http or https"
	}
	return ""
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
