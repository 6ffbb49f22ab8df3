package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watzon/holdoff/internal/config"
	"github.com/watzon/holdoff/internal/database"
	"github.com/watzon/holdoff/internal/scheduler"
)

// newTestMux wires the handlers into a mux with the production route
// patterns so PathValue lookups behave as they do in the server.
func newTestMux(t *testing.T, cfg *config.TriggerConfig) *http.ServeMux {
	t.Helper()

	if cfg == nil {
		cfg = &config.TriggerConfig{}
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodPost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	dbCfg := &config.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	db, err := database.Open(dbCfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sched := scheduler.New(db, cfg)
	t.Cleanup(sched.Stop)

	h := New(sched, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", h.Schedule)
	mux.HandleFunc("GET /status", h.Status)
	mux.HandleFunc("POST /hooks/{key}", h.Schedule)
	mux.HandleFunc("GET /hooks/{key}/status", h.Status)
	mux.HandleFunc("GET /health", h.Health)

	return mux
}

func doRequest(mux *http.ServeMux, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSchedule_Accepted(t *testing.T) {
	mux := newTestMux(t, nil)

	rec := doRequest(mux, http.MethodPost, "/", map[string]string{
		WebhookURLHeader:   "https://example.com/build",
		DelaySecondsHeader: "60",
	})

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp ScheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 60, resp.DelaySeconds)
	assert.Equal(t, "https://example.com/build", resp.WebhookURL)

	scheduledFor, err := time.Parse(time.RFC3339, resp.ScheduledFor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(60*time.Second), scheduledFor, 5*time.Second)
}

func TestSchedule_ConfiguredDefaults(t *testing.T) {
	mux := newTestMux(t, &config.TriggerConfig{
		URL:          "https://example.com/build",
		DelaySeconds: 90,
	})

	// No headers at all: the configured target and delay apply.
	rec := doRequest(mux, http.MethodPost, "/", nil)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp ScheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 90, resp.DelaySeconds)
}

func TestSchedule_MissingURL(t *testing.T) {
	mux := newTestMux(t, nil)

	rec := doRequest(mux, http.MethodPost, "/", map[string]string{
		DelaySecondsHeader: "60",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchedule_InvalidURL(t *testing.T) {
	mux := newTestMux(t, nil)

	tests := []string{
		"not-a-url",
		"ftp://example.com/build",
		"/relative/path",
	}

	for _, target := range tests {
		rec := doRequest(mux, http.MethodPost, "/", map[string]string{
			WebhookURLHeader:   target,
			DelaySecondsHeader: "60",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "url %q", target)
	}
}

func TestSchedule_InvalidDelay(t *testing.T) {
	mux := newTestMux(t, nil)

	tests := []string{"0", "-5", "abc", "1.5"}

	for _, delay := range tests {
		rec := doRequest(mux, http.MethodPost, "/", map[string]string{
			WebhookURLHeader:   "https://example.com/build",
			DelaySecondsHeader: delay,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "delay %q", delay)
	}
}

func TestSchedule_MissingDelay(t *testing.T) {
	mux := newTestMux(t, nil)

	rec := doRequest(mux, http.MethodPost, "/", map[string]string{
		WebhookURLHeader: "https://example.com/build",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchedule_Secret(t *testing.T) {
	mux := newTestMux(t, &config.TriggerConfig{Secret: "hunter2"})

	valid := map[string]string{
		WebhookURLHeader:   "https://example.com/build",
		DelaySecondsHeader: "60",
	}

	// Missing secret.
	rec := doRequest(mux, http.MethodPost, "/", valid)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong secret.
	rec = doRequest(mux, http.MethodPost, "/", map[string]string{
		WebhookURLHeader:   "https://example.com/build",
		DelaySecondsHeader: "60",
		SecretHeader:       "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct secret via header.
	rec = doRequest(mux, http.MethodPost, "/", map[string]string{
		WebhookURLHeader:   "https://example.com/build",
		DelaySecondsHeader: "60",
		SecretHeader:       "hunter2",
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	// Correct secret via query parameter.
	rec = doRequest(mux, http.MethodPost, "/?secret=hunter2", valid)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestStatus_FreshKey(t *testing.T) {
	mux := newTestMux(t, nil)

	rec := doRequest(mux, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// retryCount is always present; everything else is omitted when unset.
	assert.Equal(t, float64(0), body["retryCount"])
	assert.NotContains(t, body, "scheduledFor")
	assert.NotContains(t, body, "lastWebhookAt")
	assert.NotContains(t, body, "lastBuildAt")
	assert.NotContains(t, body, "lastError")
}

func TestStatus_AfterSchedule(t *testing.T) {
	mux := newTestMux(t, nil)

	rec := doRequest(mux, http.MethodPost, "/hooks/project-a", map[string]string{
		WebhookURLHeader:   "https://example.com/build",
		DelaySecondsHeader: "120",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doRequest(mux, http.MethodGet, "/hooks/project-a/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ScheduledFor)
	assert.NotEmpty(t, resp.LastWebhookAt)
	assert.Equal(t, int64(120000), resp.DelayMs)
	assert.Equal(t, "https://example.com/build", resp.WebhookURL)

	// Keys are independent: the root scheduler is untouched.
	rec = doRequest(mux, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var root map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
	assert.NotContains(t, root, "scheduledFor")
}

func TestStatus_RequiresSecret(t *testing.T) {
	mux := newTestMux(t, &config.TriggerConfig{Secret: "hunter2"})

	rec := doRequest(mux, http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(mux, http.MethodGet, "/status", map[string]string{SecretHeader: "hunter2"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	mux := newTestMux(t, nil)

	rec := doRequest(mux, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestValidateTargetURL(t *testing.T) {
	assert.Empty(t, validateTargetURL("https://example.com/build"))
	assert.Empty(t, validateTargetURL("http://localhost:9000/hook"))
	assert.NotEmpty(t, validateTargetURL("example.com/build"))
	assert.NotEmpty(t, validateTargetURL("ftp://example.com"))
	assert.NotEmpty(t, validateTargetURL("https://"))
}
