package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateTrigger(&cfg.Trigger)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateServer(cfg *ServerConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: "must be between 1 and 65535",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.read_timeout",
			Message: "must be non-negative",
		})
	}

	if cfg.WriteTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.write_timeout",
			Message: "must be non-negative",
		})
	}

	return errs
}

func validateDatabase(cfg *DatabaseConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Path == "" {
		errs = append(errs, ValidationError{
			Field:   "database.path",
			Message: "required",
		})
	}

	return errs
}

func validateTrigger(cfg *TriggerConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "trigger.url",
				Message: "must be an absolute URL",
			})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, ValidationError{
				Field:   "trigger.url",
				Message: "scheme must be http or https",
			})
		}
	}

	if cfg.Method != http.MethodPost && cfg.Method != http.MethodGet {
		errs = append(errs, ValidationError{
			Field:   "trigger.method",
			Message: "must be POST or GET",
		})
	}

	if cfg.DelaySeconds < 0 {
		errs = append(errs, ValidationError{
			Field:   "trigger.delay_seconds",
			Message: "must be non-negative",
		})
	}

	if cfg.Timeout < time.Second {
		errs = append(errs, ValidationError{
			Field:   "trigger.timeout",
			Message: "must be at least 1 second",
		})
	}

	if cfg.Cron != "" && cfg.URL == "" {
		errs = append(errs, ValidationError{
			Field:   "trigger.cron",
			Message: "requires trigger.url to be set",
		})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[cfg.Level] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: trace, debug, info, warn, error, fatal, panic",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Format] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'console'",
		})
	}

	return errs
}
