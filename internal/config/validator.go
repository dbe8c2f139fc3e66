package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEndpoint checks that endpoint is an absolute http(s) URL
func (v *Validator) ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("LOCAL_API_ENDPOINT is required")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid LOCAL_API_ENDPOINT: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid LOCAL_API_ENDPOINT scheme %q (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid LOCAL_API_ENDPOINT: missing host")
	}

	return nil
}

// ValidateProvider validates a provider name
func (v *Validator) ValidateProvider(provider string) error {
	validProviders := []string{"openai", "anthropic"}
	for _, valid := range validProviders {
		if provider == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid provider: %s (must be one of: %s)", provider, strings.Join(validProviders, ", "))
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateSchedule validates a schedule entry
func (v *Validator) ValidateSchedule(s ScheduleConfig) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(s.Task) == "" {
		return fmt.Errorf("task is required")
	}
	if _, err := cron.ParseStandard(s.Spec); err != nil {
		return fmt.Errorf("invalid spec %q: %w", s.Spec, err)
	}
	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateEndpoint(cfg.APIEndpoint); err != nil {
		errors = append(errors, err)
	}
	if strings.TrimSpace(cfg.WorkingDirectory) == "" {
		errors = append(errors, fmt.Errorf("WORKING_DIRECTORY is required"))
	}
	if err := v.ValidateProvider(cfg.Provider); err != nil {
		errors = append(errors, err)
	}
	if cfg.Model == "" {
		errors = append(errors, fmt.Errorf("model is required"))
	}

	if cfg.MaxTokens < 0 {
		errors = append(errors, fmt.Errorf("max_tokens must be >= 0"))
	}
	if cfg.RequestTimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("request_timeout_seconds must be >= 0"))
	}
	if cfg.RegistryCapacity < 0 {
		errors = append(errors, fmt.Errorf("registry_capacity must be >= 0"))
	}

	seen := make(map[string]bool)
	for i, s := range cfg.Schedules {
		if err := v.ValidateSchedule(s); err != nil {
			errors = append(errors, fmt.Errorf("schedule %d: %w", i, err))
			continue
		}
		if seen[s.Name] {
			errors = append(errors, fmt.Errorf("schedule %d: duplicate name %s", i, s.Name))
		}
		seen[s.Name] = true
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		errors = append(errors, fmt.Errorf("metrics.addr is required when metrics are enabled"))
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errors = append(errors, fmt.Errorf("logging.max_size must be >= 0"))
	}
	if cfg.Logging.MaxAge < 0 {
		errors = append(errors, fmt.Errorf("logging.max_age must be >= 0"))
	}

	return errors
}
