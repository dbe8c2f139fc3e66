package config

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"time"
)

// DefaultSystemMessage is given to every spawned agent unless overridden
const DefaultSystemMessage = "You are a versatile agent capable of executing various tasks."

// Config represents the agentq configuration
type Config struct {
	// Remote completion endpoint
	APIEndpoint string `json:"LOCAL_API_ENDPOINT" mapstructure:"local_api_endpoint"`

	// Directory for artifacts, the memory database and logs
	WorkingDirectory string `json:"WORKING_DIRECTORY" mapstructure:"working_directory"`

	// Remote model
	Model                 string `json:"model" mapstructure:"model"`
	Provider              string `json:"provider" mapstructure:"provider"` // openai, anthropic
	APIKey                string `json:"api_key,omitempty" mapstructure:"api_key"`
	MaxTokens             int    `json:"max_tokens" mapstructure:"max_tokens"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" mapstructure:"request_timeout_seconds"` // 0 = no timeout

	// Agents
	SystemMessage    string `json:"system_message" mapstructure:"system_message"`
	RegistryCapacity int    `json:"registry_capacity" mapstructure:"registry_capacity"` // 0 = unbounded

	// Task sources
	TasksFile string           `json:"tasks_file" mapstructure:"tasks_file"`
	InboxDir  string           `json:"inbox_dir" mapstructure:"inbox_dir"`
	Schedules []ScheduleConfig `json:"schedules,omitempty" mapstructure:"schedules"`

	// Shell used for "run command"
	Shell string `json:"shell" mapstructure:"shell"`

	// SQLite memory log, defaults to <working_directory>/agent_memory.db
	MemoryDB string `json:"memory_db" mapstructure:"memory_db"`

	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ScheduleConfig is one cron-scheduled task
type ScheduleConfig struct {
	Name string `json:"name" mapstructure:"name"`
	Spec string `json:"spec" mapstructure:"spec"`
	Task string `json:"task" mapstructure:"task"`
}

// MetricsConfig controls the Prometheus listener
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// TracingConfig controls OpenTelemetry spans
type TracingConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	File    string `json:"file" mapstructure:"file"` // span export file, defaults to <workdir>/agentq-traces.json
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Model:         "default-model",
		Provider:      "openai",
		SystemMessage: DefaultSystemMessage,
		TasksFile:     "test_tasks.txt",
		Shell:         "/bin/sh",
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   false,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
	}
}

// RequestTimeout returns the remote request timeout, zero meaning none
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ResolvePaths fills paths that default relative to the working directory.
// Load calls it; configs built in code should call it before use.
func (c *Config) ResolvePaths() {
	if c.WorkingDirectory == "" {
		return
	}
	if c.MemoryDB == "" {
		c.MemoryDB = filepath.Join(c.WorkingDirectory, "agent_memory.db")
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(c.WorkingDirectory, "agentq.log")
	}
	if c.Tracing.File == "" {
		c.Tracing.File = filepath.Join(c.WorkingDirectory, "agentq-traces.json")
	}
}

// String returns a JSON representation of the config with the API key masked
func (c *Config) String() string {
	masked := *c
	if masked.APIKey != "" {
		masked.APIKey = "***"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}
