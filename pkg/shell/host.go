package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultShell is used when Config.Shell is empty
const DefaultShell = "/bin/sh"

// Config configures how commands are launched
type Config struct {
	// Shell is the interpreter invoked as `<shell> -c <command>`
	Shell string `json:"shell"`

	// WorkingDir is the directory commands run in (process cwd when empty)
	WorkingDir string `json:"working_dir"`

	// Env holds extra variables appended to the inherited environment
	Env map[string]string `json:"env"`
}

// Result is the raw outcome of one command run
type Result struct {
	Command  string
	Output   []byte // combined stdout and stderr
	ExitCode int
	Duration time.Duration
}

// Succeeded reports whether the command exited with status 0
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// TrimmedOutput returns the captured output without surrounding whitespace
func (r Result) TrimmedOutput() string {
	return strings.TrimSpace(string(r.Output))
}

// HostRunner runs commands directly on the host through a shell
type HostRunner struct {
	config Config
}

// NewHostRunner creates a host runner, filling in the default shell
func NewHostRunner(config Config) *HostRunner {
	if config.Shell == "" {
		config.Shell = DefaultShell
	}
	return &HostRunner{config: config}
}

// GetConfig returns the runner configuration
func (h *HostRunner) GetConfig() Config {
	return h.config
}

// Run executes the command and waits for it to finish.
// A non-zero exit status is reported in Result.ExitCode, not as an error;
// an error means the command could not be run at all.
func (h *HostRunner) Run(ctx context.Context, command string) (Result, error) {
	cmd := exec.CommandContext(ctx, h.config.Shell, "-c", command)
	if h.config.WorkingDir != "" {
		cmd.Dir = h.config.WorkingDir
	}
	cmd.Env = h.buildEnvironment()

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Command:  command,
		Output:   output.Bytes(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return result, fmt.Errorf("%w: %s", ErrShellNotFound, h.config.Shell)
		}
		return result, err
	}

	return result, nil
}

// buildEnvironment inherits the process environment and appends configured variables
func (h *HostRunner) buildEnvironment() []string {
	env := os.Environ()
	for key, value := range h.config.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	return env
}
