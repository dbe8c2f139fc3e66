package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/harun/agentq/internal/config"
	"github.com/harun/agentq/pkg/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unusedEndpoint = "http://127.0.0.1:1/v1/chat/completions"

func TestBatchQueryStatus(t *testing.T) {
	cfgPath, workdir := writeTestConfig(t, unusedEndpoint)

	tasks := filepath.Join(t.TempDir(), "tasks.txt")
	require.NoError(t, os.WriteFile(tasks, []byte("run command echo first\n\nrun command echo second\n"), 0o644))

	output, err := executeCommand(t, "", "batch", "--config", cfgPath, tasks)
	require.NoError(t, err)

	first := strings.Index(output, "\nTask: run command echo first\nResult:\nfirst\nTask ID: 1\n")
	second := strings.Index(output, "\nTask: run command echo second\nResult:\nsecond\nTask ID: 2\n")
	require.NotEqual(t, -1, first, output)
	require.NotEqual(t, -1, second, output)
	assert.Less(t, first, second)
	assert.NoFileExists(t, filepath.Join(workdir, "agentq.pid"))

	output, err = executeCommand(t, "", "query", "--config", cfgPath, "echo")
	require.NoError(t, err)
	assert.Less(t, strings.Index(output, "#2 "), strings.Index(output, "#1 "), output)
	assert.Contains(t, output, "Task: run command echo second\nResult:\nsecond\n")

	output, err = executeCommand(t, "", "query", "--config", cfgPath, "--json", "first")
	require.NoError(t, err)
	var records []memory.Record
	require.NoError(t, json.Unmarshal([]byte(output), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "agent_1", records[0].Agent)
	assert.Equal(t, "first", records[0].AIResponse)

	output, err = executeCommand(t, "", "query", "--config", cfgPath, "nothing like this")
	require.NoError(t, err)
	assert.Contains(t, output, "No matching records.")

	output, err = executeCommand(t, "", "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Status: stopped")
	assert.Contains(t, output, "Records: 2")
}

func TestQuery_FlagsResetBetweenRuns(t *testing.T) {
	cfgPath, workdir := writeTestConfig(t, unusedEndpoint)
	require.NoError(t, os.MkdirAll(workdir, 0o755))

	output, err := executeCommand(t, "", "query", "--config", cfgPath, "--json", "anything")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", output)

	output, err = executeCommand(t, "", "query", "--config", cfgPath, "anything")
	require.NoError(t, err)
	assert.Equal(t, "No matching records.\n", output)
}

func TestRun_HelpMentionsCaseSensitivity(t *testing.T) {
	output, err := executeCommand(t, "", "run", "--help")
	require.NoError(t, err)

	assert.Contains(t, output, `lowercase prefix "run command "`)
	assert.Contains(t, output, "Run Command ls")
}

func TestBatch_DefaultTasksFile(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, unusedEndpoint)
	tasksFile := filepath.Join(filepath.Dir(cfgPath), "test_tasks.txt")
	require.NoError(t, os.WriteFile(tasksFile, []byte("run command echo from-default\n"), 0o644))

	output, err := executeCommand(t, "", "batch", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Result:\nfrom-default\n")
}

func TestBatch_MissingFile(t *testing.T) {
	cfgPath, workdir := writeTestConfig(t, unusedEndpoint)

	_, err := executeCommand(t, "", "batch", "--config", cfgPath, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
	// Nothing starts when a task file cannot be read.
	assert.NoDirExists(t, workdir)
}

func TestRun_Interactive(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, unusedEndpoint)

	output, err := executeCommand(t, "help\nrun command echo hi\nquit\n", "run", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, output, "=== Intelligent Programming Assistant ===")
	assert.Contains(t, output, "Available Commands:")
	// quit waits for the queued task to finish.
	assert.Contains(t, output, "\nTask: run command echo hi\nResult:\nhi\nTask ID: 1\n")
}

func TestRun_ConnectionFailure(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, unusedEndpoint)

	output, err := executeCommand(t, "what is 2+2?\n", "run", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Result:\nFailed to connect to the API endpoint.\n")
}

func TestServe_NothingToServe(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, unusedEndpoint)

	_, err := executeCommand(t, "", "serve", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to serve")
}

func TestStop_NotRunning(t *testing.T) {
	cfgPath, _ := writeTestConfig(t, unusedEndpoint)

	_, err := executeCommand(t, "", "stop", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestStatus_Running(t *testing.T) {
	cfgPath, workdir := writeTestConfig(t, unusedEndpoint)
	require.NoError(t, os.MkdirAll(workdir, 0o755))
	// The test process stands in for a running agentq.
	require.NoError(t, os.WriteFile(filepath.Join(workdir, "agentq.pid"), []byte(strconv.Itoa(os.Getpid())), 0o644))

	output, err := executeCommand(t, "", "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Status: running")
	assert.Contains(t, output, "PID: ")
	assert.Contains(t, output, "Records: 0")
}

func TestInit(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nested", "config.json")
	workdir := filepath.Join(t.TempDir(), "data")
	answers := strings.Join([]string{
		"not a url",
		"http://localhost:1234/v1/chat/completions",
		workdir,
		"",
		"local-model",
		"debug",
	}, "\n") + "\n"

	output, err := executeCommand(t, answers, "init", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Configuration saved to: "+cfgPath)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1234/v1/chat/completions", cfg.APIEndpoint)
	assert.Equal(t, workdir, cfg.WorkingDirectory)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "local-model", cfg.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)

	_, err = executeCommand(t, answers, "init", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"seconds only", 45 * time.Second, "45s"},
		{"minutes and seconds", 2*time.Minute + 30*time.Second, "2m30s"},
		{"hours minutes seconds", 3*time.Hour + 15*time.Minute + 20*time.Second, "3h15m20s"},
		{"zero", 0, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}

func TestReadPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentq.pid")

	_, err := readPID(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("1234\n"), 0o644))
	pid, err := readPID(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, pid)

	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))
	_, err = readPID(path)
	assert.Error(t, err)
	assert.False(t, isRunning(path))
}
