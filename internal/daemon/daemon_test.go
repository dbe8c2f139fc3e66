package daemon

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/harun/agentq/internal/config"
	"github.com/harun/agentq/internal/logger"
	"github.com/harun/agentq/pkg/agent"
	"github.com/harun/agentq/pkg/commandqueue"
	"github.com/harun/agentq/pkg/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCompletionServer answers every chat completion with reply
func newCompletionServer(t *testing.T, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}]
		}`, reply)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func testConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.APIEndpoint = endpoint
	cfg.WorkingDirectory = filepath.Join(t.TempDir(), "work")
	cfg.Model = "test-model"
	cfg.RequestTimeoutSeconds = 5
	return cfg
}

// createTestDaemon creates a daemon whose reports land in the returned buffer
func createTestDaemon(t *testing.T, cfg *config.Config) (*Daemon, *bytes.Buffer) {
	t.Helper()

	log, err := logger.New(logger.Config{Level: "debug"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	out := &bytes.Buffer{}
	d, err := New(cfg, log, Options{Output: out})
	require.NoError(t, err)

	t.Cleanup(func() {
		if d.Status().Running {
			_ = d.Stop()
			return
		}
		d.closeMemory()
	})
	return d, out
}

func TestNew(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	cfg := testConfig(t, server.URL+"/v1/chat/completions")
	d, _ := createTestDaemon(t, cfg)

	assert.NotNil(t, d.queue)
	assert.NotNil(t, d.memory)
	assert.NotNil(t, d.supervisor)
	assert.NotNil(t, d.results)
	assert.NotNil(t, d.eventLoop)
	assert.NotNil(t, d.lifecycle)
	assert.Nil(t, d.scheduler)
	assert.Nil(t, d.inbox)
	assert.Nil(t, d.metricsServer)

	assert.DirExists(t, cfg.WorkingDirectory)
	assert.Equal(t, filepath.Join(cfg.WorkingDirectory, "agent_memory.db"), cfg.MemoryDB)
	assert.FileExists(t, cfg.MemoryDB)
}

func TestNew_RequiresConfig(t *testing.T) {
	log, err := logger.New(logger.Config{})
	require.NoError(t, err)

	_, err = New(nil, log, Options{})
	assert.Error(t, err)
}

func TestNew_UnsupportedProvider(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/v1/chat/completions")
	cfg.Provider = "carrier-pigeon"

	log, err := logger.New(logger.Config{})
	require.NoError(t, err)

	_, err = New(cfg, log, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrUnsupportedProvider)
}

func TestNew_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/v1/chat/completions")
	cfg.Schedules = []config.ScheduleConfig{{Name: "broken", Spec: "not a cron", Task: "run command true"}}

	log, err := logger.New(logger.Config{})
	require.NoError(t, err)

	_, err = New(cfg, log, Options{})
	assert.Error(t, err)
}

func TestDaemonStartStop(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	d, _ := createTestDaemon(t, testConfig(t, server.URL+"/v1"))

	require.NoError(t, d.Start())

	status := d.Status()
	assert.True(t, status.Running)
	assert.False(t, status.StartTime.IsZero())
	assert.True(t, status.Queue.Started)

	require.NoError(t, d.Stop())

	status = d.Status()
	assert.False(t, status.Running)
	assert.True(t, status.Queue.Stopped)
}

func TestDaemon_StartTwice(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	d, _ := createTestDaemon(t, testConfig(t, server.URL+"/v1"))

	require.NoError(t, d.Start())
	assert.Error(t, d.Start())
	require.NoError(t, d.Stop())
}

func TestDaemon_StopNotRunning(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	d, _ := createTestDaemon(t, testConfig(t, server.URL+"/v1"))

	assert.Error(t, d.Stop())
}

func TestDaemon_NoRestartAfterStop(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	d, _ := createTestDaemon(t, testConfig(t, server.URL+"/v1"))

	require.NoError(t, d.Start())
	require.NoError(t, d.Stop())
	assert.Error(t, d.Start())
}

func TestDaemon_ProcessesTasksInOrder(t *testing.T) {
	server, calls := newCompletionServer(t, "4")
	cfg := testConfig(t, server.URL+"/v1/chat/completions")
	d, out := createTestDaemon(t, cfg)

	require.NoError(t, d.Start())

	_, err := d.Submit(commandqueue.SourceDirect, "what is 2+2")
	require.NoError(t, err)
	_, err = d.Submit(commandqueue.SourceDirect, "run command echo hi")
	require.NoError(t, err)
	_, err = d.Submit(commandqueue.SourceDirect, "run command true")
	require.NoError(t, err)

	// Stop drains everything queued before it.
	require.NoError(t, d.Stop())

	report := out.String()
	first := strings.Index(report, "\nTask: what is 2+2\nResult:\n4\nTask ID: 1\n")
	second := strings.Index(report, "\nTask: run command echo hi\nResult:\nhi\nTask ID: 2\n")
	third := strings.Index(report, "\nTask: run command true\nResult:\n"+shell.MsgNoOutput+"\nTask ID: 3\n")
	require.NotEqual(t, -1, first, report)
	require.NotEqual(t, -1, second, report)
	require.NotEqual(t, -1, third, report)
	assert.Less(t, first, second)
	assert.Less(t, second, third)

	assert.Equal(t, int32(1), calls.Load())

	artifacts, err := filepath.Glob(filepath.Join(cfg.WorkingDirectory, "test_result_*.txt"))
	require.NoError(t, err)
	assert.Len(t, artifacts, 3)

	status := d.Status()
	assert.Equal(t, 3, status.Queue.Processed)
	assert.Equal(t, 3, status.AgentsSpawned)
	assert.Equal(t, 3, status.RegistrySize)
}

func TestDaemon_MemoryPersists(t *testing.T) {
	server, _ := newCompletionServer(t, "4")
	cfg := testConfig(t, server.URL+"/v1")
	d, _ := createTestDaemon(t, cfg)

	require.NoError(t, d.Start())
	_, err := d.Submit(commandqueue.SourceDirect, "what is 2+2")
	require.NoError(t, err)
	d.GetQueue().Stop()
	d.GetQueue().Wait()

	records, err := d.GetMemory().Query(t.Context(), "2+2")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "agent_1", records[0].Agent)
	assert.Equal(t, "4", records[0].AIResponse)

	require.NoError(t, d.Stop())
}

func TestDaemon_ConnectionFailure(t *testing.T) {
	server, _ := newCompletionServer(t, "unused")
	endpoint := server.URL + "/v1"
	server.Close()

	d, out := createTestDaemon(t, testConfig(t, endpoint))

	require.NoError(t, d.Start())
	_, err := d.Submit(commandqueue.SourceDirect, "hello")
	require.NoError(t, err)
	require.NoError(t, d.Stop())

	assert.Contains(t, out.String(), "\nTask: hello\nResult:\n"+agent.MsgConnectionFailed+"\nTask ID: 1\n")
}

func TestDaemon_SubmitFile(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	cfg := testConfig(t, server.URL+"/v1")
	d, out := createTestDaemon(t, cfg)

	tasks := filepath.Join(t.TempDir(), "tasks.txt")
	require.NoError(t, os.WriteFile(tasks, []byte("run command echo one\n\n  run command echo two  \n"), 0o644))

	require.NoError(t, d.Start())
	n, err := d.SubmitFile(commandqueue.SourceBatch, tasks)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, d.Stop())

	report := out.String()
	assert.Contains(t, report, "Task: run command echo one\nResult:\none\n")
	assert.Contains(t, report, "Task: run command echo two\nResult:\ntwo\n")
}

func TestDaemon_SubmitFileMissing(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	d, _ := createTestDaemon(t, testConfig(t, server.URL+"/v1"))

	_, err := d.SubmitFile(commandqueue.SourceBatch, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestDaemon_SubmitAfterStop(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	d, _ := createTestDaemon(t, testConfig(t, server.URL+"/v1"))

	require.NoError(t, d.Start())
	require.NoError(t, d.Stop())

	_, err := d.Submit(commandqueue.SourceDirect, "late")
	assert.ErrorIs(t, err, commandqueue.ErrStopped)
}

func TestDaemon_MetricsServer(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	cfg := testConfig(t, server.URL+"/v1")
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = "127.0.0.1:0"
	d, _ := createTestDaemon(t, cfg)

	require.NoError(t, d.Start())
	addr := d.MetricsAddr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "agentq_")

	require.NoError(t, d.Stop())
}

func TestDaemon_InboxAndSchedules(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	cfg := testConfig(t, server.URL+"/v1")
	cfg.InboxDir = filepath.Join(cfg.WorkingDirectory, "inbox")
	cfg.Schedules = []config.ScheduleConfig{{Name: "nightly", Spec: "0 3 * * *", Task: "run command uptime"}}
	d, _ := createTestDaemon(t, cfg)

	assert.NotNil(t, d.inbox)
	assert.NotNil(t, d.scheduler)
	assert.DirExists(t, cfg.InboxDir)

	require.NoError(t, d.Start())
	assert.Equal(t, 1, d.Status().Schedules)
	require.NoError(t, d.Stop())
}

func TestDaemon_TracingWritesSpans(t *testing.T) {
	server, _ := newCompletionServer(t, "ok")
	cfg := testConfig(t, server.URL+"/v1")
	cfg.Tracing.Enabled = true
	d, _ := createTestDaemon(t, cfg)

	require.NoError(t, d.Start())
	_, err := d.Submit(commandqueue.SourceDirect, "run command echo traced")
	require.NoError(t, err)
	require.NoError(t, d.Stop())

	data, err := os.ReadFile(cfg.Tracing.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "supervisor.delegate")
	assert.Contains(t, string(data), "shell.execute")
}

func TestDaemon_ScenarioRecordsInSubmissionOrder(t *testing.T) {
	server, _ := newCompletionServer(t, "4")
	cfg := testConfig(t, server.URL+"/v1/chat/completions")
	d, _ := createTestDaemon(t, cfg)

	require.NoError(t, d.Start())
	for _, task := range []string{"run command echo hello", "what is 2+2?", "run command false"} {
		_, err := d.Submit(commandqueue.SourceBatch, task)
		require.NoError(t, err)
	}
	d.GetQueue().Stop()
	d.GetQueue().Wait()

	records, err := d.GetMemory().Query(t.Context(), "")
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first.
	assert.Equal(t, "run command false", records[0].UserInput)
	assert.Equal(t, "An error occurred: ", records[0].AIResponse)
	assert.Equal(t, "what is 2+2?", records[1].UserInput)
	assert.Equal(t, "4", records[1].AIResponse)
	assert.Equal(t, "run command echo hello", records[2].UserInput)
	assert.Equal(t, "hello", records[2].AIResponse)
	assert.Less(t, records[2].ID, records[1].ID)
	assert.Less(t, records[1].ID, records[0].ID)

	require.NoError(t, d.Stop())
}
