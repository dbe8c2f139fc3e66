package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and stdin, returning stdout
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	cmd := GetRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return output.String(), err
}

// resetFlags restores every flag to its default; cobra keeps parsed values between runs
func resetFlags() {
	var reset func(c *cobra.Command)
	restore := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	reset = func(c *cobra.Command) {
		c.PersistentFlags().VisitAll(restore)
		c.Flags().VisitAll(restore)
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
}

// writeTestConfig writes a minimal config and returns its path and the working directory
func writeTestConfig(t *testing.T, endpoint string) (string, string) {
	t.Helper()

	dir := t.TempDir()
	workdir := filepath.Join(dir, "work")
	data, err := json.Marshal(map[string]any{
		"LOCAL_API_ENDPOINT": endpoint,
		"WORKING_DIRECTORY":  workdir,
		"model":              "test-model",
		"tasks_file":         filepath.Join(dir, "test_tasks.txt"),
		"logging":            map[string]any{"level": "debug"},
	})
	require.NoError(t, err)

	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, workdir
}
