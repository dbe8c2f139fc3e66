package tasksource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tasks.txt",
		"run command echo hello\n\n   what is 2+2?  \n\t\nrun command false\n")

	tasks, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"run command echo hello",
		"what is 2+2?",
		"run command false",
	}, tasks)
}

func TestLoadFile_NoTrailingNewlineAndCRLF(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tasks.txt", "first\r\nsecond")

	tasks, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, tasks)
}

func TestLoadFile_Empty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tasks.txt", "")

	tasks, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
