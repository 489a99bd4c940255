package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindWorkflowFiles(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		t.Helper()
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	write("b/swap.hcl")
	write("a/bridge.JSON")
	write("notes.txt")
	write(".git/config.json")

	files, err := FindWorkflowFiles(root, ".hcl", ".json")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "a", "bridge.JSON"),
		filepath.Join(root, "b", "swap.hcl"),
	}, files)
}

func TestFindWorkflowFiles_MissingRoot(t *testing.T) {
	_, err := FindWorkflowFiles(filepath.Join(t.TempDir(), "nope"), ".hcl")
	require.Error(t, err)
}

func TestFindWorkflowFiles_NoExtensionsPanics(t *testing.T) {
	require.Panics(t, func() { _, _ = FindWorkflowFiles(t.TempDir()) })
}
