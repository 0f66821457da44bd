package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.json")
	m, err := NewManagerFrom([]byte(`{"order":["a"],"elements":{"a":{"kind":"text"}}}`))
	require.NoError(t, err)

	require.NoError(t, m.Snapshot().WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	loaded, err := NewManagerFrom(data)
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot().Value(), loaded.Snapshot().Value())
	assert.Contains(t, string(data), "\n  \"order\"")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file cleaned up")

	assert.Error(t, m.Snapshot().WriteFile(filepath.Join(dir, "missing", "x.json")))
}
