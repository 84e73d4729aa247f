package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "processed_ids.txt")
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	assert.False(t, l.IsProcessed("anything"))
	assert.Equal(t, 0, l.Len())
}

func TestMarkAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "processed_ids.txt")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.MarkProcessed("abc123"))
	require.NoError(t, l.MarkProcessed("def456"))
	require.NoError(t, l.Close())

	reloaded, err := Open(path)
	require.NoError(t, err)
	defer reloaded.Close()

	assert.True(t, reloaded.IsProcessed("abc123"))
	assert.True(t, reloaded.IsProcessed("def456"))
	assert.False(t, reloaded.IsProcessed("ghi789"))
}

func TestDuplicateMarksAreHarmless(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "processed_ids.txt")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.MarkProcessed("same"))
	require.NoError(t, l.MarkProcessed("same"))
	require.NoError(t, l.Close())

	reloaded, err := Open(path)
	require.NoError(t, err)
	defer reloaded.Close()

	assert.True(t, reloaded.IsProcessed("same"))
	assert.Equal(t, 1, reloaded.Len())
}

func TestMalformedLinesAreSkipped(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "processed_ids.txt")
	content := `{"timestamp":"2025-01-01T00:00:00Z","id":"good"}
not json at all
{"timestamp":"2025-01-02T00:00:00Z","id":"also-good"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	assert.True(t, l.IsProcessed("good"))
	assert.True(t, l.IsProcessed("also-good"))
	assert.Equal(t, 2, l.Len())
}

func TestMarkAfterClose(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "processed_ids.txt")
	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	assert.Error(t, l.MarkProcessed("late"))
}
