package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpdesk/internal/store"
)

func TestFileStore_WriteAllCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ml_models")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.WriteAll(ctx, map[string][]byte{
		"one.json": []byte(`{"a":1}`),
		"two.json": []byte(`{"b":2}`),
	}))

	for name, want := range map[string]string{"one.json": `{"a":1}`, "two.json": `{"b":2}`} {
		ok, err := s.Exists(ctx, name)
		require.NoError(t, err)
		assert.True(t, ok)
		got, err := s.Read(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "staging directory is cleaned up")
}

func TestFileStore_Overwrite(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "model.json", []byte("old")))
	require.NoError(t, s.Write(ctx, "model.json", []byte("new")))

	got, err := s.Read(ctx, "model.json")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestFileStore_Missing(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "model.json")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read(ctx, "model.json")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFileStore_RejectsBadNames(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", "../escape.json", "nested/model.json", ".hidden"} {
		assert.Error(t, s.Write(ctx, name, []byte("x")), "name %q", name)
	}

	_, err = NewFileStore("  ")
	assert.Error(t, err)
}

func TestFileStore_CancelledContextLeavesOldContent(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), "model.json", []byte("old")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Write(ctx, "model.json", []byte("new")), context.Canceled)

	got, err := s.Read(context.Background(), "model.json")
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}
