package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	h := NewHandle(filepath.Join(dir, "checkpoint.json"))

	s := NewState()
	s.CompletedWorkUnits = append(s.CompletedWorkUnits, "my first video|English|base")
	s.OutputPath = "out.csv"
	s.ChannelCount = 2

	require.NoError(t, h.Save(s))

	loaded, ok := h.Load()
	require.True(t, ok)
	assert.Equal(t, s.CompletedWorkUnits, loaded.CompletedWorkUnits)
	assert.Equal(t, s.OutputPath, loaded.OutputPath)
	assert.Equal(t, 2, loaded.ChannelCount)
	assert.NotEmpty(t, loaded.Timestamp)
}

func TestLoadMissingFileReturnsFreshState(t *testing.T) {
	h := NewHandle(filepath.Join(t.TempDir(), "missing.json"))
	s, ok := h.Load()
	assert.False(t, ok)
	assert.Empty(t, s.CompletedWorkUnits)
}

func TestLoadCorruptFileReturnsFreshState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	h := NewHandle(path)
	s, ok := h.Load()
	assert.False(t, ok)
	assert.Empty(t, s.CompletedWorkUnits)
}

func TestLoadFreshDiscardsStaleDate(t *testing.T) {
	dir := t.TempDir()
	h := NewHandle(filepath.Join(dir, "checkpoint.json"))

	s := NewState()
	s.Date = "2026-01-01"
	require.NoError(t, h.Save(s))

	_, ok := h.LoadFresh("2026-01-02")
	assert.False(t, ok)

	_, ok = h.LoadFresh("2026-01-01")
	assert.True(t, ok)
}

func TestClearIsIdempotent(t *testing.T) {
	h := NewHandle(filepath.Join(t.TempDir(), "checkpoint.json"))
	require.NoError(t, h.Save(NewState()))
	require.NoError(t, h.Clear())
	require.NoError(t, h.Clear())
	assert.False(t, h.Exists())
}

func TestAgeSince(t *testing.T) {
	h := NewHandle(filepath.Join(t.TempDir(), "checkpoint.json"))
	require.NoError(t, h.Save(NewState()))
	age, ok := h.AgeSince(time.Now().Add(2 * time.Hour))
	require.True(t, ok)
	assert.Greater(t, age, time.Hour)
}
