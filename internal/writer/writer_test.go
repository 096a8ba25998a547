package writer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []string{"id", "name"}

func TestAppendCreatesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, Append(path, header, [][]string{{"1", "alice"}}))
	require.NoError(t, Append(path, header, [][]string{{"2", "bob"}}))

	rows, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0]["name"])
	assert.Equal(t, "bob", rows[1]["name"])
}

func TestReadAllMissingFileReturnsNilNil(t *testing.T) {
	rows, err := ReadAll(filepath.Join(t.TempDir(), "missing.csv"))
	assert.NoError(t, err)
	assert.Nil(t, rows)
}

func TestEnsureHeaderIsNoOpWhenPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, EnsureHeader(path, header))
	require.NoError(t, Append(path, header, [][]string{{"1", "alice"}}))
	require.NoError(t, EnsureHeader(path, header))

	rows, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRewriteAtomicallyReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Append(path, header, [][]string{{"1", "alice"}, {"2", "bob"}}))

	require.NoError(t, Rewrite(path, header, [][]string{{"3", "carol"}}))

	rows, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "carol", rows[0]["name"])
}

func TestReadColumnBuildsSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Append(path, header, [][]string{{"1", "alice"}, {"2", "bob"}}))

	set, err := ReadColumn(path, "name")
	require.NoError(t, err)
	assert.True(t, set["alice"])
	assert.True(t, set["bob"])
	assert.False(t, set["carol"])
}

func TestReadColumnMissingFileReturnsEmptySet(t *testing.T) {
	set, err := ReadColumn(filepath.Join(t.TempDir(), "missing.csv"), "name")
	require.NoError(t, err)
	assert.Empty(t, set)
	assert.NotNil(t, set)
}
