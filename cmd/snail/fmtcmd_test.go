package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSource(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty stays empty", "", ""},
		{"adds final newline", "x = 1", "x = 1\n"},
		{"already canonical", "x = 1\n", "x = 1\n"},
		{"trailing spaces drop", "x = 1   \n", "x = 1\n"},
		{"trailing tabs and cr drop", "x = 1\t\r\n", "x = 1\n"},
		{"trailing blank lines collapse", "a\n\n\nb\n\n\n", "a\n\n\nb\n"},
		{"leading indent survives", "  x = 1\n", "  x = 1\n"},
		{"blank lines inside survive", "a\n\nb\n", "a\n\nb\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatSource(tc.in), "unexpected canonical form")
		})
	}
}

func TestCollectTargets_WalksDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755), "unexpected error")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".hidden"), 0o755), "unexpected error")
	for _, name := range []string{"a.snail", "b.txt", "sub/c.snail", ".hidden/d.snail"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x = 1\n"), 0o644), "unexpected error")
	}

	paths, err := collectTargets([]string{dir})
	require.NoError(t, err, "unexpected error")

	want := []string{
		filepath.Join(dir, "a.snail"),
		filepath.Join(dir, "sub", "c.snail"),
	}
	assert.Equal(t, want, paths, "expected only visible *.snail files")
}

func TestCollectTargets_ExplicitFileAnyExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.txt")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644), "unexpected error")

	paths, err := collectTargets([]string{path})
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, []string{path}, paths, "expected explicit files to pass through untouched")
}

func TestCollectTargets_HiddenDirNamedDirectly(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, ".hidden")
	require.NoError(t, os.MkdirAll(hidden, 0o755), "unexpected error")
	require.NoError(t, os.WriteFile(filepath.Join(hidden, "d.snail"), []byte("x = 1\n"), 0o644), "unexpected error")

	paths, err := collectTargets([]string{hidden})
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, []string{filepath.Join(hidden, "d.snail")}, paths, "expected a named hidden dir to be walked")
}

func TestCollectTargets_DefaultsToCwd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.snail"), []byte("x = 1\n"), 0o644), "unexpected error")
	oldwd, err := os.Getwd()
	require.NoError(t, err, "unexpected error")
	require.NoError(t, os.Chdir(dir), "unexpected error")
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	paths, err := collectTargets(nil)
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, []string{filepath.Join(".", "a.snail")}, paths, "expected the current directory walk")
}

func TestCollectTargets_MissingPath(t *testing.T) {
	_, err := collectTargets([]string{filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err, "expected error")
	assert.Contains(t, err.Error(), "cannot stat", "unexpected message")
}

func TestFormatFile_RewritesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.snail")
	require.NoError(t, os.WriteFile(path, []byte("x = 1   \n\n\n"), 0o644), "unexpected error")

	var r fmtResult
	require.NoError(t, formatFile(path, &fmtOptions{}, &r), "unexpected error")
	assert.True(t, r.changed, "expected the file to be reported as changed")

	data, err := os.ReadFile(path)
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, "x = 1\n", string(data), "expected the canonical form on disk")
}

func TestFormatFile_CheckLeavesFileAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.snail")
	require.NoError(t, os.WriteFile(path, []byte("x = 1   \n"), 0o644), "unexpected error")

	var r fmtResult
	require.NoError(t, formatFile(path, &fmtOptions{check: true}, &r), "unexpected error")
	assert.True(t, r.changed, "expected drift to be reported")

	data, err := os.ReadFile(path)
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, "x = 1   \n", string(data), "expected the file to stay untouched")
}

func TestFormatFile_DiffMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.snail")
	require.NoError(t, os.WriteFile(path, []byte("x = 1 \n"), 0o644), "unexpected error")

	var r fmtResult
	require.NoError(t, formatFile(path, &fmtOptions{diff: true}, &r), "unexpected error")
	assert.True(t, r.changed, "expected drift to be reported")
	assert.Contains(t, r.diff, "-x = 1 ", "expected the old line in the diff")
	assert.Contains(t, r.diff, "+x = 1", "expected the new line in the diff")

	data, err := os.ReadFile(path)
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, "x = 1 \n", string(data), "expected the file to stay untouched")
}

func TestFormatFile_CleanFileUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.snail")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644), "unexpected error")

	var r fmtResult
	require.NoError(t, formatFile(path, &fmtOptions{}, &r), "unexpected error")
	assert.False(t, r.changed, "expected a clean file to be left alone")
}
