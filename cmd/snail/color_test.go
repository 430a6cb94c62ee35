package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorEnabled(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err, "unexpected error")
	defer f.Close()

	assert.True(t, colorEnabled("always", f), "expected always to force color")
	assert.False(t, colorEnabled("never", f), "expected never to disable color")
	// A regular file is not a terminal, so auto stays plain.
	assert.False(t, colorEnabled("auto", f), "expected auto to skip color for files")
}

func TestWritePython_PlainOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	f, err := os.Create(path)
	require.NoError(t, err, "unexpected error")

	require.NoError(t, writePython(f, "print(42)\n", "never"), "unexpected error")
	require.NoError(t, f.Close(), "unexpected error")

	data, err := os.ReadFile(path)
	require.NoError(t, err, "unexpected error")
	assert.Equal(t, "print(42)\n", string(data), "expected the code byte for byte")
}
