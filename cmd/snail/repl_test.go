package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snail-lang/snail"
)

// parseFailure runs src through the compiler front end and hands back
// the error the prompt loop would see.
func parseFailure(t *testing.T, src string) error {
	t.Helper()
	_, err := snail.Parse(src, snail.ModeMain)
	require.Error(t, err, "expected a parse error for %q", src)
	return err
}

func TestNeedsContinuation_UnterminatedString(t *testing.T) {
	src := `x = "abc`
	err := parseFailure(t, src)
	assert.True(t, needsContinuation(src, err), "expected an unterminated literal to keep the prompt open")
}

func TestNeedsContinuation_ErrorAtEnd(t *testing.T) {
	cases := []string{
		"x = 1 +",
		"if x {",
		"f(1,",
	}
	for _, src := range cases {
		err := parseFailure(t, src)
		assert.True(t, needsContinuation(src, err), "expected %q to read as truncated input", src)
	}
}

func TestNeedsContinuation_ErrorMidInput(t *testing.T) {
	src := "a b"
	err := parseFailure(t, src)
	assert.False(t, needsContinuation(src, err), "expected a mid-input error to submit immediately")
}

func TestNeedsContinuation_IgnoresTrailingBlanks(t *testing.T) {
	src := "x = 1 +  \n"
	err := parseFailure(t, src)
	assert.True(t, needsContinuation(src, err), "expected trailing blanks to be ignored")
}

func TestNeedsContinuation_NonParseError(t *testing.T) {
	assert.False(t, needsContinuation("x", errors.New("boom")), "expected only parse errors to continue")
}

func TestReplSession_ProbeFollowsMode(t *testing.T) {
	s := &replSession{mode: snail.ModeLines}
	require.NoError(t, s.probe("/err/ { print($l) }"), "expected a line program to probe clean in line mode")

	s.mode = snail.ModeMain
	require.Error(t, s.probe("print($l)"), "expected line names to fail the probe in main mode")
}

func TestModeName(t *testing.T) {
	assert.Equal(t, "main", modeName(snail.ModeMain), "unexpected name")
	assert.Equal(t, "lines", modeName(snail.ModeLines), "unexpected name")
	assert.Equal(t, "files", modeName(snail.ModeFiles), "unexpected name")
}
