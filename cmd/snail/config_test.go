package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snail-lang/snail"
)

// rootFlags mirrors the flag set the root command registers, so the
// flag layer can be exercised without running cobra.
func rootFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("color", "", "")
	fs.Bool("lines", false, "")
	fs.Bool("files", false, "")
	fs.Bool("no-print", false, "")
	require.NoError(t, fs.Parse(args), "unexpected flag parse error")
	return fs
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".snail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "unexpected error")
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PYTHON", "")

	cfg, err := loadConfig("", nil)
	require.NoError(t, err, "unexpected error")

	assert.Equal(t, "python3", cfg.Python, "expected default interpreter")
	assert.Equal(t, "auto", cfg.Color, "expected default color mode")
	assert.Equal(t, "main", cfg.Mode, "expected default compile mode")
	assert.True(t, cfg.AutoPrint, "expected auto_print on by default")
}

func TestLoadConfig_PythonEnvOverridesDefault(t *testing.T) {
	t.Setenv("PYTHON", "python3.12")

	cfg, err := loadConfig("", nil)
	require.NoError(t, err, "unexpected error")

	assert.Equal(t, "python3.12", cfg.Python, "expected PYTHON to override the default")
}

func TestLoadConfig_FileOverridesPythonEnv(t *testing.T) {
	t.Setenv("PYTHON", "python3.12")
	path := writeConfigFile(t, "python: /opt/py\nmode: lines\n")

	cfg, err := loadConfig(path, nil)
	require.NoError(t, err, "unexpected error")

	assert.Equal(t, "/opt/py", cfg.Python, "expected file value to win over PYTHON")
	assert.Equal(t, "lines", cfg.Mode, "expected mode from file")
	assert.Equal(t, "auto", cfg.Color, "expected untouched keys to keep defaults")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("PYTHON", "")
	t.Setenv("SNAIL_COLOR", "never")
	path := writeConfigFile(t, "color: always\n")

	cfg, err := loadConfig(path, nil)
	require.NoError(t, err, "unexpected error")

	assert.Equal(t, "never", cfg.Color, "expected SNAIL_COLOR to win over the file")
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("PYTHON", "")
	t.Setenv("SNAIL_COLOR", "always")
	fs := rootFlags(t, "--color", "never", "--lines", "--no-print")

	cfg, err := loadConfig("", fs)
	require.NoError(t, err, "unexpected error")

	assert.Equal(t, "never", cfg.Color, "expected flag to win over SNAIL_COLOR")
	assert.Equal(t, "lines", cfg.Mode, "expected --lines to select line mode")
	assert.False(t, cfg.AutoPrint, "expected --no-print to disable auto_print")
}

func TestLoadConfig_UnsetFlagsDoNotOverride(t *testing.T) {
	t.Setenv("PYTHON", "")
	t.Setenv("SNAIL_COLOR", "always")
	fs := rootFlags(t)

	cfg, err := loadConfig("", fs)
	require.NoError(t, err, "unexpected error")

	assert.Equal(t, "always", cfg.Color, "expected unset flags to leave the env value")
	assert.Equal(t, "main", cfg.Mode, "expected default mode")
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err, "expected error for an explicit missing file")
	assert.Contains(t, err.Error(), "load config file", "expected the file layer to report")
}

func TestFlagToConfig(t *testing.T) {
	cases := []struct {
		name      string
		args      []string
		flag      string
		wantKey   string
		wantValue interface{}
	}{
		{"unchanged flag is skipped", nil, "color", "", nil},
		{"color maps through", []string{"--color", "never"}, "color", "color", "never"},
		{"lines set maps to mode", []string{"--lines"}, "lines", "mode", "lines"},
		{"lines false is skipped", []string{"--lines=false"}, "lines", "", nil},
		{"files set maps to mode", []string{"--files"}, "files", "mode", "files"},
		{"no-print inverts auto_print", []string{"--no-print"}, "no-print", "auto_print", false},
		{"no-print false keeps auto_print", []string{"--no-print=false"}, "no-print", "auto_print", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := rootFlags(t, tc.args...)
			f := fs.Lookup(tc.flag)
			require.NotNil(t, f, "flag %q not registered", tc.flag)

			key, value := flagToConfig(f)
			assert.Equal(t, tc.wantKey, key, "unexpected config key")
			assert.Equal(t, tc.wantValue, value, "unexpected config value")
		})
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want snail.Mode
	}{
		{"main", snail.ModeMain},
		{"lines", snail.ModeLines},
		{"files", snail.ModeFiles},
	}
	for _, tc := range cases {
		mode, err := parseMode(tc.in)
		require.NoError(t, err, "unexpected error for %q", tc.in)
		assert.Equal(t, tc.want, mode, "unexpected mode for %q", tc.in)
	}
}

func TestParseMode_Invalid(t *testing.T) {
	_, err := parseMode("weird")
	require.Error(t, err, "expected error")
	assert.EqualError(t, err, `invalid mode "weird" (want main, lines, or files)`, "unexpected message")
}
