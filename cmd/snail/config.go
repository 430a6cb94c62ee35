package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/snail-lang/snail"
)

const defaultConfigFile = ".snail.yaml"

// config is the merged settings picture for a single invocation.
// Precedence, lowest to highest: built-in defaults, the legacy PYTHON
// environment variable, the config file, SNAIL_* environment variables,
// command-line flags.
type config struct {
	Python    string `koanf:"python"`
	Color     string `koanf:"color"`
	Mode      string `koanf:"mode"`
	AutoPrint bool   `koanf:"auto_print"`
}

func loadConfig(path string, flags *pflag.FlagSet) (*config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"python":     "python3",
		"color":      "auto",
		"mode":       "main",
		"auto_print": true,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// PYTHON predates the config file and still wins over the default.
	if py := os.Getenv("PYTHON"); py != "" {
		if err := k.Load(confmap.Provider(map[string]interface{}{
			"python": py,
		}, "."), nil); err != nil {
			return nil, fmt.Errorf("load PYTHON override: %w", err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("SNAIL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SNAIL_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagToConfig), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// flagToConfig bridges the flag names onto config keys. Only flags the
// user actually set override the lower layers, and only the flags that
// have a config meaning map at all.
func flagToConfig(f *pflag.Flag) (string, interface{}) {
	if !f.Changed {
		return "", nil
	}
	switch f.Name {
	case "color":
		return "color", f.Value.String()
	case "lines":
		if f.Value.String() == "true" {
			return "mode", "lines"
		}
	case "files":
		if f.Value.String() == "true" {
			return "mode", "files"
		}
	case "no-print":
		return "auto_print", f.Value.String() != "true"
	}
	return "", nil
}

func parseMode(s string) (snail.Mode, error) {
	switch s {
	case "main":
		return snail.ModeMain, nil
	case "lines":
		return snail.ModeLines, nil
	case "files":
		return snail.ModeFiles, nil
	}
	return snail.ModeMain, fmt.Errorf("invalid mode %q (want main, lines, or files)", s)
}
