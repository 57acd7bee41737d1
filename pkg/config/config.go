// Package config provides INI and YAML configuration loading with
// environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// ErrUnsupportedFormat is returned for file extensions Load cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Load loads configuration from an INI or YAML file, chosen by extension,
// after expanding environment variables in its content.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	if err := decode(filename, expanded, target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed for %s: %w", filename, err)
		}
	}

	return nil
}

func decode(filename string, data []byte, target any) error {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".ini", ".cfg", ".conf":
		f, err := ini.LoadSources(ini.LoadOptions{
			Insensitive:         false,
			IgnoreInlineComment: true,
		}, data)
		if err != nil {
			return err
		}
		return f.MapTo(target)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, target)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadWithDefaults loads configuration with fallback to a default file.
func LoadWithDefaults[T any](filename, defaultFile string, target *T) error {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		if defaultFile != "" {
			return Load(defaultFile, target)
		}
		return fmt.Errorf("config file not found: %s", filename)
	}
	return Load(filename, target)
}
