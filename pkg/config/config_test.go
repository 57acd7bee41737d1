package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Server struct {
		Host string `ini:"host" yaml:"host"`
		Port int    `ini:"port" yaml:"port"`
	} `ini:"server" yaml:"server"`
}

func (s *sample) Validate() error {
	if s.Server.Host == "" {
		return errors.New("server: host: cannot be blank")
	}
	return nil
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_INI(t *testing.T) {
	t.Setenv("SAMPLE_PORT", "8123")
	var s sample
	require.NoError(t, Load(write(t, "a.ini", "[server]\nhost = localhost\nport = ${SAMPLE_PORT}\n"), &s))
	assert.Equal(t, "localhost", s.Server.Host)
	assert.Equal(t, 8123, s.Server.Port)
}

func TestLoad_YAML(t *testing.T) {
	var s sample
	require.NoError(t, Load(write(t, "a.yml", "server:\n  host: localhost\n  port: 80\n"), &s))
	assert.Equal(t, 80, s.Server.Port)
}

func TestLoad_ValidationNamesFile(t *testing.T) {
	path := write(t, "a.ini", "[server]\nport = 1\n")
	var s sample
	err := Load(path, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "host")
}

func TestLoad_Errors(t *testing.T) {
	var s sample
	err := Load(write(t, "a.toml", "x = 1"), &s)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = Load(filepath.Join(t.TempDir(), "missing.ini"), &s)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadWithDefaults(t *testing.T) {
	fallback := write(t, "default.yaml", "server:\n  host: fallback\n")
	var s sample
	require.NoError(t, LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"), fallback, &s))
	assert.Equal(t, "fallback", s.Server.Host)
}
