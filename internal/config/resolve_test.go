package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/programme-lv/ircrun/internal/config"
	"github.com/stretchr/testify/require"
)

// writeExecutable drops a fake server binary into dir.
func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0755)
	require.NoError(t, err)
	return path
}

func writeTesterScript(t *testing.T, dir string, variant config.TesterVariant) string {
	t.Helper()
	path := filepath.Join(dir, variant.ScriptName())
	err := os.WriteFile(path, []byte("print('tester')\n"), 0644)
	require.NoError(t, err)
	return path
}

func TestResolveFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeExecutable(t, dir, "ircserv")
	writeTesterScript(t, dir, config.TesterV2)

	r := config.NewResolver(nil, nil)
	cfg, err := r.Resolve(config.Options{})
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "ircserv"), cfg.ServerPath)
	require.Equal(t, config.TesterV2, cfg.Tester)
	require.Equal(t, "pass", cfg.Password)
	require.Equal(t, 15*time.Second, cfg.Timeout)
	require.GreaterOrEqual(t, cfg.Port, 1024)
	require.LessOrEqual(t, cfg.Port, 65535)
	require.False(t, cfg.Valgrind)
}

func TestResolvePrefersHighestTesterVersion(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeExecutable(t, dir, "ircserv")
	writeTesterScript(t, dir, config.TesterV1)
	writeTesterScript(t, dir, config.TesterV2)

	cfg, err := config.NewResolver(nil, nil).Resolve(config.Options{})
	require.NoError(t, err)
	require.Equal(t, config.TesterV2, cfg.Tester)

	cfg, err = config.NewResolver(nil, nil).Resolve(config.Options{Tester: "v1"})
	require.NoError(t, err)
	require.Equal(t, config.TesterV1, cfg.Tester)
}

func TestResolveBinaryNotFound(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := config.NewResolver(nil, nil).Resolve(config.Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, config.ErrBinaryNotFound)

	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "binary", cfgErr.Field)
}

func TestResolveTesterNotFound(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeExecutable(t, dir, "ircserv")

	_, err := config.NewResolver(nil, nil).Resolve(config.Options{})
	require.ErrorIs(t, err, config.ErrTesterNotFound)
}

type fixedSupplier struct{ path string }

func (s fixedSupplier) SupplyPath(string) (string, bool) { return s.path, true }

func TestResolveConsultsPathSupplierAfterProbing(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTesterScript(t, dir, config.TesterV2)
	elsewhere := writeExecutable(t, t.TempDir(), "ircserv")

	cfg, err := config.NewResolver(fixedSupplier{path: elsewhere}, nil).Resolve(config.Options{})
	require.NoError(t, err)
	require.Equal(t, elsewhere, cfg.ServerPath)
}

func TestSequentialResolvesNeverShareAPort(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeExecutable(t, dir, "ircserv")
	writeTesterScript(t, dir, config.TesterV2)

	r := config.NewResolver(nil, nil)
	seen := map[int]bool{}
	for i := 0; i < 5; i++ {
		cfg, err := r.Resolve(config.Options{})
		require.NoError(t, err)
		require.False(t, seen[cfg.Port], "port %d handed out twice", cfg.Port)
		seen[cfg.Port] = true
	}
}

func TestValidateRejectsBadPortAndTimeout(t *testing.T) {
	dir := t.TempDir()
	bin := writeExecutable(t, dir, "ircserv")
	script := writeTesterScript(t, dir, config.TesterV2)

	cfg := &config.RunConfig{
		ServerPath: bin,
		TesterPath: script,
		Tester:     config.TesterV2,
		Port:       80,
		Timeout:    10 * time.Second,
	}
	err := cfg.Validate()
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "port", cfgErr.Field)

	cfg.Port = 6667
	cfg.Timeout = 0
	err = cfg.Validate()
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "timeout", cfgErr.Field)

	cfg.Timeout = 10 * time.Second
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonExecutableBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ircserv")
	require.NoError(t, os.WriteFile(path, []byte("not a binary"), 0644))
	script := writeTesterScript(t, dir, config.TesterV2)

	cfg := &config.RunConfig{
		ServerPath: path,
		TesterPath: script,
		Tester:     config.TesterV2,
		Port:       6667,
		Timeout:    10 * time.Second,
	}
	err := cfg.Validate()
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "binary", cfgErr.Field)
}

func TestLoadFileMergesUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ircrun.toml")
	body := `
binary = "/opt/ircserv"
tester = "v1"
port = 6697
password = "hunter2"
timeout_seconds = 30
valgrind = true
only = ["PASS", "NICK"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	opts, err := config.LoadFile(path, config.Options{Binary: "./mine"})
	require.NoError(t, err)

	// explicit option wins over the file
	require.Equal(t, "./mine", opts.Binary)
	require.Equal(t, "v1", opts.Tester)
	require.Equal(t, 6697, opts.Port)
	require.Equal(t, "hunter2", opts.Password)
	require.Equal(t, 30*time.Second, opts.Timeout)
	require.True(t, opts.Valgrind)
	require.Equal(t, []string{"PASS", "NICK"}, opts.Only)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.toml"), config.Options{})
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}
