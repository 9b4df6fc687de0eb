package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is probed by the CLI layer when no --config is given.
const DefaultConfigFile = "ircrun.toml"

// fileOptions maps the optional TOML config file. Field names match the
// CLI flags.
type fileOptions struct {
	Binary    string   `toml:"binary"`
	Tester    string   `toml:"tester"`
	Port      int      `toml:"port"`
	Password  string   `toml:"password"`
	TimeoutS  int      `toml:"timeout_seconds"`
	Valgrind  bool     `toml:"valgrind"`
	Verbose   bool     `toml:"verbose"`
	Only      []string `toml:"only"`
	ExtraArgs []string `toml:"extra_args"`
	OutDir    string   `toml:"out"`
}

// LoadFile merges an ircrun.toml into opts. Explicitly supplied options win
// over the file.
func LoadFile(path string, opts Options) (Options, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var f fileOptions
	if err := toml.Unmarshal(body, &f); err != nil {
		return opts, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if opts.Binary == "" {
		opts.Binary = f.Binary
	}
	if opts.Tester == "" {
		opts.Tester = f.Tester
	}
	if opts.Port == 0 {
		opts.Port = f.Port
	}
	if opts.Password == "" {
		opts.Password = f.Password
	}
	if opts.Timeout == 0 && f.TimeoutS > 0 {
		opts.Timeout = time.Duration(f.TimeoutS) * time.Second
	}
	if !opts.Valgrind {
		opts.Valgrind = f.Valgrind
	}
	if !opts.Verbose {
		opts.Verbose = f.Verbose
	}
	if len(opts.Only) == 0 {
		opts.Only = f.Only
	}
	if len(opts.ExtraArgs) == 0 {
		opts.ExtraArgs = f.ExtraArgs
	}
	if opts.OutDir == "" {
		opts.OutDir = f.OutDir
	}
	return opts, nil
}

// applyEnvDefaults fills unset options from the environment. A .env file
// next to the harness is honored when present.
func applyEnvDefaults(opts Options) Options {
	_ = godotenv.Load() // .env is optional

	if opts.Binary == "" {
		opts.Binary = os.Getenv("IRCRUN_BINARY")
	}
	if opts.Password == "" {
		opts.Password = os.Getenv("IRCRUN_PASSWORD")
	}
	if opts.Tester == "" {
		opts.Tester = os.Getenv("IRCRUN_TESTER")
	}
	if opts.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("IRCRUN_PORT")); err == nil {
			opts.Port = p
		}
	}
	if opts.Timeout == 0 {
		if s, err := strconv.Atoi(os.Getenv("IRCRUN_TIMEOUT")); err == nil && s > 0 {
			opts.Timeout = time.Duration(s) * time.Second
		}
	}
	return opts
}
