package config

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// PathSupplier is an optional collaborator that can produce a path when
// filesystem probing fails (e.g. a graphical file picker provided by the
// presentation layer). The zero fallback reports no path.
type PathSupplier interface {
	SupplyPath(prompt string) (string, bool)
}

// NoPathSupplier is the fallback PathSupplier that never supplies anything.
type NoPathSupplier struct{}

func (NoPathSupplier) SupplyPath(string) (string, bool) { return "", false }

// Options are the possibly-incomplete user-supplied inputs to Resolve.
// Zero values mean "discover it for me".
type Options struct {
	Binary   string
	Tester   string
	Port     int
	Password string
	Timeout  time.Duration
	Valgrind bool

	Verbose   bool
	Only      []string
	ExtraArgs []string
	OutDir    string
}

const (
	defaultPassword = "pass"
	defaultTimeout  = 15 * time.Second

	portAttempts  = 8
	ephemeralBase = 49152
	ephemeralSpan = 65535 - ephemeralBase
)

// binaryProbeOrder lists conventional locations of the compiled server,
// tried in order.
var binaryProbeOrder = []string{
	"ircserv",
	filepath.Join("..", "ircserv"),
	filepath.Join("build", "ircserv"),
}

// allocatedPorts remembers ports handed out by this process so that
// sequential cycles in full mode never collide even before the previous
// server's socket is fully released.
var allocatedPorts = xsync.NewMapOf[int, struct{}]()

// Resolver turns Options into a complete RunConfig.
type Resolver struct {
	supplier PathSupplier
	log      *slog.Logger
}

func NewResolver(supplier PathSupplier, log *slog.Logger) *Resolver {
	if supplier == nil {
		supplier = NoPathSupplier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{supplier: supplier, log: log}
}

// Resolve produces a fully populated, validated RunConfig or fails with an
// *Error naming the unresolved field. No partial RunConfig is ever returned.
func (r *Resolver) Resolve(opts Options) (*RunConfig, error) {
	opts = applyEnvDefaults(opts)

	binary, err := r.resolveBinary(opts.Binary)
	if err != nil {
		return nil, err
	}

	variant, testerPath, err := r.resolveTester(opts.Tester)
	if err != nil {
		return nil, err
	}

	port, err := r.resolvePort(opts.Port)
	if err != nil {
		return nil, err
	}

	if opts.Valgrind {
		if _, err := exec.LookPath("valgrind"); err != nil {
			return nil, &Error{Field: "valgrind", Err: ErrMemoryAnalyzerUnavailable}
		}
	}

	password := opts.Password
	if password == "" {
		password = defaultPassword
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	cfg := &RunConfig{
		ServerPath: binary,
		TesterPath: testerPath,
		Tester:     variant,
		Port:       port,
		Password:   password,
		Timeout:    timeout,
		Valgrind:   opts.Valgrind,
		Verbose:    opts.Verbose,
		Only:       dedupeOnly(opts.Only),
		ExtraArgs:  opts.ExtraArgs,
		OutDir:     opts.OutDir,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.log.Debug("resolved run config",
		"binary", cfg.ServerPath, "tester", cfg.Tester,
		"port", cfg.Port, "valgrind", cfg.Valgrind)
	return cfg, nil
}

func (r *Resolver) resolveBinary(given string) (string, error) {
	if given != "" {
		abs, err := filepath.Abs(given)
		if err != nil {
			return "", &Error{Field: "binary", Err: err}
		}
		if err := checkExecutable(abs); err != nil {
			return "", &Error{Field: "binary", Err: err}
		}
		return abs, nil
	}

	for _, candidate := range binaryProbeOrder {
		if checkExecutable(candidate) == nil {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				return "", &Error{Field: "binary", Err: err}
			}
			r.log.Debug("discovered server binary", "path", abs)
			return abs, nil
		}
	}

	if path, ok := r.supplier.SupplyPath("Path to your compiled server binary"); ok {
		if err := checkExecutable(path); err != nil {
			return "", &Error{Field: "binary", Err: err}
		}
		return path, nil
	}

	return "", &Error{Field: "binary", Err: ErrBinaryNotFound}
}

// resolveTester picks the requested variant, or the highest version whose
// script is present when none was requested.
func (r *Resolver) resolveTester(given string) (TesterVariant, string, error) {
	if given != "" {
		variant := TesterVariant(given)
		if variant != TesterV1 && variant != TesterV2 {
			return "", "", &Error{Field: "tester", Err: fmt.Errorf("unknown tester variant %q", given)}
		}
		path, ok := findTesterScript(variant)
		if !ok {
			return "", "", &Error{Field: "tester", Err: ErrTesterNotFound}
		}
		return variant, path, nil
	}

	for _, variant := range []TesterVariant{TesterV2, TesterV1} {
		if path, ok := findTesterScript(variant); ok {
			r.log.Debug("discovered tester script", "variant", variant, "path", path)
			return variant, path, nil
		}
	}
	return "", "", &Error{Field: "tester", Err: ErrTesterNotFound}
}

// findTesterScript probes next to the harness executable first, then the
// current directory.
func findTesterScript(variant TesterVariant) (string, bool) {
	name := variant.ScriptName()

	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	if info, err := os.Stat(name); err == nil && info.Mode().IsRegular() {
		abs, err := filepath.Abs(name)
		if err == nil {
			return abs, true
		}
	}
	return "", false
}

func (r *Resolver) resolvePort(given int) (int, error) {
	if given != 0 {
		if !portFree(given) {
			return 0, &Error{Field: "port", Err: fmt.Errorf("port %d is already in use", given)}
		}
		allocatedPorts.Store(given, struct{}{})
		return given, nil
	}

	for i := 0; i < portAttempts; i++ {
		port := ephemeralBase + rand.Intn(ephemeralSpan)
		if _, taken := allocatedPorts.LoadOrStore(port, struct{}{}); taken {
			continue
		}
		if portFree(port) {
			r.log.Debug("allocated port", "port", port)
			return port, nil
		}
		allocatedPorts.Delete(port)
	}
	return 0, &Error{Field: "port", Err: ErrPortAllocationFailed}
}

// portFree checks by binding that nothing is listening on the port. Best
// effort only; launch rechecks via the server's own bind.
func portFree(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}
