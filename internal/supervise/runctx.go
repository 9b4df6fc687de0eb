package supervise

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/programme-lv/ircrun/internal/config"
	"github.com/programme-lv/ircrun/pkg/runphase"
)

// DefaultRunsDir is where per-run output directories are created unless
// the config overrides it.
const DefaultRunsDir = "runs"

const dirStampLayout = "20060102_150405.000"

var (
	dirMu     sync.Mutex
	lastStamp time.Time
)

// nextRunDir creates a fresh output directory named by a strictly
// increasing UTC timestamp, so directory names sort in run order and two
// runs never collide.
func nextRunDir(base string) (string, error) {
	dirMu.Lock()
	defer dirMu.Unlock()

	// compare at the same granularity the directory name carries, or two
	// runs inside one millisecond would format to the same name
	now := time.Now().UTC().Truncate(time.Millisecond)
	if !now.After(lastStamp) {
		now = lastStamp.Add(time.Millisecond)
	}
	lastStamp = now

	dir := filepath.Join(base, now.Format(dirStampLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return dir, nil
}

// RunContext owns one run: its config, its output directory, and handles
// to at most two live children. Mutated only by the supervisor.
type RunContext struct {
	Cfg   *config.RunConfig
	RunID string
	Dir   string
	Phase runphase.Phase

	Server *ProcessHandle
	Tester *ProcessHandle
}

// NewRunContext allocates a run ID and a fresh output directory.
func NewRunContext(cfg *config.RunConfig) (*RunContext, error) {
	var dir string
	var err error
	if cfg.OutDir != "" {
		dir = cfg.OutDir
		if err = os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}
	} else {
		dir, err = nextRunDir(DefaultRunsDir)
		if err != nil {
			return nil, err
		}
	}

	return &RunContext{
		Cfg:   cfg,
		RunID: uuid.NewString(),
		Dir:   dir,
		Phase: runphase.Idle,
	}, nil
}
