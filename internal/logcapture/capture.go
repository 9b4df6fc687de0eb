package logcapture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Capture copies one child process's stdout and stderr into a single log
// file under the run directory. Each stream is drained by its own goroutine
// so the child never stalls on a full pipe buffer.
//
// The file is closed only after Join has observed EOF on both streams,
// which happens only once the process has terminated; output is therefore
// never truncated on process exit.
type Capture struct {
	role string
	path string

	mu   sync.Mutex
	file *os.File

	drains errgroup.Group
}

// New creates the log file for the given role inside dir.
func New(dir, role string) (*Capture, error) {
	path := filepath.Join(dir, role+".log")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s log: %w", role, err)
	}
	return &Capture{role: role, path: path, file: file}, nil
}

// Path returns the location of the log file.
func (c *Capture) Path() string {
	return c.path
}

// Attach wires the command's stdout and stderr to the capture and starts
// the drain goroutines. Must be called before the command is started.
func (c *Capture) Attach(cmd *exec.Cmd) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open stderr pipe: %w", err)
	}
	c.drains.Go(func() error { return c.drain(stdout) })
	c.drains.Go(func() error { return c.drain(stderr) })
	return nil
}

// Join blocks until both streams have hit EOF, then flushes and closes the
// file. Call after the process is confirmed terminated (or killed).
func (c *Capture) Join() error {
	drainErr := c.drains.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.file.Sync(); err != nil && !errors.Is(err, fs.ErrClosed) {
		return fmt.Errorf("failed to flush %s log: %w", c.role, err)
	}
	if err := c.file.Close(); err != nil && !errors.Is(err, fs.ErrClosed) {
		return fmt.Errorf("failed to close %s log: %w", c.role, err)
	}
	return drainErr
}

// drain copies one stream line by line into the log file. Interleaving
// between the two streams happens at line granularity.
func (c *Capture) drain(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		c.mu.Lock()
		_, err := fmt.Fprintln(c.file, sc.Text())
		c.mu.Unlock()
		if err != nil {
			return fmt.Errorf("failed to write %s log: %w", c.role, err)
		}
	}
	// a killed child closes the pipe abruptly; that is a normal EOF here
	if err := sc.Err(); err != nil && !errors.Is(err, fs.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("failed to read %s output: %w", c.role, err)
	}
	return nil
}
