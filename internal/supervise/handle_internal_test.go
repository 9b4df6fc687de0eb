package supervise

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/programme-lv/ircrun/internal/logcapture"
)

// openHandlesFor counts this process's file descriptors pointing at path.
func openHandlesFor(t *testing.T, path string) int {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	entries, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name()))
		if err != nil {
			continue
		}
		if target == resolved {
			n++
		}
	}
	return n
}

func TestStartProcessClosesLogOnAttachFailure(t *testing.T) {
	capture, err := logcapture.New(t.TempDir(), "server")
	require.NoError(t, err)
	require.Equal(t, 1, openHandlesFor(t, capture.Path()))

	cmd := exec.Command("true")
	// an already-wired stdout makes StdoutPipe, and therefore Attach, fail
	cmd.Stdout = io.Discard

	_, err = startProcess(RoleServer, cmd, capture)
	require.Error(t, err)
	require.Zero(t, openHandlesFor(t, capture.Path()))
}
