package logcapture_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/programme-lv/ircrun/internal/logcapture"
	"github.com/stretchr/testify/require"
)

func TestCaptureBothStreams(t *testing.T) {
	dir := t.TempDir()
	c, err := logcapture.New(dir, "server")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "server.log"), c.Path())

	cmd := exec.Command("/bin/sh", "-c", "echo out-line; echo err-line 1>&2")
	require.NoError(t, c.Attach(cmd))
	require.NoError(t, cmd.Start())

	// Join drains to EOF before the file is closed, then the process can
	// be reaped
	require.NoError(t, c.Join())
	require.NoError(t, cmd.Wait())

	body, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	require.Contains(t, string(body), "out-line")
	require.Contains(t, string(body), "err-line")
}

func TestCaptureManyLinesLossless(t *testing.T) {
	dir := t.TempDir()
	c, err := logcapture.New(dir, "tester")
	require.NoError(t, err)

	cmd := exec.Command("/bin/sh", "-c", "i=0; while [ $i -lt 500 ]; do echo line-$i; i=$((i+1)); done")
	require.NoError(t, c.Attach(cmd))
	require.NoError(t, cmd.Start())
	require.NoError(t, c.Join())
	require.NoError(t, cmd.Wait())

	body, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 500)
	require.Equal(t, "line-0", lines[0])
	require.Equal(t, "line-499", lines[499])
}

func TestCaptureKilledChild(t *testing.T) {
	dir := t.TempDir()
	c, err := logcapture.New(dir, "server")
	require.NoError(t, err)

	cmd := exec.Command("/bin/sh", "-c", "echo before-kill; exec sleep 30")
	require.NoError(t, c.Attach(cmd))
	require.NoError(t, cmd.Start())

	require.NoError(t, cmd.Process.Kill())
	require.NoError(t, c.Join())
	_ = cmd.Wait()

	body, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	require.Contains(t, string(body), "before-kill")
}
