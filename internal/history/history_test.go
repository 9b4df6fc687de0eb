package history_test

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/programme-lv/ircrun/api"
	"github.com/programme-lv/ircrun/internal/history"
	"github.com/stretchr/testify/require"
)

func TestFileRecorderAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	r := history.NewFileRecorder(path)

	require.NoError(t, r.Append(history.Record{
		RunID:  "run-1",
		Dir:    "runs/20260828_120000.000",
		Result: api.RunResult{RunID: "run-1", Passed: true},
	}))
	require.NoError(t, r.Append(history.Record{
		RunID:  "run-2",
		Dir:    "runs/20260828_120100.000",
		Result: api.RunResult{RunID: "run-2", Passed: false},
	}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var recs []history.Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec history.Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		recs = append(recs, rec)
	}
	require.NoError(t, sc.Err())

	require.Len(t, recs, 2)
	require.Equal(t, "run-1", recs[0].RunID)
	require.True(t, recs[0].Result.Passed)
	require.Equal(t, "run-2", recs[1].RunID)
	require.NotEmpty(t, recs[1].RecordedAt)
}

func TestArchiveRunCompressesLogs(t *testing.T) {
	dir := t.TempDir()
	content := "server said something\nand then something else\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "server.log"), []byte(content), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "result.json"), []byte("{}"), 0644))

	require.NoError(t, history.ArchiveRun(dir))

	_, err := os.Stat(filepath.Join(dir, "server.log"))
	require.True(t, os.IsNotExist(err))
	// non-log artifacts stay untouched
	_, err = os.Stat(filepath.Join(dir, "result.json"))
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "server.log.zst"))
	require.NoError(t, err)
	defer f.Close()

	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	body, err := io.ReadAll(dec)
	require.NoError(t, err)
	require.Equal(t, content, string(body))
}
