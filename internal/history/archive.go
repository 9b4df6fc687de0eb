package history

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// ArchiveRun compresses the log files of a finished run directory with
// zstd and removes the originals. Meant for old runs kept around for
// reference; never called on a live run.
func ArchiveRun(dir string) error {
	logs, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return fmt.Errorf("failed to list logs in %s: %w", dir, err)
	}
	for _, path := range logs {
		if err := compressFile(path); err != nil {
			return err
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s after archiving: %w", path, err)
		}
	}
	return nil
}

func compressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	dst, err := os.Create(path + ".zst")
	if err != nil {
		return fmt.Errorf("failed to create archive for %s: %w", path, err)
	}
	defer dst.Close()

	enc, err := zstd.NewWriter(dst)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return fmt.Errorf("failed to compress %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish archive for %s: %w", path, err)
	}
	return nil
}
