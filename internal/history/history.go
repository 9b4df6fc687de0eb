// Package history keeps an append-only log of finished runs. It is
// injected into the harness as a collaborator; the engine itself never
// reads it back.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/programme-lv/ircrun/api"
)

// Record is one line of the history log.
type Record struct {
	RunID      string        `json:"run_id"`
	Dir        string        `json:"dir"`
	RecordedAt string        `json:"recorded_at"`
	Result     api.RunResult `json:"result"`
}

// Recorder appends finished runs to durable storage.
type Recorder interface {
	Append(rec Record) error
}

// Nop discards records.
type Nop struct{}

func (Nop) Append(Record) error { return nil }

// FileRecorder appends JSON lines to a single history file.
type FileRecorder struct {
	path string
	mu   sync.Mutex
}

func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{path: path}
}

func (r *FileRecorder) Append(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.RecordedAt == "" {
		rec.RecordedAt = time.Now().Format(time.RFC3339)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}
