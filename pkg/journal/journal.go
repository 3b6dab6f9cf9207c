package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CycleRecord is one journaled portfolio cycle.
type CycleRecord struct {
	Timestamp      time.Time         `json:"timestamp"`
	CycleID        string            `json:"cycle_id"`
	CycleNumber    int               `json:"cycle_number"`
	Strategies     []string          `json:"strategies,omitempty"`
	PromptDigests  map[string]string `json:"prompt_digests,omitempty"`
	Result         json.RawMessage   `json:"result"`
	Success        bool              `json:"success"`
	FailedStrategy []string          `json:"failed_strategies,omitempty"`
}

// Writer persists cycle records to a directory as indented JSON files.
// Records are write-only audit data and are never read back.
type Writer struct {
	dir   string
	nowFn func() time.Time

	mu  sync.Mutex
	seq int
}

// NewWriter creates dir if needed and returns a writer into it.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "journal"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", dir, err)
	}
	return &Writer{dir: dir, nowFn: time.Now}, nil
}

// Dir returns the journal directory.
func (w *Writer) Dir() string { return w.dir }

// WriteCycle numbers rec and writes it to cycle_<utc time>_<seq>.json.
func (w *Writer) WriteCycle(rec *CycleRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	rec.CycleNumber = w.seq
	name := fmt.Sprintf("cycle_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("journal: encode cycle %s: %w", rec.CycleID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("journal: write %s: %w", path, err)
	}
	return path, nil
}
