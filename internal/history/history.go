package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/termichan/termichan/internal/config"
)

// Entry records one generation attempt.
type Entry struct {
	Timestamp            time.Time `json:"timestamp"`
	Request              string    `json:"request"`
	Command              string    `json:"command"`
	Executed             bool      `json:"executed"`
	RequiredConfirmation bool      `json:"required_confirmation"`
	Modifications        []string  `json:"modifications,omitempty"`
}

// History is the persisted command log. When disabled in the configuration
// every operation is a no-op, so callers never need to branch.
type History struct {
	Entries []Entry `json:"entries"`

	cfg config.HistoryConfig
}

// Load reads the history file configured in cfg. A missing file yields an
// empty history.
func Load(cfg config.HistoryConfig) (*History, error) {
	h := &History{cfg: cfg}
	if !cfg.Enabled {
		return h, nil
	}

	data, err := os.ReadFile(cfg.FilePath)
	if os.IsNotExist(err) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	if err := json.Unmarshal(data, h); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	return h, nil
}

// Add appends an entry, dropping the oldest entries past the configured cap.
func (h *History) Add(e Entry) {
	if !h.cfg.Enabled {
		return
	}

	h.Entries = append(h.Entries, e)
	if max := h.cfg.MaxEntries; max > 0 && len(h.Entries) > max {
		h.Entries = h.Entries[len(h.Entries)-max:]
	}
}

// Save writes the history back to its configured path.
func (h *History) Save() error {
	if !h.cfg.Enabled {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(h.cfg.FilePath), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(h.cfg.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// NewEntry creates a timestamped history entry.
func NewEntry(request, command string, executed, requiredConfirmation bool, modifications []string) Entry {
	return Entry{
		Timestamp:            time.Now(),
		Request:              request,
		Command:              command,
		Executed:             executed,
		RequiredConfirmation: requiredConfirmation,
		Modifications:        modifications,
	}
}
