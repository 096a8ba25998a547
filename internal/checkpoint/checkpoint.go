// Package checkpoint implements the per-stream JSON checkpoint store
// described in spec.md §4.2: atomic save, staleness rules for date-scoped
// streams, and seen-set rehydration from a partial output CSV.
package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// State is the on-disk checkpoint record (spec.md §3 "Checkpoint record").
// Not every field is used by every stream: Date is only meaningful for
// trending/panel (date-scoped) checkpoints; CompletedWorkUnits is the
// general-purpose set used by discovery, trending (keyed by region), and
// enumeration (keyed by channel ID).
type State struct {
	CompletedWorkUnits []string       `json:"completed_work_units"`
	OutputPath         string         `json:"output_path"`
	ChannelCount       int            `json:"channel_count"`
	Timestamp          string         `json:"timestamp"`
	Date               string         `json:"date,omitempty"`
	Extra              map[string]any `json:"extra,omitempty"`
}

// NewState returns a fresh, empty checkpoint state.
func NewState() State {
	return State{CompletedWorkUnits: []string{}, Extra: map[string]any{}}
}

// Set returns CompletedWorkUnits as a lookup set.
func (s State) Set() map[string]bool {
	m := make(map[string]bool, len(s.CompletedWorkUnits))
	for _, k := range s.CompletedWorkUnits {
		m[k] = true
	}
	return m
}

// Handle owns one checkpoint file, constructed at process entry and passed
// through call sites (spec.md §9 "Global mutable state" design note — the
// checkpoint is explicitly owned here rather than module-level).
type Handle struct {
	Path string
}

// NewHandle constructs a Handle for the given path. Path's parent directory
// is created lazily on Save.
func NewHandle(path string) Handle {
	return Handle{Path: path}
}

// Load reconstructs checkpoint state from disk. A missing or corrupt file is
// treated as "no checkpoint" (spec.md §7 CheckpointCorrupt: "treat as
// no-checkpoint; log; start fresh") rather than an error.
func (h Handle) Load() (State, bool) {
	b, err := os.ReadFile(h.Path)
	if err != nil {
		return NewState(), false
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return NewState(), false
	}
	if s.CompletedWorkUnits == nil {
		s.CompletedWorkUnits = []string{}
	}
	return s, true
}

// LoadFresh loads the checkpoint, but discards it if it's date-scoped and
// the stored Date doesn't match today (spec.md §4.2 "Staleness"). today must
// be formatted "2006-01-02".
func (h Handle) LoadFresh(today string) (State, bool) {
	s, ok := h.Load()
	if !ok {
		return NewState(), false
	}
	if s.Date != "" && s.Date != today {
		return NewState(), false
	}
	return s, true
}

// Save writes state atomically: write-temp-then-rename (spec.md §4.2).
func (h Handle) Save(s State) error {
	s.Timestamp = time.Now().UTC().Format(time.RFC3339)
	dir := filepath.Dir(h.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, h.Path)
}

// Clear deletes the checkpoint file. Deleting an already-absent file is not
// an error.
func (h Handle) Clear() error {
	err := os.Remove(h.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Exists reports whether a checkpoint file is currently present.
func (h Handle) Exists() bool {
	_, err := os.Stat(h.Path)
	return err == nil
}

// AgeSince returns how long ago the checkpoint file was last modified. Used
// by the health checker's stale-checkpoint signal (spec.md §4.9).
func (h Handle) AgeSince(now time.Time) (time.Duration, bool) {
	info, err := os.Stat(h.Path)
	if err != nil {
		return 0, false
	}
	return now.Sub(info.ModTime()), true
}
