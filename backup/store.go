// Package backup persists an opportunistic snapshot of the pre-match draft so
// an interrupted session can pick up where it left off. Writes are debounced
// to coalesce rapid successive edits and flushed synchronously on teardown.
package backup

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gabnunesdev/futmais-app/matchplay"
)

const (
	// FormatVersion gates recovery: snapshots written by an incompatible
	// layout are treated as absent, not as errors.
	FormatVersion = "1.0"

	primaryFile = "draft_backup.json"
	sessionFile = "futmais_draft_session.json"

	defaultMaxAge   = 24 * time.Hour
	defaultDebounce = 500 * time.Millisecond
)

type Snapshot struct {
	Draft        *matchplay.Lineup `json:"draft"`
	ArrivalOrder []string          `json:"arrival_order"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
}

// Store writes the snapshot to two locations for redundancy: a long-lived
// file under the configured directory and a session-scoped file under the
// OS temp dir. Either one is enough to recover.
type Store struct {
	primaryPath string
	sessionPath string
	maxAge      time.Duration
	debounce    time.Duration
	log         *slog.Logger

	mu      sync.Mutex
	pending *Snapshot
	timer   *time.Timer
}

func NewStore(dir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		primaryPath: filepath.Join(dir, primaryFile),
		sessionPath: filepath.Join(os.TempDir(), sessionFile),
		maxAge:      defaultMaxAge,
		debounce:    defaultDebounce,
		log:         log,
	}
}

// Save schedules a debounced write of the snapshot. Back-to-back edits within
// the debounce window collapse into a single write of the latest value.
func (s *Store) Save(draft *matchplay.Lineup, arrivalOrder []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = &Snapshot{
		Draft:        draft,
		ArrivalOrder: append([]string(nil), arrivalOrder...),
		Timestamp:    time.Now(),
		Version:      FormatVersion,
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.Flush)
}

// Flush writes any pending snapshot immediately. Called by the debounce timer
// and synchronously on session teardown to minimize the loss window.
func (s *Store) Flush() {
	s.mu.Lock()
	snap := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if snap == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("failed to encode draft backup", slog.Any("error", err))
		return
	}

	if err := writeFile(s.primaryPath, data); err != nil {
		s.log.Error("failed to write draft backup", slog.String("path", s.primaryPath), slog.Any("error", err))
	}
	if err := writeFile(s.sessionPath, data); err != nil {
		s.log.Error("failed to write session draft backup", slog.String("path", s.sessionPath), slog.Any("error", err))
	}
}

// Load returns the most recent valid snapshot, primary location first. Stale
// (older than 24h) or version-incompatible snapshots count as no backup at
// all; stale primaries are removed on sight.
func (s *Store) Load() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap := s.loadFrom(s.primaryPath, true); snap != nil {
		return snap
	}
	return s.loadFrom(s.sessionPath, false)
}

func (s *Store) loadFrom(path string, removeStale bool) *Snapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("failed to read draft backup", slog.String("path", path), slog.Any("error", err))
		}
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("corrupt draft backup ignored", slog.String("path", path), slog.Any("error", err))
		return nil
	}

	age := time.Since(snap.Timestamp)
	if snap.Version != FormatVersion || age > s.maxAge || snap.Draft == nil {
		s.log.Warn("stale or incompatible draft backup ignored",
			slog.String("path", path),
			slog.String("version", snap.Version),
			slog.Duration("age", age))
		if removeStale {
			_ = os.Remove(path)
		}
		return nil
	}

	return &snap
}

// Clear drops both snapshot files and any pending write.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	_ = os.Remove(s.primaryPath)
	_ = os.Remove(s.sessionPath)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
