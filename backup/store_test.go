package backup

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gabnunesdev/futmais-app/matchplay"
	"github.com/gabnunesdev/futmais-app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	// Keep the session copy inside the test sandbox too.
	s.sessionPath = filepath.Join(t.TempDir(), "session.json")
	return s
}

func testLineup() *matchplay.Lineup {
	return &matchplay.Lineup{
		Red:   []models.Player{{ID: "a", Name: "A", Stars: 4}},
		Blue:  []models.Player{{ID: "b", Name: "B", Stars: 4}},
		Queue: []models.Player{{ID: "c", Name: "C", Stars: 2}},
	}
}

func TestFlushWritesAndLoadRoundTrips(t *testing.T) {
	s := newTestStore(t)

	s.Save(testLineup(), []string{"a", "b", "c"})
	s.Flush()

	snap := s.Load()
	require.NotNil(t, snap)
	assert.Equal(t, FormatVersion, snap.Version)
	assert.Equal(t, []string{"a", "b", "c"}, snap.ArrivalOrder)
	require.NotNil(t, snap.Draft)
	assert.Equal(t, "a", snap.Draft.Red[0].ID)
	assert.WithinDuration(t, time.Now(), snap.Timestamp, time.Minute)

	// Both locations carry the snapshot.
	_, err := os.Stat(s.primaryPath)
	assert.NoError(t, err)
	_, err = os.Stat(s.sessionPath)
	assert.NoError(t, err)
}

func TestSaveCoalescesToLatestValue(t *testing.T) {
	s := newTestStore(t)

	s.Save(testLineup(), []string{"a"})
	s.Save(testLineup(), []string{"a", "b"})
	s.Flush()

	snap := s.Load()
	require.NotNil(t, snap)
	assert.Equal(t, []string{"a", "b"}, snap.ArrivalOrder)
}

func TestDebounceTimerFlushesWithoutExplicitCall(t *testing.T) {
	s := newTestStore(t)
	s.debounce = 10 * time.Millisecond

	s.Save(testLineup(), []string{"a"})

	require.Eventually(t, func() bool {
		_, err := os.Stat(s.primaryPath)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestLoadWithoutBackupReturnsNil(t *testing.T) {
	s := newTestStore(t)
	assert.Nil(t, s.Load())
}

func TestLoadRejectsStaleSnapshot(t *testing.T) {
	s := newTestStore(t)
	writeSnapshot(t, s.primaryPath, Snapshot{
		Draft:     testLineup(),
		Timestamp: time.Now().Add(-25 * time.Hour),
		Version:   FormatVersion,
	})

	assert.Nil(t, s.Load())

	// Stale primaries are removed on sight.
	_, err := os.Stat(s.primaryPath)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadRejectsVersionMismatch(t *testing.T) {
	s := newTestStore(t)
	writeSnapshot(t, s.primaryPath, Snapshot{
		Draft:     testLineup(),
		Timestamp: time.Now(),
		Version:   "0.9",
	})

	assert.Nil(t, s.Load())
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.primaryPath, []byte("{not json"), 0o644))

	assert.Nil(t, s.Load())
}

func TestLoadFallsBackToSessionFile(t *testing.T) {
	s := newTestStore(t)
	writeSnapshot(t, s.sessionPath, Snapshot{
		Draft:        testLineup(),
		ArrivalOrder: []string{"a"},
		Timestamp:    time.Now(),
		Version:      FormatVersion,
	})

	snap := s.Load()
	require.NotNil(t, snap)
	assert.Equal(t, []string{"a"}, snap.ArrivalOrder)
}

func TestClearRemovesEverything(t *testing.T) {
	s := newTestStore(t)
	s.Save(testLineup(), []string{"a"})
	s.Flush()

	s.Clear()

	assert.Nil(t, s.Load())
	_, err := os.Stat(s.primaryPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(s.sessionPath)
	assert.True(t, os.IsNotExist(err))
}

func writeSnapshot(t *testing.T, path string, snap Snapshot) {
	t.Helper()
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
