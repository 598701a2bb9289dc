package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gabnunesdev/futmais-app/backup"
	"github.com/gabnunesdev/futmais-app/matchplay"
	"github.com/gabnunesdev/futmais-app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	svc     SessionService
	matches *fakeMatchRepo
	events  *fakeEventRepo
	players *fakePlayerRepo
	lobby   *fakeAppStateRepo
	backups *backup.Store
}

func newSessionFixture(t *testing.T, playerCount int) *sessionFixture {
	t.Helper()

	players := make([]models.Player, playerCount)
	order := make([]string, playerCount)
	for i := range players {
		players[i] = models.Player{
			ID:       fmt.Sprintf("p%d", i),
			Name:     fmt.Sprintf("Player %d", i),
			Stars:    3,
			IsActive: true,
		}
		order[i] = players[i].ID
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backups := backup.NewStore(t.TempDir(), logger)
	backups.Clear()
	t.Cleanup(backups.Clear)

	f := &sessionFixture{
		matches: &fakeMatchRepo{},
		events:  &fakeEventRepo{},
		players: &fakePlayerRepo{players: players},
		lobby:   &fakeAppStateRepo{order: order},
		backups: backups,
	}
	f.svc = NewSessionService(
		matchplay.Config{TeamSize: 3, GoalLimit: 2, DurationSeconds: 600, SuspensionSeconds: 120},
		f.matches, f.events, f.players,
		NewLobbyService(f.lobby), backups, nil, logger,
	)
	return f
}

func TestSessionEnterDraftAndStartMatch(t *testing.T) {
	f := newSessionFixture(t, 9)
	ctx := context.Background()

	snap, err := f.svc.EnterDraft(ctx)
	require.NoError(t, err)
	assert.Equal(t, matchplay.PhaseDraft, snap.Phase)
	require.NotNil(t, snap.Draft)
	assert.Len(t, snap.Draft.Red, 3)
	assert.Len(t, snap.Draft.Blue, 3)
	assert.Len(t, snap.Draft.Queue, 3)
	assert.Len(t, snap.ArrivalOrder, 9)

	snap, err = f.svc.StartMatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, matchplay.PhaseMatchPaused, snap.Phase)
	assert.Equal(t, "m1", snap.MatchID)
	assert.Nil(t, snap.Draft)
	require.NotNil(t, snap.Match)
	assert.Equal(t, 600, snap.Match.Timer)

	require.Len(t, f.matches.created, 1)
	assert.Len(t, f.matches.created[0].TeamRedIDs, 3)
	assert.Len(t, f.matches.created[0].QueueIDs, 3)

	// The draft backup is gone once the match row exists.
	assert.Nil(t, f.backups.Load())
}

func TestSessionEnterDraftNeedsEnoughPlayers(t *testing.T) {
	f := newSessionFixture(t, 5)

	_, err := f.svc.EnterDraft(context.Background())
	require.Error(t, err)

	var insufficient *matchplay.InsufficientPlayersError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 6, insufficient.Required)
}

func TestSessionStartMatchWithoutDraft(t *testing.T) {
	f := newSessionFixture(t, 9)

	_, err := f.svc.StartMatch(context.Background())
	assert.ErrorIs(t, err, ErrNoDraftInProgress)
}

func TestSessionGoalLimitThenRotation(t *testing.T) {
	f := newSessionFixture(t, 9)
	ctx := context.Background()

	_, err := f.svc.EnterDraft(ctx)
	require.NoError(t, err)
	snap, err := f.svc.StartMatch(ctx)
	require.NoError(t, err)

	_, err = f.svc.SetRunning(true)
	require.NoError(t, err)

	scorer := snap.Match.Red.Players[0].ID
	snap, err = f.svc.Goal(scorer, nil, models.ColorRed)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Match.ScoreRed)
	assert.Equal(t, matchplay.PhaseMatchRunning, snap.Phase)

	snap, err = f.svc.Goal(scorer, nil, models.ColorRed)
	require.NoError(t, err)
	assert.Equal(t, matchplay.PhaseMatchEnded, snap.Phase)
	assert.Equal(t, matchplay.EndReasonGoalLimit, snap.Match.EndReason)

	snap, err = f.svc.EndMatch(ctx, models.ColorRed)
	require.NoError(t, err)
	assert.Equal(t, matchplay.PhaseDraft, snap.Phase)
	assert.Empty(t, snap.MatchID)
	require.NotNil(t, snap.Draft)

	require.Len(t, f.matches.finished, 1)
	assert.Equal(t, 2, f.matches.finished[0].ScoreRed)
	require.NotNil(t, f.matches.finished[0].WinnerColor)
	assert.Equal(t, models.ColorRed, *f.matches.finished[0].WinnerColor)
}

func TestSessionGoalWithoutMatch(t *testing.T) {
	f := newSessionFixture(t, 9)

	_, err := f.svc.Goal("p0", nil, models.ColorRed)
	assert.ErrorIs(t, err, ErrNoActiveMatch)
}

func TestSessionFinishDayClosesEverything(t *testing.T) {
	f := newSessionFixture(t, 9)
	ctx := context.Background()

	_, err := f.svc.EnterDraft(ctx)
	require.NoError(t, err)
	snap, err := f.svc.StartMatch(ctx)
	require.NoError(t, err)

	scorer := snap.Match.Blue.Players[0].ID
	_, err = f.svc.Goal(scorer, nil, models.ColorBlue)
	require.NoError(t, err)

	require.NoError(t, f.svc.FinishDay(ctx))

	snap = f.svc.Snapshot()
	assert.Equal(t, matchplay.PhaseLobby, snap.Phase)
	assert.Empty(t, snap.ArrivalOrder)
	assert.Empty(t, f.lobby.order)

	require.Len(t, f.matches.finished, 1)
	require.NotNil(t, f.matches.finished[0].WinnerColor)
	assert.Equal(t, models.ColorBlue, *f.matches.finished[0].WinnerColor)
}

func TestSessionRecoverResumesActiveMatch(t *testing.T) {
	f := newSessionFixture(t, 9)

	f.matches.active = &models.Match{
		ID:              "m9",
		TeamRedIDs:      []string{"p0", "p1", "p2"},
		TeamBlueIDs:     []string{"p3", "p4", "p5"},
		QueueIDs:        []string{"p6", "p7", "p8"},
		ScoreRed:        1,
		Status:          models.MatchStatusInProgress,
		DurationSeconds: 400,
		LastActiveAt:    time.Now().Add(-90 * time.Second),
	}
	f.events.events = []models.MatchEvent{
		{ID: "e1", MatchID: "m9", PlayerID: "p0", EventType: models.EventGoal},
		{ID: "e2", MatchID: "m9", PlayerID: "p1", EventType: models.EventYellowCard},
		{ID: "e3", MatchID: "m9", PlayerID: "p1", EventType: models.EventYellowCard},
	}

	require.NoError(t, f.svc.Recover(context.Background()))

	snap := f.svc.Snapshot()
	assert.Equal(t, "m9", snap.MatchID)
	assert.Equal(t, matchplay.PhaseMatchRunning, snap.Phase)
	require.NotNil(t, snap.Match)
	assert.Equal(t, 1, snap.Match.ScoreRed)
	assert.InDelta(t, 310, snap.Match.Timer, 2)

	// Tallies come back from the event log, including the two-yellows rule.
	assert.Equal(t, 1, snap.Match.Tallies["p0"].Goals)
	assert.Equal(t, 0, snap.Match.Tallies["p1"].YellowCards)
	assert.Equal(t, 1, snap.Match.Tallies["p1"].RedCards)
}

func TestSessionRecoverRestoresDraftBackup(t *testing.T) {
	f := newSessionFixture(t, 9)

	f.backups.Save(&matchplay.Lineup{
		Red:   []models.Player{{ID: "p0", Name: "Player 0", Stars: 3}},
		Blue:  []models.Player{{ID: "p1", Name: "Player 1", Stars: 3}},
		Queue: nil,
	}, []string{"p0", "p1"})
	f.backups.Flush()

	require.NoError(t, f.svc.Recover(context.Background()))

	snap := f.svc.Snapshot()
	assert.Equal(t, matchplay.PhaseDraft, snap.Phase)
	require.NotNil(t, snap.Draft)
	assert.Equal(t, "p0", snap.Draft.Red[0].ID)
}

func TestSessionRecoverDiscardsBackupWithUnknownPlayers(t *testing.T) {
	f := newSessionFixture(t, 9)

	f.backups.Save(&matchplay.Lineup{
		Red: []models.Player{{ID: "ghost", Name: "Ghost", Stars: 3}},
	}, []string{"ghost"})
	f.backups.Flush()

	require.NoError(t, f.svc.Recover(context.Background()))

	snap := f.svc.Snapshot()
	assert.Equal(t, matchplay.PhaseLobby, snap.Phase)
	assert.Nil(t, f.backups.Load())
}

func TestSessionSnapshotDetachedFromLiveState(t *testing.T) {
	f := newSessionFixture(t, 9)
	ctx := context.Background()

	_, err := f.svc.EnterDraft(ctx)
	require.NoError(t, err)
	before, err := f.svc.StartMatch(ctx)
	require.NoError(t, err)
	_, err = f.svc.SetRunning(true)
	require.NoError(t, err)

	scorer := before.Match.Red.Players[0].ID
	after, err := f.svc.Goal(scorer, nil, models.ColorRed)
	require.NoError(t, err)

	// The earlier snapshot keeps its own copies of squads, tallies and
	// suspensions; subsequent transitions must not show through it.
	assert.Equal(t, 0, before.Match.ScoreRed)
	assert.NotContains(t, before.Match.Tallies, scorer)
	assert.Equal(t, 1, after.Match.ScoreRed)
	assert.Equal(t, 1, after.Match.Tallies[scorer].Goals)
}

func TestSessionDraftSnapshotDetachedFromLiveDraft(t *testing.T) {
	f := newSessionFixture(t, 9)
	ctx := context.Background()

	before, err := f.svc.EnterDraft(ctx)
	require.NoError(t, err)
	moved := before.Draft.Red[0].ID

	after := f.svc.MoveDraftPlayer(moved, matchplay.SlotRed, matchplay.SlotQueue)

	assert.Equal(t, moved, before.Draft.Red[0].ID)
	assert.Len(t, before.Draft.Red, 3)
	assert.Len(t, after.Draft.Red, 2)
	assert.Equal(t, moved, after.Draft.Queue[len(after.Draft.Queue)-1].ID)
}

func TestSessionEndManuallyPersistsTimer(t *testing.T) {
	f := newSessionFixture(t, 9)
	ctx := context.Background()

	_, err := f.svc.EnterDraft(ctx)
	require.NoError(t, err)
	_, err = f.svc.StartMatch(ctx)
	require.NoError(t, err)

	snap, err := f.svc.EndManually()
	require.NoError(t, err)
	assert.Equal(t, matchplay.PhaseMatchEnded, snap.Phase)
	assert.Equal(t, matchplay.EndReasonManual, snap.Match.EndReason)

	require.Eventually(t, func() bool {
		writes := f.matches.timerWrites()
		return len(writes) == 1 && writes[0] == 600
	}, time.Second, 10*time.Millisecond)
}
