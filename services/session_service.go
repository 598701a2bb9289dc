package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gabnunesdev/futmais-app/backup"
	"github.com/gabnunesdev/futmais-app/matchplay"
	"github.com/gabnunesdev/futmais-app/models"
	"github.com/gabnunesdev/futmais-app/repositories"
	"golang.org/x/sync/errgroup"
)

// LiveRoom is the websocket room every dashboard client joins. One club, one
// night, one room.
const LiveRoom = "live"

const persistTimeout = 5 * time.Second

// SessionSnapshot is the full read model pushed to clients after every
// transition. Always the current value, never a delta, so out-of-order
// delivery is harmless.
type SessionSnapshot struct {
	Phase        matchplay.Phase   `json:"phase"`
	Draft        *matchplay.Lineup `json:"draft,omitempty"`
	Match        *matchplay.State  `json:"match,omitempty"`
	MatchID      string            `json:"match_id,omitempty"`
	ArrivalOrder []string          `json:"arrival_order"`
}

type SessionService interface {
	Snapshot() SessionSnapshot
	Recover(ctx context.Context) error
	Run(ctx context.Context)
	Shutdown()

	EnterDraft(ctx context.Context) (SessionSnapshot, error)
	Shuffle(ctx context.Context) (SessionSnapshot, error)
	MoveDraftPlayer(playerID string, from, to matchplay.DraftSlot) SessionSnapshot
	ReorderDraftQueue(playerID string, direction matchplay.MoveDirection) SessionSnapshot
	RemoveFromDraftQueue(playerID string) SessionSnapshot
	ShareText() (string, error)

	StartMatch(ctx context.Context) (SessionSnapshot, error)
	SetRunning(running bool) (SessionSnapshot, error)
	Goal(scorerID string, assistID *string, side models.TeamColor) (SessionSnapshot, error)
	Card(playerID string, card matchplay.CardType) (SessionSnapshot, error)
	Substitute(ctx context.Context, outgoingID, incomingID string) (SessionSnapshot, error)
	DeleteEvent(eventID, playerID string, eventType models.EventType) (SessionSnapshot, error)
	EndManually() (SessionSnapshot, error)
	EndMatch(ctx context.Context, winner models.TeamColor) (SessionSnapshot, error)
	FinishDay(ctx context.Context) error

	ReorderMatchQueue(playerID string, direction matchplay.MoveDirection) SessionSnapshot
	MoveInMatchQueue(sourceID, targetID string) SessionSnapshot
	AddLatePlayers(ctx context.Context, playerIDs []string) (SessionSnapshot, error)
}

type sessionService struct {
	matchRepo  repositories.MatchRepository
	eventRepo  repositories.EventRepository
	playerRepo repositories.PlayerRepository
	lobby      LobbyService
	backups    *backup.Store
	hub        *matchplay.Hub
	logger     *slog.Logger

	mu      sync.Mutex
	engine  *matchplay.Engine
	matchID string
}

func NewSessionService(
	cfg matchplay.Config,
	matchRepo repositories.MatchRepository,
	eventRepo repositories.EventRepository,
	playerRepo repositories.PlayerRepository,
	lobby LobbyService,
	backups *backup.Store,
	hub *matchplay.Hub,
	logger *slog.Logger,
) SessionService {
	return &sessionService{
		matchRepo:  matchRepo,
		eventRepo:  eventRepo,
		playerRepo: playerRepo,
		lobby:      lobby,
		backups:    backups,
		hub:        hub,
		logger:     logger,
		engine:     matchplay.NewEngine(cfg, logger),
	}
}

func (s *sessionService) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked deep-copies the live aggregates. Handlers marshal snapshots
// and the ticker keeps mutating the engine after the lock is released, so
// nothing mutable may escape here.
func (s *sessionService) snapshotLocked() SessionSnapshot {
	return SessionSnapshot{
		Phase:        s.engine.Phase(),
		Draft:        s.engine.Draft().Clone(),
		Match:        s.engine.State().Clone(),
		MatchID:      s.matchID,
		ArrivalOrder: s.engine.ArrivalOrder(),
	}
}

// Recover rebuilds the session on startup: an in-progress match row wins,
// then a fresh local draft backup, then the empty lobby. The timer is
// reconstructed from elapsed wall-clock time, never resumed from memory.
func (s *sessionService) Recover(ctx context.Context) error {
	var (
		players []models.Player
		active  *models.Match
		order   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		m, err := s.matchRepo.GetActive(gctx)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return nil
			}
			return err
		}
		active = m
		return nil
	})
	g.Go(func() error {
		var err error
		order, err = s.lobby.GetOrder(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load session data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(order) > 0 {
		s.engine.SetArrivalOrder(order)
	}

	if active != nil {
		return s.resumeMatchLocked(ctx, players, active, order)
	}
	s.restoreBackupLocked(players)
	return nil
}

func (s *sessionService) resumeMatchLocked(ctx context.Context, players []models.Player, active *models.Match, order []string) error {
	byID := make(map[string]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	resolve := func(ids []string) []models.Player {
		out := make([]models.Player, 0, len(ids))
		for _, id := range ids {
			if p, ok := byID[id]; ok {
				out = append(out, p)
			}
		}
		return out
	}

	red := resolve(active.TeamRedIDs)
	blue := resolve(active.TeamBlueIDs)

	var queue []models.Player
	if len(active.QueueIDs) > 0 {
		queue = resolve(active.QueueIDs)
	} else {
		// Older rows have no queue column content; everyone active and not
		// playing is assumed to be waiting.
		playing := make(map[string]bool, len(active.TeamRedIDs)+len(active.TeamBlueIDs))
		for _, id := range active.TeamRedIDs {
			playing[id] = true
		}
		for _, id := range active.TeamBlueIDs {
			playing[id] = true
		}
		for _, p := range players {
			if p.IsActive && !playing[p.ID] {
				queue = append(queue, p)
			}
		}
	}

	if len(order) == 0 {
		ids := append(append([]string(nil), active.TeamRedIDs...), active.TeamBlueIDs...)
		for _, p := range queue {
			ids = append(ids, p.ID)
		}
		s.engine.SetArrivalOrder(ids)
	}

	events, err := s.eventRepo.ListByMatch(ctx, active.ID)
	if err != nil {
		return fmt.Errorf("failed to load match events: %w", err)
	}

	lastActive := active.LastActiveAt
	timer := matchplay.RemainingTimer(active.DurationSeconds, &lastActive, time.Now())

	s.engine.ResumeMatch(red, blue, queue,
		active.ScoreRed, active.ScoreBlue,
		timer, true,
		rebuildTallies(events))
	s.matchID = active.ID

	s.logger.Info("resumed in-progress match",
		slog.String("match_id", active.ID),
		slog.Int("timer", timer))
	return nil
}

func (s *sessionService) restoreBackupLocked(players []models.Player) {
	snap := s.backups.Load()
	if snap == nil {
		return
	}

	known := make(map[string]bool, len(players))
	for _, p := range players {
		known[p.ID] = true
	}
	for _, id := range snap.ArrivalOrder {
		if !known[id] {
			s.logger.Warn("draft backup references unknown player, discarding",
				slog.String("player_id", id))
			s.backups.Clear()
			return
		}
	}

	s.engine.SetArrivalOrder(snap.ArrivalOrder)
	s.engine.SetDraft(snap.Draft)
	s.logger.Info("restored draft from local backup",
		slog.Time("saved_at", snap.Timestamp))
}

// rebuildTallies recounts per-player tallies from the durable event log.
// Yellow cards reapply the two-for-a-red conversion: the outstanding yellow
// is the parity of the yellow count.
func rebuildTallies(events []models.MatchEvent) map[string]matchplay.PlayerTally {
	tallies := make(map[string]matchplay.PlayerTally)
	yellows := make(map[string]int)
	for _, ev := range events {
		t := tallies[ev.PlayerID]
		switch ev.EventType {
		case models.EventGoal:
			t.Goals++
		case models.EventAssist:
			t.Assists++
		case models.EventYellowCard:
			yellows[ev.PlayerID]++
		case models.EventRedCard:
			t.RedCards++
		}
		tallies[ev.PlayerID] = t
	}
	for id, count := range yellows {
		t := tallies[id]
		t.YellowCards = count % 2
		t.RedCards += count / 2
		tallies[id] = t
	}
	return tallies
}

// Run drives the one-second session ticker: match countdown while the clock
// runs, sin-bin countdowns always. Blocks until ctx is done.
func (s *sessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *sessionService) tick() {
	s.mu.Lock()
	s.engine.TickSuspensions()
	res := s.engine.Tick()
	matchID := s.matchID
	var snap SessionSnapshot
	if res.Ticked {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if !res.Ticked {
		return
	}

	if res.Ended {
		// Natural end: store the remaining time (zero) with a fresh
		// server timestamp so a reload cannot resurrect the clock.
		s.persist("timer", func(ctx context.Context) error {
			return s.matchRepo.UpdateTimer(ctx, matchID, res.Timer)
		})
		s.broadcast("MATCH_ENDED", snap)
		return
	}
	s.broadcast("MATCH_STATE", snap)
}

// Shutdown flushes the pending draft backup synchronously and stores the
// current timer so the countdown survives the restart.
func (s *sessionService) Shutdown() {
	s.mu.Lock()
	state := s.engine.State()
	matchID := s.matchID
	var timer int
	if state != nil {
		timer = state.Timer
	}
	s.mu.Unlock()

	if matchID != "" && state != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.matchRepo.UpdateTimer(ctx, matchID, timer); err != nil {
			s.logger.Error("failed to store timer on shutdown", slog.Any("error", err))
		}
	}
	s.backups.Flush()
}

// EnterDraft moves the lobby into a draft once enough players checked in.
func (s *sessionService) EnterDraft(ctx context.Context) (SessionSnapshot, error) {
	order, err := s.lobby.GetOrder(ctx)
	if err != nil {
		return SessionSnapshot{}, err
	}

	players, err := s.playerRepo.ListAll(ctx)
	if err != nil {
		return SessionSnapshot{}, fmt.Errorf("failed to load players: %w", err)
	}
	byID := make(map[string]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	checkedIn := make([]models.Player, 0, len(order))
	for _, id := range order {
		if p, ok := byID[id]; ok {
			checkedIn = append(checkedIn, p)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.State() != nil {
		return s.snapshotLocked(), ErrMatchInProgress
	}
	if err := s.engine.EnterDraft(checkedIn); err != nil {
		return s.snapshotLocked(), err
	}

	s.saveBackupLocked()
	snap := s.snapshotLocked()
	s.broadcast("DRAFT_UPDATED", snap)
	return snap, nil
}

func (s *sessionService) Shuffle(ctx context.Context) (SessionSnapshot, error) {
	players, err := s.playerRepo.ListAll(ctx)
	if err != nil {
		return SessionSnapshot{}, fmt.Errorf("failed to load players: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Shuffle(players); err != nil {
		return s.snapshotLocked(), ErrNoDraftInProgress
	}
	s.saveBackupLocked()
	snap := s.snapshotLocked()
	s.broadcast("DRAFT_UPDATED", snap)
	return snap, nil
}

func (s *sessionService) MoveDraftPlayer(playerID string, from, to matchplay.DraftSlot) SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.MoveDraftPlayer(playerID, from, to)
	s.saveBackupLocked()
	snap := s.snapshotLocked()
	s.broadcast("DRAFT_UPDATED", snap)
	return snap
}

func (s *sessionService) ReorderDraftQueue(playerID string, direction matchplay.MoveDirection) SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.ReorderDraftQueue(playerID, direction)
	s.saveBackupLocked()
	snap := s.snapshotLocked()
	s.broadcast("DRAFT_UPDATED", snap)
	return snap
}

func (s *sessionService) RemoveFromDraftQueue(playerID string) SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.RemoveFromDraftQueue(playerID)
	s.saveBackupLocked()
	snap := s.snapshotLocked()
	s.broadcast("DRAFT_UPDATED", snap)
	return snap
}

func (s *sessionService) ShareText() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.engine.Draft()
	if draft == nil {
		return "", ErrNoDraftInProgress
	}
	return matchplay.FormatLineupShare(draft, s.engine.Config().TeamSize), nil
}

// StartMatch confirms the draft. The match row is created synchronously so
// the session has a durable id to hang events on; everything after that is
// fire-and-forget.
func (s *sessionService) StartMatch(ctx context.Context) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.State() != nil {
		return s.snapshotLocked(), ErrMatchInProgress
	}
	draft := s.engine.Draft()
	if draft == nil {
		return s.snapshotLocked(), ErrNoDraftInProgress
	}

	match := &models.Match{
		TeamRedIDs:      playerIDs(draft.Red),
		TeamBlueIDs:     playerIDs(draft.Blue),
		QueueIDs:        playerIDs(draft.Queue),
		Status:          models.MatchStatusInProgress,
		DurationSeconds: s.engine.Config().DurationSeconds,
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return s.snapshotLocked(), fmt.Errorf("failed to create match: %w", err)
	}

	if _, err := s.engine.StartMatch(); err != nil {
		return s.snapshotLocked(), err
	}
	s.matchID = match.ID
	s.backups.Clear()

	snap := s.snapshotLocked()
	s.broadcast("MATCH_STATE", snap)
	return snap, nil
}

func (s *sessionService) SetRunning(running bool) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.State()
	if state == nil {
		return s.snapshotLocked(), ErrNoActiveMatch
	}
	s.engine.SetRunning(running)

	if !running {
		// Every stop stores the remaining time with a server timestamp so
		// the countdown is rebuilt from elapsed wall clock on reload.
		matchID, timer := s.matchID, state.Timer
		s.persist("timer", func(ctx context.Context) error {
			return s.matchRepo.UpdateTimer(ctx, matchID, timer)
		})
	}

	snap := s.snapshotLocked()
	s.broadcast("MATCH_STATE", snap)
	return snap, nil
}

func (s *sessionService) Goal(scorerID string, assistID *string, side models.TeamColor) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.State() == nil {
		return s.snapshotLocked(), ErrNoActiveMatch
	}

	res := s.engine.Goal(scorerID, assistID, side)
	if !res.Accepted {
		return s.snapshotLocked(), nil
	}

	matchID := s.matchID
	assist := assistID
	s.persist("goal events", func(ctx context.Context) error {
		if err := s.eventRepo.Create(ctx, &models.MatchEvent{
			MatchID: matchID, PlayerID: scorerID, EventType: models.EventGoal,
		}); err != nil {
			return err
		}
		if assist != nil && *assist != "" {
			if err := s.eventRepo.Create(ctx, &models.MatchEvent{
				MatchID: matchID, PlayerID: *assist, EventType: models.EventAssist,
			}); err != nil {
				return err
			}
		}
		return s.matchRepo.UpdateScore(ctx, matchID, res.ScoreRed, res.ScoreBlue)
	})

	snap := s.snapshotLocked()
	if res.Ended {
		s.broadcast("MATCH_ENDED", snap)
	} else {
		s.broadcast("MATCH_STATE", snap)
	}
	return snap, nil
}

func (s *sessionService) Card(playerID string, card matchplay.CardType) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.State() == nil {
		return s.snapshotLocked(), ErrNoActiveMatch
	}

	res := s.engine.Card(playerID, card)
	if !res.Applied {
		return s.snapshotLocked(), nil
	}

	eventType := models.EventYellowCard
	if card == matchplay.CardRed {
		eventType = models.EventRedCard
	}
	matchID := s.matchID
	s.persist("card event", func(ctx context.Context) error {
		return s.eventRepo.Create(ctx, &models.MatchEvent{
			MatchID: matchID, PlayerID: playerID, EventType: eventType,
		})
	})

	snap := s.snapshotLocked()
	s.broadcast("MATCH_STATE", snap)
	return snap, nil
}

func (s *sessionService) Substitute(ctx context.Context, outgoingID, incomingID string) (SessionSnapshot, error) {
	incoming, err := s.playerRepo.GetByID(ctx, incomingID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			// Unknown incoming player: user-recoverable, not exceptional.
			s.logger.Warn("substitution for unknown player", slog.String("player_id", incomingID))
			return s.Snapshot(), nil
		}
		return SessionSnapshot{}, fmt.Errorf("failed to load player: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.State()
	if state == nil {
		return s.snapshotLocked(), ErrNoActiveMatch
	}

	if !s.engine.Substitute(outgoingID, *incoming) {
		return s.snapshotLocked(), nil
	}

	matchID := s.matchID
	red := playerIDs(state.Red.Players)
	blue := playerIDs(state.Blue.Players)
	queue := playerIDs(matchplay.FlattenSquads(state.Queue))
	s.persist("substitution", func(ctx context.Context) error {
		return s.matchRepo.UpdateRosters(ctx, matchID, red, blue, queue)
	})

	snap := s.snapshotLocked()
	s.broadcast("MATCH_STATE", snap)
	return snap, nil
}

func (s *sessionService) DeleteEvent(eventID, playerID string, eventType models.EventType) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.State()
	if state == nil {
		return s.snapshotLocked(), ErrNoActiveMatch
	}

	s.engine.DeleteEvent(playerID, eventType)

	matchID := s.matchID
	scoreRed, scoreBlue := state.ScoreRed, state.ScoreBlue
	wasGoal := eventType == models.EventGoal
	s.persist("event deletion", func(ctx context.Context) error {
		if err := s.eventRepo.Delete(ctx, eventID); err != nil {
			return err
		}
		if wasGoal {
			return s.matchRepo.UpdateScore(ctx, matchID, scoreRed, scoreBlue)
		}
		return nil
	})

	snap := s.snapshotLocked()
	s.broadcast("MATCH_STATE", snap)
	return snap, nil
}

func (s *sessionService) EndManually() (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.State()
	if state == nil {
		return s.snapshotLocked(), ErrNoActiveMatch
	}
	s.engine.EndManually()

	// The clock stopped, mirror the remaining time like any other stop.
	matchID, timer := s.matchID, state.Timer
	s.persist("timer", func(ctx context.Context) error {
		return s.matchRepo.UpdateTimer(ctx, matchID, timer)
	})

	snap := s.snapshotLocked()
	s.broadcast("MATCH_ENDED", snap)
	return snap, nil
}

// EndMatch records the result durably, rotates squads and returns to the
// draft phase with the next lineup.
func (s *sessionService) EndMatch(ctx context.Context, winner models.TeamColor) (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.State()
	if state == nil {
		return s.snapshotLocked(), ErrNoActiveMatch
	}

	if err := s.matchRepo.Finish(ctx, s.matchID, winner, state.ScoreRed, state.ScoreBlue); err != nil {
		return s.snapshotLocked(), fmt.Errorf("failed to finish match: %w", err)
	}

	if _, err := s.engine.EndMatch(winner); err != nil {
		if errors.Is(err, matchplay.ErrInvalidWinner) {
			return s.snapshotLocked(), ErrInvalidWinner
		}
		return s.snapshotLocked(), err
	}
	s.matchID = ""

	s.saveBackupLocked()
	snap := s.snapshotLocked()
	s.broadcast("DRAFT_UPDATED", snap)
	return snap, nil
}

// FinishDay ends the whole session: the running match is closed with
// whatever the score says (draws allowed), the lobby and backups are
// cleared, and the engine returns to the empty lobby.
func (s *sessionService) FinishDay(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.State()
	if state != nil && s.matchID != "" {
		winner := models.ColorDraw
		if state.ScoreRed > state.ScoreBlue {
			winner = models.ColorRed
		} else if state.ScoreBlue > state.ScoreRed {
			winner = models.ColorBlue
		}
		if err := s.matchRepo.Finish(ctx, s.matchID, winner, state.ScoreRed, state.ScoreBlue); err != nil {
			return fmt.Errorf("failed to finish match: %w", err)
		}
	}

	if err := s.lobby.ReplaceOrder(ctx, nil); err != nil {
		return err
	}

	s.backups.Clear()
	s.engine.FinishDay()
	s.matchID = ""

	s.broadcast("SESSION_CLOSED", s.snapshotLocked())
	return nil
}

func (s *sessionService) ReorderMatchQueue(playerID string, direction matchplay.MoveDirection) SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.engine.ReorderMatchQueue(playerID, direction)
	if queue != nil {
		s.persistQueueLocked(queue)
	}
	snap := s.snapshotLocked()
	s.broadcast("MATCH_STATE", snap)
	return snap
}

func (s *sessionService) MoveInMatchQueue(sourceID, targetID string) SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.engine.MoveInMatchQueue(sourceID, targetID)
	if queue != nil {
		s.persistQueueLocked(queue)
	}
	snap := s.snapshotLocked()
	s.broadcast("MATCH_STATE", snap)
	return snap
}

// AddLatePlayers appends late arrivals to the check-in order and, when a
// match is running, to its waiting queue.
func (s *sessionService) AddLatePlayers(ctx context.Context, playerIDs []string) (SessionSnapshot, error) {
	players := make([]models.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		p, err := s.playerRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				s.logger.Warn("late add for unknown player", slog.String("player_id", id))
				continue
			}
			return SessionSnapshot{}, fmt.Errorf("failed to load player: %w", err)
		}
		players = append(players, *p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if queue := s.engine.AddLatePlayers(players); queue != nil {
		s.persistQueueLocked(queue)
	}

	order := s.engine.ArrivalOrder()
	s.persist("lobby order", func(ctx context.Context) error {
		return s.lobby.ReplaceOrder(ctx, order)
	})

	snap := s.snapshotLocked()
	s.broadcast("MATCH_STATE", snap)
	return snap, nil
}

func (s *sessionService) persistQueueLocked(queue []models.Player) {
	if s.matchID == "" {
		return
	}
	matchID := s.matchID
	ids := playerIDs(queue)
	s.persist("queue", func(ctx context.Context) error {
		return s.matchRepo.UpdateQueue(ctx, matchID, ids)
	})
}

func (s *sessionService) saveBackupLocked() {
	// The store marshals after its debounce window, outside this lock, so it
	// gets its own copy of the draft.
	if draft := s.engine.Draft(); draft != nil {
		s.backups.Save(draft.Clone(), s.engine.ArrivalOrder())
	}
}

// persist runs a storage mirror write in the background. The in-memory state
// is authoritative for the session; failures are logged and abandoned, never
// rolled back into the state machine.
func (s *sessionService) persist(what string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("persistence failed",
				slog.String("operation", what),
				slog.Any("error", err))
		}
	}()
}

func (s *sessionService) broadcast(messageType string, snap SessionSnapshot) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(LiveRoom, matchplay.LiveMessage{
		Type:    messageType,
		Payload: snap,
		RoomID:  LiveRoom,
	})
}

func playerIDs(players []models.Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}
