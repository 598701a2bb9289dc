package matchplay

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gabnunesdev/futmais-app/models"
)

type Phase string

const (
	PhaseLobby        Phase = "LOBBY"
	PhaseDraft        Phase = "DRAFT"
	PhaseMatchRunning Phase = "MATCH_RUNNING"
	PhaseMatchPaused  Phase = "MATCH_PAUSED"
	PhaseMatchEnded   Phase = "MATCH_ENDED"
)

type EndReason string

const (
	EndReasonGoalLimit EndReason = "GOAL_LIMIT"
	EndReasonTimeLimit EndReason = "TIME_LIMIT"
	EndReasonPenalties EndReason = "PENALTIES"
	EndReasonManual    EndReason = "MANUAL"
)

type CardType string

const (
	CardYellow CardType = "YELLOW"
	CardRed    CardType = "RED"
)

// PlayerTally is the per-player event bookkeeping for the current match only.
type PlayerTally struct {
	Goals       int `json:"goals"`
	Assists     int `json:"assists"`
	YellowCards int `json:"yellow_cards"`
	RedCards    int `json:"red_cards"`
}

// State is the live match aggregate. It is owned by the Engine and mutated in
// place for the duration of one match; a rotation discards it.
type State struct {
	Red   Squad   `json:"red"`
	Blue  Squad   `json:"blue"`
	Queue []Squad `json:"queue"`

	ScoreRed  int  `json:"score_red"`
	ScoreBlue int  `json:"score_blue"`
	Timer     int  `json:"timer"`
	IsRunning bool `json:"is_running"`

	Tallies map[string]PlayerTally `json:"tallies"`

	// Suspensions maps player id to remaining sin-bin seconds. The
	// disciplinary clock runs on wall time, independent of the match clock.
	Suspensions map[string]int `json:"suspensions"`

	EndReason EndReason `json:"end_reason,omitempty"`
}

// Clone returns a deep copy that can be read, marshaled or stored without
// holding the lock that guards the live aggregate.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Red = s.Red.clone()
	out.Blue = s.Blue.clone()
	out.Queue = make([]Squad, len(s.Queue))
	for i, squad := range s.Queue {
		out.Queue[i] = squad.clone()
	}
	out.Tallies = make(map[string]PlayerTally, len(s.Tallies))
	for id, tally := range s.Tallies {
		out.Tallies[id] = tally
	}
	out.Suspensions = make(map[string]int, len(s.Suspensions))
	for id, remaining := range s.Suspensions {
		out.Suspensions[id] = remaining
	}
	return &out
}

// Config carries the tunables of a night. Zero values fall back to the club
// defaults via Normalize.
type Config struct {
	TeamSize          int
	GoalLimit         int
	DurationSeconds   int
	SuspensionSeconds int
}

func (c *Config) Normalize() {
	if c.TeamSize <= 0 {
		c.TeamSize = DefaultTeamSize
	}
	if c.GoalLimit <= 0 {
		c.GoalLimit = 2
	}
	if c.DurationSeconds <= 0 {
		c.DurationSeconds = 600
	}
	if c.SuspensionSeconds <= 0 {
		c.SuspensionSeconds = 120
	}
}

var (
	ErrNoDraft       = errors.New("no draft in progress")
	ErrNoActiveMatch = errors.New("no active match")
	ErrInvalidWinner = errors.New("winner must be RED or BLUE")
)

// Engine owns the single live match of a session and applies every state
// transition. It is not safe for concurrent use; the session service
// serializes all calls.
type Engine struct {
	cfg Config
	log *slog.Logger
	rng *rand.Rand

	arrival []string
	draft   *Lineup
	state   *State
}

func NewEngine(cfg Config, log *slog.Logger) *Engine {
	cfg.Normalize()
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg: cfg,
		log: log,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (e *Engine) Config() Config { return e.cfg }

// Phase reports the current position in the session state machine. Running
// and paused are the same aggregate distinguished by the running flag.
func (e *Engine) Phase() Phase {
	switch {
	case e.state == nil && e.draft == nil:
		return PhaseLobby
	case e.state == nil:
		return PhaseDraft
	case e.state.EndReason != "":
		return PhaseMatchEnded
	case e.state.IsRunning:
		return PhaseMatchRunning
	default:
		return PhaseMatchPaused
	}
}

// State exposes the live aggregate for reading and persistence snapshots.
// Callers must not mutate it.
func (e *Engine) State() *State { return e.state }

func (e *Engine) Draft() *Lineup { return e.draft }

// ArrivalOrder returns a copy of the original check-in sequence. It is only
// consulted for rotation tie-breaking and is never reordered by match events.
func (e *Engine) ArrivalOrder() []string {
	return append([]string(nil), e.arrival...)
}

func (e *Engine) SetArrivalOrder(ids []string) {
	e.arrival = append([]string(nil), ids...)
}

// EnterDraft moves LOBBY -> DRAFT with a snake-draft lineup over the
// checked-in list. The check-in order becomes the arrival order of the night.
func (e *Engine) EnterDraft(checkedIn []models.Player) error {
	lineup, err := GenerateLineup(checkedIn, e.cfg.TeamSize)
	if err != nil {
		return err
	}

	ids := make([]string, len(checkedIn))
	for i, p := range checkedIn {
		ids[i] = p.ID
	}
	e.arrival = ids
	e.draft = lineup
	return nil
}

// Shuffle re-draws the current draft with the randomized greedy split.
func (e *Engine) Shuffle(roster []models.Player) error {
	if e.draft == nil {
		return ErrNoDraft
	}
	e.draft = ShuffleLineup(roster, e.arrival, e.cfg.TeamSize, e.rng)
	return nil
}

// SetDraft replaces the draft wholesale (rotation output, backup recovery).
func (e *Engine) SetDraft(lineup *Lineup) {
	e.draft = lineup
	e.state = nil
}

type DraftSlot string

const (
	SlotRed   DraftSlot = "red"
	SlotBlue  DraftSlot = "blue"
	SlotQueue DraftSlot = "queue"
)

// MoveDraftPlayer moves a player between the draft squads and queue. Unknown
// ids or slots are ignored; manual adjustments are user-recoverable.
func (e *Engine) MoveDraftPlayer(playerID string, from, to DraftSlot) {
	if e.draft == nil || from == to {
		return
	}
	src := e.draftSlot(from)
	dst := e.draftSlot(to)
	if src == nil || dst == nil {
		return
	}
	idx := indexOf(*src, playerID)
	if idx == -1 {
		e.log.Warn("draft move for unknown player", slog.String("player_id", playerID), slog.String("from", string(from)))
		return
	}
	p := (*src)[idx]
	*src = append((*src)[:idx], (*src)[idx+1:]...)
	*dst = append(*dst, p)
}

func (e *Engine) draftSlot(s DraftSlot) *[]models.Player {
	switch s {
	case SlotRed:
		return &e.draft.Red
	case SlotBlue:
		return &e.draft.Blue
	case SlotQueue:
		return &e.draft.Queue
	default:
		return nil
	}
}

func (e *Engine) ReorderDraftQueue(playerID string, direction MoveDirection) {
	if e.draft == nil {
		return
	}
	e.draft.Queue = ReorderQueue(e.draft.Queue, playerID, direction)
}

func (e *Engine) RemoveFromDraftQueue(playerID string) {
	if e.draft == nil {
		return
	}
	idx := indexOf(e.draft.Queue, playerID)
	if idx == -1 {
		return
	}
	e.draft.Queue = append(e.draft.Queue[:idx], e.draft.Queue[idx+1:]...)
}

// StartMatch snapshots the confirmed draft into a fresh match state: 0-0,
// full clock, paused. DRAFT -> MATCH.
func (e *Engine) StartMatch() (*State, error) {
	if e.draft == nil {
		return nil, ErrNoDraft
	}

	e.state = &State{
		Red:         Squad{Name: "Time Vermelho", Players: append([]models.Player(nil), e.draft.Red...)},
		Blue:        Squad{Name: "Time Azul", Players: append([]models.Player(nil), e.draft.Blue...)},
		Queue:       BuildQueueSquads(e.draft.Queue, e.cfg.TeamSize),
		Timer:       e.cfg.DurationSeconds,
		Tallies:     make(map[string]PlayerTally),
		Suspensions: make(map[string]int),
	}
	e.draft = nil
	return e.state, nil
}

// ResumeMatch rebuilds the live aggregate from persisted data after a reload.
// The timer comes in already reconstructed from elapsed wall-clock time.
func (e *Engine) ResumeMatch(red, blue, queue []models.Player, scoreRed, scoreBlue, timer int, running bool, tallies map[string]PlayerTally) *State {
	if tallies == nil {
		tallies = make(map[string]PlayerTally)
	}
	e.draft = nil
	e.state = &State{
		Red:         Squad{Name: "Time Vermelho", Players: red},
		Blue:        Squad{Name: "Time Azul", Players: blue},
		Queue:       BuildQueueSquads(queue, e.cfg.TeamSize),
		ScoreRed:    scoreRed,
		ScoreBlue:   scoreBlue,
		Timer:       timer,
		IsRunning:   running,
		Tallies:     tallies,
		Suspensions: make(map[string]int),
	}
	return e.state
}

// SetRunning toggles MATCH_RUNNING <-> MATCH_PAUSED. Ignored once the match
// has an end reason.
func (e *Engine) SetRunning(running bool) {
	if e.state == nil || e.state.EndReason != "" {
		return
	}
	e.state.IsRunning = running
}

type GoalResult struct {
	Accepted  bool
	ScoreRed  int
	ScoreBlue int
	Ended     bool
	Reason    EndReason
}

// Goal registers a goal for the given side, crediting the scorer and the
// optional assister. Reaching the goal limit ends the match atomically with
// the score update; later goals against a finished match are rejected.
func (e *Engine) Goal(scorerID string, assistID *string, side models.TeamColor) GoalResult {
	if e.state == nil || e.state.EndReason != "" {
		return GoalResult{}
	}
	if !e.onPitch(scorerID) {
		e.log.Warn("goal for player not on the pitch", slog.String("player_id", scorerID))
		return GoalResult{}
	}

	switch side {
	case models.ColorRed:
		e.state.ScoreRed++
	case models.ColorBlue:
		e.state.ScoreBlue++
	default:
		return GoalResult{}
	}

	t := e.state.Tallies[scorerID]
	t.Goals++
	e.state.Tallies[scorerID] = t
	if assistID != nil && *assistID != "" {
		a := e.state.Tallies[*assistID]
		a.Assists++
		e.state.Tallies[*assistID] = a
	}

	res := GoalResult{Accepted: true, ScoreRed: e.state.ScoreRed, ScoreBlue: e.state.ScoreBlue}
	if e.state.ScoreRed >= e.cfg.GoalLimit || e.state.ScoreBlue >= e.cfg.GoalLimit {
		e.state.EndReason = EndReasonGoalLimit
		e.state.IsRunning = false
		res.Ended = true
		res.Reason = EndReasonGoalLimit
	}
	return res
}

type CardResult struct {
	Applied        bool
	ConvertedToRed bool
	Suspended      bool
}

// Card books a player. A second yellow in the same match converts atomically
// to a red and zeroes the yellow count, so the outstanding yellow tally is
// always 0 or 1. Reds put the player in the sin bin.
func (e *Engine) Card(playerID string, card CardType) CardResult {
	if e.state == nil {
		return CardResult{}
	}
	if !e.onPitch(playerID) {
		e.log.Warn("card for player not on the pitch", slog.String("player_id", playerID))
		return CardResult{}
	}

	t := e.state.Tallies[playerID]
	res := CardResult{Applied: true}

	switch card {
	case CardYellow:
		t.YellowCards++
		if t.YellowCards >= 2 {
			t.YellowCards = 0
			t.RedCards++
			e.state.Suspensions[playerID] = e.cfg.SuspensionSeconds
			res.ConvertedToRed = true
			res.Suspended = true
		}
	case CardRed:
		t.RedCards++
		e.state.Suspensions[playerID] = e.cfg.SuspensionSeconds
		res.Suspended = true
	default:
		return CardResult{}
	}

	e.state.Tallies[playerID] = t
	return res
}

// Substitute swaps the incoming player onto whichever squad holds the
// outgoing one and appends the outgoing player to the end of the queue.
// Unmet preconditions (outgoing not on a squad, incoming already playing)
// are silent no-ops: the triggering UI action is user-recoverable.
func (e *Engine) Substitute(outgoingID string, incoming models.Player) bool {
	if e.state == nil {
		return false
	}
	if e.onPitch(incoming.ID) {
		return false
	}

	side := e.squadOf(outgoingID)
	if side == nil {
		return false
	}

	queue := FlattenSquads(e.state.Queue)
	if idx := indexOf(queue, incoming.ID); idx != -1 {
		queue = append(queue[:idx], queue[idx+1:]...)
	}

	idx := indexOf(side.Players, outgoingID)
	outgoing := side.Players[idx]
	side.Players[idx] = incoming
	queue = append(queue, outgoing)

	e.state.Queue = BuildQueueSquads(queue, e.cfg.TeamSize)
	return true
}

// DeleteEvent is the correction path: tallies are decremented floored at
// zero, and a deleted goal takes one off the score of whichever squad holds
// the player now, not the squad they scored for.
func (e *Engine) DeleteEvent(playerID string, eventType models.EventType) {
	if e.state == nil {
		return
	}

	t := e.state.Tallies[playerID]
	switch eventType {
	case models.EventGoal:
		t.Goals = floorDec(t.Goals)
		if indexOf(e.state.Red.Players, playerID) != -1 {
			e.state.ScoreRed = floorDec(e.state.ScoreRed)
		} else if indexOf(e.state.Blue.Players, playerID) != -1 {
			e.state.ScoreBlue = floorDec(e.state.ScoreBlue)
		}
	case models.EventAssist:
		t.Assists = floorDec(t.Assists)
	case models.EventYellowCard:
		t.YellowCards = floorDec(t.YellowCards)
	case models.EventRedCard:
		t.RedCards = floorDec(t.RedCards)
	}
	e.state.Tallies[playerID] = t
}

type TickResult struct {
	Ticked bool
	Timer  int
	Ended  bool
	Reason EndReason
}

// Tick advances the countdown by one second while the clock runs. At zero the
// ending reason is evaluated: a tie with fewer than 2*teamSize waiting means
// there is no fresh challenger squad ready, so the operators must settle it
// on penalties; otherwise plain time expiry.
func (e *Engine) Tick() TickResult {
	if e.state == nil || !e.state.IsRunning || e.state.EndReason != "" {
		return TickResult{}
	}

	e.state.Timer--
	if e.state.Timer > 0 {
		return TickResult{Ticked: true, Timer: e.state.Timer}
	}

	e.state.Timer = 0
	e.state.IsRunning = false

	reason := EndReasonTimeLimit
	tied := e.state.ScoreRed == e.state.ScoreBlue
	waiting := len(FlattenSquads(e.state.Queue))
	if tied && waiting < e.cfg.TeamSize*2 {
		reason = EndReasonPenalties
	}
	e.state.EndReason = reason
	return TickResult{Ticked: true, Timer: 0, Ended: true, Reason: reason}
}

// TickSuspensions advances every sin-bin clock by one second. It runs on the
// wall-clock ticker regardless of whether the match timer runs.
func (e *Engine) TickSuspensions() {
	if e.state == nil {
		return
	}
	for id, remaining := range e.state.Suspensions {
		remaining--
		if remaining <= 0 {
			delete(e.state.Suspensions, id)
			continue
		}
		e.state.Suspensions[id] = remaining
	}
}

// EndMatch marks the match over (manual end when the clock had not decided
// it) and rotates squads for the next draft: MATCH_ENDED -> DRAFT. Tallies,
// suspensions and the end reason do not carry over.
func (e *Engine) EndMatch(winner models.TeamColor) (*Lineup, error) {
	if e.state == nil {
		return nil, ErrNoActiveMatch
	}
	if winner != models.ColorRed && winner != models.ColorBlue {
		return nil, ErrInvalidWinner
	}

	winning := e.state.Red.Players
	losing := e.state.Blue.Players
	if winner == models.ColorBlue {
		winning, losing = losing, winning
	}

	red, blue, queue := Rotate(winner, winning, losing, FlattenSquads(e.state.Queue), e.arrival, e.cfg.TeamSize)

	e.state = nil
	e.draft = &Lineup{Red: red, Blue: blue, Queue: queue}
	return e.draft, nil
}

// EndManually stamps the manual end reason and stops the clock without
// rotating yet; the operator confirms the winner afterwards.
func (e *Engine) EndManually() {
	if e.state == nil || e.state.EndReason != "" {
		return
	}
	e.state.EndReason = EndReasonManual
	e.state.IsRunning = false
}

// FinishDay exits to the empty lobby, dropping all session state.
func (e *Engine) FinishDay() {
	e.state = nil
	e.draft = nil
	e.arrival = nil
}

// Match queue management while a match runs.

func (e *Engine) ReorderMatchQueue(playerID string, direction MoveDirection) []models.Player {
	if e.state == nil {
		return nil
	}
	queue := ReorderQueue(FlattenSquads(e.state.Queue), playerID, direction)
	e.state.Queue = BuildQueueSquads(queue, e.cfg.TeamSize)
	return queue
}

func (e *Engine) MoveInMatchQueue(sourceID, targetID string) []models.Player {
	if e.state == nil {
		return nil
	}
	queue := MovePlayerInQueue(FlattenSquads(e.state.Queue), sourceID, targetID)
	e.state.Queue = BuildQueueSquads(queue, e.cfg.TeamSize)
	return queue
}

// AddLatePlayers appends late arrivals to the waiting queue and to the
// arrival order, skipping anyone already present somewhere.
func (e *Engine) AddLatePlayers(players []models.Player) []models.Player {
	if e.state == nil {
		return nil
	}
	queue := FlattenSquads(e.state.Queue)
	for _, p := range players {
		if e.onPitch(p.ID) || indexOf(queue, p.ID) != -1 {
			continue
		}
		queue = append(queue, p)
		e.arrival = append(e.arrival, p.ID)
	}
	e.state.Queue = BuildQueueSquads(queue, e.cfg.TeamSize)
	return queue
}

func (e *Engine) onPitch(playerID string) bool {
	return e.squadOf(playerID) != nil
}

func (e *Engine) squadOf(playerID string) *Squad {
	if e.state == nil {
		return nil
	}
	if indexOf(e.state.Red.Players, playerID) != -1 {
		return &e.state.Red
	}
	if indexOf(e.state.Blue.Players, playerID) != -1 {
		return &e.state.Blue
	}
	return nil
}

func floorDec(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}

// RemainingTimer reconstructs a countdown from its last persisted value and
// the wall-clock time elapsed since. The in-memory timer is never trusted
// across a reload; elapsed time is.
func RemainingTimer(durationSeconds int, lastActiveAt *time.Time, now time.Time) int {
	remaining := durationSeconds
	if remaining <= 0 {
		remaining = 600
	}
	if lastActiveAt != nil {
		passed := int(now.Sub(*lastActiveAt).Seconds())
		if passed > 0 {
			remaining -= passed
		}
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}
