package matchplay

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/gabnunesdev/futmais-app/models"
)

// DefaultTeamSize is the full squad size. Configurable per deployment, six a
// side is the club default.
const DefaultTeamSize = 6

// Lineup is a draft proposal: two full squads plus the flat overflow queue in
// playing order.
type Lineup struct {
	Red   []models.Player `json:"red"`
	Blue  []models.Player `json:"blue"`
	Queue []models.Player `json:"queue"`
}

// Clone returns a deep copy detached from the live draft.
func (l *Lineup) Clone() *Lineup {
	if l == nil {
		return nil
	}
	return &Lineup{
		Red:   append([]models.Player(nil), l.Red...),
		Blue:  append([]models.Player(nil), l.Blue...),
		Queue: append([]models.Player(nil), l.Queue...),
	}
}

// Squad is a named roster. Queue squads are nominally teamSize long, the last
// one may be partial while it waits to fill up.
type Squad struct {
	Name    string          `json:"name"`
	Players []models.Player `json:"players"`
}

func (s Squad) clone() Squad {
	return Squad{Name: s.Name, Players: append([]models.Player(nil), s.Players...)}
}

// InsufficientPlayersError is returned when a draft is requested before enough
// participants have checked in. It is the only domain error the balancer
// produces; every other operation is total over its inputs.
type InsufficientPlayersError struct {
	Required int
	Got      int
}

func (e *InsufficientPlayersError) Error() string {
	return fmt.Sprintf("need at least %d checked-in players to start, got %d", e.Required, e.Got)
}

// GenerateLineup splits the checked-in list into two balanced squads and the
// overflow queue. The first 2*teamSize arrivals form the opening match pool;
// later arrivals keep their check-in order in the queue.
//
// The pool is sorted by stars descending and distributed with a snake draft
// (1-2-2-1): even pair-groups assign straight, odd pair-groups reversed, so
// neither side monotonically collects the top-rated players. Deterministic:
// identical input order and ratings always produce the same split.
func GenerateLineup(checkedIn []models.Player, teamSize int) (*Lineup, error) {
	required := teamSize * 2
	if len(checkedIn) < required {
		return nil, &InsufficientPlayersError{Required: required, Got: len(checkedIn)}
	}

	pool := make([]models.Player, required)
	copy(pool, checkedIn[:required])
	queue := append([]models.Player(nil), checkedIn[required:]...)

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Stars > pool[j].Stars
	})

	red := make([]models.Player, 0, teamSize)
	blue := make([]models.Player, 0, teamSize)
	for i, p := range pool {
		straight := (i/2)%2 == 0
		first := i%2 == 0
		if straight == first {
			red = append(red, p)
		} else {
			blue = append(blue, p)
		}
	}

	return &Lineup{Red: red, Blue: blue, Queue: queue}, nil
}

// ShuffleLineup is the re-draw action. The first 2*teamSize ids of the
// check-in order form the pool; the tail keeps its relative order in the
// queue. The pool gets one Fisher-Yates pass (breaks ties between equally
// rated players across repeated shuffles), is sorted by stars descending, then
// each player goes to whichever squad has the lower running star sum, ties to
// red, both squads hard-capped at teamSize. One linear pass is enough at this
// scale; exact partitioning would buy nothing on a 1-5 star range.
func ShuffleLineup(roster []models.Player, checkinOrder []string, teamSize int, rng *rand.Rand) *Lineup {
	maxPool := teamSize * 2
	mainIDs := checkinOrder
	var queueIDs []string
	if len(checkinOrder) > maxPool {
		mainIDs = checkinOrder[:maxPool]
		queueIDs = checkinOrder[maxPool:]
	}

	pool := resolvePlayers(roster, mainIDs)
	queue := resolvePlayers(roster, queueIDs)

	for i := len(pool) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return starsOrDefault(pool[i]) > starsOrDefault(pool[j])
	})

	red := make([]models.Player, 0, teamSize)
	blue := make([]models.Player, 0, teamSize)
	sumRed, sumBlue := 0, 0
	for _, p := range pool {
		stars := starsOrDefault(p)
		switch {
		case len(red) >= teamSize:
			blue = append(blue, p)
			sumBlue += stars
		case len(blue) >= teamSize:
			red = append(red, p)
			sumRed += stars
		case sumRed <= sumBlue:
			red = append(red, p)
			sumRed += stars
		default:
			blue = append(blue, p)
			sumBlue += stars
		}
	}

	return &Lineup{Red: red, Blue: blue, Queue: queue}
}

// Rotate computes the next match after a result: winner stays on, the
// challenger squad fills from the waiting queue in order. A short queue is
// topped up from the losing squad, earliest original arrivals first (ids
// missing from the arrival order sort last, stable among themselves).
// Everyone not picked becomes the new queue, queue order before losers order.
// Pure and deterministic; no participant is created or lost.
func Rotate(winner models.TeamColor, winning, losing, waiting []models.Player, arrivalOrder []string, teamSize int) (red, blue, queue []models.Player) {
	var challenger []models.Player

	if len(waiting) >= teamSize {
		challenger = append(challenger, waiting[:teamSize]...)
		queue = append(queue, waiting[teamSize:]...)
		queue = append(queue, losing...)
	} else {
		needed := teamSize - len(waiting)
		losers := sortByArrival(losing, arrivalOrder)
		if needed > len(losers) {
			needed = len(losers)
		}
		challenger = append(challenger, waiting...)
		challenger = append(challenger, losers[:needed]...)
		queue = append(queue, losers[needed:]...)
	}

	if winner == models.ColorRed {
		return winning, challenger, queue
	}
	return challenger, winning, queue
}

// BuildQueueSquads chunks a flat queue into consecutive squads of teamSize.
// Naming continues from the two active squads: Time 3, Time 4, ...
func BuildQueueSquads(players []models.Player, teamSize int) []Squad {
	squads := make([]Squad, 0, (len(players)+teamSize-1)/teamSize)
	for i := 0; i < len(players); i += teamSize {
		end := i + teamSize
		if end > len(players) {
			end = len(players)
		}
		squads = append(squads, Squad{
			Name:    fmt.Sprintf("Time %d", 3+len(squads)),
			Players: append([]models.Player(nil), players[i:end]...),
		})
	}
	return squads
}

// FlattenSquads is the inverse of BuildQueueSquads.
func FlattenSquads(squads []Squad) []models.Player {
	var out []models.Player
	for _, s := range squads {
		out = append(out, s.Players...)
	}
	return out
}

type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)

// ReorderQueue moves a player one slot up or down. Unknown ids and moves past
// either end return the queue unchanged.
func ReorderQueue(queue []models.Player, playerID string, direction MoveDirection) []models.Player {
	idx := indexOf(queue, playerID)
	if idx == -1 {
		return queue
	}

	out := append([]models.Player(nil), queue...)
	switch {
	case direction == MoveUp && idx > 0:
		out[idx-1], out[idx] = out[idx], out[idx-1]
	case direction == MoveDown && idx < len(out)-1:
		out[idx+1], out[idx] = out[idx], out[idx+1]
	}
	return out
}

// MovePlayerInQueue removes the source player and reinserts them at the target
// player's position (drag-and-drop reorder). No-op when either id is unknown.
func MovePlayerInQueue(queue []models.Player, sourceID, targetID string) []models.Player {
	srcIdx := indexOf(queue, sourceID)
	tgtIdx := indexOf(queue, targetID)
	if srcIdx == -1 || tgtIdx == -1 {
		return queue
	}

	out := append([]models.Player(nil), queue...)
	moved := out[srcIdx]
	out = append(out[:srcIdx], out[srcIdx+1:]...)
	if tgtIdx > len(out) {
		tgtIdx = len(out)
	}
	out = append(out[:tgtIdx], append([]models.Player{moved}, out[tgtIdx:]...)...)
	return out
}

func resolvePlayers(roster []models.Player, ids []string) []models.Player {
	byID := make(map[string]models.Player, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}
	out := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func sortByArrival(players []models.Player, arrivalOrder []string) []models.Player {
	pos := make(map[string]int, len(arrivalOrder))
	for i, id := range arrivalOrder {
		pos[id] = i
	}
	out := append([]models.Player(nil), players...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, iOK := pos[out[i].ID]
		pj, jOK := pos[out[j].ID]
		if !iOK {
			return false
		}
		if !jOK {
			return true
		}
		return pi < pj
	})
	return out
}

func indexOf(players []models.Player, id string) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func starsOrDefault(p models.Player) int {
	if p.Stars <= 0 {
		return 3
	}
	return p.Stars
}
