package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gabnunesdev/futmais-app/models"
	"github.com/gabnunesdev/futmais-app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fakes record mutations under a lock: the session service persists from
// background goroutines.

type fakeEventRepo struct {
	mu     sync.Mutex
	events []models.MatchEvent
}

func (f *fakeEventRepo) Create(ctx context.Context, event *models.MatchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, ev := range f.events {
		if ev.ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeEventRepo) ListByMatch(ctx context.Context, matchID string) ([]models.MatchEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MatchEvent
	for _, ev := range f.events {
		if ev.MatchID == matchID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListBetween(ctx context.Context, from, to time.Time) ([]models.MatchEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MatchEvent
	for _, ev := range f.events {
		if !ev.CreatedAt.Before(from) && !ev.CreatedAt.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeMatchRepo struct {
	mu       sync.Mutex
	active   *models.Match
	finished []*models.Match
	created  []*models.Match
	timers   []int
}

func (f *fakeMatchRepo) timerWrites() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.timers...)
}

func (f *fakeMatchRepo) Create(ctx context.Context, match *models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if match.ID == "" {
		match.ID = fmt.Sprintf("m%d", len(f.created)+1)
	}
	f.created = append(f.created, match)
	return nil
}

func (f *fakeMatchRepo) GetActive(ctx context.Context) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return nil, repositories.ErrMatchNotFound
	}
	return f.active, nil
}

func (f *fakeMatchRepo) UpdateScore(ctx context.Context, id string, scoreRed, scoreBlue int) error {
	return nil
}
func (f *fakeMatchRepo) UpdateTimer(ctx context.Context, id string, durationSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timers = append(f.timers, durationSeconds)
	return nil
}
func (f *fakeMatchRepo) UpdateQueue(ctx context.Context, id string, queueIDs []string) error {
	return nil
}
func (f *fakeMatchRepo) UpdateRosters(ctx context.Context, id string, redIDs, blueIDs, queueIDs []string) error {
	return nil
}

func (f *fakeMatchRepo) Finish(ctx context.Context, id string, winner models.TeamColor, scoreRed, scoreBlue int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, &models.Match{
		ID:          id,
		ScoreRed:    scoreRed,
		ScoreBlue:   scoreBlue,
		WinnerColor: &winner,
		Status:      models.MatchStatusFinished,
	})
	f.active = nil
	return nil
}

func (f *fakeMatchRepo) FinishStale(ctx context.Context, inactiveFor time.Duration) (int64, error) {
	return 0, nil
}

func (f *fakeMatchRepo) ListFinished(ctx context.Context, limit int) ([]*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.finished) {
		limit = len(f.finished)
	}
	return f.finished[:limit], nil
}

type fakePlayerRepo struct {
	players []models.Player
}

func (f *fakePlayerRepo) Create(ctx context.Context, player *models.Player) error { return nil }
func (f *fakePlayerRepo) GetByID(ctx context.Context, id string) (*models.Player, error) {
	for _, p := range f.players {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}
func (f *fakePlayerRepo) ListAll(ctx context.Context) ([]models.Player, error) {
	return f.players, nil
}
func (f *fakePlayerRepo) UpdateStars(ctx context.Context, id string, stars int) error { return nil }
func (f *fakePlayerRepo) UpdateAvatarKey(ctx context.Context, id string, avatarKey *string) error {
	return nil
}
func (f *fakePlayerRepo) SetActive(ctx context.Context, id string, active bool) error { return nil }
func (f *fakePlayerRepo) Delete(ctx context.Context, id string) error                 { return nil }

func TestGetRankingAggregatesAndSorts(t *testing.T) {
	now := time.Now()
	events := &fakeEventRepo{events: []models.MatchEvent{
		{PlayerID: "a", EventType: models.EventGoal, CreatedAt: now},
		{PlayerID: "a", EventType: models.EventGoal, CreatedAt: now},
		{PlayerID: "b", EventType: models.EventGoal, CreatedAt: now},
		{PlayerID: "b", EventType: models.EventAssist, CreatedAt: now},
		{PlayerID: "c", EventType: models.EventGoal, CreatedAt: now},
		{PlayerID: "a", EventType: models.EventYellowCard, CreatedAt: now},
	}}
	players := &fakePlayerRepo{players: []models.Player{
		{ID: "a", Name: "Ana"},
		{ID: "b", Name: "Bia"},
		{ID: "c", Name: "Caio"},
		{ID: "d", Name: "Davi"},
	}}

	svc := NewStatsService(events, &fakeMatchRepo{}, players)
	ranking, err := svc.GetRanking(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, ranking, 4)

	// Goals first, assists break ties; players without events still listed.
	assert.Equal(t, "a", ranking[0].PlayerID)
	assert.Equal(t, 2, ranking[0].Goals)
	assert.Equal(t, "b", ranking[1].PlayerID)
	assert.Equal(t, "c", ranking[2].PlayerID)
	assert.Equal(t, "d", ranking[3].PlayerID)
	assert.Equal(t, 0, ranking[3].Goals)
}

func TestGetRankingExcludesEventsOutsidePeriod(t *testing.T) {
	now := time.Now()
	events := &fakeEventRepo{events: []models.MatchEvent{
		{PlayerID: "a", EventType: models.EventGoal, CreatedAt: now.Add(-48 * time.Hour)},
	}}
	players := &fakePlayerRepo{players: []models.Player{{ID: "a", Name: "Ana"}}}

	svc := NewStatsService(events, &fakeMatchRepo{}, players)
	ranking, err := svc.GetRanking(context.Background(), now.Add(-time.Hour), now)
	require.NoError(t, err)
	require.Len(t, ranking, 1)
	assert.Equal(t, 0, ranking[0].Goals)
}

func TestGetHistoryMapsMatches(t *testing.T) {
	winner := models.ColorRed
	matches := &fakeMatchRepo{finished: []*models.Match{
		{
			ID:          "m1",
			ScoreRed:    2,
			ScoreBlue:   1,
			WinnerColor: &winner,
			TeamRedIDs:  []string{"a", "b"},
			TeamBlueIDs: []string{"c", "d"},
			CreatedAt:   time.Now(),
		},
	}}

	svc := NewStatsService(&fakeEventRepo{}, matches, &fakePlayerRepo{})
	history, err := svc.GetHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)

	assert.Equal(t, "m1", history[0].ID)
	assert.Equal(t, 2, history[0].ScoreRed)
	require.NotNil(t, history[0].Winner)
	assert.Equal(t, models.ColorRed, *history[0].Winner)
	assert.Equal(t, []string{"a", "b"}, history[0].TeamRedIDs)
}
