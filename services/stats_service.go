package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gabnunesdev/futmais-app/models"
	"github.com/gabnunesdev/futmais-app/repositories"
)

type RankingItem struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Goals    int    `json:"goals"`
	Assists  int    `json:"assists"`
}

type MatchHistoryItem struct {
	ID          string            `json:"id"`
	PlayedAt    time.Time         `json:"played_at"`
	ScoreRed    int               `json:"score_red"`
	ScoreBlue   int               `json:"score_blue"`
	Winner      *models.TeamColor `json:"winner,omitempty"`
	TeamRedIDs  []string          `json:"team_red_ids"`
	TeamBlueIDs []string          `json:"team_blue_ids"`
}

type StatsService interface {
	GetRanking(ctx context.Context, from, to time.Time) ([]RankingItem, error)
	GetHistory(ctx context.Context, limit int) ([]MatchHistoryItem, error)
}

type statsService struct {
	eventRepo  repositories.EventRepository
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
}

func NewStatsService(
	eventRepo repositories.EventRepository,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
) StatsService {
	return &statsService{
		eventRepo:  eventRepo,
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
	}
}

// GetRanking aggregates goal and assist events in the period, in memory.
// Every roster player appears, zeroes included; goals rank first, assists
// break ties.
func (s *statsService) GetRanking(ctx context.Context, from, to time.Time) ([]RankingItem, error) {
	players, err := s.playerRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load players for ranking: %w", err)
	}

	events, err := s.eventRepo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load events for ranking: %w", err)
	}

	byID := make(map[string]*RankingItem, len(players))
	ranking := make([]RankingItem, len(players))
	for i, p := range players {
		ranking[i] = RankingItem{PlayerID: p.ID, Name: p.Name}
		byID[p.ID] = &ranking[i]
	}

	for _, ev := range events {
		item, ok := byID[ev.PlayerID]
		if !ok {
			continue
		}
		switch ev.EventType {
		case models.EventGoal:
			item.Goals++
		case models.EventAssist:
			item.Assists++
		}
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Goals != ranking[j].Goals {
			return ranking[i].Goals > ranking[j].Goals
		}
		return ranking[i].Assists > ranking[j].Assists
	})
	return ranking, nil
}

func (s *statsService) GetHistory(ctx context.Context, limit int) ([]MatchHistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}

	matches, err := s.matchRepo.ListFinished(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}

	history := make([]MatchHistoryItem, 0, len(matches))
	for _, m := range matches {
		history = append(history, MatchHistoryItem{
			ID:          m.ID,
			PlayedAt:    m.CreatedAt,
			ScoreRed:    m.ScoreRed,
			ScoreBlue:   m.ScoreBlue,
			Winner:      m.WinnerColor,
			TeamRedIDs:  m.TeamRedIDs,
			TeamBlueIDs: m.TeamBlueIDs,
		})
	}
	return history, nil
}
