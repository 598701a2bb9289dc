package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabnunesdev/futmais-app/repositories"
)

// LobbyService manages the night's check-in order: the singleton ordered id
// list consulted for queue tie-breaking. Every mutation persists the whole
// order, never a delta.
type LobbyService interface {
	GetOrder(ctx context.Context) ([]string, error)
	Toggle(ctx context.Context, playerID string) ([]string, error)
	Move(ctx context.Context, index int, up bool) ([]string, error)
	ReplaceOrder(ctx context.Context, order []string) error
}

type lobbyService struct {
	appStateRepo repositories.AppStateRepository
}

func NewLobbyService(appStateRepo repositories.AppStateRepository) LobbyService {
	return &lobbyService{appStateRepo: appStateRepo}
}

func (s *lobbyService) GetOrder(ctx context.Context) ([]string, error) {
	order, err := s.appStateRepo.GetLobbyOrder(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrAppStateNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to load lobby order: %w", err)
	}
	return order, nil
}

// Toggle checks a player in at the end of the order, or removes them if they
// were already checked in.
func (s *lobbyService) Toggle(ctx context.Context, playerID string) ([]string, error) {
	order, err := s.GetOrder(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	next := make([]string, 0, len(order)+1)
	for _, id := range order {
		if id == playerID {
			found = true
			continue
		}
		next = append(next, id)
	}
	if !found {
		next = append(next, playerID)
	}

	if err := s.appStateRepo.SetLobbyOrder(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to persist lobby order: %w", err)
	}
	return next, nil
}

func (s *lobbyService) Move(ctx context.Context, index int, up bool) ([]string, error) {
	order, err := s.GetOrder(ctx)
	if err != nil {
		return nil, err
	}

	if up {
		if index <= 0 || index >= len(order) {
			return order, nil
		}
		order[index-1], order[index] = order[index], order[index-1]
	} else {
		if index < 0 || index >= len(order)-1 {
			return order, nil
		}
		order[index], order[index+1] = order[index+1], order[index]
	}

	if err := s.appStateRepo.SetLobbyOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist lobby order: %w", err)
	}
	return order, nil
}

func (s *lobbyService) ReplaceOrder(ctx context.Context, order []string) error {
	if order == nil {
		order = []string{}
	}
	if err := s.appStateRepo.SetLobbyOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to persist lobby order: %w", err)
	}
	return nil
}
