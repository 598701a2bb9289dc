package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabnunesdev/futmais-app/models"
	"github.com/gabnunesdev/futmais-app/repositories"
	"github.com/gabnunesdev/futmais-app/storage"
	"github.com/go-playground/validator/v10"
)

type CreatePlayerInput struct {
	Name  string `json:"name" validate:"required,min=2,max=60"`
	Stars int    `json:"stars" validate:"required,min=1,max=5"`
}

type UpdateStarsInput struct {
	Stars int `json:"stars" validate:"required,min=1,max=5"`
}

type PlayerService interface {
	ListPlayers(ctx context.Context) ([]models.Player, error)
	CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	UpdateStars(ctx context.Context, id string, input UpdateStarsInput) (*models.Player, error)
	SetActive(ctx context.Context, id string, active bool) error
	DeletePlayer(ctx context.Context, id string) error
	UploadAvatar(ctx context.Context, id string, contentType string, reader io.Reader) (*models.Player, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	validate   *validator.Validate
}

func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		uploader:   uploader,
		validate:   validator.New(),
	}
}

func (s *playerService) ListPlayers(ctx context.Context) ([]models.Player, error) {
	players, err := s.playerRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	for i := range players {
		s.populateAvatarURL(&players[i])
	}
	return players, nil
}

func (s *playerService) CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	player := &models.Player{
		Name:     input.Name,
		Stars:    input.Stars,
		IsActive: true,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (s *playerService) UpdateStars(ctx context.Context, id string, input UpdateStarsInput) (*models.Player, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	if err := s.playerRepo.UpdateStars(ctx, id, input.Stars); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to update player stars: %w", err)
	}

	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload player: %w", err)
	}
	s.populateAvatarURL(player)
	return player, nil
}

func (s *playerService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.playerRepo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to update player active flag: %w", err)
	}
	return nil
}

func (s *playerService) DeletePlayer(ctx context.Context, id string) error {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to load player: %w", err)
	}

	if err := s.playerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to delete player: %w", err)
	}

	if player.AvatarKey != nil && s.uploader != nil {
		// The DB row is gone; an orphaned object is not worth failing over.
		_ = s.uploader.Delete(ctx, *player.AvatarKey)
	}
	return nil
}

func (s *playerService) UploadAvatar(ctx context.Context, id string, contentType string, reader io.Reader) (*models.Player, error) {
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: avatar storage is not configured", ErrValidationFailed)
	}

	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	key := fmt.Sprintf("avatars/%s", player.ID)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.playerRepo.UpdateAvatarKey(ctx, id, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store avatar key: %w", err)
	}

	player.AvatarKey = &result.Key
	s.populateAvatarURL(player)
	return player, nil
}

func (s *playerService) populateAvatarURL(player *models.Player) {
	if player.AvatarKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*player.AvatarKey)
	if url != "" {
		player.AvatarURL = &url
	}
}
