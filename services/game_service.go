package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/retro-games/games-api/models"
	"github.com/retro-games/games-api/repositories"
	"github.com/retro-games/games-api/storage"
)

// Event types published on every successful catalog change.
const (
	EventGameCreated = "GAME_CREATED"
	EventGameUpdated = "GAME_UPDATED"
	EventGameDeleted = "GAME_DELETED"
)

// EventPublisher receives catalog change notifications. Publish must not block.
type EventPublisher interface {
	Publish(eventType string, payload any)
}

type GameService interface {
	ListGames(ctx context.Context) ([]models.Game, error)
	SearchGames(ctx context.Context, term string) ([]models.Game, error)
	GetGame(ctx context.Context, id int) (*models.Game, error)
	CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error)
	UpdateGame(ctx context.Context, id int, update models.GameUpdate) (*models.Game, error)
	DeleteGame(ctx context.Context, id int) (bool, error)
	UploadCover(ctx context.Context, id int, file io.Reader, contentType string) (*models.Game, error)
}

type gameService struct {
	gameRepo  repositories.GameRepository
	uploader  storage.FileUploader
	publisher EventPublisher
	logger    *slog.Logger
}

// NewGameService wires the service. uploader and publisher may be nil:
// without an uploader cover uploads are refused, without a publisher no events are sent.
func NewGameService(
	gameRepo repositories.GameRepository,
	uploader storage.FileUploader,
	publisher EventPublisher,
	logger *slog.Logger,
) GameService {
	return &gameService{
		gameRepo:  gameRepo,
		uploader:  uploader,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *gameService) ListGames(ctx context.Context) ([]models.Game, error) {
	games, err := s.gameRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all games: %w", err)
	}
	if games == nil {
		return []models.Game{}, nil
	}
	return games, nil
}

func (s *gameService) SearchGames(ctx context.Context, term string) ([]models.Game, error) {
	games, err := s.gameRepo.SearchByName(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search games by name %q: %w", term, err)
	}
	if games == nil {
		return []models.Game{}, nil
	}
	return games, nil
}

func (s *gameService) GetGame(ctx context.Context, id int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game by id %d: %w", id, err)
	}
	return game, nil
}

func (s *gameService) CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error) {
	game, err := ValidateCreate(input)
	if err != nil {
		return nil, err
	}

	if err := s.gameRepo.Create(ctx, game); err != nil {
		if mapped := mapWriteError(err, game.Name, game.PublisherID); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("%w: %w", ErrGameCreationFailed, err)
	}

	s.publish(EventGameCreated, game)
	return game, nil
}

func (s *gameService) UpdateGame(ctx context.Context, id int, update models.GameUpdate) (*models.Game, error) {
	update, err := ValidateUpdate(update)
	if err != nil {
		return nil, err
	}

	game, err := s.gameRepo.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		if mapped := mapWriteError(err, update.Name.Value, update.PublisherID.Ptr()); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("%w (id: %d): %w", ErrGameUpdateFailed, id, err)
	}

	s.publish(EventGameUpdated, game)
	return game, nil
}

func (s *gameService) DeleteGame(ctx context.Context, id int) (bool, error) {
	deleted, err := s.gameRepo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w (id: %d): %w", ErrGameDeleteFailed, id, err)
	}
	if deleted {
		s.publish(EventGameDeleted, map[string]int{"id_game": id})
	}
	return deleted, nil
}

func (s *gameService) UploadCover(ctx context.Context, id int, file io.Reader, contentType string) (*models.Game, error) {
	if s.uploader == nil {
		return nil, ErrCoverUploadsDisabled
	}

	ext, err := storage.ExtensionForImageType(contentType)
	if err != nil {
		return nil, newValidationError(KindInvalidField, "cover", "%s", err.Error())
	}

	key := fmt.Sprintf("games/%d/cover-%s%s", id, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload cover for game %d: %w", id, err)
	}

	game, err := s.gameRepo.Update(ctx, id, models.GameUpdate{CoverURL: models.NewNullable(result.Location)})
	if err != nil {
		if delErr := s.uploader.Delete(ctx, result.Key); delErr != nil {
			s.logger.Error("failed to remove orphaned cover", slog.String("key", result.Key), slog.Any("error", delErr))
		}
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("%w (id: %d): %w", ErrGameUpdateFailed, id, err)
	}

	s.publish(EventGameUpdated, game)
	return game, nil
}

func (s *gameService) publish(eventType string, payload any) {
	if s.publisher != nil {
		s.publisher.Publish(eventType, payload)
	}
}

// mapWriteError turns repository constraint errors into service errors. It
// returns nil when err is not a constraint violation.
func mapWriteError(err error, name string, publisherID *int) error {
	switch {
	case errors.Is(err, repositories.ErrGameNameConflict):
		return fmt.Errorf("%w: %q", ErrGameNameConflict, name)
	case errors.Is(err, repositories.ErrPublisherNotFound):
		if publisherID != nil {
			return fmt.Errorf("%w: id %d", ErrPublisherNotFound, *publisherID)
		}
		return ErrPublisherNotFound
	case errors.Is(err, repositories.ErrGameFieldRequired):
		return ErrGameFieldRequired
	default:
		return nil
	}
}
