package services

import "errors"

var (
	ErrValidationFailed = errors.New("validation failed")

	ErrGameNotFound      = errors.New("game not found")
	ErrGameNameConflict  = errors.New("a game with this name already exists")
	ErrPublisherNotFound = errors.New("referenced publisher does not exist")
	ErrGameFieldRequired = errors.New("a required game field is missing")

	ErrCoverUploadsDisabled = errors.New("cover uploads are not configured")

	ErrGameCreationFailed = errors.New("failed to create game")
	ErrGameUpdateFailed   = errors.New("failed to update game")
	ErrGameDeleteFailed   = errors.New("failed to delete game")
)
