package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/retro-games/games-api/models"
	"github.com/retro-games/games-api/services"
)

const (
	maxCoverBytes  = 5 << 20 // 5 MiB
	coverFormField = "cover"
	sniffLen       = 512

	multipartOverhead = 64 << 10
)

type GameHandler struct {
	gameService services.GameService
	logger      *slog.Logger
}

func NewGameHandler(gs services.GameService, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		gameService: gs,
		logger:      logger,
	}
}

// ListGames godoc
// @Summary List games or search them by name
// @Tags games
// @Produce json
// @Param search query string false "Case-insensitive substring of the game name"
// @Success 200 {array} models.Game
// @Failure 404 {object} map[string]string "No game matches the search term"
// @Failure 500 {object} map[string]string
// @Router /games [get]
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	if search == "" {
		games, err := h.gameService.ListGames(r.Context())
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if err := writeJSON(w, http.StatusOK, games, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	games, err := h.gameService.SearchGames(r.Context(), search)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if len(games) == 0 {
		notFoundResponse(w, r, fmt.Sprintf("no games found matching %q", search))
		return
	}

	if err := writeJSON(w, http.StatusOK, games, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateGame godoc
// @Summary Create a game
// @Tags games
// @Accept json
// @Produce json
// @Param game body services.CreateGameInput true "Game to create"
// @Success 201 {object} models.Game
// @Failure 400 {object} map[string]string "Invalid JSON, missing name or unknown publisher"
// @Failure 409 {object} map[string]string "A game with this name already exists"
// @Failure 500 {object} map[string]string
// @Router /games [post]
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.logger.Info("game created", slog.Int("id_game", game.ID), slog.String("name", game.Name))

	if err := writeJSON(w, http.StatusCreated, game, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetGame godoc
// @Summary Get a game by id
// @Tags games
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 200 {object} models.Game
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 404 {object} map[string]string "Game not found"
// @Failure 500 {object} map[string]string
// @Router /games/{gameID} [get]
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, ok := h.findGame(w, r, gameID)
	if !ok {
		return
	}

	if err := writeJSON(w, http.StatusOK, game, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateGame godoc
// @Summary Partially update a game
// @Description Only keys present in the body are written. An explicit null clears the column. An empty object returns the game unchanged.
// @Tags games
// @Accept json
// @Produce json
// @Param gameID path int true "Game ID"
// @Param game body services.CreateGameInput true "Fields to change"
// @Success 200 {object} models.Game
// @Failure 400 {object} map[string]string "Invalid id, invalid JSON, blank name or rating out of range"
// @Failure 404 {object} map[string]string "Game not found"
// @Failure 409 {object} map[string]string "A game with this name already exists"
// @Failure 500 {object} map[string]string
// @Router /games/{gameID} [patch]
func (h *GameHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	existing, ok := h.findGame(w, r, gameID)
	if !ok {
		return
	}

	var update models.GameUpdate
	if err := readJSON(w, r, &update); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if update.IsEmpty() {
		if err := writeJSON(w, http.StatusOK, existing, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	game, err := h.gameService.UpdateGame(r.Context(), gameID, update)
	if err != nil {
		if errors.Is(err, services.ErrGameNotFound) {
			gameNotFoundResponse(w, r, gameID)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, game, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteGame godoc
// @Summary Delete a game
// @Tags games
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 200 {object} map[string]interface{} "success and message"
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 404 {object} map[string]string "Game not found"
// @Failure 500 {object} map[string]string
// @Router /games/{gameID} [delete]
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, ok := h.findGame(w, r, gameID); !ok {
		return
	}

	deleted, err := h.gameService.DeleteGame(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	// Lost a race with a concurrent delete.
	if !deleted {
		notFoundResponse(w, r, fmt.Sprintf("could not delete game with id %d", gameID))
		return
	}

	h.logger.Info("game deleted", slog.Int("id_game", gameID))

	response := jsonResponse{
		"success": true,
		"message": fmt.Sprintf("game with id %d deleted", gameID),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadCover godoc
// @Summary Upload a cover image for a game
// @Tags games
// @Accept multipart/form-data
// @Produce json
// @Param gameID path int true "Game ID"
// @Param cover formData file true "Cover image (jpeg, png, gif or webp, up to 5 MiB)"
// @Success 200 {object} models.Game
// @Failure 400 {object} map[string]string "Invalid id or file"
// @Failure 404 {object} map[string]string "Game not found"
// @Failure 503 {object} map[string]string "Cover uploads are not configured"
// @Failure 500 {object} map[string]string
// @Router /games/{gameID}/cover [put]
func (h *GameHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, ok := h.findGame(w, r, gameID); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCoverBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxCoverBytes); err != nil {
		badRequestResponse(w, r, fmt.Errorf("cover must be a multipart image upload no larger than %d bytes", maxCoverBytes))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(coverFormField)
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("form field %q with an image file is required", coverFormField))
		return
	}
	defer file.Close()

	if header.Size > maxCoverBytes {
		badRequestResponse(w, r, fmt.Errorf("cover must not be larger than %d bytes", maxCoverBytes))
		return
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		serverErrorResponse(w, r, fmt.Errorf("failed to read cover upload: %w", err))
		return
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		badRequestResponse(w, r, fmt.Errorf("cover must be an image, got %s", contentType))
		return
	}

	// Hand over the seekable file so the object store can size the request.
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to rewind cover upload: %w", err))
		return
	}

	game, err := h.gameService.UploadCover(r.Context(), gameID, file, contentType)
	if err != nil {
		if errors.Is(err, services.ErrGameNotFound) {
			gameNotFoundResponse(w, r, gameID)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.logger.Info("game cover uploaded", slog.Int("id_game", gameID), slog.Int64("size", header.Size))

	if err := writeJSON(w, http.StatusOK, game, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// findGame writes the 404 or error response itself and reports whether the caller may continue.
func (h *GameHandler) findGame(w http.ResponseWriter, r *http.Request, gameID int) (*models.Game, bool) {
	game, err := h.gameService.GetGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, services.ErrGameNotFound) {
			gameNotFoundResponse(w, r, gameID)
			return nil, false
		}
		mapServiceErrorToHTTP(w, r, err)
		return nil, false
	}
	return game, true
}

func gameNotFoundResponse(w http.ResponseWriter, r *http.Request, gameID int) {
	notFoundResponse(w, r, fmt.Sprintf("game with id %d not found", gameID))
}
