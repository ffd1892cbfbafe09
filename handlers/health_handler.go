package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/retro-games/games-api/repositories"
)

type HealthHandler struct {
	healthRepo repositories.HealthRepository
}

func NewHealthHandler(hr repositories.HealthRepository) *HealthHandler {
	return &HealthHandler{healthRepo: hr}
}

// Health godoc
// @Summary Check database connectivity
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "success, message and database_time"
// @Failure 500 {object} map[string]interface{} "success false and message"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	now, err := h.healthRepo.DatabaseTime(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "health check failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))

		response := jsonResponse{
			"success": false,
			"message": "database connection failed",
		}
		if err := writeJSON(w, http.StatusInternalServerError, response, nil); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	response := jsonResponse{
		"success":       true,
		"message":       "database connection is healthy",
		"database_time": now.UTC().Format(time.RFC3339Nano),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
