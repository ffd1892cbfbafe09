package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/retro-games/games-api/docs"
	"github.com/retro-games/games-api/handlers"
	"github.com/retro-games/games-api/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	logger *slog.Logger,
	corsOrigins []string,
	gameHandler *handlers.GameHandler,
	healthHandler *handlers.HealthHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", healthHandler.Health)
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/ws/games", webSocketHandler.ServeWs)

	router.Route("/games", func(r chi.Router) {
		r.Get("/", gameHandler.ListGames)
		r.Post("/", gameHandler.CreateGame)

		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", gameHandler.GetGame)
			r.Patch("/", gameHandler.UpdateGame)
			r.Delete("/", gameHandler.DeleteGame)
			r.Put("/cover", gameHandler.UploadCover)
		})
	})
}
