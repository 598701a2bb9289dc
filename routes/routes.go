package routes

import (
	"log/slog"

	"github.com/gabnunesdev/futmais-app/handlers"
	"github.com/gabnunesdev/futmais-app/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	logger *slog.Logger,
	allowedOrigins []string,
	playerHandler *handlers.PlayerHandler,
	lobbyHandler *handlers.LobbyHandler,
	sessionHandler *handlers.SessionHandler,
	statsHandler *handlers.StatsHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/players", func(r chi.Router) {
		r.Get("/", playerHandler.List)
		r.Post("/", playerHandler.Create)
		r.Patch("/{playerID}/stars", playerHandler.UpdateStars)
		r.Patch("/{playerID}/active", playerHandler.SetActive)
		r.Post("/{playerID}/avatar", playerHandler.UploadAvatar)
		r.Delete("/{playerID}", playerHandler.Delete)
	})

	router.Route("/lobby", func(r chi.Router) {
		r.Get("/", lobbyHandler.GetOrder)
		r.Put("/", lobbyHandler.ReplaceOrder)
		r.Post("/move", lobbyHandler.Move)
		r.Post("/toggle/{playerID}", lobbyHandler.Toggle)
	})

	router.Route("/session", func(r chi.Router) {
		r.Get("/", sessionHandler.GetState)
		r.Post("/draft", sessionHandler.EnterDraft)
		r.Post("/draft/shuffle", sessionHandler.Shuffle)
		r.Post("/draft/move", sessionHandler.MoveDraftPlayer)
		r.Post("/draft/queue/reorder", sessionHandler.ReorderDraftQueue)
		r.Delete("/draft/queue/{playerID}", sessionHandler.RemoveFromDraftQueue)
		r.Get("/draft/share", sessionHandler.ShareText)

		r.Post("/match", sessionHandler.StartMatch)
		r.Post("/match/running", sessionHandler.SetRunning)
		r.Post("/match/goal", sessionHandler.Goal)
		r.Post("/match/card", sessionHandler.Card)
		r.Post("/match/substitution", sessionHandler.Substitute)
		r.Post("/match/events/delete", sessionHandler.DeleteEvent)
		r.Post("/match/end", sessionHandler.EndMatch)
		r.Post("/match/end-manual", sessionHandler.EndManually)
		r.Post("/match/queue/reorder", sessionHandler.ReorderMatchQueue)
		r.Post("/match/queue/move", sessionHandler.MoveInMatchQueue)
		r.Post("/match/late-players", sessionHandler.AddLatePlayers)

		r.Post("/finish-day", sessionHandler.FinishDay)
	})

	router.Route("/stats", func(r chi.Router) {
		r.Get("/ranking", statsHandler.GetRanking)
		r.Get("/history", statsHandler.GetHistory)
	})

	router.Get("/ws/live", webSocketHandler.ServeLive)
}
