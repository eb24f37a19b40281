package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/walker79/offline-atc/internal/config"
	"github.com/walker79/offline-atc/internal/flightplan"
	"github.com/walker79/offline-atc/internal/session"
	"github.com/walker79/offline-atc/internal/storage/sqlite"
	"github.com/walker79/offline-atc/internal/weather"
	"github.com/walker79/offline-atc/internal/websocket"
	"github.com/walker79/offline-atc/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(sessionService *session.Service, weatherService *weather.Service, flightPlan *flightplan.FlightPlan, config *config.Config, logger *logger.Logger, wsServer *websocket.Server, transmissionStorage *sqlite.TransmissionStorage) *Router {
	return &Router{
		handler:    NewHandler(sessionService, weatherService, flightPlan, config, logger, wsServer, transmissionStorage),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Session state
		router.Get("/session", r.handler.GetSession)
		router.Get("/flightplan", r.handler.GetFlightPlan)
		router.Get("/frequencies", r.handler.GetFrequencies)

		// Pilot requests
		router.Post("/commands/{name}", r.handler.PostCommand)
		router.Post("/commands/{name}/force", r.handler.PostForceCommand)

		// Transmission archive
		router.Get("/transmissions", r.handler.GetTransmissions)

		// Weather Data
		router.Get("/wx", r.handler.GetWeatherData)

		// WebSocket route
		router.Get("/ws", r.handler.HandleWebSocket)

		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Configuration
		router.Get("/config", r.handler.GetConfig)
	})

	return router
}
