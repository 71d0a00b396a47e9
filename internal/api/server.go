package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"crypto-signal-bot/config"
	"crypto-signal-bot/internal/auth"
	"crypto-signal-bot/internal/events"
	"crypto-signal-bot/internal/scanner"
	"crypto-signal-bot/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server exposes the scanner over HTTP and WebSocket.
type Server struct {
	router       *gin.Engine
	httpServer   *http.Server
	cfg          config.ServerConfig
	scanner      *scanner.Scanner
	evaluator    *scanner.Evaluator
	recs         *store.RecommendationStore
	bus          *events.Bus
	authManager  *auth.Manager // nil when auth is disabled
	scoring      config.ScoringConfig
	scanDefaults config.ScannerConfig
	hub          *WSHub
	logger       zerolog.Logger
}

// NewServer builds the gin router and wires the WebSocket hub to the event
// bus. authManager may be nil, in which case all endpoints are open.
func NewServer(
	cfg *config.Config,
	sc *scanner.Scanner,
	evaluator *scanner.Evaluator,
	recs *store.RecommendationStore,
	bus *events.Bus,
	authManager *auth.Manager,
	logger zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(cfg.ServerConfig.AllowedOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:       router,
		cfg:          cfg.ServerConfig,
		scanner:      sc,
		evaluator:    evaluator,
		recs:         recs,
		bus:          bus,
		authManager:  authManager,
		scoring:      cfg.ScoringConfig,
		scanDefaults: cfg.ScannerConfig,
		logger:       logger.With().Str("component", "api").Logger(),
	}

	server.hub = NewWSHub(logger)
	go server.hub.Run()
	bus.SubscribeAll(func(event events.Event) {
		server.hub.BroadcastEvent(event)
	})

	server.setupRoutes()

	return server
}

func splitOrigins(origins string) []string {
	if origins == "" || origins == "*" {
		return []string{"*"}
	}
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/api/v1/auth/login", s.handleLogin)

	v1 := s.router.Group("/api/v1")
	if s.authManager != nil {
		v1.Use(auth.Middleware(s.authManager))
	}
	{
		v1.POST("/scan", s.handleStartScan)
		v1.GET("/scan/:id/progress", s.handleScanProgress)
		v1.GET("/scan/:id/result", s.handleScanResult)
		v1.DELETE("/scan/:id", s.handleCancelScan)
		v1.GET("/analyze/:symbol", s.handleAnalyze)
		v1.GET("/recommendations", s.handleRecommendations)
		v1.GET("/ws", s.handleWebSocket)
	}
}

// Start blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}
