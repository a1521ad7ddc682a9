// Package admin exposes a read-only HTTP view of the usage ledger.
package admin

import (
	"net/http"
	"time"

	"github.com/Samandar0813/darsbot/internal/quota"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Config holds the admin server configuration.
type Config struct {
	ListenAddr string
	Token      string
}

// Server represents the admin HTTP server.
type Server struct {
	config Config
	ledger *quota.Ledger
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates a new admin server.
func NewServer(cfg Config, ledger *quota.Ledger, logger zerolog.Logger) *Server {
	log := logger.With().Str("component", "admin").Logger()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware(log))

	s := &Server{
		config: cfg,
		ledger: ledger,
		logger: log,
	}

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	api.Use(AuthMiddleware(cfg.Token))
	api.GET("/usage", s.handleUsage)

	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the admin server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting admin server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Admin server error")
		}
	}()
	return nil
}

// Stop stops the admin server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping admin server")
	return s.server.Close()
}

func (s *Server) handleHealth(ctx *gin.Context) {
	ctx.String(http.StatusOK, "OK")
}

// handleUsage dumps every usage record with current counts.
func (s *Server) handleUsage(ctx *gin.Context) {
	records, err := s.ledger.Snapshot(ctx.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read usage snapshot")
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal",
			"message": "Failed to retrieve usage records",
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"users": records,
		"count": len(records),
		"limit": s.ledger.Limit(),
	})
}
