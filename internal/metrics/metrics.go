package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Transport metrics
	UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darsbot_updates_total",
			Help: "Total chat updates received",
		},
		[]string{"type"},
	)

	// Generation metrics
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darsbot_generations_total",
			Help: "Total generation attempts by task and outcome",
		},
		[]string{"task", "outcome"},
	)

	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "darsbot_generation_duration_seconds",
			Help:    "Text generation duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// Quota metrics
	QuotaDenialsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "darsbot_quota_denials_total",
			Help: "Total generation requests denied by the usage quota",
		},
	)

	// Rendering metrics
	DocumentsRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darsbot_documents_rendered_total",
			Help: "Total documents rendered by format",
		},
		[]string{"format"},
	)

	// Cache metrics
	GenerationCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "darsbot_generation_cache_hits_total",
			Help: "Generation response cache hits",
		},
	)
)

func init() {
	prometheus.MustRegister(
		UpdatesTotal,
		GenerationsTotal,
		GenerationDuration,
		QuotaDenialsTotal,
		DocumentsRendered,
		GenerationCacheHits,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
