// File: server/metrics.go
package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	metricActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pacgo",
		Name:      "active_sessions",
		Help:      "Sessions currently being played.",
	})
	metricConnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pacgo",
		Name:      "connects_total",
		Help:      "Connect requests admitted into the session queue.",
	})
	metricConnectsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pacgo",
		Name:      "connects_rejected_total",
		Help:      "Connect requests dropped before admission.",
	})
	metricBoardsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pacgo",
		Name:      "boards_sent_total",
		Help:      "Board frames written to notification pipes.",
	})
	metricSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pacgo",
		Name:      "sessions_total",
		Help:      "Finished sessions by outcome.",
	}, []string{"outcome"})
	metricScoreDumps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pacgo",
		Name:      "score_dumps_total",
		Help:      "Leaderboard dumps triggered by SIGUSR1.",
	})
)

// serveMetrics exposes /metrics on its own listener. Runs as a
// goroutine for the life of the process.
func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info().Str("addr", addr).Msg("metrics listener up")
	if err := srv.ListenAndServe(); err != nil {
		logger.Error().Err(err).Msg("metrics listener failed")
	}
}
