package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmdejong/battilde/internal/game"
)

// Metrics with bounded cardinality (no per-player labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_player_count",
		Help: "Current number of players in the world",
	})

	creatureCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_creature_count",
		Help: "Current number of creatures",
	})

	monsterCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_monster_count",
		Help: "Current number of monster-aligned creatures",
	})

	bulletCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_bullet_count",
		Help: "Bullets currently in flight",
	})

	waveNumber = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_wave_number",
		Help: "Current wave number",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// ObserveTickDuration records one tick's duration. Wire this into the
// engine's tick observer.
func ObserveTickDuration(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// RecordConnectionRejected increments the rejection counter for a reason
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections sets the active websocket connection gauge
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages counts one outbound websocket message
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// StartStatsSampler polls the engine once a second and refreshes the world
// gauges. Returns a stop function.
func StartStatsSampler(engine *game.Engine) func() {
	stopChan := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stopChan:
				return
			case <-ticker.C:
				stats := engine.Stats()
				playerCount.Set(float64(stats.Players))
				creatureCount.Set(float64(stats.Creatures))
				monsterCount.Set(float64(stats.Monsters))
				bulletCount.Set(float64(stats.Bullets))
				waveNumber.Set(float64(stats.Wave))
			}
		}
	}()
	return func() { close(stopChan) }
}

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // keep on localhost in production
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// StartDebugServer starts the internal observability server with pprof and
// the prometheus endpoint. It must stay bound to localhost.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Printf("⚠️ Debug server stopped: %v", err)
		}
	}()

	return nil
}
