// Package metrics provides Prometheus metrics for the VibeVerse service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Playback
	playbackStarts      *prometheus.CounterVec
	playbackFallbacks   *prometheus.CounterVec
	playbackOpenLatency prometheus.Histogram
	playbackTones       prometheus.Counter

	// Rhythm game
	gameHits           prometheus.Counter
	gameMisses         prometheus.Counter
	gamePoints         prometheus.Histogram
	gameSessionsActive prometheus.Gauge
	gameBeatsSpawned   prometheus.Counter

	// Leaderboard pipeline
	resultsSubmitted    prometheus.Counter
	resultsDuplicate    prometheus.Counter
	queueSize           prometheus.Gauge
	queueEnqueueErrors  *prometheus.CounterVec
	leaderboardUpdates  prometheus.Counter
	leaderboardErrors   prometheus.Counter
	leaderboardPlayers  prometheus.Gauge
	workerProcessTimeMs prometheus.Histogram

	// Studio
	remixesGenerated *prometheus.CounterVec
	journalMemories  prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	wsClients           prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vibeverse",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(subsystem, name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(subsystem, name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(subsystem, name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.playbackStarts = m.counterVec("playback", "starts_total", "Tracks started, by backend mode", "mode")
	m.playbackFallbacks = m.counterVec("playback", "fallbacks_total", "Switches to the synthesized backend, by reason", "reason")
	m.playbackOpenLatency = m.histogram("playback", "open_latency_milliseconds", "Time spent opening the real backend", m.histogramBuckets)
	m.playbackTones = m.counter("playback", "tones_total", "Tones emitted by the synthesized backend")

	m.gameHits = m.counter("game", "hits_total", "Player inputs that matched a beat")
	m.gameMisses = m.counter("game", "misses_total", "Player inputs with no beat in the hit window")
	m.gamePoints = m.histogram("game", "hit_points", "Points awarded per hit", []float64{10, 25, 50, 75, 90, 100})
	m.gameSessionsActive = m.gauge("game", "sessions_running", "Rhythm sessions currently running")
	m.gameBeatsSpawned = m.counter("game", "beats_spawned_total", "Beat events spawned")

	m.resultsSubmitted = m.counter("leaderboard", "results_submitted_total", "Game results accepted for ranking")
	m.resultsDuplicate = m.counter("leaderboard", "results_duplicate_total", "Game results rejected as already submitted")
	m.queueSize = m.gauge("leaderboard", "queue_size", "Results waiting in the queue")
	m.queueEnqueueErrors = m.counterVec("leaderboard", "queue_enqueue_errors_total", "Enqueue failures by reason", "reason")
	m.leaderboardUpdates = m.counter("leaderboard", "updates_total", "Results that improved a player's best")
	m.leaderboardErrors = m.counter("leaderboard", "errors_total", "Store failures while ranking results")
	m.leaderboardPlayers = m.gauge("leaderboard", "players", "Players on the leaderboard")
	m.workerProcessTimeMs = m.histogram("leaderboard", "worker_latency_milliseconds", "Time spent ranking one result", m.histogramBuckets)

	m.remixesGenerated = m.counterVec("studio", "remixes_generated_total", "Remix beats generated, by genre", "genre")
	m.journalMemories = m.gauge("studio", "journal_memories", "Memories held in the journal")

	auto := promauto.With(m.registry)
	m.httpRequests = m.counterVec("http", "requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.wsClients = m.gauge("http", "websocket_clients", "Connected snapshot subscribers")
}

// RecordPlaybackStart counts a track start in the given mode.
func RecordPlaybackStart(mode string) {
	globalManager.playbackStarts.WithLabelValues(mode).Inc()
}

// RecordPlaybackFallback counts a switch to the synthesized backend.
func RecordPlaybackFallback(reason string) {
	globalManager.playbackFallbacks.WithLabelValues(reason).Inc()
}

// RecordPlaybackOpenLatency records how long opening a real source took.
func RecordPlaybackOpenLatency(latencyMs float64) {
	globalManager.playbackOpenLatency.Observe(latencyMs)
}

// RecordToneEmitted counts one synthesized tone.
func RecordToneEmitted() {
	globalManager.playbackTones.Inc()
}

// RecordGameHit records a matched input and its points.
func RecordGameHit(points float64) {
	globalManager.gameHits.Inc()
	globalManager.gamePoints.Observe(points)
}

// RecordGameMiss records an input with no beat in the window.
func RecordGameMiss() {
	globalManager.gameMisses.Inc()
}

// RecordBeatSpawned counts a spawned beat.
func RecordBeatSpawned() {
	globalManager.gameBeatsSpawned.Inc()
}

// AddRunningSessions adjusts the running-session gauge.
func AddRunningSessions(delta int) {
	globalManager.gameSessionsActive.Add(float64(delta))
}

// RecordResultSubmitted counts an accepted game result.
func RecordResultSubmitted() {
	globalManager.resultsSubmitted.Inc()
}

// RecordResultDuplicate counts a rejected duplicate submission.
func RecordResultDuplicate() {
	globalManager.resultsDuplicate.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueueError counts an enqueue failure.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordLeaderboardUpdate increments the leaderboard updates counter.
func RecordLeaderboardUpdate() {
	globalManager.leaderboardUpdates.Inc()
}

// RecordLeaderboardError increments the leaderboard errors counter.
func RecordLeaderboardError() {
	globalManager.leaderboardErrors.Inc()
}

// UpdateLeaderboardPlayers sets the number of ranked players.
func UpdateLeaderboardPlayers(count int) {
	globalManager.leaderboardPlayers.Set(float64(count))
}

// RecordWorkerLatency records the time spent ranking one result.
func RecordWorkerLatency(latencyMs float64) {
	globalManager.workerProcessTimeMs.Observe(latencyMs)
}

// RecordRemixGenerated counts a finished remix.
func RecordRemixGenerated(genre string) {
	globalManager.remixesGenerated.WithLabelValues(genre).Inc()
}

// UpdateJournalMemories sets the journal size.
func UpdateJournalMemories(count int) {
	globalManager.journalMemories.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// AddWebSocketClients adjusts the connected subscriber gauge.
func AddWebSocketClients(delta int) {
	globalManager.wsClients.Add(float64(delta))
}
