// Package metrics provides Prometheus metrics for the matchup prediction service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the matchup service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Prediction metrics
	predictions       *prometheus.CounterVec
	predictionLatency prometheus.Histogram
	predictionErrors  *prometheus.CounterVec

	// Injury collaborator metrics
	injuryFetches      *prometheus.CounterVec
	injuryFetchLatency prometheus.Histogram
	injuryCache        *prometheus.CounterVec

	// Corpus and artifact state
	corpusGames     prometheus.Gauge
	corpusPlayers   prometheus.Gauge
	corpusTeams     prometheus.Gauge
	artifactsLoaded prometheus.Gauge
	featureWidth    prometheus.Gauge
	vocabularySize  prometheus.Gauge

	// Training metrics
	trainingExamples prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchup",
		subsystem:        "predictor",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.predictions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "predictions_total",
			Help:      "Total number of predictions served by model type",
		},
		[]string{"model_type"},
	)

	m.predictionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_latency_milliseconds",
		Help:      "End-to-end prediction latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.predictionErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "prediction_errors_total",
			Help:      "Total number of rejected or failed predictions by kind",
		},
		[]string{"kind"},
	)

	m.injuryFetches = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "injury_fetches_total",
			Help:      "Live injury fetches by outcome",
		},
		[]string{"outcome"},
	)

	m.injuryFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "injury_fetch_latency_milliseconds",
		Help:      "Live injury fetch latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.injuryCache = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "injury_cache_lookups_total",
			Help:      "Injury cache lookups by result (hit, miss, stale)",
		},
		[]string{"result"},
	)

	m.corpusGames = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "corpus_game_rows",
		Help:      "Number of team game rows in the loaded corpus",
	})

	m.corpusPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "corpus_player_rows",
		Help:      "Number of player game rows in the loaded corpus",
	})

	m.corpusTeams = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "corpus_teams",
		Help:      "Number of distinct teams in the loaded corpus",
	})

	m.artifactsLoaded = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "artifacts_loaded",
		Help:      "1 when a trained model bundle is loaded, 0 in rule-based mode",
	})

	m.featureWidth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feature_vector_length",
		Help:      "Length of the feature vector expected by the loaded model",
	})

	m.vocabularySize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "injury_vocabulary_size",
		Help:      "Number of players in the frozen injury vocabulary",
	})

	m.trainingExamples = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "training_examples_total",
		Help:      "Training examples assembled from the corpus",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
}

// RecordPrediction counts a served prediction and its latency.
func RecordPrediction(modelType string, latencyMs float64) {
	globalManager.predictions.WithLabelValues(modelType).Inc()
	globalManager.predictionLatency.Observe(latencyMs)
}

// RecordPredictionError counts a prediction rejected with the given error kind.
func RecordPredictionError(kind string) {
	globalManager.predictionErrors.WithLabelValues(kind).Inc()
}

// RecordInjuryFetch counts a live injury fetch by outcome (ok, error, timeout).
func RecordInjuryFetch(outcome string, latencyMs float64) {
	globalManager.injuryFetches.WithLabelValues(outcome).Inc()
	globalManager.injuryFetchLatency.Observe(latencyMs)
}

// RecordInjuryCache counts an injury cache lookup result.
func RecordInjuryCache(result string) {
	globalManager.injuryCache.WithLabelValues(result).Inc()
}

// UpdateCorpusSize sets the number of game and player rows.
func UpdateCorpusSize(games, players int) {
	globalManager.corpusGames.Set(float64(games))
	globalManager.corpusPlayers.Set(float64(players))
}

// UpdateCorpusTeams sets the number of distinct teams.
func UpdateCorpusTeams(count int) {
	globalManager.corpusTeams.Set(float64(count))
}

// UpdateArtifacts publishes the loaded bundle's shape. A zero width means no bundle.
func UpdateArtifacts(width, vocabulary int) {
	loaded := 0.0
	if width > 0 {
		loaded = 1
	}
	globalManager.artifactsLoaded.Set(loaded)
	globalManager.featureWidth.Set(float64(width))
	globalManager.vocabularySize.Set(float64(vocabulary))
}

// RecordTrainingExamples adds n assembled training examples.
func RecordTrainingExamples(n int) {
	globalManager.trainingExamples.Add(float64(n))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

var runtimeOnce sync.Once //nolint:gochecknoglobals // guards one-time collector registration

// RegisterRuntimeCollectors adds Go runtime and process metrics to the
// custom registry. Safe to call more than once.
func RegisterRuntimeCollectors() {
	runtimeOnce.Do(func() {
		customRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}
