package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter
	CounterAICalls             *prometheus.CounterVec
	CounterAIRetries           *prometheus.CounterVec
	CounterDegradedResults     *prometheus.CounterVec
	CounterDiaryLogsSaved      prometheus.Counter

	// gauges
	GaugeRequests        prometheus.Gauge
	GaugeLifeSignal      prometheus.Gauge
	GaugeAIAdaptiveDelay prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
	HistAICallDuration       prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("backend", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("backend", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited incoming requests",
	})
	counterAICalls := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ai_calls",
		Help:      "The total number of generative ai calls, by outcome",
	}, []string{"outcome"})
	counterAIRetries := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ai_call_failures",
		Help:      "The total number of failed generative ai call attempts, by error kind",
	}, []string{"kind"})
	counterDegradedResults := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "degraded_results",
		Help:      "The total number of responses served with fallback content, by reason",
	}, []string{"flow", "reason"})
	counterDiaryLogsSaved := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "diary_logs_saved",
		Help:      "The total number of saved diary logs",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugeAIAdaptiveDelay := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ai_adaptive_delay_seconds",
		Help:      "Current adaptive minimum interval between generative ai calls",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"route", "method", "status_code"})
	histAICallDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ai_call_duration_seconds",
		Help:      "Duration of a single generative ai call attempt in seconds",
		Buckets:   []float64{.1, .25, .5, 1, 2, 4, 8, 16, 32, 64},
	})

	return &Manager{
		CounterRequests:            counterRequests,
		CounterHandleRequestPanic:  counterHandleRequestPanic,
		CounterRateLimitedRequests: counterRateLimitedRequests,
		CounterAICalls:             counterAICalls,
		CounterAIRetries:           counterAIRetries,
		CounterDegradedResults:     counterDegradedResults,
		CounterDiaryLogsSaved:      counterDiaryLogsSaved,
		GaugeRequests:              gaugeRequests,
		GaugeLifeSignal:            gaugeLifeSignal,
		GaugeAIAdaptiveDelay:       gaugeAIAdaptiveDelay,
		HistogramRequestDuration:   histogramRequestDuration,
		HistAICallDuration:         histAICallDuration,
	}
}
