package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the chat booking flow.
type ChatMetrics struct {
	messagesTotal    *prometheus.CounterVec
	bookingsTotal    *prometheus.CounterVec
	llmFallbackTotal *prometheus.CounterVec
	turnLatency      prometheus.Histogram
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calagent",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Total chat messages processed",
		}, []string{"intent", "stage"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calagent",
			Subsystem: "chat",
			Name:      "bookings_total",
			Help:      "Total booking attempts",
		}, []string{"status"}),
		llmFallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calagent",
			Subsystem: "llm",
			Name:      "fallback_total",
			Help:      "Primary LLM failures by fallback outcome",
		}, []string{"outcome"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "calagent",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "Latency of one chat turn end to end",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.bookingsTotal, m.llmFallbackTotal, m.turnLatency)
	return m
}

func (m *ChatMetrics) ObserveMessage(intent, stage string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(intent, stage).Inc()
}

func (m *ChatMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveLLMFallback(outcome string) {
	if m == nil {
		return
	}
	m.llmFallbackTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveTurnLatency(seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.Observe(seconds)
}
