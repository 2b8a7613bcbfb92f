package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "homeboard"

	labelState  = "state"
	labelResult = "result"

	// StateEnabled labels a toggle that switched edit mode on.
	StateEnabled = "enabled"
	// StateDisabled labels a toggle that switched edit mode off.
	StateDisabled = "disabled"

	// SaveResultSucceeded labels a persisted configuration.
	SaveResultSucceeded = "succeeded"
	// SaveResultFailed labels a save that returned an error.
	SaveResultFailed = "failed"
	// SaveResultSuperseded labels a save dropped because a newer one was dispatched.
	SaveResultSuperseded = "superseded"
	// SaveResultSkipped labels a toggle-off without a versioned configuration.
	SaveResultSkipped = "skipped"
)

// Collector owns the prometheus registry for the service.
type Collector struct {
	registry           *prometheus.Registry
	toggles            *prometheus.CounterVec
	saves              *prometheus.CounterVec
	notificationsShown prometheus.Counter
}

// NewCollector builds a Collector with a private registry.
func NewCollector() *Collector {
	collector := &Collector{
		registry: prometheus.NewRegistry(),
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "edit_mode_toggles_total",
			Help:      "Edit mode toggles grouped by the resulting state.",
		}, []string{labelState}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "configuration_saves_total",
			Help:      "Configuration saves triggered by leaving edit mode, grouped by result.",
		}, []string{labelResult}),
		notificationsShown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notifications_shown_total",
			Help:      "Notifications shown or refreshed.",
		}),
	}
	collector.registry.MustRegister(
		collector.toggles,
		collector.saves,
		collector.notificationsShown,
		collectors.NewGoCollector(),
	)
	return collector
}

// ObserveToggle counts one toggle into the given state.
func (collector *Collector) ObserveToggle(enabled bool) {
	if collector == nil {
		return
	}
	state := StateDisabled
	if enabled {
		state = StateEnabled
	}
	collector.toggles.WithLabelValues(state).Inc()
}

// ObserveSave counts one save attempt with the given result label.
func (collector *Collector) ObserveSave(result string) {
	if collector == nil {
		return
	}
	collector.saves.WithLabelValues(result).Inc()
}

// ObserveNotificationShown counts one shown notification.
func (collector *Collector) ObserveNotificationShown() {
	if collector == nil {
		return
	}
	collector.notificationsShown.Inc()
}

// Handler exposes the registry in the prometheus text format.
func (collector *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(collector.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (collector *Collector) Registry() *prometheus.Registry {
	return collector.registry
}
