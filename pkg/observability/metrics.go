package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/traitwatch/traitwatch/pkg/domain"
)

// Metrics exposes engine activity as prometheus collectors.
type Metrics struct {
	notifications  prometheus.Counter
	failures       prometheus.Counter
	activeBindings prometheus.Gauge
	subscribes     *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg (pass
// prometheus.DefaultRegisterer for the default registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		notifications: factory.NewCounter(prometheus.CounterOpts{
			Name: "traitwatch_notifications_total",
			Help: "Dispatch rounds triggered by trait writes.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "traitwatch_listener_failures_total",
			Help: "Listener invocations that panicked.",
		}),
		activeBindings: factory.NewGauge(prometheus.GaugeOpts{
			Name: "traitwatch_active_bindings",
			Help: "Currently registered listener bindings.",
		}),
		subscribes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "traitwatch_subscribes_total",
			Help: "Subscribe operations by listener group.",
		}, []string{"group"}),
	}
}

// Hooks returns the lifecycle hooks backed by these collectors, for
// Holder.SetHooks or registry.SetHooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSubscribe: func(attr, group string) {
			m.activeBindings.Inc()
			m.subscribes.WithLabelValues(groupLabel(group)).Inc()
		},
		OnUnsubscribe: func(attr, group string) {
			m.activeBindings.Dec()
		},
		OnNotify: func(n *domain.Notification) {
			m.notifications.Inc()
		},
		OnListenerError: func(n *domain.Notification, err error) {
			m.failures.Inc()
		},
	}
}

func groupLabel(group string) string {
	if group == domain.DefaultGroup {
		return "default"
	}
	return group
}
