package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	connectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "baraholka",
			Name:      "ws_connected_clients",
			Help:      "Currently connected websocket clients.",
		},
	)

	relayEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "baraholka",
			Name:      "relay_events_total",
			Help:      "Events published to the realtime relay by kind.",
		},
		[]string{"kind"},
	)

	notificationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "baraholka",
			Name:      "notifications_created_total",
			Help:      "Notifications persisted.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(connectedClients, relayEvents, notificationsCreated)
	})
}

func ClientConnected()    { connectedClients.Inc() }
func ClientDisconnected() { connectedClients.Dec() }

// IncRelayEvent counts a published relay event by kind label.
func IncRelayEvent(kind string) {
	relayEvents.WithLabelValues(kind).Inc()
}

func IncNotificationCreated() { notificationsCreated.Inc() }
