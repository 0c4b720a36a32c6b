// Package observability holds the Prometheus metrics of the journal.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChangeEventsTotal counts change events published by collection and operation.
	ChangeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_change_events_total",
		Help: "Total number of change events published",
	}, []string{"collection", "op"})

	// LiveRefreshesTotal counts live collection fetches by collection and result.
	LiveRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_live_refreshes_total",
		Help: "Total number of live collection fetches",
	}, []string{"collection", "result"})

	// LiveCollectionsOpen is the gauge of live collections not yet disposed.
	LiveCollectionsOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "journal_live_collections_open",
		Help: "Number of open live collections",
	}, []string{"collection"})

	// MutationsTotal counts gateway mutations by collection, operation and result code.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_mutations_total",
		Help: "Total number of mutations handled by the gateway",
	}, []string{"collection", "op", "result"})

	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "journal_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// PushNotificationsTotal counts APNs deliveries by result.
	PushNotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_push_notifications_total",
		Help: "Total number of push notifications attempted",
	}, []string{"result"})
)
