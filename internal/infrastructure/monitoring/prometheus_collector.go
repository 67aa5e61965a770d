package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exposes the signaling server's operational metrics. Construct one
// per registry; tests pass their own registry to avoid duplicate registration.
type Collector struct {
	clientsConnected prometheus.Gauge
	roomsActive      prometheus.Gauge
	connectionsTotal prometheus.Counter
	evictionsTotal   prometheus.Counter
	messagesReceived *prometheus.CounterVec
	messagesRejected prometheus.Counter
	framesRelayed    *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		clientsConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "parley_clients_connected",
			Help: "Number of currently connected clients",
		}),
		roomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "parley_rooms_active",
			Help: "Number of active rooms (distinct hosts)",
		}),
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "parley_connections_total",
			Help: "Total number of accepted WebSocket connections",
		}),
		evictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "parley_liveness_evictions_total",
			Help: "Total number of connections evicted by the liveness monitor",
		}),
		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_messages_received_total",
			Help: "Total number of inbound frames by type",
		}, []string{"type"}),
		messagesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "parley_messages_rejected_total",
			Help: "Total number of malformed frames rejected",
		}),
		framesRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_frames_relayed_total",
			Help: "Total number of negotiation frames relayed by type",
		}, []string{"type"}),
	}
}

func (c *Collector) ClientConnected() {
	c.clientsConnected.Inc()
	c.connectionsTotal.Inc()
}

func (c *Collector) ClientDisconnected() {
	c.clientsConnected.Dec()
}

func (c *Collector) ClientEvicted() {
	c.evictionsTotal.Inc()
}

func (c *Collector) SetActiveRooms(n int) {
	c.roomsActive.Set(float64(n))
}

func (c *Collector) MessageReceived(msgType string) {
	c.messagesReceived.WithLabelValues(msgType).Inc()
}

func (c *Collector) MessageRejected() {
	c.messagesRejected.Inc()
}

func (c *Collector) FrameRelayed(msgType string) {
	c.framesRelayed.WithLabelValues(msgType).Inc()
}
