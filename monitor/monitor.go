// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers    prometheus.Gauge
	ActiveRooms      prometheus.Gauge
	LiveProjectiles  prometheus.Gauge
	IntentsReceived  prometheus.Counter
	IntentsDropped   prometheus.Counter
	BroadcastSeconds prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of online players",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of active rooms",
		}),
		LiveProjectiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_projectiles",
			Help:      "Number of live projectiles across all rooms",
		}),
		IntentsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_received_total",
			Help:      "Total number of client intents received",
		}),
		IntentsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_dropped_total",
			Help:      "Total number of intents dropped (unknown, malformed or queue full)",
		}),
		BroadcastSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "broadcast_duration_seconds",
			Help:      "Snapshot broadcast fan-out duration",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}

	prometheus.MustRegister(
		m.OnlinePlayers,
		m.ActiveRooms,
		m.LiveProjectiles,
		m.IntentsReceived,
		m.IntentsDropped,
		m.BroadcastSeconds,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	startTime time.Time
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	go http.ListenAndServe(addr, mux)
}

// --- room.Observer 实现 ---

func (m *Monitor) IntentReceived() {
	m.metrics.IntentsReceived.Inc()
}

func (m *Monitor) IntentDropped() {
	m.metrics.IntentsDropped.Inc()
}

func (m *Monitor) PlayerJoined() {
	m.metrics.OnlinePlayers.Inc()
}

func (m *Monitor) PlayerLeft() {
	m.metrics.OnlinePlayers.Dec()
}

func (m *Monitor) ProjectileCount(n int) {
	m.metrics.LiveProjectiles.Set(float64(n))
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) ObserveBroadcast(duration time.Duration) {
	m.metrics.BroadcastSeconds.Observe(duration.Seconds())
}
