// Package metrics exposes prometheus instrumentation for the gate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's prometheus collectors. A nil *Metrics is valid
// and turns every observation into a no-op, so tests can skip wiring it.
type Metrics struct {
	scansTotal      *prometheus.CounterVec
	kioskScansTotal *prometheus.CounterVec
	heartbeatsTotal prometheus.Counter
	activeSessions  prometheus.Gauge
}

func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		scansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gymgate_scans_total",
			Help: "Processed scan attempts by outcome",
		}, []string{"outcome"}),
		kioskScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gymgate_kiosk_scans_total",
			Help: "Scan requests received per kiosk, including debounced ones",
		}, []string{"kiosk_id"}),
		heartbeatsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gymgate_kiosk_heartbeats_total",
			Help: "Kiosk heartbeats received",
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gymgate_active_sessions",
			Help: "Members currently checked in",
		}),
	}
}

func (m *Metrics) ObserveScan(outcome string) {
	if m == nil {
		return
	}
	m.scansTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveKioskScan(kioskID string) {
	if m == nil {
		return
	}
	m.kioskScansTotal.WithLabelValues(kioskID).Inc()
}

func (m *Metrics) ObserveHeartbeat() {
	if m == nil {
		return
	}
	m.heartbeatsTotal.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
