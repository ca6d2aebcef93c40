// Package metrics exposes Prometheus collectors for the trading runtime.
// Core packages only update collectors; serving /metrics is the
// orchestrator's concern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the runtime collectors. One instance per process,
// registered on a caller-supplied registry so tests stay isolated.
type Metrics struct {
	OrdersSubmitted  *prometheus.CounterVec
	OrdersRejected   *prometheus.CounterVec
	SafetyViolations prometheus.Counter
	ExecutionErrors  prometheus.Counter
	Signals          *prometheus.CounterVec
	ExitReasons      *prometheus.CounterVec
	OpenPositions    prometheus.Gauge
	Equity           prometheus.Gauge
}

// New creates and registers the runtime collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trader_orders_submitted_total",
				Help: "Orders accepted by the execution handler",
			},
			[]string{"symbol", "side"},
		),
		OrdersRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trader_orders_rejected_total",
				Help: "Orders rejected before or at submission",
			},
			[]string{"symbol", "reason"},
		),
		SafetyViolations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trader_safety_violations_total",
				Help: "Orders blocked by the safety gate",
			},
		),
		ExecutionErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trader_execution_errors_total",
				Help: "Broker-side submission failures",
			},
		),
		Signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trader_signals_total",
				Help: "Strategy signals by type",
			},
			[]string{"signal"},
		),
		ExitReasons: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trader_exits_total",
				Help: "Position exits split by reason",
			},
			[]string{"reason"},
		),
		OpenPositions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trader_open_positions",
				Help: "Number of currently open positions",
			},
		),
		Equity: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trader_equity_usd",
				Help: "Current equity snapshot in USD",
			},
		),
	}

	reg.MustRegister(
		m.OrdersSubmitted,
		m.OrdersRejected,
		m.SafetyViolations,
		m.ExecutionErrors,
		m.Signals,
		m.ExitReasons,
		m.OpenPositions,
		m.Equity,
	)

	return m
}

// NewNop returns collectors registered on a throwaway registry. Intended
// for tests and for runtimes that do not export metrics.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
