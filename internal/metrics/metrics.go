// Package metrics exposes Prometheus instrumentation for the sweep
// engine and the live trading loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Sweep metrics
	combosEvaluated prometheus.Counter
	sweepsTotal     *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
	tradesSimulated *prometheus.CounterVec

	// Live loop metrics
	liveTicks        prometheus.Counter
	gatewayErrors    *prometheus.CounterVec
	ordersPlaced     *prometheus.CounterVec
	positionsClosed  prometheus.Counter
	flaggedPositions prometheus.Gauge
	accountBalance   prometheus.Gauge
	tradingEnabled   prometheus.Gauge
}

// NewRegistry creates a metrics registry with all collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		combosEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stratsweep_combos_evaluated_total",
			Help: "Total number of parameter combinations backtested",
		}),
		sweepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stratsweep_sweeps_total",
			Help: "Total number of parameter sweeps",
		}, []string{"status"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stratsweep_sweep_duration_seconds",
			Help:    "Full parameter sweep duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		tradesSimulated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stratsweep_trades_simulated_total",
			Help: "Total number of resolved simulated trades",
		}, []string{"outcome"}),

		liveTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stratsweep_live_ticks_total",
			Help: "Total number of live loop iterations",
		}),
		gatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stratsweep_gateway_errors_total",
			Help: "Total number of failed gateway requests",
		}, []string{"operation"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stratsweep_orders_placed_total",
			Help: "Total number of orders sent to the gateway",
		}, []string{"action", "status"}),
		positionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stratsweep_positions_closed_total",
			Help: "Total number of flagged positions closed in profit",
		}),
		flaggedPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stratsweep_flagged_positions",
			Help: "Number of tickets currently tracked by the live session",
		}),
		accountBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stratsweep_account_balance",
			Help: "Last account balance reported by the gateway",
		}),
		tradingEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stratsweep_trading_enabled",
			Help: "Whether the live session currently passes its trade gates (1/0)",
		}),
	}

	reg.MustRegister(
		r.combosEvaluated, r.sweepsTotal, r.sweepDuration, r.tradesSimulated,
		r.liveTicks, r.gatewayErrors, r.ordersPlaced, r.positionsClosed,
		r.flaggedPositions, r.accountBalance, r.tradingEnabled,
	)
	return r
}

// Handler returns the HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// ComboEvaluated records one backtested parameter combination.
func (r *Registry) ComboEvaluated() {
	r.combosEvaluated.Inc()
}

// SweepCompleted records a finished sweep with its duration.
func (r *Registry) SweepCompleted(status string, seconds float64) {
	r.sweepsTotal.WithLabelValues(status).Inc()
	r.sweepDuration.Observe(seconds)
}

// TradesSimulated records n resolved simulated trades for an outcome.
func (r *Registry) TradesSimulated(outcome string, n int) {
	if n <= 0 {
		return
	}
	r.tradesSimulated.WithLabelValues(outcome).Add(float64(n))
}

// LiveTick records one live loop iteration.
func (r *Registry) LiveTick() {
	r.liveTicks.Inc()
}

// GatewayError records a failed gateway request by operation name.
func (r *Registry) GatewayError(operation string) {
	r.gatewayErrors.WithLabelValues(operation).Inc()
}

// OrderPlaced records an order attempt by action and result status.
func (r *Registry) OrderPlaced(action, status string) {
	r.ordersPlaced.WithLabelValues(action, status).Inc()
}

// PositionClosed records one flagged position closed in profit.
func (r *Registry) PositionClosed() {
	r.positionsClosed.Inc()
}

// SetFlaggedPositions sets the tracked ticket count.
func (r *Registry) SetFlaggedPositions(n int) {
	r.flaggedPositions.Set(float64(n))
}

// SetAccountBalance sets the last seen balance.
func (r *Registry) SetAccountBalance(balance float64) {
	r.accountBalance.Set(balance)
}

// SetTradingEnabled sets the trade-gate state.
func (r *Registry) SetTradingEnabled(enabled bool) {
	if enabled {
		r.tradingEnabled.Set(1)
	} else {
		r.tradingEnabled.Set(0)
	}
}
