package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreMetrics exposes counters for the resilient database layer.
type StoreMetrics struct {
	reconnects *prometheus.CounterVec
	retries    *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "store",
			Name:      "reconnects_total",
			Help:      "Total database reconnection attempts",
		}, []string{"reason"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "store",
			Name:      "retries_total",
			Help:      "Total operations retried after a connection failure",
		}, []string{"op"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "store",
			Name:      "failures_total",
			Help:      "Total operations that failed after the retry was exhausted",
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reconnects, m.retries, m.failures)
	return m
}

func (m *StoreMetrics) ObserveReconnect(reason string) {
	if m == nil {
		return
	}
	m.reconnects.WithLabelValues(reason).Inc()
}

func (m *StoreMetrics) ObserveRetry(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

func (m *StoreMetrics) ObserveFailure(op string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op).Inc()
}

// BillingMetrics tracks the invoicing flow.
type BillingMetrics struct {
	billsCreated prometheus.Counter
	billTotal    prometheus.Histogram
	rejected     *prometheus.CounterVec
}

func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	m := &BillingMetrics{
		billsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "billing",
			Name:      "bills_created_total",
			Help:      "Total bills persisted",
		}),
		billTotal: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "billing",
			Name:      "bill_total_amount",
			Help:      "Distribution of bill totals",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "billing",
			Name:      "rejected_total",
			Help:      "Bill requests rejected before any write",
		}, []string{"reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.billsCreated, m.billTotal, m.rejected)
	return m
}

func (m *BillingMetrics) ObserveBillCreated(total float64) {
	if m == nil {
		return
	}
	m.billsCreated.Inc()
	m.billTotal.Observe(total)
}

func (m *BillingMetrics) ObserveRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
