package metrics

import (
	"net/http"
	"time"

	"ppob_wallet/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ppob_wallet"

// Ledger holds the ledger's Prometheus collectors
type Ledger struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	volume     *prometheus.CounterVec
}

// NewLedger registers the ledger collectors on reg
func NewLedger(reg prometheus.Registerer) *Ledger {
	f := promauto.With(reg)
	return &Ledger{
		operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_operations_total",
				Help:      "Ledger operations by result.",
			},
			[]string{"operation", "result"}, // result: ok or an error kind
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ledger_operation_duration_seconds",
				Help:      "Duration of ledger operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		volume: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_amount_total",
				Help:      "Sum of committed transaction amounts.",
			},
			[]string{"transaction_type"},
		),
	}
}

func (l *Ledger) ObserveOperation(op, result string, elapsed time.Duration) {
	l.operations.WithLabelValues(op, result).Inc()
	l.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (l *Ledger) AddVolume(txType domain.TransactionType, amount int64) {
	l.volume.WithLabelValues(string(txType)).Add(float64(amount))
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
