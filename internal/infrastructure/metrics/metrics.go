// Package metrics exposes lifecycle counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"luckyspot/internal/ports/output"
)

var _ output.Recorder = (*Recorder)(nil)

type Recorder struct {
	transitions   *prometheus.CounterVec
	conflicts     *prometheus.CounterVec
	subscriptions prometheus.Gauge
	queue         *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// serve them from promhttp.Handler.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "luckyspot_transitions_total",
			Help: "Entrant lifecycle operations by outcome",
		}, []string{"op", "result"}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "luckyspot_tx_conflicts_total",
			Help: "Store transactions re-run after a concurrent commit",
		}, []string{"op"}),
		subscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "luckyspot_live_subscriptions",
			Help: "Open live entrant queries",
		}),
		queue: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "luckyspot_promotion_queue_total",
			Help: "Deferred replacement draws by outcome",
		}, []string{"result"}),
	}
}

func (r *Recorder) Transition(op, result string) {
	r.transitions.WithLabelValues(op, result).Inc()
}

func (r *Recorder) TxConflict(op string) {
	r.conflicts.WithLabelValues(op).Inc()
}

func (r *Recorder) Subscriptions(delta int) {
	r.subscriptions.Add(float64(delta))
}

// Queue counts one deferred draw outcome (promoted, dropped, requeued,
// dead_lettered).
func (r *Recorder) Queue(result string) {
	r.queue.WithLabelValues(result).Inc()
}
