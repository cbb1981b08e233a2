package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PartiesFormedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lfgsim_parties_formed_total",
			Help: "Total parties formed from the role queue",
		},
	)

	PartiesCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lfgsim_parties_completed_total",
			Help: "Total parties that cleared an instance",
		},
		[]string{"instance"},
	)

	PartyClearSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lfgsim_party_clear_seconds",
			Help:    "Simulated clear time drawn for each party",
			Buckets: prometheus.LinearBuckets(1, 1, 15),
		},
	)

	SlotWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lfgsim_slot_wait_duration_seconds",
			Help:    "Wall time a formed party waited for a free instance",
			Buckets: prometheus.DefBuckets,
		},
	)

	ActiveInstances = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lfgsim_active_instances",
			Help: "Instances currently hosting a party",
		},
	)

	QueuedPlayers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lfgsim_queued_players",
			Help: "Players still waiting in the queue",
		},
		[]string{"role"}, // tank|healer|dps
	)
)

func init() {
	prometheus.MustRegister(PartiesFormedTotal)
	prometheus.MustRegister(PartiesCompletedTotal)
	prometheus.MustRegister(PartyClearSeconds)
	prometheus.MustRegister(SlotWaitDuration)
	prometheus.MustRegister(ActiveInstances)
	prometheus.MustRegister(QueuedPlayers)
}

// SetQueued publishes the remaining role counts.
func SetQueued(tanks, healers, dps int) {
	QueuedPlayers.WithLabelValues("tank").Set(float64(tanks))
	QueuedPlayers.WithLabelValues("healer").Set(float64(healers))
	QueuedPlayers.WithLabelValues("dps").Set(float64(dps))
}

func Register(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
