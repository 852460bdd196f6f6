package syncqueue

import "github.com/prometheus/client_golang/prometheus"

var (
	betsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syncqueue_bets_enqueued_total",
		Help: "Slips handed to the offline queue",
	})
	betsAcknowledged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syncqueue_bets_acknowledged_total",
		Help: "Bets accepted by the authority and removed",
	})
	betsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syncqueue_bets_rejected_total",
		Help: "Bets terminally rejected by the authority",
	})
	sendRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syncqueue_send_retries_total",
		Help: "Network-class send failures left queued for the next drain",
	})
	drainsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syncqueue_drains_total",
		Help: "Drain cycles started",
	})
	storageFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "syncqueue_storage_failures_total",
		Help: "Pending-store writes that fell back to the in-memory overflow",
	})
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "syncqueue_depth",
		Help: "Pending bets currently queued (store + overflow)",
	})
)

func init() {
	prometheus.MustRegister(
		betsEnqueued,
		betsAcknowledged,
		betsRejected,
		sendRetries,
		drainsStarted,
		storageFailures,
		queueDepth,
	)
}
