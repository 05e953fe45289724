package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	ClaimsAccepted       prometheus.Counter
	ClaimsRejected       prometheus.Counter
	GamesRecorded        prometheus.Counter
	GamesProcessed       prometheus.Counter
	ProcessingDuration   prometheus.Histogram
	ReconcileRuns        prometheus.Counter
	ReconcileMismatches  prometheus.Counter
	SlackNotifSent       prometheus.Counter
	SlackNotifFailed     prometheus.Counter
	StartupTimeSeconds   prometheus.Gauge
	SlotEventSubscribers prometheus.Gauge
}
