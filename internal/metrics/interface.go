package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncClaimsAccepted()
	IncClaimsRejected()
	IncGamesRecorded()
	IncGamesProcessed()
	ObserveProcessingDuration(duration float64)
	IncReconcileRuns()
	AddReconcileMismatches(count int)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
	SetSlotEventSubscribers(count int)
}
