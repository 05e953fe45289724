package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ClaimsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubnight_slot_claims_accepted_total",
			Help: "The total number of slot claims accepted by the store.",
		}),
		ClaimsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubnight_slot_claims_rejected_total",
			Help: "The total number of slot claims rejected by a uniqueness constraint.",
		}),
		GamesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubnight_games_recorded_total",
			Help: "The total number of game outcomes appended to the history.",
		}),
		GamesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubnight_games_processed_total",
			Help: "The total number of games run through the processing state machine.",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clubnight_game_processing_duration_seconds",
			Help:    "The duration of individual game processing.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ReconcileRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubnight_reconcile_runs_total",
			Help: "The total number of aggregate reconciliation runs.",
		}),
		ReconcileMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubnight_reconcile_mismatches_total",
			Help: "The total number of aggregate mismatches found during reconciliation.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubnight_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubnight_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clubnight_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
		SlotEventSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clubnight_slot_event_subscribers",
			Help: "The number of currently connected slot event subscribers.",
		}),
	}

	reg.MustRegister(
		s.ClaimsAccepted,
		s.ClaimsRejected,
		s.GamesRecorded,
		s.GamesProcessed,
		s.ProcessingDuration,
		s.ReconcileRuns,
		s.ReconcileMismatches,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
		s.SlotEventSubscribers,
	)

	return s
}

func (s *Service) IncClaimsAccepted() {
	s.ClaimsAccepted.Inc()
}

func (s *Service) IncClaimsRejected() {
	s.ClaimsRejected.Inc()
}

func (s *Service) IncGamesRecorded() {
	s.GamesRecorded.Inc()
}

func (s *Service) IncGamesProcessed() {
	s.GamesProcessed.Inc()
}

func (s *Service) ObserveProcessingDuration(duration float64) {
	s.ProcessingDuration.Observe(duration)
}

func (s *Service) IncReconcileRuns() {
	s.ReconcileRuns.Inc()
}

func (s *Service) AddReconcileMismatches(count int) {
	s.ReconcileMismatches.Add(float64(count))
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}

func (s *Service) SetSlotEventSubscribers(count int) {
	s.SlotEventSubscribers.Set(float64(count))
}
