package http

import (
	"net/http"
	"time"

	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/config"
	"github.com/mvoss/clubnight/internal/metrics"
	"github.com/mvoss/clubnight/internal/notifier"
	"github.com/mvoss/clubnight/internal/processor"
	"github.com/mvoss/clubnight/internal/pubsub"
	"github.com/mvoss/clubnight/internal/reservation"
	"github.com/mvoss/clubnight/internal/stats"
)

func NewServer(store club.ClubStore, slots reservation.SlotStore, statsStore stats.StatsStore, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, processor *processor.Processor, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Store:          store,
		Slots:          slots,
		Stats:          statsStore,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Processor:      processor,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
		guard:          reservation.NewGuard(),
		now:            time.Now,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/clear", Chain(s.ClearStoreHandler(), paramsMiddleware))
	s.Router.Handle("/members", Chain(s.ListMembersHandler(), paramsMiddleware))
	s.Router.Handle("/slots", Chain(s.SlotsHandler(), paramsMiddleware))
	s.Router.Handle("/slots/claim", Chain(s.ClaimSlotHandler(), paramsMiddleware))
	s.Router.Handle("/slots/release", Chain(s.ReleaseSlotHandler(), paramsMiddleware))
	s.Router.Handle("/slots/events", Chain(s.SlotEventsHandler(), paramsMiddleware))
	s.Router.Handle("/games", Chain(s.ListGamesHandler(), paramsMiddleware))
	s.Router.Handle("/games/record", Chain(s.RecordGameHandler(), paramsMiddleware))
	s.Router.Handle("/games/result", Chain(s.ResultHandler(), paramsMiddleware))
	s.Router.Handle("/process", Chain(s.ProcessGamesHandler(), paramsMiddleware))
	s.Router.Handle("/reconcile", Chain(s.ReconcileHandler(), paramsMiddleware))
	s.Router.Handle("/leaderboard", Chain(s.LeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("/teams", Chain(s.TeamLeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("/update-stats", Chain(s.UpdateStatsHandler(), paramsMiddleware))
	s.Router.Handle("/notify-result", Chain(s.NotifyResultHandler(), paramsMiddleware))
	s.Router.Handle("/notify-lineup", Chain(s.NotifyLineupHandler(), paramsMiddleware))
	s.Router.Handle("/slack/command/slots", Chain(s.SlotsCommandHandler(), paramsMiddleware))
	s.Router.Handle("/slack/command/leaderboard", Chain(s.LeaderboardCommandHandler(), paramsMiddleware))
	s.Router.Handle("/slack/command/team-leaderboard", Chain(s.TeamLeaderboardCommandHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
