package processor

import (
	"github.com/mvoss/clubnight/internal/metrics"
	"github.com/mvoss/clubnight/internal/pubsub"
	"github.com/mvoss/clubnight/internal/stats"
)

// Processor handles the business logic of processing recorded games.
type Processor struct {
	store    Store
	stats    stats.StatsStore
	pubsub   pubsub.PubSubClient
	notifier Notifier
	metrics  metrics.Metrics
}
