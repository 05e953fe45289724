package processor

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/metrics"
	"github.com/mvoss/clubnight/internal/pubsub"
	"github.com/mvoss/clubnight/internal/stats"
)

// New creates a new Processor.
func New(store Store, statsStore stats.StatsStore, notifier Notifier, metrics metrics.Metrics, pubsub pubsub.PubSubClient) *Processor {
	return &Processor{
		store:    store,
		stats:    statsStore,
		pubsub:   pubsub,
		notifier: notifier,
		metrics:  metrics,
	}
}

// ProcessGames fetches games that need processing and advances them through the state machine.
func (p *Processor) ProcessGames(dryRun bool) {
	log.Info("Starting game processing...")
	games, err := p.store.GetGamesForProcessing()
	if err != nil {
		log.Error("Failed to get games for processing", "error", err)
		return
	}

	if len(games) == 0 {
		log.Info("No games to process.")
		return
	}

	log.Info("Found games to process", "count", len(games))
	for _, game := range games {
		startTime := time.Now()
		p.processGame(game, dryRun)
		p.metrics.IncGamesProcessed()
		p.metrics.ObserveProcessingDuration(time.Since(startTime).Seconds())
	}
	log.Info("Game processing finished.")
}

func (p *Processor) processGame(game *club.Game, dryRun bool) {
	log.Info("Processing game", "gameID", game.ID, "initial_status", game.ProcessingStatus)
	for {
		currentState := game.ProcessingStatus
		log.Debug("Evaluating game state", "gameID", game.ID, "status", currentState)

		switch currentState {
		case club.StatusNew:
			if !game.Decided() {
				// Nothing to aggregate until a winner is recorded; leave the
				// game NEW so a later run picks it up.
				log.Debug("Game has no result yet. Skipping.", "gameID", game.ID)
				return
			}
			log.Info("Game is decided. Dispatching stats update.", "gameID", game.ID)
			if !dryRun {
				p.pubsub.SendMessage(pubsub.EventUpdateStats, game)
			}
			p.updateStatus(game, club.StatusStatsUpdated, dryRun)

		case club.StatusStatsUpdated:
			log.Info("Stats updated. Dispatching result notification.", "gameID", game.ID)
			if !dryRun {
				p.pubsub.SendMessage(pubsub.EventNotifyResult, game)
			}
			p.updateStatus(game, club.StatusCompleted, dryRun)

		case club.StatusCompleted:
			log.Debug("Game is complete. No further processing needed.", "gameID", game.ID)
			return // End of the line for this game

		default:
			log.Warn("Unknown processing status", "status", currentState, "gameID", game.ID)
			return // Exit if status is unknown
		}

		// If the status hasn't changed, we're done with this game for now.
		if game.ProcessingStatus == currentState {
			log.Debug("Game state did not change. Finished processing for now.", "gameID", game.ID, "status", currentState)
			break
		}
	}
	log.Info("Finished processing game", "gameID", game.ID, "final_status", game.ProcessingStatus)
}

// UpdateStats applies one decided game to the aggregates. Invoked by the
// push handler consuming the update-stats topic.
func (p *Processor) UpdateStats(game *club.Game) error {
	log.Debug("Updating stats", "gameID", game.ID)
	return p.stats.ApplyGame(game)
}

// NotifyResult sends the result notification for one game. Invoked by the
// push handler consuming the notify-result topic.
func (p *Processor) NotifyResult(game *club.Game, dryRun bool) error {
	log.Debug("Notifying result", "gameID", game.ID)
	return p.notifier.SendResultNotification(game, dryRun)
}

// Reconcile checks the stored aggregates against a full replay of the game
// history. With repair set, the aggregates are instead recomputed from
// scratch, which is always consistent by construction.
func (p *Processor) Reconcile(repair bool) ([]stats.Mismatch, error) {
	p.metrics.IncReconcileRuns()

	if repair {
		log.Info("Recomputing aggregates from game history")
		return nil, p.stats.Recompute()
	}

	mismatches, err := p.stats.Verify()
	p.metrics.AddReconcileMismatches(len(mismatches))
	if err != nil && !errors.Is(err, stats.ErrReconciliationMismatch) {
		return nil, err
	}
	if len(mismatches) > 0 {
		log.Warn("Aggregate reconciliation found mismatches", "count", len(mismatches))
	}
	return mismatches, err
}

func (p *Processor) updateStatus(game *club.Game, newStatus club.ProcessingStatus, dryRun bool) {
	if dryRun {
		log.Info("[Dry Run] Would update game status", "gameID", game.ID, "from", game.ProcessingStatus, "to", newStatus)
		game.ProcessingStatus = newStatus // Update in-memory for the loop
		return
	}

	err := p.store.UpdateProcessingStatus(game.ID, newStatus)
	if err != nil {
		log.Error("Failed to update processing status", "error", err, "gameID", game.ID)
	} else {
		log.Debug("Successfully updated status", "gameID", game.ID, "from", game.ProcessingStatus, "to", newStatus)
		game.ProcessingStatus = newStatus // Keep the in-memory object in sync
	}
}
