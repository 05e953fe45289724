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
	"github.com/mvoss/clubnight/internal/session"
	"github.com/mvoss/clubnight/internal/stats"
)

type Server struct {
	Store          club.ClubStore
	Slots          reservation.SlotStore
	Stats          stats.StatsStore
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Processor      *processor.Processor
	Router         *http.ServeMux

	pubsub pubsub.PubSubClient
	guard  *reservation.Guard
	now    func() time.Time

	subscriberCount int64
}

// ClaimRequest is the body of a slot claim.
type ClaimRequest struct {
	SlotNumber int    `json:"slot_number"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	ClaimedBy  string `json:"claimed_by,omitempty"`
}

// ReleaseRequest is the body of a slot release.
type ReleaseRequest struct {
	SlotNumber int `json:"slot_number"`
}

// SlotsResponse is the full slot table for one session.
type SlotsResponse struct {
	Session     session.ID                          `json:"session"`
	SessionTime string                              `json:"session_time"`
	Slots       [reservation.NumSlots]*reservation.Slot `json:"slots"`
}

// RecordGameRequest is the body for appending a game to the history.
type RecordGameRequest struct {
	GameNumber int       `json:"game_number"`
	TeamA      club.Team `json:"team_a"`
	TeamB      club.Team `json:"team_b"`
	ScoreA     *int      `json:"score_a,omitempty"`
	ScoreB     *int      `json:"score_b,omitempty"`
	Winner     string    `json:"winner,omitempty"`
}

// ResultRequest is the body for recording a game's result.
type ResultRequest struct {
	GameID string `json:"game_id"`
	ScoreA *int   `json:"score_a,omitempty"`
	ScoreB *int   `json:"score_b,omitempty"`
	Winner string `json:"winner"`
}

// ReconcileResponse reports the outcome of a reconciliation run.
type ReconcileResponse struct {
	Status     string           `json:"status"`
	Mismatches []stats.Mismatch `json:"mismatches,omitempty"`
}
