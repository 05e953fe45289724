package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/leaderboard"
	"github.com/mvoss/clubnight/internal/reservation"
	"github.com/mvoss/clubnight/internal/session"
	"github.com/mvoss/clubnight/internal/stats"
	"github.com/slack-go/slack"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) ClearStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := r.URL.Query().Get("gameID")
		if gameID != "" {
			log.Info("Received request to clear a specific game", "gameID", gameID)
			s.Store.ClearGame(gameID)
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "Cleared game %s from store!", gameID)
			log.Info("Successfully cleared game from store", "gameID", gameID)
		} else {
			log.Info("Received request to clear entire store")
			s.Store.Clear()
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "Store cleared!")
			log.Info("Store cleared successfully")
		}
	}
}

func (s *Server) ListMembersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Store.GetAllPlayers()
		if err != nil {
			http.Error(w, "Failed to get players", http.StatusInternalServerError)
			log.Error("Failed to get players from store", "error", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(players); err != nil {
			log.Error("Failed to write response", "error", err)
		}
	}
}

// SlotsHandler serves the slot table of the current session.
func (s *Server) SlotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, slots, err := s.Slots.ListSlots(s.now())
		if err != nil {
			http.Error(w, "Failed to list slots", http.StatusInternalServerError)
			log.Error("Failed to list slots", "error", err)
			return
		}

		resp := SlotsResponse{
			Session:     id,
			SessionTime: time.Unix(int64(id), 0).UTC().Format(time.RFC3339),
			Slots:       slots,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error("Failed to encode slots to JSON", "error", err)
		}
	}
}

// ClaimSlotHandler claims one slot for a player in the current session.
func (s *Server) ClaimSlotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClaimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		release, err := s.guard.Acquire(req.PlayerID)
		if err != nil {
			http.Error(w, "A request for this player is already in flight", http.StatusTooManyRequests)
			return
		}
		defer release()

		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would claim slot", "slot", req.SlotNumber, "playerID", req.PlayerID)
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "Slot claimed.")
			return
		}

		err = s.Slots.Claim(s.now(), req.SlotNumber, req.PlayerID, req.PlayerName, req.ClaimedBy)
		switch {
		case errors.Is(err, reservation.ErrInvalidSlot), errors.Is(err, reservation.ErrMissingPlayer):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, reservation.ErrAlreadyOccupied), errors.Is(err, reservation.ErrDuplicatePlayer):
			s.Metrics.IncClaimsRejected()
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			http.Error(w, "Failed to claim slot", http.StatusInternalServerError)
			log.Error("Failed to claim slot", "error", err, "slot", req.SlotNumber, "playerID", req.PlayerID)
			return
		}

		s.Metrics.IncClaimsAccepted()
		// Claiming also registers the player so they show up on leaderboards.
		s.Store.AddPlayer(req.PlayerID, req.PlayerName)

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Slot claimed.")
	}
}

// ReleaseSlotHandler clears one slot in the current session.
func (s *Server) ReleaseSlotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReleaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would release slot", "slot", req.SlotNumber)
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "Slot released.")
			return
		}

		err := s.Slots.Release(s.now(), req.SlotNumber)
		switch {
		case errors.Is(err, reservation.ErrInvalidSlot):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, "Failed to release slot", http.StatusInternalServerError)
			log.Error("Failed to release slot", "error", err, "slot", req.SlotNumber)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Slot released.")
	}
}

// SlotEventsHandler streams slot mutations for the current session as
// server-sent events. A closed stream tells the client to re-fetch the slot
// table and reconnect.
func (s *Server) SlotEventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming not supported", http.StatusInternalServerError)
			return
		}

		id := s.Slots.CurrentSession(s.now())
		ch, cancel := s.Slots.Subscribe(id)
		defer cancel()

		s.Metrics.SetSlotEventSubscribers(int(atomic.AddInt64(&s.subscriberCount, 1)))
		defer func() {
			s.Metrics.SetSlotEventSubscribers(int(atomic.AddInt64(&s.subscriberCount, -1)))
		}()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		fmt.Fprintf(w, "event: session\ndata: %d\n\n", id)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, open := <-ch:
				if !open {
					// The bus dropped us for lagging; the client re-fetches.
					fmt.Fprint(w, "event: resync\ndata: {}\n\n")
					flusher.Flush()
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					log.Error("Failed to encode slot event", "error", err)
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
				flusher.Flush()
			}
		}
	}
}

// ListGamesHandler lists the recorded games, optionally for one session.
func (s *Server) ListGamesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var games []*club.Game
		var err error

		if sessionStr := r.URL.Query().Get("session"); sessionStr != "" {
			ts, parseErr := strconv.ParseInt(sessionStr, 10, 64)
			if parseErr != nil {
				http.Error(w, "Invalid session parameter", http.StatusBadRequest)
				return
			}
			games, err = s.Store.GetGamesBySession(session.ID(ts))
		} else {
			games, err = s.Store.GetAllGames()
		}
		if err != nil {
			http.Error(w, "Failed to get games", http.StatusInternalServerError)
			log.Error("Failed to get games from store", "error", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(games); err != nil {
			log.Error("Failed to encode games to JSON", "error", err)
		}
	}
}

// RecordGameHandler appends a new game to the outcome history.
func (s *Server) RecordGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecordGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.TeamA.Player1 == "" || req.TeamB.Player1 == "" {
			http.Error(w, "Both teams need at least one player", http.StatusBadRequest)
			return
		}
		winner := club.Winner(req.Winner)
		if winner != "" && winner != club.WinnerA && winner != club.WinnerB {
			http.Error(w, "Winner must be A or B", http.StatusBadRequest)
			return
		}

		now := s.now()
		game := &club.Game{
			ID:         uuid.NewString(),
			Session:    s.Slots.CurrentSession(now),
			GameNumber: req.GameNumber,
			TeamA:      req.TeamA,
			TeamB:      req.TeamB,
			ScoreA:     req.ScoreA,
			ScoreB:     req.ScoreB,
			Winner:     winner,
			RecordedAt: now.Unix(),
		}

		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would record game", "gameID", game.ID)
		} else if err := s.Store.RecordGame(game); err != nil {
			http.Error(w, "Failed to record game", http.StatusInternalServerError)
			log.Error("Failed to record game", "error", err)
			return
		}
		s.Metrics.IncGamesRecorded()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(game); err != nil {
			log.Error("Failed to encode game to JSON", "error", err)
		}
	}
}

// ResultHandler records the result of a game. Results are final: a second
// attempt for the same game is rejected.
func (s *Server) ResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResultRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		winner := club.Winner(req.Winner)
		if winner != club.WinnerA && winner != club.WinnerB {
			http.Error(w, "Winner must be A or B", http.StatusBadRequest)
			return
		}

		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would set result", "gameID", req.GameID, "winner", winner)
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "Result recorded.")
			return
		}

		err := s.Store.SetResult(req.GameID, req.ScoreA, req.ScoreB, winner)
		switch {
		case errors.Is(err, club.ErrGameNotFound):
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		case errors.Is(err, club.ErrResultFinal):
			http.Error(w, "Result is already final", http.StatusConflict)
			return
		case err != nil:
			http.Error(w, "Failed to record result", http.StatusInternalServerError)
			log.Error("Failed to record result", "error", err, "gameID", req.GameID)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Result recorded.")
	}
}

func (s *Server) ProcessGamesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Starting game processing...")
		isDryRun := isDryRunFromContext(r)

		s.Processor.ProcessGames(isDryRun)

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Game processing completed.")
		log.Info("Game processing finished.")
	}
}

// ReconcileHandler verifies the aggregates against a full replay of the game
// history. With ?repair=true the aggregates are recomputed instead.
func (s *Server) ReconcileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repair := r.URL.Query().Get("repair") == "true"

		mismatches, err := s.Processor.Reconcile(repair)
		if err != nil && !errors.Is(err, stats.ErrReconciliationMismatch) {
			http.Error(w, "Reconciliation failed", http.StatusInternalServerError)
			log.Error("Reconciliation failed", "error", err)
			return
		}

		resp := ReconcileResponse{Status: "consistent"}
		status := http.StatusOK
		if repair {
			resp.Status = "recomputed"
		} else if len(mismatches) > 0 {
			resp.Status = "mismatch"
			resp.Mismatches = mismatches
			status = http.StatusConflict
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error("Failed to encode reconcile response", "error", err)
		}
	}
}

// LeaderboardHandler serves the ranked player leaderboard. The scope query
// parameter selects combined, singles or doubles totals.
func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerStats, err := s.Stats.GetPlayerStats()
		if err != nil {
			http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
			log.Error("Failed to get player stats from store", "error", err)
			return
		}

		scope := leaderboard.ParseScope(r.URL.Query().Get("scope"))
		entries := leaderboard.RankPlayers(playerStats, scope)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			log.Error("Failed to encode leaderboard to JSON", "error", err)
		}
	}
}

// TeamLeaderboardHandler serves the ranked doubles pair leaderboard.
func (s *Server) TeamLeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamStats, err := s.Stats.GetTeamStats()
		if err != nil {
			http.Error(w, "Failed to get team stats", http.StatusInternalServerError)
			log.Error("Failed to get team stats from store", "error", err)
			return
		}

		entries := leaderboard.RankTeams(teamStats)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			log.Error("Failed to encode team leaderboard to JSON", "error", err)
		}
	}
}

// decodePushMessage unwraps a Pub/Sub push delivery: an outer JSON envelope
// with a base64 data field carrying the MessagePack payload.
func (s *Server) decodePushMessage(r *http.Request, payload any) error {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	log.Debug("Received push message", "body", string(bodyBytes))

	var pubsubMsg struct {
		Subscription string `json:"subscription"`
		Message      struct {
			Data string `json:"data"` // base64-encoded message payload
		} `json:"message"`
	}
	if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
		return fmt.Errorf("failed to unmarshal wrapper JSON: %w", err)
	}

	rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
	if err != nil {
		return fmt.Errorf("failed to decode base64 data: %w", err)
	}
	return s.pubsub.ProcessMessage(rawData, payload)
}

func (s *Server) UpdateStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := club.Game{}
		if err := s.decodePushMessage(r, &game); err != nil {
			log.Error("Failed to decode update stats message", "error", err)
			http.Error(w, "Invalid push message", http.StatusBadRequest)
			return
		}

		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would update stats", "gameID", game.ID)
			w.Write([]byte("OK"))
			return
		}

		if err := s.Processor.UpdateStats(&game); err != nil {
			log.Error("Failed to update stats", "error", err, "gameID", game.ID)
			http.Error(w, "Failed to update stats", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}

func (s *Server) NotifyResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := club.Game{}
		if err := s.decodePushMessage(r, &game); err != nil {
			log.Error("Failed to decode notify result message", "error", err)
			http.Error(w, "Invalid push message", http.StatusBadRequest)
			return
		}

		isDryRun := isDryRunFromContext(r)
		if err := s.Processor.NotifyResult(&game, isDryRun); err != nil {
			log.Error("Failed to notify result", "error", err, "gameID", game.ID)
			http.Error(w, "Failed to notify result", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}

// NotifyLineupHandler posts the current session's slot lineup to the
// notification channel.
func (s *Server) NotifyLineupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, slots, err := s.Slots.ListSlots(s.now())
		if err != nil {
			http.Error(w, "Failed to list slots", http.StatusInternalServerError)
			log.Error("Failed to list slots", "error", err)
			return
		}

		isDryRun := isDryRunFromContext(r)
		if err := s.Notifier.SendLineupNotification(id, slots, isDryRun); err != nil {
			http.Error(w, "Failed to send lineup notification", http.StatusInternalServerError)
			log.Error("Failed to send lineup notification", "error", err, "session", id)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "Lineup notification sent.")
	}
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// SlotsCommandHandler returns a handler for the /slots Slack command.
func (s *Server) SlotsCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, slots, err := s.Slots.ListSlots(s.now())
		if err != nil {
			http.Error(w, "Failed to list slots", http.StatusInternalServerError)
			log.Error("Failed to list slots", "error", err)
			return
		}

		msg, err := s.Notifier.FormatSlotsResponse(id, slots)
		if err != nil {
			http.Error(w, "Failed to format slots", http.StatusInternalServerError)
			log.Error("Failed to format slots", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}

		respondWithSlackMsg(w, slackMsg)
	}
}

// LeaderboardCommandHandler returns a handler for the /leaderboard Slack command.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerStats, err := s.Stats.GetPlayerStats()
		if err != nil {
			http.Error(w, "Failed to get player stats", http.StatusInternalServerError)
			log.Error("Failed to get player stats from store", "error", err)
			return
		}

		// The command text selects the scope, e.g. `/leaderboard singles`.
		scope := leaderboard.ScopeCombined
		if err := r.ParseForm(); err == nil {
			scope = leaderboard.ParseScope(r.FormValue("text"))
		}
		entries := leaderboard.RankPlayers(playerStats, scope)

		msg, err := s.Notifier.FormatLeaderboardResponse(entries)
		if err != nil {
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			log.Error("Failed to format leaderboard", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}

		respondWithSlackMsg(w, slackMsg)
	}
}

// TeamLeaderboardCommandHandler returns a handler for the /team-leaderboard Slack command.
func (s *Server) TeamLeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamStats, err := s.Stats.GetTeamStats()
		if err != nil {
			http.Error(w, "Failed to get team stats", http.StatusInternalServerError)
			log.Error("Failed to get team stats from store", "error", err)
			return
		}

		entries := leaderboard.RankTeams(teamStats)

		msg, err := s.Notifier.FormatTeamLeaderboardResponse(entries)
		if err != nil {
			http.Error(w, "Failed to format team leaderboard", http.StatusInternalServerError)
			log.Error("Failed to format team leaderboard", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}

		respondWithSlackMsg(w, slackMsg)
	}
}
