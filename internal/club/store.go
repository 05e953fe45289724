package club

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mvoss/clubnight/internal/session"
)

// ErrResultFinal is returned when a result is recorded for a game whose winner
// is already set. Outcome history is append-only.
var ErrResultFinal = errors.New("game result is final")

// ErrGameNotFound is returned when a game ID does not exist.
var ErrGameNotFound = errors.New("game not found")

// New creates a new ClubStore.
func New(db *sql.DB) ClubStore {
	return &store{
		db: db,
	}
}

func (s *store) AddPlayer(playerID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM players WHERE id = ?)", playerID).Scan(&exists)
	if err != nil {
		log.Error("Failed to check if player exists", "error", err, "playerID", playerID)
		return
	}

	if !exists {
		_, err := s.db.Exec("INSERT INTO players (id, name) VALUES (?, ?)", playerID, name)
		if err != nil {
			log.Error("Failed to add player", "error", err, "playerID", playerID)
		} else {
			log.Info("Added new player to the store", "playerID", playerID, "name", name)
		}
	} else {
		_, err := s.db.Exec("UPDATE players SET name = ? WHERE id = ?", name, playerID)
		if err != nil {
			log.Error("Failed to update player", "error", err, "playerID", playerID)
		}
	}
}

func (s *store) UpsertPlayers(players []PlayerInfo) error {
	if len(players) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO players (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name;
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range players {
		if _, err := stmt.Exec(p.ID, p.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert player %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *store) IsKnownPlayer(playerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM players WHERE id = ?)", playerID).Scan(&exists)
	if err != nil {
		log.Error("Failed to check if player exists", "error", err, "playerID", playerID)
		return false
	}
	return exists
}

func (s *store) GetAllPlayers() ([]PlayerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT id, name FROM players ORDER BY name")
	if err != nil {
		log.Error("Failed to query all players", "error", err)
		return nil, err
	}
	defer rows.Close()

	var players []PlayerInfo
	for rows.Next() {
		var p PlayerInfo
		var name sql.NullString
		if err := rows.Scan(&p.ID, &name); err != nil {
			log.Error("Failed to scan player row", "error", err)
			continue
		}
		p.Name = name.String
		players = append(players, p)
	}
	return players, nil
}

// RecordGame appends a new game to the history with processing status NEW.
func (s *store) RecordGame(game *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO games (id, session_ts, game_number, team_a_player1, team_a_player2, team_b_player1, team_b_player2, score_a, score_b, winner, recorded_at, processing_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		game.ID, int64(game.Session), game.GameNumber,
		game.TeamA.Player1, nullable(game.TeamA.Player2),
		game.TeamB.Player1, nullable(game.TeamB.Player2),
		nullableInt(game.ScoreA), nullableInt(game.ScoreB),
		nullable(string(game.Winner)), game.RecordedAt, StatusNew,
	)
	return err
}

// SetResult records the scores and winner for a game. The history is
// append-only: once a winner is set the row is immutable and ErrResultFinal is
// returned for any further attempt.
func (s *store) SetResult(gameID string, scoreA, scoreB *int, winner Winner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE games SET score_a = ?, score_b = ?, winner = ?
		WHERE id = ? AND (winner IS NULL OR winner = '')
	`, nullableInt(scoreA), nullableInt(scoreB), string(winner), gameID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM games WHERE id = ?)", gameID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrGameNotFound
		}
		return ErrResultFinal
	}
	return nil
}

func (s *store) GetGame(gameID string) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(gameSelect+" WHERE id = ?", gameID)
	game, err := scanGame(row)
	if err == sql.ErrNoRows {
		return nil, ErrGameNotFound
	}
	return game, err
}

// GetGamesForProcessing retrieves all games not yet in a completed state.
func (s *store) GetGamesForProcessing() ([]*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryGames(gameSelect+" WHERE processing_status != ? ORDER BY recorded_at", StatusCompleted)
}

func (s *store) GetAllGames() ([]*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryGames(gameSelect + " ORDER BY recorded_at")
}

func (s *store) GetGamesBySession(id session.ID) ([]*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryGames(gameSelect+" WHERE session_ts = ? ORDER BY game_number", int64(id))
}

// UpdateProcessingStatus transitions a game to a new state.
func (s *store) UpdateProcessingStatus(gameID string, status ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE games SET processing_status = ? WHERE id = ?", status, gameID)
	return err
}

func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		log.Error("Failed to begin transaction for clearing store", "error", err)
		return
	}

	for _, table := range []string{"games", "slots", "player_stats", "team_stats", "players"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			log.Error("Failed to clear table", "error", err, "table", table)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit transaction for clearing store", "error", err)
	}
}

func (s *store) ClearGame(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM games WHERE id = ?", gameID)
	if err != nil {
		log.Error("Failed to clear game", "error", err, "gameID", gameID)
	}
}

const gameSelect = `
	SELECT id, session_ts, game_number, team_a_player1, team_a_player2, team_b_player1, team_b_player2, score_a, score_b, winner, recorded_at, processing_status
	FROM games`

func (s *store) queryGames(query string, args ...any) ([]*Game, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			log.Error("Failed to scan game row", "error", err)
			continue
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// scanGame is a helper to scan a single game row.
func scanGame(scanner interface{ Scan(...any) error }) (*Game, error) {
	var game Game
	var sessionTS int64
	var teamAP2, teamBP2, winner sql.NullString
	var scoreA, scoreB sql.NullInt64

	err := scanner.Scan(
		&game.ID, &sessionTS, &game.GameNumber,
		&game.TeamA.Player1, &teamAP2, &game.TeamB.Player1, &teamBP2,
		&scoreA, &scoreB, &winner, &game.RecordedAt, &game.ProcessingStatus,
	)
	if err != nil {
		return nil, err
	}

	game.Session = session.ID(sessionTS)
	game.TeamA.Player2 = teamAP2.String
	game.TeamB.Player2 = teamBP2.String
	game.Winner = Winner(winner.String)
	if scoreA.Valid {
		v := int(scoreA.Int64)
		game.ScoreA = &v
	}
	if scoreB.Valid {
		v := int(scoreB.Int64)
		game.ScoreB = &v
	}
	return &game, nil
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
