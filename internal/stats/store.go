package stats

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/scoring"
)

// ErrGameUndecided is returned when an aggregate update is attempted for a
// game without a recorded winner.
var ErrGameUndecided = errors.New("game has no recorded winner")

// ErrReconciliationMismatch indicates that the stored aggregates diverge from
// a full replay of the game history. It is never auto-corrected.
var ErrReconciliationMismatch = errors.New("aggregates diverge from game history")

// New creates a new StatsStore.
func New(db *sql.DB) StatsStore {
	return &store{
		db: db,
	}
}

// ApplyGame folds one decided game into the running aggregates. Every bucket
// update is a single additive upsert, so concurrent applications of different
// games accumulate without lost updates, and the surrounding transaction
// keeps a single game's aggregate update all-or-nothing.
func (s *store) ApplyGame(game *club.Game) error {
	if !game.Decided() {
		return ErrGameUndecided
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if err := applyGameTx(tx, game); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to apply game %s: %w", game.ID, err)
	}
	return tx.Commit()
}

// Recompute rebuilds both aggregate tables from zero by replaying the entire
// game history through the same per-game rule used by ApplyGame.
func (s *store) Recompute() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	for _, table := range []string{"player_stats", "team_stats"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}

	games, err := decidedGames(tx)
	if err != nil {
		tx.Rollback()
		return err
	}

	for _, game := range games {
		if err := applyGameTx(tx, game); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to replay game %s: %w", game.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info("Recomputed aggregates from game history", "games", len(games))
	return nil
}

// Verify replays the game history in memory and compares the result against
// the stored aggregates. A non-empty mismatch list is returned together with
// ErrReconciliationMismatch; the stored state is left untouched.
func (s *store) Verify() ([]Mismatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games, err := decidedGames(s.db)
	if err != nil {
		return nil, err
	}
	expectedPlayers, expectedTeams := replay(games)

	storedPlayers, err := s.playerRows()
	if err != nil {
		return nil, err
	}
	storedTeams, err := s.teamRows()
	if err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	mismatches = append(mismatches, diffPlayers(storedPlayers, expectedPlayers)...)
	mismatches = append(mismatches, diffTeams(storedTeams, expectedTeams)...)

	if len(mismatches) > 0 {
		log.Error("Aggregate reconciliation mismatch detected", "count", len(mismatches))
		return mismatches, ErrReconciliationMismatch
	}
	return nil, nil
}

func (s *store) GetPlayerStats() ([]PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT
			p.id,
			COALESCE(p.name, ''),
			COALESCE(ps.total_points, 0),
			COALESCE(ps.games_played, 0),
			COALESCE(ps.singles_points, 0),
			COALESCE(ps.singles_games, 0),
			COALESCE(ps.doubles_points, 0),
			COALESCE(ps.doubles_games, 0)
		FROM players p
		LEFT JOIN player_stats ps ON p.id = ps.player_id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PlayerStats
	for rows.Next() {
		var stat PlayerStats
		err := rows.Scan(
			&stat.PlayerID, &stat.PlayerName,
			&stat.TotalPoints, &stat.GamesPlayed,
			&stat.SinglesPoints, &stat.SinglesGames,
			&stat.DoublesPoints, &stat.DoublesGames,
		)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func (s *store) GetTeamStats() ([]TeamStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teamRows()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
}

// applyGameTx is the single per-game aggregation rule, shared by the
// incremental and recompute paths.
func applyGameTx(e execer, game *club.Game) error {
	pointsA := scoring.Award(game, scoring.SideA)
	pointsB := scoring.Award(game, scoring.SideB)
	doubles := game.IsDoubles()

	apply := func(team club.Team, points int) error {
		for _, playerID := range []string{team.Player1, team.Player2} {
			if playerID == "" {
				continue
			}
			if err := upsertPlayer(e, playerID, points, doubles); err != nil {
				return err
			}
		}
		if doubles {
			return upsertTeam(e, team, points)
		}
		return nil
	}

	if err := apply(game.TeamA, pointsA); err != nil {
		return err
	}
	return apply(game.TeamB, pointsB)
}

func upsertPlayer(e execer, playerID string, points int, doubles bool) error {
	singlesPoints, singlesGames, doublesPoints, doublesGames := points, 1, 0, 0
	if doubles {
		singlesPoints, singlesGames, doublesPoints, doublesGames = 0, 0, points, 1
	}

	_, err := e.Exec(`
		INSERT INTO player_stats (player_id, total_points, games_played, singles_points, singles_games, doubles_points, doubles_games)
		VALUES (?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			total_points = total_points + excluded.total_points,
			games_played = games_played + excluded.games_played,
			singles_points = singles_points + excluded.singles_points,
			singles_games = singles_games + excluded.singles_games,
			doubles_points = doubles_points + excluded.doubles_points,
			doubles_games = doubles_games + excluded.doubles_games;
	`, playerID, points, singlesPoints, singlesGames, doublesPoints, doublesGames)
	return err
}

func upsertTeam(e execer, team club.Team, points int) error {
	p1, p2 := team.Player1, team.Player2
	if p2 < p1 {
		p1, p2 = p2, p1
	}

	_, err := e.Exec(`
		INSERT INTO team_stats (team_key, player1_id, player2_id, total_points, games_played)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(team_key) DO UPDATE SET
			total_points = total_points + excluded.total_points,
			games_played = games_played + excluded.games_played;
	`, TeamKey(p1, p2), p1, p2, points)
	return err
}

// decidedGames loads the full decided history in recorded order.
func decidedGames(e execer) ([]*club.Game, error) {
	rows, err := e.Query(`
		SELECT id, team_a_player1, team_a_player2, team_b_player1, team_b_player2, score_a, score_b, winner
		FROM games
		WHERE winner IS NOT NULL AND winner != ''
		ORDER BY recorded_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*club.Game
	for rows.Next() {
		var game club.Game
		var teamAP2, teamBP2 sql.NullString
		var scoreA, scoreB sql.NullInt64
		var winner string

		err := rows.Scan(&game.ID, &game.TeamA.Player1, &teamAP2, &game.TeamB.Player1, &teamBP2, &scoreA, &scoreB, &winner)
		if err != nil {
			return nil, err
		}
		game.TeamA.Player2 = teamAP2.String
		game.TeamB.Player2 = teamBP2.String
		game.Winner = club.Winner(winner)
		if scoreA.Valid {
			v := int(scoreA.Int64)
			game.ScoreA = &v
		}
		if scoreB.Valid {
			v := int(scoreB.Int64)
			game.ScoreB = &v
		}
		games = append(games, &game)
	}
	return games, rows.Err()
}

// replay folds a game history into in-memory aggregates using the same
// per-game rule as applyGameTx. Addition is commutative, so the outcome is
// independent of history order.
func replay(games []*club.Game) (map[string]PlayerStats, map[string]TeamStats) {
	players := make(map[string]PlayerStats)
	teams := make(map[string]TeamStats)

	for _, game := range games {
		pointsA := scoring.Award(game, scoring.SideA)
		pointsB := scoring.Award(game, scoring.SideB)
		doubles := game.IsDoubles()

		fold := func(team club.Team, points int) {
			for _, playerID := range []string{team.Player1, team.Player2} {
				if playerID == "" {
					continue
				}
				stat := players[playerID]
				stat.PlayerID = playerID
				stat.TotalPoints += points
				stat.GamesPlayed++
				if doubles {
					stat.DoublesPoints += points
					stat.DoublesGames++
				} else {
					stat.SinglesPoints += points
					stat.SinglesGames++
				}
				players[playerID] = stat
			}
			if doubles {
				p1, p2 := team.Player1, team.Player2
				if p2 < p1 {
					p1, p2 = p2, p1
				}
				key := TeamKey(p1, p2)
				teamStat := teams[key]
				teamStat.TeamKey = key
				teamStat.Player1ID = p1
				teamStat.Player2ID = p2
				teamStat.TotalPoints += points
				teamStat.GamesPlayed++
				teams[key] = teamStat
			}
		}

		fold(game.TeamA, pointsA)
		fold(game.TeamB, pointsB)
	}
	return players, teams
}

func (s *store) playerRows() ([]PlayerStats, error) {
	rows, err := s.db.Query(`
		SELECT player_id, total_points, games_played, singles_points, singles_games, doubles_points, doubles_games
		FROM player_stats
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PlayerStats
	for rows.Next() {
		var stat PlayerStats
		err := rows.Scan(
			&stat.PlayerID,
			&stat.TotalPoints, &stat.GamesPlayed,
			&stat.SinglesPoints, &stat.SinglesGames,
			&stat.DoublesPoints, &stat.DoublesGames,
		)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func (s *store) teamRows() ([]TeamStats, error) {
	rows, err := s.db.Query(`
		SELECT team_key, player1_id, player2_id, total_points, games_played
		FROM team_stats
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []TeamStats
	for rows.Next() {
		var stat TeamStats
		if err := rows.Scan(&stat.TeamKey, &stat.Player1ID, &stat.Player2ID, &stat.TotalPoints, &stat.GamesPlayed); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func diffPlayers(stored []PlayerStats, expected map[string]PlayerStats) []Mismatch {
	var mismatches []Mismatch
	seen := make(map[string]bool, len(stored))

	for _, stat := range stored {
		seen[stat.PlayerID] = true
		want, ok := expected[stat.PlayerID]
		if !ok {
			mismatches = append(mismatches, Mismatch{Kind: "player", Key: stat.PlayerID, Stored: formatPlayer(stat), Replay: "absent"})
			continue
		}
		want.PlayerName = stat.PlayerName
		if stat != want {
			mismatches = append(mismatches, Mismatch{Kind: "player", Key: stat.PlayerID, Stored: formatPlayer(stat), Replay: formatPlayer(want)})
		}
	}
	for playerID, want := range expected {
		if !seen[playerID] {
			mismatches = append(mismatches, Mismatch{Kind: "player", Key: playerID, Stored: "absent", Replay: formatPlayer(want)})
		}
	}
	return mismatches
}

func diffTeams(stored []TeamStats, expected map[string]TeamStats) []Mismatch {
	var mismatches []Mismatch
	seen := make(map[string]bool, len(stored))

	for _, stat := range stored {
		seen[stat.TeamKey] = true
		want, ok := expected[stat.TeamKey]
		if !ok {
			mismatches = append(mismatches, Mismatch{Kind: "team", Key: stat.TeamKey, Stored: formatTeam(stat), Replay: "absent"})
			continue
		}
		if stat != want {
			mismatches = append(mismatches, Mismatch{Kind: "team", Key: stat.TeamKey, Stored: formatTeam(stat), Replay: formatTeam(want)})
		}
	}
	for key, want := range expected {
		if !seen[key] {
			mismatches = append(mismatches, Mismatch{Kind: "team", Key: key, Stored: "absent", Replay: formatTeam(want)})
		}
	}
	return mismatches
}

func formatPlayer(s PlayerStats) string {
	return fmt.Sprintf("points=%d games=%d singles=%d/%d doubles=%d/%d",
		s.TotalPoints, s.GamesPlayed, s.SinglesPoints, s.SinglesGames, s.DoublesPoints, s.DoublesGames)
}

func formatTeam(s TeamStats) string {
	return fmt.Sprintf("points=%d games=%d", s.TotalPoints, s.GamesPlayed)
}
