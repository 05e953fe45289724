package stats_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/database"
	"github.com/mvoss/clubnight/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (stats.StatsStore, club.ClubStore, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	return stats.New(db), club.New(db), teardown
}

func intPtr(v int) *int { return &v }

// sampleHistory builds a mixed singles/doubles history over four players.
func sampleHistory() []*club.Game {
	return []*club.Game{
		{
			ID: "g1", Session: 100, GameNumber: 1, RecordedAt: 1,
			TeamA:  club.Team{Player1: "p1", Player2: "p2"},
			TeamB:  club.Team{Player1: "p3", Player2: "p4"},
			ScoreA: intPtr(6), ScoreB: intPtr(4), Winner: club.WinnerA,
		},
		{
			ID: "g2", Session: 100, GameNumber: 2, RecordedAt: 2,
			TeamA:  club.Team{Player1: "p1"},
			TeamB:  club.Team{Player1: "p3"},
			Winner: club.WinnerB, // binary: 5 for p1, 10 for p3
		},
		{
			ID: "g3", Session: 200, GameNumber: 1, RecordedAt: 3,
			// Same pair as g1 team A but swapped, must hit the same team aggregate.
			TeamA:  club.Team{Player1: "p2", Player2: "p1"},
			TeamB:  club.Team{Player1: "p4", Player2: "p3"},
			ScoreA: intPtr(3), ScoreB: intPtr(7), Winner: club.WinnerB,
		},
	}
}

func recordHistory(t *testing.T, clubStore club.ClubStore, games []*club.Game) {
	t.Helper()
	for _, g := range games {
		require.NoError(t, clubStore.RecordGame(g))
	}
}

func TestApplyGameBuckets(t *testing.T) {
	statsStore, clubStore, teardown := setupTestDB(t)
	defer teardown()

	clubStore.AddPlayer("p1", "One")
	clubStore.AddPlayer("p3", "Three")

	history := sampleHistory()
	recordHistory(t, clubStore, history)
	for _, g := range history {
		require.NoError(t, statsStore.ApplyGame(g))
	}

	players, err := statsStore.GetPlayerStats()
	require.NoError(t, err)

	byID := make(map[string]stats.PlayerStats)
	for _, p := range players {
		byID[p.PlayerID] = p
	}

	// p1: doubles 6 + 3, singles 5.
	p1 := byID["p1"]
	assert.Equal(t, 14, p1.TotalPoints)
	assert.Equal(t, 3, p1.GamesPlayed)
	assert.Equal(t, 5, p1.SinglesPoints)
	assert.Equal(t, 1, p1.SinglesGames)
	assert.Equal(t, 9, p1.DoublesPoints)
	assert.Equal(t, 2, p1.DoublesGames)

	// p3: doubles 4 + 7, singles 10.
	p3 := byID["p3"]
	assert.Equal(t, 21, p3.TotalPoints)
	assert.Equal(t, 3, p3.GamesPlayed)
	assert.Equal(t, 10, p3.SinglesPoints)
	assert.Equal(t, 11, p3.DoublesPoints)

	teams, err := statsStore.GetTeamStats()
	require.NoError(t, err)
	require.Len(t, teams, 2)

	byKey := make(map[string]stats.TeamStats)
	for _, team := range teams {
		byKey[team.TeamKey] = team
	}

	// p1/p2 played g1 and g3 under both orderings of the pair.
	pair := byKey[stats.TeamKey("p2", "p1")]
	assert.Equal(t, stats.TeamKey("p1", "p2"), pair.TeamKey)
	assert.Equal(t, 9, pair.TotalPoints)
	assert.Equal(t, 2, pair.GamesPlayed)
}

func TestApplyGameRejectsUndecided(t *testing.T) {
	statsStore, _, teardown := setupTestDB(t)
	defer teardown()

	err := statsStore.ApplyGame(&club.Game{ID: "g1", TeamA: club.Team{Player1: "p1"}, TeamB: club.Team{Player1: "p2"}})
	assert.ErrorIs(t, err, stats.ErrGameUndecided)
}

func TestRecomputeMatchesIncremental(t *testing.T) {
	statsStore, clubStore, teardown := setupTestDB(t)
	defer teardown()

	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		clubStore.AddPlayer(id, "Player "+id)
	}
	history := sampleHistory()
	recordHistory(t, clubStore, history)

	// Apply incrementally in shuffled order; addition is order-independent.
	shuffled := make([]*club.Game, len(history))
	copy(shuffled, history)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	for _, g := range shuffled {
		require.NoError(t, statsStore.ApplyGame(g))
	}

	incrementalPlayers, err := statsStore.GetPlayerStats()
	require.NoError(t, err)
	incrementalTeams, err := statsStore.GetTeamStats()
	require.NoError(t, err)

	require.NoError(t, statsStore.Recompute())

	recomputedPlayers, err := statsStore.GetPlayerStats()
	require.NoError(t, err)
	recomputedTeams, err := statsStore.GetTeamStats()
	require.NoError(t, err)

	assert.Equal(t, incrementalPlayers, recomputedPlayers)
	assert.Equal(t, incrementalTeams, recomputedTeams)

	// And the combined state passes verification.
	mismatches, err := statsStore.Verify()
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestRecomputeSkipsUndecidedGames(t *testing.T) {
	statsStore, clubStore, teardown := setupTestDB(t)
	defer teardown()

	require.NoError(t, clubStore.RecordGame(&club.Game{
		ID: "pending", Session: 100, RecordedAt: 1,
		TeamA: club.Team{Player1: "p1"}, TeamB: club.Team{Player1: "p2"},
	}))

	require.NoError(t, statsStore.Recompute())

	mismatches, err := statsStore.Verify()
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestVerifyDetectsTampering(t *testing.T) {
	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	defer teardown()

	statsStore := stats.New(db)
	clubStore := club.New(db)

	history := sampleHistory()
	recordHistory(t, clubStore, history)
	for _, g := range history {
		require.NoError(t, statsStore.ApplyGame(g))
	}

	_, err = db.Exec("UPDATE player_stats SET total_points = total_points + 100 WHERE player_id = 'p1'")
	require.NoError(t, err)

	mismatches, err := statsStore.Verify()
	assert.ErrorIs(t, err, stats.ErrReconciliationMismatch)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "player", mismatches[0].Kind)
	assert.Equal(t, "p1", mismatches[0].Key)

	// Verify never repairs: the tampered value is still stored.
	var points int
	require.NoError(t, db.QueryRow("SELECT total_points FROM player_stats WHERE player_id = 'p1'").Scan(&points))
	assert.Equal(t, 114, points)
}

func TestConcurrentApplyDoesNotLoseUpdates(t *testing.T) {
	statsStore, clubStore, teardown := setupTestDB(t)
	defer teardown()

	const games = 20
	history := make([]*club.Game, 0, games)
	for i := 0; i < games; i++ {
		history = append(history, &club.Game{
			ID: fmt.Sprintf("g%d", i), Session: 100, GameNumber: i, RecordedAt: int64(i),
			TeamA:  club.Team{Player1: "p1"},
			TeamB:  club.Team{Player1: "p2"},
			ScoreA: intPtr(6), ScoreB: intPtr(4), Winner: club.WinnerA,
		})
	}
	recordHistory(t, clubStore, history)

	var wg sync.WaitGroup
	for _, g := range history {
		wg.Add(1)
		go func(g *club.Game) {
			defer wg.Done()
			assert.NoError(t, statsStore.ApplyGame(g))
		}(g)
	}
	wg.Wait()

	mismatches, err := statsStore.Verify()
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestGetPlayerStatsIncludesZeroGamePlayers(t *testing.T) {
	statsStore, clubStore, teardown := setupTestDB(t)
	defer teardown()

	clubStore.AddPlayer("idle", "Idle Player")

	players, err := statsStore.GetPlayerStats()
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "idle", players[0].PlayerID)
	assert.Zero(t, players[0].GamesPlayed)
}
