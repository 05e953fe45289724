package main

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/session"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := make(map[string]string)
	required := []string{"TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN"}

	for _, key := range required {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		} else {
			log.Fatalf("Error: Required environment variable %s is not set.", key)
		}
	}
	return config
}

type seedPlayer struct {
	ID   string
	Name string
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	// Connect directly to the primary database
	dbURL := fmt.Sprintf("%s?authToken=%s", cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	db, err := sql.Open("libsql", dbURL)
	if err != nil {
		log.Fatalf("Failed to open primary database: %s", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to primary database: %s", err)
	}

	log.Info("Successfully connected to the primary database.")

	// Create 8 dummy players to rotate through the games
	dummyPlayers := []seedPlayer{
		{ID: "player-1", Name: "Seeder Player A"},
		{ID: "player-2", Name: "Seeder Player B"},
		{ID: "player-3", Name: "Seeder Player C"},
		{ID: "player-4", Name: "Seeder Player D"},
		{ID: "player-5", Name: "Seeder Player E"},
		{ID: "player-6", Name: "Seeder Player F"},
		{ID: "player-7", Name: "Seeder Player G"},
		{ID: "player-8", Name: "Seeder Player H"},
	}

	for _, p := range dummyPlayers {
		_, err := db.Exec("INSERT OR IGNORE INTO players (id, name) VALUES (?, ?)", p.ID, p.Name)
		if err != nil {
			log.Fatalf("Failed to insert dummy player %s: %s", p.Name, err)
		}
	}
	log.Info("Ensured dummy players exist.")

	schedule := session.NewSchedule(time.Monday, 19, 0, time.UTC)

	const batchSize = 100 // Insert 100 games at a time
	const numGames = 10000

	log.Info("Preparing to insert dummy games...", "total", numGames, "batch_size", batchSize)
	startTime := time.Now()

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to begin transaction: %s", err)
	}

	valueStrings := make([]string, 0, batchSize)
	valueArgs := make([]interface{}, 0, batchSize*12) // 12 columns per game

	for i := 0; i < numGames; i++ {
		// Spread the games over the past year of sessions.
		weeksAgo := rand.Intn(52)
		sessionTS := schedule.ID(time.Now().Add(-time.Duration(weeksAgo) * 7 * 24 * time.Hour))

		// Alternate between doubles and singles games.
		perm := rand.Perm(len(dummyPlayers))
		var teamA2, teamB2 interface{}
		if i%3 != 0 {
			teamA2 = dummyPlayers[perm[2]].ID
			teamB2 = dummyPlayers[perm[3]].ID
		}

		scoreA := rand.Intn(11)
		scoreB := rand.Intn(11)
		winner := club.WinnerA
		if scoreB > scoreA {
			winner = club.WinnerB
		}

		valueStrings = append(valueStrings, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		valueArgs = append(valueArgs,
			uuid.NewString(),
			int64(sessionTS),
			i%4+1,
			dummyPlayers[perm[0]].ID,
			teamA2,
			dummyPlayers[perm[1]].ID,
			teamB2,
			scoreA,
			scoreB,
			string(winner),
			time.Unix(int64(sessionTS), 0).Add(time.Duration(i%4)*30*time.Minute).Unix(),
			string(club.StatusNew),
		)

		if (i+1)%batchSize == 0 || (i+1) == numGames {
			stmt := fmt.Sprintf(`
				INSERT INTO games (id, session_ts, game_number, team_a_player1, team_a_player2,
					team_b_player1, team_b_player2, score_a, score_b, winner,
					recorded_at, processing_status)
				VALUES %s;`, strings.Join(valueStrings, ","))

			_, err := tx.Exec(stmt, valueArgs...)
			if err != nil {
				tx.Rollback()
				log.Fatalf("Failed to execute batch insert: %s", err)
			}

			// Reset for the next batch
			valueStrings = make([]string, 0, batchSize)
			valueArgs = make([]interface{}, 0, batchSize*12)
			log.Info("Inserted batch", "completed", i+1, "total", numGames)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %s", err)
	}

	duration := time.Since(startTime)
	log.Info("Successfully inserted all dummy games.", "duration", duration)
}
