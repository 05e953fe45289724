package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mvoss/clubnight/internal/bus"
	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/config"
	"github.com/mvoss/clubnight/internal/database"
	"github.com/mvoss/clubnight/internal/leaderboard"
	"github.com/mvoss/clubnight/internal/metrics"
	"github.com/mvoss/clubnight/internal/notifier"
	"github.com/mvoss/clubnight/internal/processor"
	"github.com/mvoss/clubnight/internal/pubsub"
	"github.com/mvoss/clubnight/internal/reservation"
	"github.com/mvoss/clubnight/internal/session"
	"github.com/mvoss/clubnight/internal/stats"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// testNow is a Wednesday; the active session is the following Monday 19:00 UTC.
var testNow = time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv   *Server
	db    *sql.DB
	notif *notifier.Mock
	metr  *metrics.Mock
	ps    *pubsub.MockPubSubClient
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(teardown)

	schedule := session.NewSchedule(time.Monday, 19, 0, time.UTC)
	store := club.New(db)
	slots := reservation.New(db, schedule, bus.New())
	statsStore := stats.New(db)
	notif := notifier.NewMock()
	metr := metrics.NewMock()
	ps := pubsub.NewMock("TEST")
	proc := processor.New(store, statsStore, notif, metr, ps)

	srv := NewServer(store, slots, statsStore, metr, metrics.NewMetricsHandler(), config.Config{}, notif, proc, ps)
	srv.now = func() time.Time { return testNow }

	return &testEnv{srv: srv, db: db, notif: notif, metr: metr, ps: ps}
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func intPtr(v int) *int { return &v }

func TestHealthCheckHandler(t *testing.T) {
	env := newTestServer(t)

	rec := doJSON(t, env.srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK!", rec.Body.String())
}

func TestClaimAndListSlots(t *testing.T) {
	env := newTestServer(t)

	rec := doJSON(t, env.srv, http.MethodPost, "/slots/claim", ClaimRequest{SlotNumber: 1, PlayerID: "p1", PlayerName: "Anna"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.metr.ClaimsAccepted())

	rec = doJSON(t, env.srv, http.MethodGet, "/slots", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SlotsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Slots[0])
	assert.Equal(t, "p1", resp.Slots[0].PlayerID)
	assert.Nil(t, resp.Slots[1])

	// Claiming also registers the player.
	players, err := env.srv.Store.GetAllPlayers()
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Anna", players[0].Name)
}

func TestClaimConflicts(t *testing.T) {
	env := newTestServer(t)

	rec := doJSON(t, env.srv, http.MethodPost, "/slots/claim", ClaimRequest{SlotNumber: 1, PlayerID: "p1", PlayerName: "Anna"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Occupied slot.
	rec = doJSON(t, env.srv, http.MethodPost, "/slots/claim", ClaimRequest{SlotNumber: 1, PlayerID: "p2", PlayerName: "Bo"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Same player, second slot.
	rec = doJSON(t, env.srv, http.MethodPost, "/slots/claim", ClaimRequest{SlotNumber: 2, PlayerID: "p1", PlayerName: "Anna"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, 2, env.metr.ClaimsRejected())
}

func TestClaimValidation(t *testing.T) {
	env := newTestServer(t)

	rec := doJSON(t, env.srv, http.MethodPost, "/slots/claim", ClaimRequest{SlotNumber: 9, PlayerID: "p1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, env.srv, http.MethodPost, "/slots/claim", ClaimRequest{SlotNumber: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReleaseSlot(t *testing.T) {
	env := newTestServer(t)

	rec := doJSON(t, env.srv, http.MethodPost, "/slots/claim", ClaimRequest{SlotNumber: 3, PlayerID: "p1", PlayerName: "Anna"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env.srv, http.MethodPost, "/slots/release", ReleaseRequest{SlotNumber: 3})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Releasing an already-empty slot is a silent success.
	rec = doJSON(t, env.srv, http.MethodPost, "/slots/release", ReleaseRequest{SlotNumber: 3})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env.srv, http.MethodGet, "/slots", nil)
	var resp SlotsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Nil(t, resp.Slots[2])
}

func TestSlotEventsHandler(t *testing.T) {
	env := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/slots/events", nil)
	ctx, cancelReq := context.WithCancel(req.Context())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		env.srv.SlotEventsHandler()(rec, req)
		close(done)
	}()

	// Let the handler subscribe before mutating.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, env.srv.Slots.Claim(testNow, 2, "p1", "Anna", ""))
	time.Sleep(100 * time.Millisecond)

	cancelReq()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "event: session")
	assert.Contains(t, body, "event: slot-claimed")
	assert.Contains(t, body, `"slot_number":2`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}

func TestRecordGameAndResult(t *testing.T) {
	env := newTestServer(t)

	rec := doJSON(t, env.srv, http.MethodPost, "/games/record", RecordGameRequest{
		GameNumber: 1,
		TeamA:      club.Team{Player1: "p1", Player2: "p2"},
		TeamB:      club.Team{Player1: "p3", Player2: "p4"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var game club.Game
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&game))
	assert.NotEmpty(t, game.ID)
	assert.Equal(t, env.srv.Slots.CurrentSession(testNow), game.Session)
	assert.Equal(t, 1, env.metr.GamesRecorded())

	rec = doJSON(t, env.srv, http.MethodPost, "/games/result", ResultRequest{GameID: game.ID, ScoreA: intPtr(6), ScoreB: intPtr(4), Winner: "A"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Results are final.
	rec = doJSON(t, env.srv, http.MethodPost, "/games/result", ResultRequest{GameID: game.ID, Winner: "B"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, env.srv, http.MethodPost, "/games/result", ResultRequest{GameID: "nope", Winner: "A"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, env.srv, http.MethodPost, "/games/result", ResultRequest{GameID: game.ID, Winner: "C"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, env.srv, http.MethodGet, "/games", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var games []*club.Game
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&games))
	require.Len(t, games, 1)
	assert.Equal(t, club.WinnerA, games[0].Winner)
}

func TestRecordGameValidation(t *testing.T) {
	env := newTestServer(t)

	rec := doJSON(t, env.srv, http.MethodPost, "/games/record", RecordGameRequest{GameNumber: 1, TeamA: club.Team{Player1: "p1"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, env.srv, http.MethodPost, "/games/record", RecordGameRequest{
		GameNumber: 1,
		TeamA:      club.Team{Player1: "p1"},
		TeamB:      club.Team{Player1: "p2"},
		Winner:     "X",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessGamesHandler(t *testing.T) {
	env := newTestServer(t)

	require.NoError(t, env.srv.Store.RecordGame(&club.Game{
		ID: "g1", Session: 100, RecordedAt: 1,
		TeamA: club.Team{Player1: "p1"}, TeamB: club.Team{Player1: "p2"},
		Winner: club.WinnerA,
	}))

	rec := doJSON(t, env.srv, http.MethodGet, "/process", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.ps.SendMessageCalls, 2)
	assert.Equal(t, "update-stats", env.ps.SendMessageCalls[0].Topic)
	assert.Equal(t, "notify-result", env.ps.SendMessageCalls[1].Topic)

	game, err := env.srv.Store.GetGame("g1")
	require.NoError(t, err)
	assert.Equal(t, club.StatusCompleted, game.ProcessingStatus)
}

func TestLeaderboardHandler(t *testing.T) {
	env := newTestServer(t)

	env.srv.Store.AddPlayer("p1", "Anna")
	env.srv.Store.AddPlayer("p2", "Bo")
	require.NoError(t, env.srv.Stats.ApplyGame(&club.Game{
		ID: "g1", Session: 100,
		TeamA: club.Team{Player1: "p1"}, TeamB: club.Team{Player1: "p2"},
		ScoreA: intPtr(6), ScoreB: intPtr(4), Winner: club.WinnerA,
	}))

	rec := doJSON(t, env.srv, http.MethodGet, "/leaderboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []leaderboard.Entry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "p1", entries[0].ID)
	assert.Equal(t, "Anna", entries[0].Name)
	assert.InDelta(t, 6.0, entries[0].Average, 1e-9)

	// Doubles scope: neither has doubles games, tie broken by ID.
	rec = doJSON(t, env.srv, http.MethodGet, "/leaderboard?scope=doubles", nil)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	assert.Equal(t, "p1", entries[0].ID)
	assert.Zero(t, entries[0].Average)
}

func TestTeamLeaderboardHandler(t *testing.T) {
	env := newTestServer(t)

	require.NoError(t, env.srv.Stats.ApplyGame(&club.Game{
		ID: "g1", Session: 100,
		TeamA: club.Team{Player1: "p1", Player2: "p2"}, TeamB: club.Team{Player1: "p3", Player2: "p4"},
		ScoreA: intPtr(6), ScoreB: intPtr(4), Winner: club.WinnerA,
	}))

	rec := doJSON(t, env.srv, http.MethodGet, "/teams", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []leaderboard.Entry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, stats.TeamKey("p1", "p2"), entries[0].ID)
}

func TestReconcileHandler(t *testing.T) {
	env := newTestServer(t)

	require.NoError(t, env.srv.Store.RecordGame(&club.Game{
		ID: "g1", Session: 100, RecordedAt: 1,
		TeamA: club.Team{Player1: "p1"}, TeamB: club.Team{Player1: "p2"},
		ScoreA: intPtr(6), ScoreB: intPtr(4), Winner: club.WinnerA,
	}))
	game, err := env.srv.Store.GetGame("g1")
	require.NoError(t, err)
	require.NoError(t, env.srv.Stats.ApplyGame(game))

	rec := doJSON(t, env.srv, http.MethodGet, "/reconcile", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReconcileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "consistent", resp.Status)

	// Corrupt a stored aggregate; verify reports it without repairing.
	_, err = env.db.Exec("UPDATE player_stats SET total_points = 99 WHERE player_id = 'p1'")
	require.NoError(t, err)

	rec = doJSON(t, env.srv, http.MethodGet, "/reconcile", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "mismatch", resp.Status)
	require.Len(t, resp.Mismatches, 1)
	assert.Equal(t, "p1", resp.Mismatches[0].Key)

	// Repair recomputes from the history.
	rec = doJSON(t, env.srv, http.MethodGet, "/reconcile?repair=true", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "recomputed", resp.Status)

	rec = doJSON(t, env.srv, http.MethodGet, "/reconcile", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func pushBody(t *testing.T, payload any) *bytes.Buffer {
	t.Helper()

	raw, err := msgpack.Marshal(payload)
	require.NoError(t, err)

	wrapper := map[string]any{
		"subscription": "test-sub",
		"message": map[string]any{
			"data": base64.StdEncoding.EncodeToString(raw),
		},
	}
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(wrapper))
	return &buf
}

func TestUpdateStatsHandler(t *testing.T) {
	env := newTestServer(t)
	env.ps.ProcessMessageFunc = msgpack.Unmarshal
	env.srv.Store.AddPlayer("p1", "Anna")
	env.srv.Store.AddPlayer("p2", "Bo")

	game := &club.Game{
		ID: "g1", Session: 100,
		TeamA: club.Team{Player1: "p1"}, TeamB: club.Team{Player1: "p2"},
		ScoreA: intPtr(6), ScoreB: intPtr(4), Winner: club.WinnerA,
	}

	req := httptest.NewRequest(http.MethodPost, "/update-stats", pushBody(t, game))
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	players, err := env.srv.Stats.GetPlayerStats()
	require.NoError(t, err)
	byID := make(map[string]stats.PlayerStats)
	for _, p := range players {
		byID[p.PlayerID] = p
	}
	assert.Equal(t, 6, byID["p1"].TotalPoints)
	assert.Equal(t, 4, byID["p2"].TotalPoints)
}

func TestUpdateStatsHandler_InvalidBody(t *testing.T) {
	env := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/update-stats", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotifyResultHandler(t *testing.T) {
	env := newTestServer(t)
	env.ps.ProcessMessageFunc = msgpack.Unmarshal

	game := &club.Game{
		ID: "g1", Session: 100,
		TeamA: club.Team{Player1: "p1"}, TeamB: club.Team{Player1: "p2"},
		Winner: club.WinnerB,
	}

	req := httptest.NewRequest(http.MethodPost, "/notify-result", pushBody(t, game))
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.notif.SendResultNotificationCalls, 1)
	assert.Equal(t, "g1", env.notif.SendResultNotificationCalls[0].ID)
}

func TestNotifyLineupHandler(t *testing.T) {
	env := newTestServer(t)

	rec := doJSON(t, env.srv, http.MethodPost, "/slots/claim", ClaimRequest{SlotNumber: 1, PlayerID: "p1", PlayerName: "Anna"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env.srv, http.MethodGet, "/notify-lineup", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.notif.SendLineupNotificationCalls, 1)
	call := env.notif.SendLineupNotificationCalls[0]
	assert.Equal(t, env.srv.Slots.CurrentSession(testNow), call.Session)
	require.NotNil(t, call.Slots[0])
	assert.Equal(t, "p1", call.Slots[0].PlayerID)
}

func TestSlotsCommandHandler(t *testing.T) {
	env := newTestServer(t)
	env.notif.FormatSlotsResponseFunc = func(id session.ID, slots [reservation.NumSlots]*reservation.Slot) (any, error) {
		return slackapi.NewBlockMessage(
			slackapi.NewSectionBlock(slackapi.NewTextBlockObject("plain_text", fmt.Sprintf("session %d", id), false, false), nil, nil),
		), nil
	}

	rec := doJSON(t, env.srv, http.MethodPost, "/slack/command/slots", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotNil(t, env.notif.LastSlotsResponse)
}

func TestLeaderboardCommandHandler(t *testing.T) {
	env := newTestServer(t)
	var got []leaderboard.Entry
	env.notif.FormatLeaderboardResponseFunc = func(entries []leaderboard.Entry) (any, error) {
		got = entries
		return slackapi.NewBlockMessage(), nil
	}

	env.srv.Store.AddPlayer("p1", "Anna")
	require.NoError(t, env.srv.Stats.ApplyGame(&club.Game{
		ID: "g1", Session: 100,
		TeamA: club.Team{Player1: "p1"}, TeamB: club.Team{Player1: "p2"},
		Winner: club.WinnerA,
	}))

	rec := doJSON(t, env.srv, http.MethodPost, "/slack/command/leaderboard", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
	assert.InDelta(t, 10.0, got[0].Average, 1e-9)
}

func TestClearStoreHandler(t *testing.T) {
	env := newTestServer(t)

	env.srv.Store.AddPlayer("p1", "Anna")
	require.NoError(t, env.srv.Store.RecordGame(&club.Game{
		ID: "g1", Session: 100, TeamA: club.Team{Player1: "p1"}, TeamB: club.Team{Player1: "p2"},
	}))

	rec := doJSON(t, env.srv, http.MethodGet, "/clear?gameID=g1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := env.srv.Store.GetGame("g1")
	assert.ErrorIs(t, err, club.ErrGameNotFound)

	rec = doJSON(t, env.srv, http.MethodGet, "/clear", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	players, err := env.srv.Store.GetAllPlayers()
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestDryRunClaimDoesNotMutate(t *testing.T) {
	env := newTestServer(t)

	rec := doJSON(t, env.srv, http.MethodPost, "/slots/claim?dry_run=true", ClaimRequest{SlotNumber: 1, PlayerID: "p1", PlayerName: "Anna"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env.srv, http.MethodGet, "/slots", nil)
	var resp SlotsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Nil(t, resp.Slots[0])
}
