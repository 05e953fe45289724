package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/leaderboard"
	"github.com/mvoss/clubnight/internal/metrics"
	"github.com/mvoss/clubnight/internal/reservation"
	"github.com/mvoss/clubnight/internal/session"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func intPtr(v int) *int { return &v }

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics, time.UTC)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, true)
	require.NoError(t, err)
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics, time.UTC)

	message := slackapi.NewBlockMessage(slackapi.NewSectionBlock(slackapi.NewTextBlockObject("plain_text", "hello", false, false), nil, nil))
	_, _, err := notifier.sendMessage(message, false)

	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.SlackNotifSent())
	assert.Equal(t, 0, metrics.SlackNotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	postMessageCalled := false
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics, time.UTC)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 0, metrics.SlackNotifSent())
	assert.Equal(t, 1, metrics.SlackNotifFailed())
}

// Test one of the public methods to ensure it calls the private sender.
func TestSendResultNotification_CallsSender(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics, time.UTC)

	game := &club.Game{
		ID:      "g1",
		Session: session.ID(time.Now().Unix()),
		TeamA:   club.Team{Player1: "Anna"},
		TeamB:   club.Team{Player1: "Bo"},
		Winner:  club.WinnerA,
	}

	err := notifier.SendResultNotification(game, false)
	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called via SendResultNotification")
}

func TestFormatLineup(t *testing.T) {
	id := session.ID(time.Date(2025, 6, 9, 19, 0, 0, 0, time.UTC).Unix())
	var slots [reservation.NumSlots]*reservation.Slot
	slots[0] = &reservation.Slot{Session: id, SlotNumber: 1, PlayerID: "p1", PlayerName: "Anna"}
	slots[2] = &reservation.Slot{Session: id, SlotNumber: 3, PlayerID: "p2", PlayerName: "Bo"}

	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock(), time.UTC)
	msg := notifier.formatLineup(id, slots)
	require.Len(t, msg.Blocks.BlockSet, 4, "Expected 4 blocks")

	header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok)
	assert.Contains(t, header.Text.Text, "Club night lineup")

	details, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, details.Text.Text, "Monday 09 Jun, 19:00")

	slotsBlock, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, slotsBlock.Text.Text, "1. Anna")
	assert.Contains(t, slotsBlock.Text.Text, "2. —")
	assert.Contains(t, slotsBlock.Text.Text, "3. Bo")
	assert.Contains(t, slotsBlock.Text.Text, "4. —")

	contextBlock, ok := msg.Blocks.BlockSet[3].(*slackapi.ContextBlock)
	require.True(t, ok)
	text, ok := contextBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject)
	require.True(t, ok)
	assert.Contains(t, text.Text, "2 slot(s) still open")
}

func TestFormatResult_ScoredGame(t *testing.T) {
	game := &club.Game{
		ID:      "g1",
		Session: session.ID(time.Date(2025, 6, 9, 19, 0, 0, 0, time.UTC).Unix()),
		TeamA:   club.Team{Player1: "Anna", Player2: "Bo"},
		TeamB:   club.Team{Player1: "Carl", Player2: "Dina"},
		ScoreA:  intPtr(6),
		ScoreB:  intPtr(4),
		Winner:  club.WinnerA,
	}

	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock(), time.UTC)
	msg := notifier.formatResult(game)
	require.Len(t, msg.Blocks.BlockSet, 3, "Expected 3 blocks")

	details, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, details.Text.Text, "Doubles")

	result, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, result.Text.Text, "Anna & Bo won!")
	require.Len(t, result.Fields, 1)
	assert.Contains(t, result.Fields[0].Text, "Anna & Bo: 6")
	assert.Contains(t, result.Fields[0].Text, "Carl & Dina: 4")
	assert.Contains(t, result.Fields[0].Text, "Anna & Bo: +6 pts")
	assert.Contains(t, result.Fields[0].Text, "Carl & Dina: +4 pts")
}

func TestFormatResult_BinaryGame(t *testing.T) {
	game := &club.Game{
		ID:      "g2",
		Session: session.ID(time.Date(2025, 6, 9, 19, 0, 0, 0, time.UTC).Unix()),
		TeamA:   club.Team{Player1: "Anna"},
		TeamB:   club.Team{Player1: "Bo"},
		Winner:  club.WinnerB,
	}

	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock(), time.UTC)
	msg := notifier.formatResult(game)

	result, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, result.Text.Text, "Bo won!")
	require.Len(t, result.Fields, 1)
	assert.Contains(t, result.Fields[0].Text, "Bo: +10 pts")
	assert.Contains(t, result.Fields[0].Text, "Anna: +5 pts")
}

func TestFormatLeaderboard(t *testing.T) {
	entries := []leaderboard.Entry{
		{Rank: 1, ID: "p2", Name: "Bo", TotalPoints: 30, GamesPlayed: 5, Average: 6},
		{Rank: 2, ID: "p1", Name: "Anna", TotalPoints: 20, GamesPlayed: 4, Average: 5},
	}

	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock(), time.UTC)
	msg := notifier.formatLeaderboard(entries, "🏆 Player Leaderboard 🏆")
	require.Len(t, msg.Blocks.BlockSet, 3, "Expected header plus one block per entry")

	first, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, first.Text.Text, "1. 🥇 Bo")
	assert.Contains(t, first.Text.Text, "Avg: 6.00")

	second, ok := msg.Blocks.BlockSet[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, second.Text.Text, "2. 🥈 Anna")
}

func TestFormatLeaderboard_Empty(t *testing.T) {
	notifier := NewNotifierWithAPI(nil, "C123", metrics.NewMock(), time.UTC)
	msg := notifier.formatLeaderboard(nil, "🏆 Player Leaderboard 🏆")
	require.Len(t, msg.Blocks.BlockSet, 2)

	empty, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, empty.Text.Text, "No stats available yet")
}
