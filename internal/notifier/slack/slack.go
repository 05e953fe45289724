package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mvoss/clubnight/internal/club"
	"github.com/mvoss/clubnight/internal/leaderboard"
	"github.com/mvoss/clubnight/internal/metrics"
	"github.com/mvoss/clubnight/internal/notifier"
	"github.com/mvoss/clubnight/internal/reservation"
	"github.com/mvoss/clubnight/internal/scoring"
	"github.com/mvoss/clubnight/internal/session"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	loc       *time.Location
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics, loc *time.Location) *Notifier {
	api := slack.New(token)
	return NewNotifierWithAPI(api, channelID, metrics, loc)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.Local
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
		loc:       loc,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) SendLineupNotification(id session.ID, slots [reservation.NumSlots]*reservation.Slot, dryRun bool) error {
	msg := s.formatLineup(id, slots)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendResultNotification(game *club.Game, dryRun bool) error {
	msg := s.formatResult(game)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(entries []leaderboard.Entry, dryRun bool) error {
	msg := s.formatLeaderboard(entries, "🏆 Player Leaderboard 🏆")
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func (s *Notifier) SendTeamLeaderboard(entries []leaderboard.Entry, dryRun bool) error {
	msg := s.formatLeaderboard(entries, "🏆 Team Leaderboard 🏆")
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// FormatSlotsResponse formats the slot table for a slash command response.
func (s *Notifier) FormatSlotsResponse(id session.ID, slots [reservation.NumSlots]*reservation.Slot) (any, error) {
	return s.formatLineup(id, slots), nil
}

// FormatLeaderboardResponse formats a leaderboard message for a slash command response.
func (s *Notifier) FormatLeaderboardResponse(entries []leaderboard.Entry) (any, error) {
	return s.formatLeaderboard(entries, "🏆 Player Leaderboard 🏆"), nil
}

// FormatTeamLeaderboardResponse formats a team leaderboard message for a slash command response.
func (s *Notifier) FormatTeamLeaderboardResponse(entries []leaderboard.Entry) (any, error) {
	return s.formatLeaderboard(entries, "🏆 Team Leaderboard 🏆"), nil
}

func (s *Notifier) sessionTime(id session.ID) string {
	return time.Unix(int64(id), 0).In(s.loc).Format("Monday 02 Jan, 15:04")
}

// formatLineup creates the Slack message for the session's slot table using Block Kit.
func (s *Notifier) formatLineup(id session.ID, slots [reservation.NumSlots]*reservation.Slot) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header - The Header block itself provides bolding. No asterisks needed.
	headerText := slack.NewTextBlockObject("plain_text", "🎾 Club night lineup 🎾", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	// Details
	detailsText := fmt.Sprintf("Session: %s", s.sessionTime(id))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	// Slots, empty positions explicit
	var lines []string
	var open int
	for i, slot := range slots {
		if slot == nil {
			lines = append(lines, fmt.Sprintf("%d. —", i+1))
			open++
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, slot.PlayerName))
		}
	}
	slotsText := "Slots:\n" + strings.Join(lines, "\n")
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", slotsText, true, false), nil, nil))

	// Context - For simpler, single-line info.
	var contextText string
	if open == 0 {
		contextText = "Lineup complete, see you on the court!"
	} else {
		contextText = fmt.Sprintf("%d slot(s) still open, claim yours!", open)
	}
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, true, false)))

	return slack.NewBlockMessage(blocks...)
}

// formatResult creates the Slack message for a finished game using Block Kit.
func (s *Notifier) formatResult(game *club.Game) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := slack.NewTextBlockObject("plain_text", "🎾 Game finished! 🎾", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	// Details
	shape := "Singles"
	if game.IsDoubles() {
		shape = "Doubles"
	}
	detailsText := fmt.Sprintf("%s game %d, session %s", shape, game.GameNumber, s.sessionTime(game.Session))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, false, false), nil, nil))

	if game.Decided() {
		teamA, teamB := teamLabel(game.TeamA), teamLabel(game.TeamB)

		var resultLines []string
		if game.ScoreA != nil && game.ScoreB != nil {
			resultLines = append(resultLines, fmt.Sprintf("• %s: %d", teamA, *game.ScoreA))
			resultLines = append(resultLines, fmt.Sprintf("• %s: %d", teamB, *game.ScoreB))
		}
		resultLines = append(resultLines,
			fmt.Sprintf("• %s: +%d pts", teamA, scoring.Award(game, scoring.SideA)),
			fmt.Sprintf("• %s: +%d pts", teamB, scoring.Award(game, scoring.SideB)),
		)

		winner := teamA
		if game.Winner == club.WinnerB {
			winner = teamB
		}
		resultHeaderText := fmt.Sprintf("Result: %s won! 🏆", winner)

		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject("plain_text", resultHeaderText, true, false),
			[]*slack.TextBlockObject{slack.NewTextBlockObject("plain_text", strings.Join(resultLines, "\n"), true, false)},
			nil,
		))
	} else {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "Result: No winner reported.", true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates a Slack message to display a ranked leaderboard.
func (s *Notifier) formatLeaderboard(entries []leaderboard.Entry, title string) slack.Message {
	blocks := make([]slack.Block, 0)

	// Header
	headerText := slack.NewTextBlockObject("plain_text", title, true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(entries) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No stats available yet. Go play some games!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	// Ranks
	for _, entry := range entries {
		var medal string
		switch entry.Rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}

		entryText := fmt.Sprintf("%d. %s %s\n> Avg: %.2f pts | Total: %d | Games: %d",
			entry.Rank,
			medal,
			entry.Name,
			entry.Average,
			entry.TotalPoints,
			entry.GamesPlayed,
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", entryText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

func teamLabel(t club.Team) string {
	if t.Player2 != "" {
		return t.Player1 + " & " + t.Player2
	}
	return t.Player1
}
