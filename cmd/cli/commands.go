package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	playerID   string
	playerName string
	scope      string
	repair     bool
)

func init() {
	claimCmd.Flags().StringVar(&playerID, "player", "", "The player ID claiming the slot")
	claimCmd.Flags().StringVar(&playerName, "name", "", "The player's display name")
	claimCmd.MarkFlagRequired("player")
	leaderboardCmd.Flags().StringVar(&scope, "scope", "combined", "Leaderboard scope: combined, singles or doubles")
	reconcileCmd.Flags().BoolVar(&repair, "repair", false, "Recompute the aggregates instead of only verifying")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(slotsCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(announceCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the registered players",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/members")
	},
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Show the slot table for the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/slots")
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim [slot-number]",
	Short: "Claim a slot in the current session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid slot number %q: %w", args[0], err)
		}
		return performPostRequest("/slots/claim", map[string]any{
			"slot_number": slot,
			"player_id":   playerID,
			"player_name": playerName,
		})
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release [slot-number]",
	Short: "Release a slot in the current session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid slot number %q: %w", args[0], err)
		}
		return performPostRequest("/slots/release", map[string]any{
			"slot_number": slot,
		})
	},
}

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List the recorded games",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/games")
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the game processing pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/process")
	},
}

var announceCmd = &cobra.Command{
	Use:   "announce",
	Short: "Post the current session's lineup to the notification channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/notify-lineup")
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Verify the stats aggregates against the game history",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/reconcile"
		if repair {
			endpoint += "?repair=true"
		}
		return performGetRequest(endpoint)
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the player leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/leaderboard?scope=" + scope)
	},
}

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Show the doubles pair leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/teams")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint string, body any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
