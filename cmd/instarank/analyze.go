package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/instarank/instarank"
	"github.com/instarank/instarank/core"
)

func newAnalyzeCmd(flags *rootFlags) *cobra.Command {
	var (
		maxIterations int
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "analyze USERNAME...",
		Short: "Analyze and rank Instagram profiles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if maxIterations > 0 {
				cfg.Agent.MaxIterations = maxIterations
			}

			client, err := instarank.New(cfg)
			if err != nil {
				return err
			}

			ranked, err := client.AnalyzeUsers(cmd.Context(), args)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(ranked, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			printRanking(cmd, ranked)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override the agent iteration bound")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return cmd
}

func printRanking(cmd *cobra.Command, ranked []core.Profile) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nRanked profiles:")
	for i, p := range ranked {
		if p.HasError() {
			fmt.Fprintf(out, "%2d. %-24s unavailable: %s\n", i+1, p.Username, p.Error)
			continue
		}
		fmt.Fprintf(out, "%2d. %-24s score %6.2f  followers %d  engagement %.2f%%  posts %d\n",
			i+1, p.Username, p.ScoreValue(), p.FollowersCount, p.EngagementRate, p.MediaCount)
	}
}
