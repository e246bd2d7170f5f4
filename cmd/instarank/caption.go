package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/instarank/instarank"
)

func newCaptionCmd(flags *rootFlags) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "caption IMAGE",
		Short: "Generate Instagram caption suggestions for an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if count > 0 {
				cfg.Model.CaptionVariations = count
			}

			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			client, err := instarank.New(cfg)
			if err != nil {
				return err
			}

			suggestions, err := client.SuggestCaptions(cmd.Context(), image)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, s := range suggestions {
				fmt.Fprintf(out, "\nOption %d:\n%s\n", i+1, s.Caption)
				if len(s.Hashtags) > 0 {
					fmt.Fprintln(out, strings.Join(s.Hashtags, " "))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of caption variations")

	return cmd
}
