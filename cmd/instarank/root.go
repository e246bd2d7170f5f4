package main

import (
	"github.com/spf13/cobra"

	"github.com/instarank/instarank/config"
)

type rootFlags struct {
	configPath string
	logLevel   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "instarank",
		Short: "Instagram profile analysis and caption generation",
		Long: `instarank analyzes Instagram profiles with an LLM driven agent loop,
scores and ranks them by follower count, engagement rate and media count,
and generates caption suggestions for images.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "print iteration traces")

	cmd.AddCommand(newAnalyzeCmd(flags))
	cmd.AddCommand(newCaptionCmd(flags))

	return cmd
}

// loadConfig builds the configuration and applies flag overrides, which win
// over the file and the environment.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.verbose {
		cfg.Agent.Verbose = true
	}
	return cfg, nil
}
