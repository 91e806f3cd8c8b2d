package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "rps",
		Short: "Rock/paper/scissors client",
		Long: `rps plays rock/paper/scissors against other people on an rpsmatch server
and queries head-to-head scores and live rooms through its admin API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.APIURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerAddr, "server", cfg.ServerAddr, "Game server address (env: RPS_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.APIURL, "api", cfg.APIURL, "Admin API URL (env: RPS_API)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newRoomsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
