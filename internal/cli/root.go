// Package cli implements the feeflow command line interface. Apart from
// `serve`, every command is a thin HTTP client against a running daemon.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/feeflow-network/feeflow/internal/api"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "feeflowd",
	Short: "Tax and reward distribution daemon",
	Long: `feeflowd runs the tax and reward distribution ledger: it classifies
transfers, collects buy/sell tax into a vault, swaps collected tax in
batches, and streams the proceeds to holders as claimable rewards.`,
	Version:       api.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:8337", "Base URL of the feeflowd API")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
