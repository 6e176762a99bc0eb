package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/feeflow-network/feeflow/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to the TOML config file")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the feeflow daemon",
	Long: `Start the ledger daemon: restore the last snapshot (if any), serve the
HTTP API, and persist snapshots until interrupted.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := daemon.Load(cfgPath)
	if err != nil {
		return err
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx)
}
