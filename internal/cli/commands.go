package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(eventsCmd)

	processCmd.Flags().String("caller", "", "Keeper or owner address authorizing the batch")
	processCmd.Flags().String("min-out", "", "Minimum acceptable swap output (slippage bound)")
	processCmd.Flags().Int64("deadline", 60, "Swap deadline in seconds")
	processCmd.MarkFlagRequired("caller")

	eventsCmd.Flags().Int("limit", 20, "Number of events to show")
}

// ─── feeflow status ─────────────────────────────────────────────────────────

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the global ledger counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats map[string]interface{}
		if err := apiGet("/v1/stats", &stats); err != nil {
			return err
		}
		return printJSON(stats)
	},
}

// ─── feeflow account ────────────────────────────────────────────────────────

var accountCmd = &cobra.Command{
	Use:   "account ADDRESS",
	Short: "Show an account's balances, flags, and pending rewards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var acct map[string]interface{}
		if err := apiGet("/v1/accounts/"+args[0], &acct); err != nil {
			return err
		}
		return printJSON(acct)
	},
}

// ─── feeflow balance ────────────────────────────────────────────────────────

var balanceCmd = &cobra.Command{
	Use:   "balance ADDRESS",
	Short: "Show a holder's token balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Balance string `json:"balance"`
		}
		if err := apiGet("/v1/accounts/"+args[0], &resp); err != nil {
			return err
		}
		fmt.Println(resp.Balance)
		return nil
	},
}

// ─── feeflow pending ────────────────────────────────────────────────────────

var pendingCmd = &cobra.Command{
	Use:   "pending ADDRESS",
	Short: "Show a holder's unclaimed rewards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Pending string `json:"pending"`
		}
		if err := apiGet("/v1/accounts/"+args[0]+"/pending", &resp); err != nil {
			return err
		}
		fmt.Println(resp.Pending)
		return nil
	},
}

// ─── feeflow claim ──────────────────────────────────────────────────────────

var claimCmd = &cobra.Command{
	Use:   "claim ADDRESS",
	Short: "Claim pending rewards for a holder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Paid string `json:"paid"`
		}
		if err := apiPost("/v1/claim", map[string]string{"caller": args[0]}, &resp); err != nil {
			return err
		}
		fmt.Printf("claimed %s\n", resp.Paid)
		return nil
	},
}

// ─── feeflow process ────────────────────────────────────────────────────────

var processCmd = &cobra.Command{
	Use:   "process MAX_AMOUNT",
	Short: "Swap a batch of collected tax and distribute the proceeds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, _ := cmd.Flags().GetString("caller")
		minOut, _ := cmd.Flags().GetString("min-out")
		deadline, _ := cmd.Flags().GetInt64("deadline")

		req := map[string]interface{}{
			"caller":           caller,
			"max_amount":       args[0],
			"deadline_seconds": deadline,
		}
		if minOut != "" {
			req["min_amount_out"] = minOut
		}
		var resp map[string]interface{}
		if err := apiPost("/v1/process", req, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	},
}

// ─── feeflow events ─────────────────────────────────────────────────────────

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent ledger events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		var resp map[string]interface{}
		if err := apiGet(fmt.Sprintf("/v1/events?limit=%d", limit), &resp); err != nil {
			return err
		}
		return printJSON(resp["events"])
	},
}
