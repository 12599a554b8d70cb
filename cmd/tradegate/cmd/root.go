package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradegate",
	Short: "Trade admission control and portfolio ledger service",
	Long: `Tradegate gates every proposed buy/sell order against daily risk limits,
current holdings and cash, applies accepted trades to a shared portfolio
ledger, and records an immutable audit trail.

It provides:
  - Pre-trade admission checks (daily caps, cash, holdings, trade types)
  - A weighted composite risk score per proposed trade
  - A persistent daily statistics counter with a scheduled midnight reset
  - An append-only audit log of every decision`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
