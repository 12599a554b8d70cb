package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradegate/portfolio"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Zero today's daily trade statistics",
	Long: `Reset today's cumulative buy amount, sell amount and trade count.
This is the same path the midnight scheduler runs; a "Reset" audit entry is
recorded either way.`,
	RunE: runReset,
}

var resetUser string

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().StringVarP(&cfgPath, "config", "f", "", "path to config file (YAML or JSON)")
	resetCmd.Flags().StringVar(&resetUser, "user", "cli", "acting user recorded in the audit log")
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	jrnl, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jrnl.Close()

	settings, err := cfg.Settings()
	if err != nil {
		return fmt.Errorf("build settings: %w", err)
	}

	engine, err := portfolio.NewEngine(settings, nil, cfg.Cash(), jrnl, zap.NewNop())
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	if err := engine.ResetDailyLimits(resetUser); err != nil {
		return err
	}
	fmt.Println("daily limits reset")
	return nil
}
