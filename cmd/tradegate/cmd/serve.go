package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradegate/broker"
	"github.com/rustyeddy/tradegate/broker/kite"
	"github.com/rustyeddy/tradegate/config"
	"github.com/rustyeddy/tradegate/journal"
	"github.com/rustyeddy/tradegate/portfolio"
	"github.com/rustyeddy/tradegate/risk"
	"github.com/rustyeddy/tradegate/scheduler"
	"github.com/rustyeddy/tradegate/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admission service",
	Long: `Start the HTTP API, the admission engine, and the midnight reset
scheduler. Runs until interrupted.

Example:
  tradegate serve --config tradegate.yaml`,
	RunE: runServe,
}

var cfgPath string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&cfgPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.LoadFromFile(cfgPath)
	}
	return config.Load()
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	if cfg.Journal.Type == "memory" {
		return journal.NewMemory(), nil
	}
	return journal.NewSQLite(cfg.Journal.DBPath)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	jrnl, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jrnl.Close()

	settings, err := cfg.Settings()
	if err != nil {
		return fmt.Errorf("build settings: %w", err)
	}

	engine, err := portfolio.NewEngine(settings, cfg.SeedHoldings(), cfg.Cash(), jrnl, log)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	scorer := risk.NewScorer(cfg.RiskSettings(), engine, log)

	var brk broker.Broker
	if cfg.Broker.Kind == "kite" {
		brk = kite.New(cfg.Broker.Kite)
	} else {
		brk = broker.NewMock(cfg.SeedHoldings(), log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(engine, settings.Location, log)
	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("scheduler stopped", zap.Error(err))
		}
	}()

	srv := server.New(engine, scorer, brk, jrnl, cfg, log)
	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv.R}
	go func() {
		log.Info("http listening", zap.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("shutdown complete")
	return nil
}
