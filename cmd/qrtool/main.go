package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"qrguard/internal/config"
	"qrguard/internal/logger"
	"qrguard/internal/repository/sqlite"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	v       = config.NewViper()
	rootCmd = &cobra.Command{
		Use:   "qrtool",
		Short: "Offline tools for the QR payload classifier",
		Long: `qrtool prepares data for and trains the QR payload classifier.

Settings come from the environment (or a .env file); flags override them.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-dir", "", "directory for info/warning/error log files (env LOG_DIR)")
	rootCmd.PersistentFlags().String("db", "", "run ledger database (env DB_PATH)")
	rootCmd.PersistentFlags().Bool("no-ledger", false, "do not record this run in the ledger")

	_ = v.BindPFlag("LOG_DIR", rootCmd.PersistentFlags().Lookup("log-dir"))
	_ = v.BindPFlag("DB_PATH", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(decodeCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(runsCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// environment is what every subcommand needs: resolved config, a logger and,
// unless disabled, the run ledger.
type environment struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *sqlite.DB
}

func setup(cmd *cobra.Command, withLedger bool) (*environment, error) {
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, logger: log}

	noLedger, _ := cmd.Flags().GetBool("no-ledger")
	if withLedger && !noLedger && cfg.DatabasePath != "" {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			log.Close()
			return nil, fmt.Errorf("failed to open run ledger: %w", err)
		}
		env.db = db
	}
	return env, nil
}

func (e *environment) close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.logger.Warning("Failed to close database: %v", err)
		}
	}
	e.logger.Close()
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
}
