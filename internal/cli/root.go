// Package cli is the goldtracker command line. Every command rebuilds the
// challenge from the configured ledger store, runs, and waits for pending
// store writes before it exits.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

// RootConfig holds the persistent flags shared by all commands. Empty
// values leave the config file and environment in charge.
type RootConfig struct {
	ConfigPath  string
	StoreType   string
	DBPath      string
	DatabaseURL string
	SessionID   string
	LogLevel    string
	EnvFile     string
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:   "goldtracker",
		Short: "Compounding gold trading challenge tracker",
		Long: `Goldtracker runs a compounding trading challenge: every level risks a
fixed percentage of the current balance, the next trade's lot size and
profit goal are suggested from the money rules, and every outcome is
journaled to a ledger store.

Examples:
  goldtracker start --balance 1000 --pips 20 --risk 30
  goldtracker suggest
  goldtracker win 450
  goldtracker history --org`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "goldtracker.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&rc.StoreType, "store", "", "ledger store: memory|sqlite|postgres")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "", "SQLite ledger database")
	cmd.PersistentFlags().StringVar(&rc.DatabaseURL, "database-url", "", "Postgres connection URL")
	cmd.PersistentFlags().StringVar(&rc.SessionID, "session", "", "challenge session id")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&rc.EnvFile, "env-file", ".env", "dotenv file loaded before reading GOLDTRACKER_* variables")

	cmd.AddCommand(
		newStartCmd(rc),
		newSuggestCmd(rc),
		newTradeCmd(rc, "win"),
		newTradeCmd(rc, "loss"),
		newStatusCmd(rc),
		newHistoryCmd(rc),
		newResetCmd(rc),
		newCalcCmd(rc),
		newConfigCmd(rc),
		newVersionCmd(),
	)
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "goldtracker version %s\n", version)
		},
	}
}
