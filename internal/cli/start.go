package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/goldtracker/config"
	"github.com/rustyeddy/goldtracker/journal"
)

func newStartCmd(rc *RootConfig) *cobra.Command {
	var (
		balance    float64
		pips       float64
		riskPct    float64
		instrument string
		purge      bool
		flags      selectionFlags
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new challenge and save its terms to the config file",
		Long: `Start a challenge at level 1.

The terms are written to the config file so later commands rebuild the
same challenge. A session that already has stored trades is refused unless
--purge deletes them or --session names a fresh session.

Examples:
  goldtracker start --balance 1000 --pips 20 --risk 30
  goldtracker start --balance 500 --pips 15 --risk 10 --instrument EUR_USD --session eu-1
  goldtracker start --purge`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rc)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("balance") {
				cfg.Challenge.InitialBalance = balance
			}
			if f.Changed("pips") {
				cfg.Challenge.TargetPips = pips
			}
			if f.Changed("risk") {
				cfg.Challenge.RiskPercentage = riskPct
			}
			if f.Changed("instrument") {
				cfg.Challenge.Instrument = instrument
			}
			flags.apply(cmd, &cfg.Selection)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid challenge: %w", err)
			}

			a, err := startApp(cmd, cfg, false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			existing, err := a.store.List(ctx, cfg.Store.SessionID)
			if err != nil {
				a.abort()
				return fmt.Errorf("list history: %w", err)
			}
			if len(existing) > 0 {
				if !purge {
					a.abort()
					return fmt.Errorf("session %q already has %d stored trades; use --purge or another --session",
						cfg.Store.SessionID, len(existing))
				}
				if err := journal.Purge(ctx, a.store, cfg.Store.SessionID); err != nil {
					a.abort()
					return fmt.Errorf("purge history: %w", err)
				}
			}

			saved := *cfg
			if os.Getenv(config.EnvDatabaseURL) != "" {
				saved.Store.DatabaseURL = ""
			}
			if err := saved.SaveToFile(rc.ConfigPath); err != nil {
				a.abort()
				return fmt.Errorf("save config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Challenge started: %s\n", a.session.Instrument().Name)
			fmt.Fprintf(out, "  Terms: %s\n", cfg.ChallengeTerms())
			fmt.Fprintf(out, "  Session: %s (%s store)\n", cfg.Store.SessionID, cfg.Store.Type)
			fmt.Fprintf(out, "  Config: %s\n\n", rc.ConfigPath)
			if err := printSuggestion(out, a); err != nil {
				a.abort()
				return err
			}
			return a.close()
		},
	}

	cmd.Flags().Float64Var(&balance, "balance", 0, "initial balance")
	cmd.Flags().Float64Var(&pips, "pips", 0, "target pips per trade")
	cmd.Flags().Float64Var(&riskPct, "risk", 0, "risk percentage per level (0-100]")
	cmd.Flags().StringVar(&instrument, "instrument", "", "instrument, e.g. XAU_USD")
	cmd.Flags().BoolVar(&purge, "purge", false, "delete the session's stored trades first")
	flags.register(cmd)
	return cmd
}
