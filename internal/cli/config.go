package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/goldtracker/config"
)

func newConfigCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage goldtracker configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  goldtracker config init --output goldtracker.yaml
  goldtracker config validate --file goldtracker.yaml`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(out, "\nEdit the file and start a challenge with:")
			fmt.Fprintf(out, "  goldtracker --config %s start\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "goldtracker.yaml", "output config file path")

	var path string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = rc.ConfigPath
			}
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(out, "  Challenge: %s %s\n", cfg.Challenge.Instrument, cfg.ChallengeTerms())
			fmt.Fprintf(out, "  Selection: %gR, %s profit, %s lot\n",
				cfg.Selection.RewardRatio, cfg.Selection.ProfitMode, cfg.Selection.LotMode)
			fmt.Fprintf(out, "  Policy: %s at zero, %s on reload\n", cfg.Policy.ZeroBalance, cfg.Policy.Reload)
			fmt.Fprintf(out, "  Store: %s (session %s)\n", cfg.Store.Type, cfg.Store.SessionID)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (default: --config)")

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
