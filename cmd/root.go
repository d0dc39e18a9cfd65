package cmd

import (
	"fmt"
	"os"

	"github.com/ecogames/ecosale/internal/config"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/ecogames/ecosale/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	stateDir string
	cfg      *config.Config
	fromName string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "ecosale",
	Short: "EcoGames token sale console",
	Long: `ecosale — local console for the EcoGames token economy.

  Deploy the token, vesting and crowdsale ledgers, run the three sale
  rounds against stablecoin and native payments, and walk the 21-month
  vesting schedule — all against a persisted local state.

State lives in ~/.ecosale by default; override with --state or the
ECOSALE_STATE_DIR environment variable. Most mutating commands act as
the deployment owner; pick another caller with --from.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(stateDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// ECOSALE_STATE_DIR env var overrides --state flag.
	if envDir := os.Getenv("ECOSALE_STATE_DIR"); envDir != "" {
		stateDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&stateDir, "state", stateDir, "state directory (default: ~/.ecosale)")
	rootCmd.PersistentFlags().StringVar(&fromName, "from", "owner", "account acting as the caller")

	rootCmd.AddCommand(
		initCmd,
		accountsCmd,
		tokenCmd,
		saleCmd,
		vestCmd,
		statusCmd,
		watchCmd,
		clockCmd,
	)
}
