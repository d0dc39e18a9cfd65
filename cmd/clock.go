package cmd

import (
	"fmt"

	"github.com/ecogames/ecosale/internal/ui"
	"github.com/spf13/cobra"
)

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Inspect and advance the ledger clock",
	Long: `The deployment runs on an offset clock: real time plus a persisted
offset. Advancing the clock is how sale periods expire and vesting
dates arrive without waiting out the calendar.`,
}

var clockNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Show the current ledger time",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		fmt.Println(ui.Val(w.Env.Now().Format("2006-01-02 15:04:05 MST")))
		return nil
	},
}

var clockAdvanceCmd = &cobra.Command{
	Use:   "advance <duration>",
	Short: "Advance the ledger clock (e.g. 30d, 90d, 12h)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := parseDuration(args[0])
		if err != nil {
			return err
		}
		w, err := loadWorld()
		if err != nil {
			return err
		}
		if err := w.Env.Advance(d); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		fmt.Println(ui.Success("Ledger time is now " + w.Env.Now().Format("2006-01-02 15:04:05 MST")))
		return nil
	},
}

func init() {
	clockCmd.AddCommand(clockNowCmd, clockAdvanceCmd)
}
