package cmd

import (
	"fmt"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/ui"
	"github.com/spf13/cobra"
)

var vestCmd = &cobra.Command{
	Use:   "vest",
	Short: "Walk the vesting schedule",
}

var vestShowCmd = &cobra.Command{
	Use:   "show <account>",
	Short: "Show an account's vest record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		addr, err := resolveAddr(args[0])
		if err != nil {
			return err
		}
		r := w.Vesting.Vest(addr)
		if r == nil {
			fmt.Println(ui.Info(fmt.Sprintf("%s has no vest record.", args[0])))
			return nil
		}
		sym := w.Eco.Symbol()
		pairs := [][2]string{
			{"total vested", fmtTokens(r.TotalVest, sym)},
			{"locked", fmtTokens(r.Locked, sym)},
			{"unlocked", fmtTokens(r.Unlocked, sym)},
			{"initial unlock", fmt.Sprintf("%v", r.InitialDone)},
			{"monthly unlocks", fmt.Sprintf("%d of %d", r.MonthsUnlocked, w.Vesting.Params().MonthlyUnlocks)},
			{"vested since", r.CreatedAt.Format("2006-01-02")},
		}
		if !r.InitialDone {
			for i, bucket := range r.Rounds {
				if bucket.Sign() > 0 {
					pairs = append(pairs, [2]string{
						fmt.Sprintf("round %d bucket", i+1),
						fmtTokens(bucket, sym),
					})
				}
			}
		}
		fmt.Println(ui.KeyValueBlock("Vest · "+args[0], pairs))
		return nil
	},
}

var vestInitialCmd = &cobra.Command{
	Use:   "initial <account>",
	Short: "Release the one-time initial unlock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		addr, err := resolveAddr(args[0])
		if err != nil {
			return err
		}
		before := w.Eco.BalanceOf(addr)
		if err := w.Vesting.InitialUnlock(addr); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		released := w.Eco.BalanceOf(addr).Sub(w.Eco.BalanceOf(addr), before)
		fmt.Println(ui.Success(fmt.Sprintf("Initial unlock released %s to %s",
			fmtTokens(released, w.Eco.Symbol()), args[0])))
		return nil
	},
}

var vestMonthlyCmd = &cobra.Command{
	Use:   "monthly <account>",
	Short: "Release one monthly unlock step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		addr, err := resolveAddr(args[0])
		if err != nil {
			return err
		}
		before := w.Eco.BalanceOf(addr)
		if err := w.Vesting.MonthlyUnlock(addr); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		released := w.Eco.BalanceOf(addr).Sub(w.Eco.BalanceOf(addr), before)
		r := w.Vesting.Vest(addr)
		fmt.Println(ui.Success(fmt.Sprintf("Monthly unlock %d released %s to %s",
			r.MonthsUnlocked, fmtTokens(released, w.Eco.Symbol()), args[0])))
		fmt.Println(ui.Meta("  still locked: " + amount.Format(r.Locked, 18)))
		return nil
	},
}

var vestSetInitialPeriodCmd = &cobra.Command{
	Use:   "set-initial-period <duration>",
	Short: "Change the delay before the initial unlock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVestingPeriod(args[0], true)
	},
}

var vestSetPeriodCmd = &cobra.Command{
	Use:   "set-vest-period <duration>",
	Short: "Change the spacing between monthly unlocks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVestingPeriod(args[0], false)
	},
}

func setVestingPeriod(arg string, initial bool) error {
	w, err := loadWorld()
	if err != nil {
		return err
	}
	caller, err := callerAddr()
	if err != nil {
		return err
	}
	d, err := parseDuration(arg)
	if err != nil {
		return err
	}
	if initial {
		err = w.Vesting.SetInitialPeriod(caller, d)
	} else {
		err = w.Vesting.SetVestPeriod(caller, d)
	}
	if err != nil {
		return err
	}
	if err := saveWorld(w); err != nil {
		return err
	}
	fmt.Println(ui.Success("Vesting schedule updated"))
	return nil
}

var vestWithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Sweep native purchase proceeds to the owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		caller, err := callerAddr()
		if err != nil {
			return err
		}
		proceeds := w.Env.NativeBalanceOf(w.Vesting.Address())
		if err := w.Vesting.Withdraw(caller); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Withdrew %s native", amount.Format(proceeds, 18))))
		return nil
	},
}

func init() {
	vestCmd.AddCommand(
		vestShowCmd,
		vestInitialCmd,
		vestMonthlyCmd,
		vestSetInitialPeriodCmd,
		vestSetPeriodCmd,
		vestWithdrawCmd,
	)
}
