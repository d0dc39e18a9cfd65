package cmd

import (
	"fmt"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/ui"
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage named accounts",
}

var accountsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a named account with a fresh key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := newAccountManager().Create(args[0])
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Account %q created: %s", acct.Name, ui.Addr(acct.Address))))
		return nil
	},
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with their holdings",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := newAccountManager().List()
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println(ui.Info("No accounts yet."))
			fmt.Println(ui.Hint("Create the deployment with: ecosale init"))
			return nil
		}

		w, err := loadWorld()
		if err != nil {
			// No deployed state yet; show names only.
			for _, a := range accounts {
				fmt.Printf("  %s  %s\n", ui.Val(a.Name), ui.Addr(a.Address))
			}
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "NAME", Width: 10},
			{Title: "ADDRESS", Width: 14},
			{Title: "EGC", Width: 22, Right: true},
			{Title: "DAI", Width: 14, Right: true},
			{Title: "USDT", Width: 14, Right: true},
			{Title: "USDC", Width: 14, Right: true},
			{Title: "NATIVE", Width: 10, Right: true},
		})
		for _, a := range accounts {
			addr := a.AddressBytes()
			t.AddRow(ui.Row{
				a.Name,
				ui.TruncateAddr(a.Address),
				amount.Format(w.Eco.BalanceOf(addr), 18),
				amount.Format(w.Dai.BalanceOf(addr), 18),
				amount.Format(w.Usdt.BalanceOf(addr), 6),
				amount.Format(w.Usdc.BalanceOf(addr), 6),
				amount.Format(w.Env.NativeBalanceOf(addr), 18),
			})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d account(s)", len(accounts))))
		return nil
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an account and its key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAccountManager().Remove(args[0]); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Account %q removed.", args[0])))
		return nil
	},
}

var accountsFundCmd = &cobra.Command{
	Use:   "fund <name> <native-amount>",
	Short: "Credit native value to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := resolveAddr(args[0])
		if err != nil {
			return err
		}
		value, err := amount.ParseDecimal(args[1], 18)
		if err != nil {
			return err
		}
		w, err := loadWorld()
		if err != nil {
			return err
		}
		w.Env.CreditNative(addr, value)
		if err := saveWorld(w); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Credited %s native to %s", args[1], args[0])))
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsCreateCmd, accountsListCmd, accountsRemoveCmd, accountsFundCmd)
}
