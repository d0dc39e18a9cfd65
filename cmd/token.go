package cmd

import (
	"fmt"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/deploy"
	"github.com/ecogames/ecosale/internal/token"
	"github.com/ecogames/ecosale/internal/ui"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect and move tokens",
}

// resolveToken maps a symbol argument to a token ledger: "egc" for the sale
// token, or a payment-asset symbol.
func resolveToken(w *deploy.World, symbol string) (*token.Token, error) {
	if symbol == "egc" || symbol == "eco" {
		return w.Eco, nil
	}
	return w.Asset(symbol)
}

var tokenInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the sale token and its burn schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		pairs := [][2]string{
			{"name", w.Eco.Name()},
			{"symbol", w.Eco.Symbol()},
			{"decimals", fmt.Sprintf("%d", w.Eco.Decimals())},
			{"total supply", fmtTokens(w.Eco.TotalSupply(), w.Eco.Symbol())},
			{"owner", w.Eco.Owner().Hex()},
		}
		if burn, next := w.Eco.BurnSchedule(); burn != nil {
			pairs = append(pairs,
				[2]string{"burn amount", fmtTokens(burn, w.Eco.Symbol())},
				[2]string{"next burn", next.Format("2006-01-02 15:04 MST")},
			)
		}
		fmt.Println(ui.KeyValueBlock("EcoGames Token", pairs))
		return nil
	},
}

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance <symbol> <account>",
	Short: "Show a token balance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		tok, err := resolveToken(w, args[0])
		if err != nil {
			return err
		}
		addr, err := resolveAddr(args[1])
		if err != nil {
			return err
		}
		bal := tok.BalanceOf(addr)
		fmt.Printf("%s %s\n", ui.Val(amount.Format(bal, tok.Decimals())), ui.Meta(tok.Symbol()))
		return nil
	},
}

var tokenTransferCmd = &cobra.Command{
	Use:   "transfer <symbol> <to> <amount>",
	Short: "Transfer tokens from the --from account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		tok, err := resolveToken(w, args[0])
		if err != nil {
			return err
		}
		from, err := callerAddr()
		if err != nil {
			return err
		}
		to, err := resolveAddr(args[1])
		if err != nil {
			return err
		}
		value, err := amount.ParseDecimal(args[2], tok.Decimals())
		if err != nil {
			return err
		}
		if err := tok.Transfer(from, to, value); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Sent %s %s to %s", args[2], tok.Symbol(), args[1])))
		return nil
	},
}

var tokenApproveCmd = &cobra.Command{
	Use:   "approve <symbol> <spender> <amount>",
	Short: "Approve a spender for the --from account",
	Long: `Grants spend allowance. The spender may be an account name, a raw
address, or the literal "sale" for the crowdsale engine (stablecoin
purchases pull payment via allowance).`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		tok, err := resolveToken(w, args[0])
		if err != nil {
			return err
		}
		from, err := callerAddr()
		if err != nil {
			return err
		}
		spender := w.Sale.Address()
		if args[1] != "sale" {
			spender, err = resolveAddr(args[1])
			if err != nil {
				return err
			}
		}
		value, err := amount.ParseDecimal(args[2], tok.Decimals())
		if err != nil {
			return err
		}
		if err := tok.Approve(from, spender, value); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Approved %s %s for %s", args[2], tok.Symbol(), args[1])))
		return nil
	},
}

var tokenBurnCmd = &cobra.Command{
	Use:   "burn",
	Short: "Execute the scheduled supply burn",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		caller, err := callerAddr()
		if err != nil {
			return err
		}
		before := w.Eco.TotalSupply()
		if err := w.Eco.Burn(caller); err != nil {
			return err
		}
		after := w.Eco.TotalSupply()
		if err := saveWorld(w); err != nil {
			return err
		}
		burned := before.Sub(before, after)
		_, next := w.Eco.BurnSchedule()
		fmt.Println(ui.Success(fmt.Sprintf("Burned %s", fmtTokens(burned, w.Eco.Symbol()))))
		fmt.Println(ui.Meta("  next burn eligible " + next.Format("2006-01-02")))
		return nil
	},
}

var tokenSendCmd = &cobra.Command{
	Use:   "send <to> <amount>",
	Short: "Send native value from the --from account",
	Long: `Sends native value to an account or contract. Sending to the token
contract (the literal "egc") exercises its receive hook, which forwards
the value straight to the token owner.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		from, err := callerAddr()
		if err != nil {
			return err
		}
		to := w.Eco.Address()
		if args[0] != "egc" && args[0] != "eco" {
			to, err = resolveAddr(args[0])
			if err != nil {
				return err
			}
		}
		value, err := amount.ParseDecimal(args[1], 18)
		if err != nil {
			return err
		}
		err = w.Env.Execute(func() error {
			return w.Env.TransferNative(from, to, value)
		})
		if err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Sent %s native to %s", args[1], args[0])))
		return nil
	},
}

var tokenTransferOwnershipCmd = &cobra.Command{
	Use:   "transfer-ownership <new-owner>",
	Short: "Hand the token's owner role to another account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		caller, err := callerAddr()
		if err != nil {
			return err
		}
		newOwner, err := resolveAddr(args[0])
		if err != nil {
			return err
		}
		if err := w.Eco.TransferOwnership(caller, newOwner); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		fmt.Println(ui.Success("Ownership transferred to " + args[0]))
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(
		tokenInfoCmd,
		tokenBalanceCmd,
		tokenTransferCmd,
		tokenApproveCmd,
		tokenBurnCmd,
		tokenSendCmd,
		tokenTransferOwnershipCmd,
	)
}
