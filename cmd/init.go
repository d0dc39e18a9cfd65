package cmd

import (
	"fmt"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/chain"
	"github.com/ecogames/ecosale/internal/deploy"
	"github.com/ecogames/ecosale/internal/ui"
	"github.com/spf13/cobra"
)

var initForce bool

// Demo buyers created alongside the owner, each funded with stablecoins and
// a little native value.
var demoBuyers = []string{"alice", "bob", "carol"}

const (
	buyerStableFloat = 1_000_000 // whole units of each stablecoin per buyer
	buyerNativeFloat = 2         // whole native units per buyer
	vestingFloatEco  = 3_000_000_000
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Deploy the token economy into the state directory",
	Long: `Deploys the EcoGames token, the three payment stablecoins, the vesting
ledger and the crowdsale engine, creates the owner and demo buyer
accounts, funds the buyers, and moves the vesting disbursement float
into the vesting ledger.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if deploy.Exists(cfg.Dir()) && !initForce {
			return fmt.Errorf("state already exists in %s (re-run with --force to redeploy)", cfg.Dir())
		}

		mgr := newAccountManager()
		ensure := func(name string) (string, error) {
			if acct, err := mgr.Get(name); err == nil {
				return acct.Address, nil
			}
			acct, err := mgr.Create(name)
			if err != nil {
				return "", err
			}
			return acct.Address, nil
		}

		ownerHex, err := ensure("owner")
		if err != nil {
			return fmt.Errorf("creating owner account: %w", err)
		}
		owner, err := resolveAddr("owner")
		if err != nil {
			return err
		}

		w, err := deploy.Wire(cfg, &chain.OffsetClock{}, owner)
		if err != nil {
			return fmt.Errorf("deploying: %w", err)
		}

		// Vesting disbursement float: unlocks pay out of the ledger's own
		// balance.
		if err := w.Eco.Transfer(owner, w.Vesting.Address(), amount.Units(vestingFloatEco, 18)); err != nil {
			return fmt.Errorf("funding vesting ledger: %w", err)
		}

		for _, name := range demoBuyers {
			hex, err := ensure(name)
			if err != nil {
				return fmt.Errorf("creating account %q: %w", name, err)
			}
			buyer, err := resolveAddr(name)
			if err != nil {
				return err
			}
			if err := w.Dai.Transfer(owner, buyer, amount.Units(buyerStableFloat, 18)); err != nil {
				return err
			}
			if err := w.Usdt.Transfer(owner, buyer, amount.Units(buyerStableFloat, 6)); err != nil {
				return err
			}
			if err := w.Usdc.Transfer(owner, buyer, amount.Units(buyerStableFloat, 6)); err != nil {
				return err
			}
			w.Env.CreditNative(buyer, amount.Units(buyerNativeFloat, 18))
			fmt.Println(ui.Meta(fmt.Sprintf("  funded %s (%s)", name, ui.TruncateAddr(hex))))
		}

		if err := saveWorld(w); err != nil {
			return fmt.Errorf("saving state: %w", err)
		}

		fmt.Println(ui.Banner())
		fmt.Println(ui.Success(fmt.Sprintf("Deployed %s (%s) with supply %s",
			w.Eco.Name(), w.Eco.Symbol(), fmtTokens(w.Eco.TotalSupply(), w.Eco.Symbol()))))
		fmt.Println(ui.Meta("  owner    " + ownerHex))
		fmt.Println(ui.Meta("  vesting  " + w.Vesting.Address().Hex()))
		fmt.Println(ui.Meta("  sale     " + w.Sale.Address().Hex()))
		fmt.Println(ui.Hint("Start selling with: ecosale sale start"))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing state")
}
