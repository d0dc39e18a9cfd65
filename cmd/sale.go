package cmd

import (
	"fmt"
	"math/big"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/ui"
	"github.com/spf13/cobra"
)

var (
	saleStartDuration string
	saleBuyAsset      string
	saleBuyWei        string
)

var saleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Run the crowdsale",
}

var saleStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Open the first sale round",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		caller, err := callerAddr()
		if err != nil {
			return err
		}
		d, err := parseDuration(saleStartDuration)
		if err != nil {
			return err
		}
		if err := w.Sale.StartSalePeriod(caller, d); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		round := w.Sale.Config().Rounds[0]
		fmt.Println(ui.Success(fmt.Sprintf("Round 1 open at %s per token until %s",
			priceLabel(round.PriceUSD), w.Sale.PeriodEnd().Format("2006-01-02 15:04 MST"))))
		return nil
	},
}

var salePauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Toggle the crowdsale pause switch",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		caller, err := callerAddr()
		if err != nil {
			return err
		}
		if err := w.Sale.TogglePauseCrowdsale(caller); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		fmt.Println(ui.Success("Sale is now " + w.Sale.Status().String()))
		return nil
	},
}

var saleRoundCmd = &cobra.Command{
	Use:   "round <number>",
	Short: "Advance to a later sale round (2 or 3)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var n int
		if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
			return fmt.Errorf("invalid round number %q", args[0])
		}
		w, err := loadWorld()
		if err != nil {
			return err
		}
		caller, err := callerAddr()
		if err != nil {
			return err
		}
		if err := w.Sale.InitiateRound(caller, n-1); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		round := w.Sale.Config().Rounds[n-1]
		fmt.Println(ui.Success(fmt.Sprintf("Round %d open at %s per token", n, priceLabel(round.PriceUSD))))
		return nil
	},
}

var saleEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the crowdsale and initiate vesting",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		caller, err := callerAddr()
		if err != nil {
			return err
		}
		if err := w.Sale.EndCrowdsale(caller); err != nil {
			return err
		}
		if err := saveWorld(w); err != nil {
			return err
		}
		fmt.Println(ui.Success("Crowdsale ended; vesting initiated"))
		fmt.Println(ui.Hint("Buyers unlock their initial tranche with: ecosale vest initial <name>"))
		return nil
	},
}

var saleBuyCmd = &cobra.Command{
	Use:   "buy <usd>",
	Short: "Buy tokens for the --from account",
	Long: `Buys tokens for the given USD value. With a stablecoin asset the engine
pulls payment via allowance (approve first with: ecosale token approve
<asset> sale <amount>). With --asset native the required native value is
computed from the configured rate and debited directly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		buyer, err := callerAddr()
		if err != nil {
			return err
		}
		vestedBefore := vestedTotal(w, buyer)

		if saleBuyAsset == "native" {
			usd, err := amount.ParseDecimal(args[0], 18)
			if err != nil {
				return err
			}
			value := new(big.Int).Div(usd, big.NewInt(w.Sale.Config().NativeRateUSD))
			if saleBuyWei != "" {
				value, err = amount.ParseDecimal(saleBuyWei, 0)
				if err != nil {
					return err
				}
			}
			if err := w.Sale.BuyWithNative(buyer, usd, value); err != nil {
				return err
			}
		} else {
			tok, err := w.Asset(saleBuyAsset)
			if err != nil {
				return err
			}
			value, err := amount.ParseDecimal(args[0], tok.Decimals())
			if err != nil {
				return err
			}
			if err := w.Sale.BuyWithStable(buyer, saleBuyAsset, value); err != nil {
				return err
			}
		}

		if err := saveWorld(w); err != nil {
			return err
		}
		bought := new(big.Int).Sub(vestedTotal(w, buyer), vestedBefore)
		fmt.Println(ui.Success(fmt.Sprintf("Bought %s for $%s via %s",
			fmtTokens(bought, w.Eco.Symbol()), args[0], saleBuyAsset)))
		fmt.Println(ui.Meta("  tokens vest in the vesting ledger until unlocked"))
		return nil
	},
}

var saleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active round",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Crowdsale", salePairs(w)))
		return nil
	},
}

func init() {
	saleStartCmd.Flags().StringVar(&saleStartDuration, "duration", "30d", "sale period length (e.g. 30d, 720h)")
	saleBuyCmd.Flags().StringVar(&saleBuyAsset, "asset", "dai", "payment asset: dai, usdt, usdc or native")
	saleBuyCmd.Flags().StringVar(&saleBuyWei, "wei", "", "override the native value sent, in wei")
	saleCmd.AddCommand(saleStartCmd, salePauseCmd, saleRoundCmd, saleEndCmd, saleBuyCmd, saleStatusCmd)
}
