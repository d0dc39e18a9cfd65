package cmd

import (
	"fmt"
	"math/big"

	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/deploy"
	"github.com/ecogames/ecosale/internal/sale"
	"github.com/ecogames/ecosale/internal/ui"
	"github.com/spf13/cobra"
)

func salePairs(w *deploy.World) [][2]string {
	scfg := w.Sale.Config()
	round := scfg.Rounds[w.Sale.ActiveRound()]
	pairs := [][2]string{
		{"status", w.Sale.Status().String()},
		{"round", fmt.Sprintf("%d of %d", w.Sale.ActiveRound()+1, len(scfg.Rounds))},
		{"price", priceLabel(round.PriceUSD) + " per token"},
		{"tokens raised", amount.Format(w.Sale.TokensRaised(), 18)},
		{"round ceiling", amount.Format(round.Ceiling, 18)},
		{"native rate", fmt.Sprintf("$%d", scfg.NativeRateUSD)},
	}
	if w.Sale.Status() == sale.Active || w.Sale.Status() == sale.Paused {
		pairs = append(pairs, [2]string{"round ends", w.Sale.PeriodEnd().Format("2006-01-02 15:04 MST")})
	}
	return pairs
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the whole deployment",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := loadWorld()
		if err != nil {
			return err
		}

		tokenPairs := [][2]string{
			{"supply", fmtTokens(w.Eco.TotalSupply(), w.Eco.Symbol())},
			{"owner", ui.TruncateAddr(w.Eco.Owner().Hex())},
			{"ledger time", w.Env.Now().Format("2006-01-02 15:04 MST")},
		}
		if burn, next := w.Eco.BurnSchedule(); burn != nil {
			tokenPairs = append(tokenPairs, [2]string{"next burn", next.Format("2006-01-02")})
		}
		fmt.Println(ui.KeyValueBlock(w.Eco.Name(), tokenPairs))

		fmt.Println(ui.KeyValueBlock("Crowdsale", salePairs(w)))

		vestPairs := [][2]string{
			{"initiated", fmt.Sprintf("%v", w.Vesting.Initiated())},
			{"ledger float", fmtTokens(w.Eco.BalanceOf(w.Vesting.Address()), w.Eco.Symbol())},
			{"native proceeds", amount.Format(w.Env.NativeBalanceOf(w.Vesting.Address()), 18)},
		}
		fmt.Println(ui.KeyValueBlock("Vesting", vestPairs))

		accounts, err := newAccountManager().List()
		if err != nil || len(accounts) == 0 {
			return nil
		}
		t := ui.NewTable([]ui.Column{
			{Title: "BUYER", Width: 10},
			{Title: "VESTED", Width: 20, Right: true},
			{Title: "UNLOCKED", Width: 20, Right: true},
			{Title: "LOCKED", Width: 20, Right: true},
		})
		shown := 0
		for _, a := range accounts {
			r := w.Vesting.Vest(a.AddressBytes())
			if r == nil {
				continue
			}
			t.AddRow(ui.Row{
				a.Name,
				amount.Format(r.TotalVest, 18),
				amount.Format(r.Unlocked, 18),
				amount.Format(r.Locked, 18),
			})
			shown++
		}
		if shown > 0 {
			fmt.Println(t.Render())
		}
		return nil
	},
}

// raisedRatio is the fill fraction of the active round's cumulative ceiling.
func raisedRatio(w *deploy.World) float64 {
	round := w.Sale.Config().Rounds[w.Sale.ActiveRound()]
	if round.Ceiling.Sign() == 0 {
		return 0
	}
	r := new(big.Rat).SetFrac(w.Sale.TokensRaised(), round.Ceiling)
	f, _ := r.Float64()
	return f
}
