package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ecogames/ecosale/internal/amount"
	"github.com/ecogames/ecosale/internal/ui"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live sale dashboard",
	Long: `Opens a terminal dashboard that re-reads the persisted state every
second, so purchases and unlocks made from other terminals show up
live.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fetch := func() (ui.DashSnapshot, error) {
			w, err := loadWorld()
			if err != nil {
				return ui.DashSnapshot{}, err
			}
			round := w.Sale.Config().Rounds[w.Sale.ActiveRound()]
			snap := ui.DashSnapshot{
				Round:    w.Sale.ActiveRound(),
				Status:   w.Sale.Status().String(),
				PriceUSD: priceLabel(round.PriceUSD),
				Raised:   amount.Format(w.Sale.TokensRaised(), 18),
				Ceiling:  amount.Format(round.Ceiling, 18),
				Ratio:    raisedRatio(w),
				ClockNow: w.Env.Now().Format("2006-01-02 15:04:05"),
				NextBurn: "none",
			}
			if burn, next := w.Eco.BurnSchedule(); burn != nil {
				snap.NextBurn = next.Format("2006-01-02")
			}

			accounts, err := newAccountManager().List()
			if err != nil {
				return ui.DashSnapshot{}, err
			}
			for _, a := range accounts {
				r := w.Vesting.Vest(a.AddressBytes())
				if r == nil {
					continue
				}
				snap.Buyers = append(snap.Buyers, ui.DashBuyer{
					Name:     a.Name,
					Address:  a.Address,
					Vested:   amount.Format(r.TotalVest, 18),
					Unlocked: amount.Format(r.Unlocked, 18),
					Locked:   amount.Format(r.Locked, 18),
				})
			}
			return snap, nil
		}

		p := tea.NewProgram(ui.DashModel{Fetch: fetch})
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		return nil
	},
}
