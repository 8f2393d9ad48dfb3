package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"openalgo-scalper/internal/models"
	"openalgo-scalper/pkg/utils"
)

// addMarketCommands adds one-shot market data commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newFundsCmd(app))
	rootCmd.AddCommand(newExpiryCmd(app))
	rootCmd.AddCommand(newOrdersCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newJournalCmd(app))
}

func newQuoteCmd(app *App) *cobra.Command {
	var exchange string

	cmd := &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Fetch a quote for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireConfigured(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			q, err := app.API.Quote(ctx, strings.ToUpper(args[0]), models.Exchange(exchange))
			if err != nil {
				return err
			}

			chg := utils.GetChangeDisplay(q.LTP, q.PrevClose)
			fmt.Printf("%s  %.2f  %s %s%.2f (%s)\n",
				q.Symbol, q.LTP, chg.Arrow, chg.Sign, chg.Change, utils.FormatPercent(chg.ChangePercent))
			fmt.Printf("O %.2f  H %.2f  L %.2f  bid %.2f  ask %.2f  vol %d  oi %d\n",
				q.Open, q.High, q.Low, q.Bid, q.Ask, q.Volume, q.OI)
			return nil
		},
	}

	cmd.Flags().StringVar(&exchange, "exchange", "NSE", "exchange segment")
	return cmd
}

func newFundsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "funds",
		Short: "Show account funds and today's P&L",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireConfigured(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			f, err := app.API.Funds(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Available cash: %s\n", utils.FormatIndianCurrency(f.AvailableCash))
			fmt.Printf("Realized:       %s\n", utils.FormatIndianCurrency(f.M2MRealized))
			fmt.Printf("Unrealized:     %s\n", utils.FormatIndianCurrency(f.M2MUnrealized))
			fmt.Printf("Today's P&L:    %s\n", utils.FormatIndianCurrency(f.TodayPL()))
			return nil
		},
	}
}

func newExpiryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "expiry",
		Short: "List option expiries for the active symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireConfigured(); err != nil {
				return err
			}
			sym, ok := app.Config.ActiveSymbol()
			if !ok {
				return fmt.Errorf("no symbols configured")
			}

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			expiries, err := app.API.Expiry(ctx, sym.Symbol, sym.Exchange)
			if err != nil {
				return err
			}
			for _, e := range expiries {
				fmt.Println(e)
			}
			return nil
		},
	}
}

func newOrdersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "Show the order book",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireConfigured(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			orders, err := app.API.OrderBook(ctx)
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Println("no orders")
				return nil
			}

			for _, o := range orders {
				pending := " "
				if o.IsPending() {
					pending = "*"
				}
				fmt.Printf("%s %-12s %-24s %-4s %-5s qty=%-5d px=%-9.2f trg=%-9.2f %s %s\n",
					pending, o.OrderID, o.Symbol, o.Action, o.PriceType,
					o.Quantity, o.Price, o.TriggerPrice, o.Status,
					utils.ExtractTimeFromTimestamp(o.Timestamp))
			}
			return nil
		},
	}
}

func newTradesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "trades",
		Short: "Show the trade book",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireConfigured(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			trades, err := app.API.TradeBook(ctx)
			if err != nil {
				return err
			}
			if len(trades) == 0 {
				fmt.Println("no trades")
				return nil
			}

			for _, tr := range trades {
				fmt.Printf("%-12s %-24s %-4s qty=%-5d px=%-9.2f %s\n",
					tr.OrderID, tr.Symbol, tr.Action, tr.Quantity, tr.Price,
					utils.ExtractTimeFromTimestamp(tr.Timestamp))
			}
			return nil
		},
	}
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Show the position book",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireConfigured(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			positions, err := app.API.PositionBook(ctx)
			if err != nil {
				return err
			}
			if len(positions) == 0 {
				fmt.Println("no open positions")
				return nil
			}

			for _, p := range positions {
				fmt.Printf("%-24s %-4s %-4s qty=%d\n",
					p.Symbol, p.Exchange, p.Product, p.Quantity)
			}
			return nil
		},
	}
}

func newJournalCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recently placed orders from the local journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			entries, err := app.Store.RecentOrders(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("journal empty")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s %-12s %-24s %-4s %-6s qty=%-5d px=%.2f\n",
					e.PlacedAt.Format(time.DateTime), e.OrderID, e.Order.Symbol,
					e.Order.Action, e.Order.PriceType, e.Order.Quantity, e.Order.Price)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	return cmd
}
