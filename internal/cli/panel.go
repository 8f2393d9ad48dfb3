package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"openalgo-scalper/internal/models"
	"openalgo-scalper/internal/session"
)

const commandTimeout = 30 * time.Second

// newSession builds a session wired to the terminal view.
func (a *App) newSession() (*session.Session, error) {
	if err := a.requireConfigured(); err != nil {
		return nil, err
	}
	return session.New(session.Options{
		Config:   a.Config,
		API:      a.API,
		Store:    a.Store,
		Notifier: a.Notifier,
		View:     NewTerminalView(),
		Logger:   a.Logger,
	})
}

// addPanelCommands adds the interactive panel and chain manipulation commands.
func addPanelCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newChainCmd(app))
	rootCmd.AddCommand(newOrderCmd(app))
	rootCmd.AddCommand(newSLCmd(app))
	rootCmd.AddCommand(newPanicCmd(app))
}

// newRunCmd starts the live panel until interrupted.
func newRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the live scalping panel",
		Long: `Build the strike chain for the active symbol and keep it refreshing
until interrupted. Auto refresh and the live tick feed follow the
configuration in config.toml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			err = s.Start(ctx)
			cancel()
			if err != nil {
				return err
			}
			defer s.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			fmt.Println("\nshutting down")
			return nil
		},
	}
}

// newChainCmd groups chain inspection and manipulation.
func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Strike chain operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Build and display the strike chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			if err := s.Start(ctx); err != nil {
				return err
			}
			defer s.Stop()
			// Give the debounced quote refresh a moment to land.
			time.Sleep(time.Second)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "switch",
		Short: "Flip the chain between CE and PE",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			if err := s.Start(ctx); err != nil {
				return err
			}
			defer s.Stop()
			if err := s.SwitchOptionType(ctx); err != nil {
				return err
			}
			time.Sleep(time.Second)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "extend",
		Short: "Deepen the chain by one level at both ends",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			if err := s.Start(ctx); err != nil {
				return err
			}
			defer s.Stop()
			return s.Extend(ctx)
		},
	})

	return cmd
}

// newOrderCmd places an order for a chain offset.
func newOrderCmd(app *App) *cobra.Command {
	var (
		offset    string
		lots      int
		orderType string
		price     float64
	)

	cmd := &cobra.Command{
		Use:   "order <buy|sell>",
		Short: "Place an order for the selected strike",
		Args:  cobra.ExactArgs(1),
		Example: `  scalper order buy --offset ATM --lots 2
  scalper order sell --offset OTM1 --lots 1 --type LIMIT --price 104.50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := parseAction(args[0])
			if err != nil {
				return err
			}

			s, err := app.newSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			if err := s.Start(ctx); err != nil {
				return err
			}
			defer s.Stop()

			if err := s.SelectOffset(models.Offset(strings.ToUpper(offset))); err != nil {
				return err
			}
			s.SetAction(action)
			s.SetOrderType(models.OrderType(strings.ToUpper(orderType)))
			if err := s.SetLots(lots); err != nil {
				return err
			}
			if price > 0 {
				if err := s.SetPrice(price); err != nil {
					return err
				}
			}

			result, err := s.PlaceOrder(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("order id: %s\n", result.OrderID)
			return nil
		},
	}

	cmd.Flags().StringVar(&offset, "offset", "ATM", "chain offset (ITMn/ATM/OTMn)")
	cmd.Flags().IntVar(&lots, "lots", 1, "quantity in lots")
	cmd.Flags().StringVar(&orderType, "type", "MARKET", "price type (MARKET/LIMIT/SL/SL-M)")
	cmd.Flags().Float64Var(&price, "price", 0, "limit price (non-market orders)")
	return cmd
}

// newSLCmd groups stop-loss management.
func newSLCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sl",
		Short: "Stop-loss order management",
	}

	var (
		offset  string
		lots    int
		trigger float64
		limit   float64
	)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Place a stop-loss protecting the current position",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			if err := s.Start(ctx); err != nil {
				return err
			}
			defer s.Stop()
			if err := s.SelectOffset(models.Offset(strings.ToUpper(offset))); err != nil {
				return err
			}
			// Position fetch is debounced; force it synchronously.
			if err := s.RefreshSelectedStrike(ctx); err != nil {
				return err
			}
			time.Sleep(time.Second)

			result, err := s.AddStopLoss(ctx, lots, trigger, limit)
			if err != nil {
				return err
			}
			fmt.Printf("stop-loss order id: %s\n", result.OrderID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&offset, "offset", "ATM", "chain offset")
	addCmd.Flags().IntVar(&lots, "lots", 1, "lots to protect")
	addCmd.Flags().Float64Var(&trigger, "trigger", 0, "trigger price")
	addCmd.Flags().Float64Var(&limit, "limit", 0, "limit price (0 for SL-M behaviour)")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "exit [order-id...]",
		Short: "Convert pending stop-losses to market orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			if err := s.Start(ctx); err != nil {
				return err
			}
			defer s.Stop()
			time.Sleep(time.Second)
			n := s.ExitAtMarket(ctx, args)
			fmt.Printf("%d order(s) converted\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel [order-id...]",
		Short: "Cancel pending stop-loss orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			if err := s.Start(ctx); err != nil {
				return err
			}
			defer s.Stop()
			time.Sleep(time.Second)
			n := s.CancelStopLosses(ctx, args)
			fmt.Printf("%d order(s) cancelled\n", n)
			return nil
		},
	})

	return cmd
}

// newPanicCmd cancels everything and squares off.
func newPanicCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "panic",
		Short: "Cancel all orders and close all positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireConfigured(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			if err := app.API.CancelAllOrders(ctx); err != nil {
				return err
			}
			return app.API.CloseAllPositions(ctx)
		},
	}
}

func parseAction(s string) (models.Action, error) {
	switch strings.ToLower(s) {
	case "buy":
		return models.ActionBuy, nil
	case "sell":
		return models.ActionSell, nil
	}
	return "", fmt.Errorf("invalid action %q: want buy or sell", s)
}
