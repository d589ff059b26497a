package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gecko-watch/internal/models"
)

func newTriggerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Price triggers",
		Long: `Manage price triggers. A trigger records the live price at creation
time and a target price; the watch command fires it once the live price
crosses the target and then removes it.`,
	}

	cmd.AddCommand(newTriggerAddCmd(app))
	cmd.AddCommand(newTriggerListCmd(app))
	cmd.AddCommand(newTriggerDeleteCmd(app))

	return cmd
}

func newTriggerAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <coin> <currency> <target-price>",
		Short: "Add a price trigger",
		Args:  cobra.ExactArgs(3),
		Example: `  gecko-watch trigger add bitcoin usd 100000
  gecko-watch trigger add ethereum eur 1500.50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireCache(app, output); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			targetPrice, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				output.Error("Invalid target price: %s", args[2])
				return fmt.Errorf("invalid target price %q: %w", args[2], err)
			}

			// Hydrate so a fresh database still resolves both references.
			if _, err := app.Cache.Coins(ctx); err != nil {
				output.Error("Failed to load coin catalog: %v", err)
				return err
			}
			if _, err := app.Cache.VsCurrencies(ctx); err != nil {
				output.Error("Failed to load currency catalog: %v", err)
				return err
			}

			coin, ok, err := app.Store.CoinByExternalID(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				output.Error("Unknown coin: %s", args[0])
				return fmt.Errorf("unknown coin: %s", args[0])
			}

			currency, ok, err := app.Store.VsCurrencyByName(ctx, args[1])
			if err != nil {
				return err
			}
			if !ok {
				output.Error("Unknown currency: %s", args[1])
				return fmt.Errorf("unknown currency: %s", args[1])
			}

			prices, err := app.Cache.Price(ctx, []string{coin.ExternalID}, []string{currency.Name})
			if err != nil {
				output.Error("Failed to fetch current price: %v", err)
				return err
			}
			livePrice := prices[coin.ExternalID][currency.Name]

			trigger, err := app.Cache.AddTrigger(ctx, coin.ID, currency.ID, livePrice, targetPrice)
			if err != nil {
				output.Error("Failed to add trigger: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trigger)
			}

			direction := "rises to"
			if trigger.Direction() == models.DirectionDecrease {
				direction = "drops to"
			}
			output.Success("✓ Trigger #%d added: %s %s %s %s (now %s)",
				trigger.ID, coin.ExternalID, direction, formatAmount(targetPrice),
				currency.Name, formatAmount(livePrice))
			return nil
		},
	}
}

func newTriggerListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List price triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireCache(app, output); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			triggers, err := app.Cache.Triggers(ctx)
			if err != nil {
				output.Error("Failed to load triggers: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(triggers)
			}

			if len(triggers) == 0 {
				output.Warning("No triggers. Add one with 'gecko-watch trigger add <coin> <currency> <target>'.")
				return nil
			}

			table := NewTable(output, "ID", "Coin", "Currency", "Initial", "Target", "Side", "Created")
			for _, trigger := range triggers {
				coin := fmt.Sprintf("#%d", trigger.CoinID)
				if c, ok, err := app.Store.CoinByID(ctx, trigger.CoinID); err == nil && ok {
					coin = c.ExternalID
				}
				currency := fmt.Sprintf("#%d", trigger.CurrencyID)
				if v, ok, err := app.Store.VsCurrencyByID(ctx, trigger.CurrencyID); err == nil && ok {
					currency = v.Name
				}
				table.AddRow(
					fmt.Sprintf("%d", trigger.ID),
					coin,
					currency,
					formatAmount(trigger.InitialPrice),
					formatAmount(trigger.TargetPrice),
					string(trigger.Direction()),
					trigger.CreatedAt.Format("2006-01-02 15:04"),
				)
			}
			table.Render()
			output.Println()
			output.Dim("%d triggers", len(triggers))
			return nil
		},
	}
}

func newTriggerDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a price trigger",
		Args:    cobra.ExactArgs(1),
		Example: `  gecko-watch trigger delete 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireCache(app, output); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				output.Error("Invalid trigger id: %s", args[0])
				return fmt.Errorf("invalid trigger id %q: %w", args[0], err)
			}

			if err := app.Cache.DeleteTrigger(ctx, id); err != nil {
				output.Error("Failed to delete trigger: %v", err)
				return err
			}

			output.Success("✓ Trigger #%d deleted", id)
			return nil
		},
	}
}
