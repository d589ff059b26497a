package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gecko-watch/internal/models"
)

func newCurrenciesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "currencies",
		Short: "Quote currency catalog",
		Long:  "List and manage the cached quote currency catalog.",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List quote currencies",
		Example: `  gecko-watch currencies list
  gecko-watch currencies list --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireCache(app, output); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			all, _ := cmd.Flags().GetBool("all")
			all = all || app.Config.Display.ShowAllCurrencies

			var currencies []models.VsCurrency
			var err error
			if all {
				currencies, err = app.Cache.VsCurrencies(ctx)
			} else {
				currencies, err = app.Cache.FavouriteVsCurrencies(ctx)
			}
			if err != nil {
				output.Error("Failed to load currencies: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(currencies)
			}

			if len(currencies) == 0 {
				output.Warning("No currencies to show. Mark favourites with 'gecko-watch currencies favourite <name>' or pass --all.")
				return nil
			}

			table := NewTable(output, "", "ID", "Currency")
			for _, currency := range currencies {
				table.AddRow(output.Favourite(currency.Favourite), fmt.Sprintf("%d", currency.ID), currency.Name)
			}
			table.Render()
			output.Println()
			output.Dim("%d currencies", len(currencies))
			return nil
		},
	}
	listCmd.Flags().Bool("all", false, "show the full catalog, not only favourites")

	cmd.AddCommand(listCmd)
	cmd.AddCommand(newCurrencyFavouriteCmd(app, true))
	cmd.AddCommand(newCurrencyFavouriteCmd(app, false))

	return cmd
}

func newCurrencyFavouriteCmd(app *App, favourite bool) *cobra.Command {
	use, short := "favourite <currency>", "Mark a currency as favourite"
	if !favourite {
		use, short = "unfavourite <currency>", "Remove a currency from favourites"
	}

	return &cobra.Command{
		Use:     use,
		Short:   short,
		Args:    cobra.ExactArgs(1),
		Example: `  gecko-watch currencies favourite usd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireCache(app, output); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			if _, err := app.Cache.VsCurrencies(ctx); err != nil {
				output.Error("Failed to load currency catalog: %v", err)
				return err
			}

			currency, ok, err := app.Store.VsCurrencyByName(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				output.Error("Unknown currency: %s", args[0])
				return fmt.Errorf("unknown currency: %s", args[0])
			}

			if err := app.Cache.SetVsCurrencyFavourite(ctx, currency.ID, favourite); err != nil {
				output.Error("Failed to update favourite: %v", err)
				return err
			}

			if favourite {
				output.Success("✓ %s marked as favourite", currency.Name)
			} else {
				output.Success("✓ %s removed from favourites", currency.Name)
			}
			return nil
		},
	}
}
