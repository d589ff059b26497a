package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gecko-watch/internal/models"
)

const commandTimeout = 60 * time.Second

func newCoinsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coins",
		Short: "Coin catalog",
		Long: `List and manage the cached coin catalog.

The catalog is fetched from the provider on first use and served from the
local store afterwards. Favourite flags are local and persistent.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List coins",
		Example: `  gecko-watch coins list
  gecko-watch coins list --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireCache(app, output); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			all, _ := cmd.Flags().GetBool("all")
			all = all || app.Config.Display.ShowAllCoins

			var coins []models.Coin
			var err error
			if all {
				coins, err = app.Cache.Coins(ctx)
			} else {
				coins, err = app.Cache.FavouriteCoins(ctx)
			}
			if err != nil {
				output.Error("Failed to load coins: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(coins)
			}

			if len(coins) == 0 {
				output.Warning("No coins to show. Mark favourites with 'gecko-watch coins favourite <id>' or pass --all.")
				return nil
			}

			table := NewTable(output, "", "ID", "Coin")
			for _, coin := range coins {
				table.AddRow(output.Favourite(coin.Favourite), fmt.Sprintf("%d", coin.ID), coin.ExternalID)
			}
			table.Render()
			output.Println()
			output.Dim("%d coins", len(coins))
			return nil
		},
	}
	listCmd.Flags().Bool("all", false, "show the full catalog, not only favourites")

	cmd.AddCommand(listCmd)
	cmd.AddCommand(newCoinFavouriteCmd(app, true))
	cmd.AddCommand(newCoinFavouriteCmd(app, false))

	return cmd
}

func newCoinFavouriteCmd(app *App, favourite bool) *cobra.Command {
	use, short := "favourite <coin>", "Mark a coin as favourite"
	if !favourite {
		use, short = "unfavourite <coin>", "Remove a coin from favourites"
	}

	return &cobra.Command{
		Use:     use,
		Short:   short,
		Args:    cobra.ExactArgs(1),
		Example: `  gecko-watch coins favourite bitcoin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireCache(app, output); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			// Hydrate so a fresh database still resolves known coins.
			if _, err := app.Cache.Coins(ctx); err != nil {
				output.Error("Failed to load coin catalog: %v", err)
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

			if err := app.Cache.SetCoinFavourite(ctx, coin.ID, favourite); err != nil {
				output.Error("Failed to update favourite: %v", err)
				return err
			}

			if favourite {
				output.Success("✓ %s marked as favourite", coin.ExternalID)
			} else {
				output.Success("✓ %s removed from favourites", coin.ExternalID)
			}
			return nil
		},
	}
}
