package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price <coin> [coin...]",
		Short: "Fetch live prices",
		Long: `Fetch current prices for one or more coins. Prices are always fetched
live from the provider, never from the local cache.`,
		Args: cobra.MinimumNArgs(1),
		Example: `  gecko-watch price bitcoin
  gecko-watch price bitcoin ethereum --vs usd,eur`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireCache(app, output); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			vs, _ := cmd.Flags().GetString("vs")
			currencies := splitList(vs)

			prices, err := app.Cache.Price(ctx, args, currencies)
			if err != nil {
				output.Error("Failed to fetch prices: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(prices)
			}

			table := NewTable(output, append([]string{"Coin"}, currencies...)...)
			coins := make([]string, 0, len(prices))
			for coin := range prices {
				coins = append(coins, coin)
			}
			sort.Strings(coins)
			for _, coin := range coins {
				row := []string{coin}
				for _, currency := range currencies {
					row = append(row, formatAmount(prices[coin][currency]))
				}
				table.AddRow(row...)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("vs", "usd", "comma-separated quote currencies")

	return cmd
}

func newChartCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart <coin> <currency>",
		Short: "Fetch historical prices",
		Long:  "Fetch historical prices for a coin over a time window.",
		Args:  cobra.ExactArgs(2),
		Example: `  gecko-watch chart bitcoin usd
  gecko-watch chart bitcoin usd --days 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireCache(app, output); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				days = 7
			}
			to := time.Now()
			from := to.AddDate(0, 0, -days)

			points, err := app.Cache.MarketChartRange(ctx, args[0], args[1], from, to)
			if err != nil {
				output.Error("Failed to fetch chart data: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(points)
			}

			if len(points) == 0 {
				output.Warning("No price data in the requested window.")
				return nil
			}

			table := NewTable(output, "Time", "Price")
			for _, p := range points {
				table.AddRow(p.Timestamp.Format("2006-01-02 15:04"), formatAmount(p.Price))
			}
			table.Render()
			output.Println()
			output.Dim("%d points over %d days", len(points), days)
			return nil
		},
	}
	cmd.Flags().Int("days", 7, "number of days to look back")

	return cmd
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// formatAmount renders a price with enough precision for small-cap coins.
func formatAmount(v float64) string {
	if v != 0 && v < 0.01 {
		return fmt.Sprintf("%.8f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
