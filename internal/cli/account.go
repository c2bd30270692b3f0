package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/allyourbase/nexmoctl/internal/msisdn"
	"github.com/allyourbase/nexmoctl/internal/nexmo"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the account balance",
	Args:  cobra.NoArgs,
	RunE:  runBalance,
}

var pricingCmd = &cobra.Command{
	Use:   "pricing <country>",
	Short: "Show outbound SMS pricing for a country",
	Long: `Show the outbound SMS price, dialing prefix, and per-network prices
for a country given as an ISO 3166-1 alpha-2 code.`,
	Example: `  nexmoctl pricing GB
  nexmoctl pricing us --output csv`,
	Args: cobra.ExactArgs(1),
	RunE: runPricing,
}

func runBalance(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	value, err := fetch(cmd, "Fetching balance", client.Balance)
	if err != nil {
		return err
	}

	return emit(cmd, map[string]any{"value": value},
		[]string{"Balance"},
		[][]string{{formatPrice(value)}},
	)
}

func runPricing(cmd *cobra.Command, args []string) error {
	cc, err := countryArg(args[0])
	if err != nil {
		return err
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	p, err := fetch(cmd, "Fetching pricing for "+cc, func(ctx context.Context) (*nexmo.PricingResponse, error) {
		return client.Pricing(ctx, cc)
	})
	if err != nil {
		return err
	}

	// Both read the cached payload.
	price := "n/a"
	if v, err := client.SMSPricing(cmd.Context(), cc); err == nil {
		price = formatPrice(v)
	}
	prefix, err := client.CountryDialingCode(cmd.Context(), cc)
	if errors.Is(err, nexmo.ErrNoData) {
		prefix = msisdn.DialingCode(cc)
	}

	cols := []string{"Network", "Code", "Price"}
	rows := make([][]string, len(p.Networks))
	for i, n := range p.Networks {
		rows[i] = []string{n.Network, string(n.Code), formatPrice(float64(n.MTPrice))}
	}

	switch outputFormat(cmd) {
	case "json":
		return writeJSON(p)
	case "csv":
		return writeCSVStdout(cols, rows)
	}

	printFields(os.Stdout, [][2]string{
		{"Country", strings.TrimSpace(cc + " " + p.Name)},
		{"Prefix", "+" + prefix},
		{"SMS price", price},
	})
	if len(rows) > 0 {
		fmt.Println()
		printTable(os.Stdout, cols, rows)
	}
	return nil
}
