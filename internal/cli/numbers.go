package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/allyourbase/nexmoctl/internal/msisdn"
	"github.com/allyourbase/nexmoctl/internal/nexmo"
	"github.com/spf13/cobra"
)

var numbersCmd = &cobra.Command{
	Use:   "numbers",
	Short: "List, search, buy, and cancel phone numbers",
}

var numbersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List numbers owned by the account",
	Args:  cobra.NoArgs,
	RunE:  runNumbersList,
}

var numbersSearchCmd = &cobra.Command{
	Use:     "search <country>",
	Short:   "Search numbers available to buy in a country",
	Example: `  nexmoctl numbers search GB --pattern 4420`,
	Args:    cobra.ExactArgs(1),
	RunE:    runNumbersSearch,
}

var numbersBuyCmd = &cobra.Command{
	Use:   "buy <country> <msisdn>",
	Short: "Buy a number",
	Long: `Buy a number. The number may be given in international form
(447700900123, +44 7700 900123) or in the country's national form.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNumberAction(cmd, args, "buy", func(c *nexmo.Client) numberActionFunc { return c.NumbersBuy })
	},
}

var numbersCancelCmd = &cobra.Command{
	Use:   "cancel <country> <msisdn>",
	Short: "Cancel an owned number",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNumberAction(cmd, args, "cancel", func(c *nexmo.Client) numberActionFunc { return c.NumbersCancel })
	},
}

type numberActionFunc func(ctx context.Context, countryCode, msisdn string) (bool, error)

func init() {
	numbersSearchCmd.Flags().String("pattern", "", "Only numbers starting with this digit sequence")
	numbersBuyCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
	numbersCancelCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")

	numbersCmd.AddCommand(numbersListCmd)
	numbersCmd.AddCommand(numbersSearchCmd)
	numbersCmd.AddCommand(numbersBuyCmd)
	numbersCmd.AddCommand(numbersCancelCmd)
}

func runNumbersList(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	nums, err := fetch(cmd, "Fetching numbers", client.NumbersList)
	if err != nil {
		return err
	}
	return printNumbers(cmd, nums, "No numbers on this account.")
}

func runNumbersSearch(cmd *cobra.Command, args []string) error {
	cc, err := countryArg(args[0])
	if err != nil {
		return err
	}
	pattern, _ := cmd.Flags().GetString("pattern")
	if strings.Trim(pattern, "0123456789") != "" {
		return fmt.Errorf("--pattern must contain digits only, got %q", pattern)
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	nums, err := fetch(cmd, "Searching numbers in "+cc, func(ctx context.Context) ([]nexmo.Number, error) {
		return client.NumbersSearch(ctx, cc, pattern)
	})
	if err != nil {
		return err
	}
	return printNumbers(cmd, nums, "No matching numbers available.")
}

func runNumberAction(cmd *cobra.Command, args []string, verb string, pick func(*nexmo.Client) numberActionFunc) error {
	cc, err := countryArg(args[0])
	if err != nil {
		return err
	}
	number, err := msisdn.Normalize(cc, args[1])
	if err != nil {
		hints := []string{"give the number in international form, e.g. 447700900123"}
		if intl, ierr := msisdn.Normalize("", args[1]); ierr == nil {
			if region := msisdn.Country(intl); region != "" && region != cc {
				hints = append([]string{fmt.Sprintf("%s is a %s number: nexmoctl numbers %s %s %s", intl, region, verb, region, intl)}, hints...)
			}
		}
		return withHints(fmt.Errorf("%w: %q is not a %s number", err, args[1], cc), hints...)
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		fmt.Fprintf(cmd.OutOrStdout(), "%s number %s (%s)? [y/N] ", strings.ToUpper(verb[:1])+verb[1:], number, cc)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	action := pick(client)
	if _, err := fetch(cmd, fmt.Sprintf("%s %s", verb, number), func(ctx context.Context) (bool, error) {
		return action(ctx, cc, number)
	}); err != nil {
		return err
	}

	if outputFormat(cmd) == "json" {
		return writeJSON(map[string]any{"ok": true, "action": verb, "country": cc, "msisdn": number})
	}
	fmt.Printf("%s %s\n", number, map[string]string{"buy": "bought", "cancel": "cancelled"}[verb])
	return nil
}

func printNumbers(cmd *cobra.Command, nums []nexmo.Number, empty string) error {
	cols := []string{"MSISDN", "Country", "Type", "Cost", "Features"}
	rows := make([][]string, len(nums))
	for i, n := range nums {
		rows[i] = []string{string(n.MSISDN), n.Country, n.Type, formatPrice(float64(n.Cost)), strings.Join(n.Features, ",")}
	}

	if outputFormat(cmd) == "table" && len(nums) == 0 {
		fmt.Println(empty)
		return nil
	}
	if err := emit(cmd, nexmo.NumbersResponse{Count: len(nums), Numbers: nums}, cols, rows); err != nil {
		return err
	}
	if outputFormat(cmd) == "table" {
		fmt.Printf("\n%d number(s)\n", len(nums))
	}
	return nil
}

// countryArg validates and uppercases a country code argument.
func countryArg(arg string) (string, error) {
	cc := strings.ToUpper(strings.TrimSpace(arg))
	if !msisdn.ValidCountryCode(cc) {
		return "", withHints(fmt.Errorf("%w: %q", msisdn.ErrInvalidCountry, arg),
			"use an ISO 3166-1 alpha-2 code such as GB or US")
	}
	return cc, nil
}
