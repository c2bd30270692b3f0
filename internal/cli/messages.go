package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/allyourbase/nexmoctl/internal/msisdn"
	"github.com/allyourbase/nexmoctl/internal/nexmo"
	"github.com/spf13/cobra"
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Look up sent messages",
}

var messagesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one message by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessagesGet,
}

var messagesSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search messages by id list or by recipient and date",
	Example: `  nexmoctl messages search --ids 0A00000012345678,0A00000012345679
  nexmoctl messages search --to 447700900123 --date 2024-01-31`,
	Args: cobra.NoArgs,
	RunE: runMessagesSearch,
}

func init() {
	messagesSearchCmd.Flags().String("ids", "", "Comma-separated message ids")
	messagesSearchCmd.Flags().String("to", "", "Recipient number, international form")
	messagesSearchCmd.Flags().String("date", "", "Day the message was sent (YYYY-MM-DD)")

	messagesCmd.AddCommand(messagesGetCmd)
	messagesCmd.AddCommand(messagesSearchCmd)
}

func runMessagesGet(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	msg, err := fetch(cmd, "Looking up message "+args[0], func(ctx context.Context) (*nexmo.Message, error) {
		return client.SearchMessage(ctx, args[0])
	})
	if err != nil {
		return err
	}

	switch outputFormat(cmd) {
	case "json":
		return writeJSON(msg)
	case "csv":
		return writeCSVStdout(messageCols, [][]string{messageRow(*msg)})
	}
	printFields(os.Stdout, [][2]string{
		{"ID", msg.MessageID},
		{"From", msg.From},
		{"To", string(msg.To)},
		{"Network", string(msg.Network)},
		{"Status", msg.FinalStatus},
		{"Price", formatPrice(float64(msg.Price))},
		{"Received", msg.DateReceived},
		{"Closed", msg.DateClosed},
		{"Latency", strconv.Itoa(msg.Latency) + "ms"},
		{"Body", msg.Body},
	})
	return nil
}

func runMessagesSearch(cmd *cobra.Command, args []string) error {
	idsFlag, _ := cmd.Flags().GetString("ids")
	to, _ := cmd.Flags().GetString("to")
	date, _ := cmd.Flags().GetString("date")

	var ids []string
	for _, id := range strings.Split(idsFlag, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	var number string
	switch {
	case len(ids) > 0 && (to != "" || date != ""):
		return fmt.Errorf("--ids cannot be combined with --to or --date")
	case len(ids) > 0:
	case to != "" && date != "":
		var err error
		if number, err = msisdn.Normalize("", to); err != nil {
			return withHints(fmt.Errorf("--to: %w", err), "give the number in international form, e.g. 447700900123")
		}
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD, got %q", date)
		}
	default:
		return withHints(fmt.Errorf("either --ids or both --to and --date are required"),
			"nexmoctl messages search --ids ID1,ID2",
			"nexmoctl messages search --to 447700900123 --date 2024-01-31")
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	search := func(ctx context.Context) (*nexmo.MessagesResponse, error) {
		if len(ids) > 0 {
			return client.SearchMessages(ctx, ids)
		}
		return client.SearchMessagesByRecipient(ctx, number, date)
	}

	res, err := fetch(cmd, "Searching messages", search)
	if err != nil {
		return err
	}

	if outputFormat(cmd) == "table" && len(res.Items) == 0 {
		fmt.Println("No messages found.")
		return nil
	}
	rows := make([][]string, len(res.Items))
	for i, m := range res.Items {
		rows[i] = messageRow(m)
	}
	if err := emit(cmd, res, messageCols, rows); err != nil {
		return err
	}
	if outputFormat(cmd) == "table" {
		fmt.Printf("\n%d message(s)\n", len(res.Items))
	}
	return nil
}

var messageCols = []string{"ID", "From", "To", "Status", "Price", "Received"}

func messageRow(m nexmo.Message) []string {
	return []string{m.MessageID, m.From, string(m.To), m.FinalStatus, formatPrice(float64(m.Price)), m.DateReceived}
}
