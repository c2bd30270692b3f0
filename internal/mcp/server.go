// Package mcp implements a Model Context Protocol server over the account
// client. It exposes the read-only lookups (balance, pricing, numbers,
// message search) as MCP tools, resources, and prompts so AI coding tools
// can query the account through structured tool calls.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/allyourbase/nexmoctl/internal/msisdn"
	"github.com/allyourbase/nexmoctl/internal/nexmo"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Account is the subset of client operations the MCP server uses.
// *nexmo.Client implements it. Buying and cancelling numbers are left out:
// they cost money and stay behind the CLI prompt.
type Account interface {
	Balance(ctx context.Context) (float64, error)
	Pricing(ctx context.Context, countryCode string) (*nexmo.PricingResponse, error)
	NumbersList(ctx context.Context) ([]nexmo.Number, error)
	NumbersSearch(ctx context.Context, countryCode, pattern string) ([]nexmo.Number, error)
	SearchMessage(ctx context.Context, id string) (*nexmo.Message, error)
	SearchMessages(ctx context.Context, ids []string) (*nexmo.MessagesResponse, error)
	SearchMessagesByRecipient(ctx context.Context, to, date string) (*nexmo.MessagesResponse, error)
}

// NewServer creates an MCP server backed by account. version is reported to
// connecting clients.
func NewServer(account Account, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "nexmoctl-mcp",
		Title:   "nexmoctl MCP Server",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: "Read-only access to a Nexmo account: balance, outbound SMS pricing, " +
			"owned and available numbers, and sent-message search. Country codes are " +
			"ISO 3166-1 alpha-2; numbers are international digits without '+'.",
	})

	registerTools(server, account)
	registerResources(server, account)
	registerPrompts(server)

	return server
}

// --- Input/Output types for tools ---

type GetBalanceInput struct{}
type GetBalanceOutput struct {
	Value float64 `json:"value"`
}

type GetPricingInput struct {
	Country string `json:"country" jsonschema:"ISO 3166-1 alpha-2 country code, e.g. GB"`
}

type NetworkPrice struct {
	Code    string  `json:"code"`
	Network string  `json:"network"`
	Price   float64 `json:"price"`
}

type GetPricingOutput struct {
	Country  string         `json:"country"`
	Name     string         `json:"name,omitempty"`
	Prefix   string         `json:"prefix"`
	Price    *float64       `json:"price,omitempty"`
	Networks []NetworkPrice `json:"networks,omitempty"`
}

type ListNumbersInput struct{}

type SearchNumbersInput struct {
	Country string `json:"country" jsonschema:"ISO 3166-1 alpha-2 country code"`
	Pattern string `json:"pattern,omitempty" jsonschema:"Only numbers starting with these digits"`
}

type NumberInfo struct {
	MSISDN   string   `json:"msisdn"`
	Country  string   `json:"country"`
	Type     string   `json:"type,omitempty"`
	Cost     float64  `json:"cost,omitempty"`
	Features []string `json:"features,omitempty"`
}

type NumbersOutput struct {
	Count   int          `json:"count"`
	Numbers []NumberInfo `json:"numbers"`
}

type GetMessageInput struct {
	ID string `json:"id" jsonschema:"Message id returned when the message was sent"`
}

type MessageInfo struct {
	ID           string  `json:"id"`
	From         string  `json:"from,omitempty"`
	To           string  `json:"to,omitempty"`
	Network      string  `json:"network,omitempty"`
	Status       string  `json:"status,omitempty"`
	Price        float64 `json:"price,omitempty"`
	DateReceived string  `json:"date_received,omitempty"`
	DateClosed   string  `json:"date_closed,omitempty"`
	Body         string  `json:"body,omitempty"`
}

type GetMessageOutput struct {
	Message MessageInfo `json:"message"`
}

type SearchMessagesInput struct {
	IDs  []string `json:"ids,omitempty" jsonschema:"Message ids to look up"`
	To   string   `json:"to,omitempty" jsonschema:"Recipient number (use together with date)"`
	Date string   `json:"date,omitempty" jsonschema:"Day the messages were sent, YYYY-MM-DD (use together with to)"`
}

type SearchMessagesOutput struct {
	Count    int           `json:"count"`
	Messages []MessageInfo `json:"messages"`
}

// --- Tool registration ---

func registerTools(s *mcp.Server, a Account) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_balance",
		Description: "Get the account balance in EUR",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in GetBalanceInput) (*mcp.CallToolResult, GetBalanceOutput, error) {
		return handleGetBalance(ctx, a)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_pricing",
		Description: "Get the outbound SMS price, dialing prefix, and per-network prices for a country",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in GetPricingInput) (*mcp.CallToolResult, GetPricingOutput, error) {
		return handleGetPricing(ctx, a, in)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_numbers",
		Description: "List the phone numbers owned by the account",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in ListNumbersInput) (*mcp.CallToolResult, NumbersOutput, error) {
		return handleListNumbers(ctx, a)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "search_numbers",
		Description: "Search numbers available to buy in a country, optionally by leading digits",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in SearchNumbersInput) (*mcp.CallToolResult, NumbersOutput, error) {
		return handleSearchNumbers(ctx, a, in)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_message",
		Description: "Look up one sent message by id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in GetMessageInput) (*mcp.CallToolResult, GetMessageOutput, error) {
		return handleGetMessage(ctx, a, in)
	})

	mcp.AddTool(s, &mcp.Tool{
		Name:        "search_messages",
		Description: "Search sent messages by a list of ids, or by recipient and date",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in SearchMessagesInput) (*mcp.CallToolResult, SearchMessagesOutput, error) {
		return handleSearchMessages(ctx, a, in)
	})
}

// --- Tool handlers ---

func handleGetBalance(ctx context.Context, a Account) (*mcp.CallToolResult, GetBalanceOutput, error) {
	v, err := a.Balance(ctx)
	if err != nil {
		return nil, GetBalanceOutput{}, err
	}
	return nil, GetBalanceOutput{Value: v}, nil
}

func handleGetPricing(ctx context.Context, a Account, in GetPricingInput) (*mcp.CallToolResult, GetPricingOutput, error) {
	cc, err := country(in.Country)
	if err != nil {
		return nil, GetPricingOutput{}, err
	}
	p, err := a.Pricing(ctx, cc)
	if err != nil {
		return nil, GetPricingOutput{}, err
	}

	out := GetPricingOutput{
		Country: cc,
		Name:    p.Name,
		Prefix:  string(p.Prefix),
	}
	if out.Prefix == "" {
		out.Prefix = msisdn.DialingCode(cc)
	}
	if p.MT != nil {
		price := float64(*p.MT)
		out.Price = &price
	}
	for _, n := range p.Networks {
		out.Networks = append(out.Networks, NetworkPrice{
			Code:    string(n.Code),
			Network: n.Network,
			Price:   float64(n.MTPrice),
		})
	}
	return nil, out, nil
}

func handleListNumbers(ctx context.Context, a Account) (*mcp.CallToolResult, NumbersOutput, error) {
	nums, err := a.NumbersList(ctx)
	if err != nil {
		return nil, NumbersOutput{}, err
	}
	return nil, numbersOutput(nums), nil
}

func handleSearchNumbers(ctx context.Context, a Account, in SearchNumbersInput) (*mcp.CallToolResult, NumbersOutput, error) {
	cc, err := country(in.Country)
	if err != nil {
		return nil, NumbersOutput{}, err
	}
	if strings.Trim(in.Pattern, "0123456789") != "" {
		return nil, NumbersOutput{}, fmt.Errorf("pattern must contain digits only, got %q", in.Pattern)
	}
	nums, err := a.NumbersSearch(ctx, cc, in.Pattern)
	if err != nil {
		return nil, NumbersOutput{}, err
	}
	return nil, numbersOutput(nums), nil
}

func handleGetMessage(ctx context.Context, a Account, in GetMessageInput) (*mcp.CallToolResult, GetMessageOutput, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, GetMessageOutput{}, fmt.Errorf("id is required")
	}
	msg, err := a.SearchMessage(ctx, in.ID)
	if err != nil {
		return nil, GetMessageOutput{}, err
	}
	return nil, GetMessageOutput{Message: messageInfo(*msg)}, nil
}

func handleSearchMessages(ctx context.Context, a Account, in SearchMessagesInput) (*mcp.CallToolResult, SearchMessagesOutput, error) {
	var (
		res *nexmo.MessagesResponse
		err error
	)
	switch {
	case len(in.IDs) > 0 && (in.To != "" || in.Date != ""):
		return nil, SearchMessagesOutput{}, fmt.Errorf("ids cannot be combined with to or date")
	case len(in.IDs) > 0:
		res, err = a.SearchMessages(ctx, in.IDs)
	case in.To != "" && in.Date != "":
		to, nerr := msisdn.Normalize("", in.To)
		if nerr != nil {
			return nil, SearchMessagesOutput{}, fmt.Errorf("to: %w", nerr)
		}
		if _, perr := time.Parse(time.DateOnly, in.Date); perr != nil {
			return nil, SearchMessagesOutput{}, fmt.Errorf("date must be YYYY-MM-DD, got %q", in.Date)
		}
		res, err = a.SearchMessagesByRecipient(ctx, to, in.Date)
	default:
		return nil, SearchMessagesOutput{}, fmt.Errorf("either ids or both to and date are required")
	}
	if err != nil {
		return nil, SearchMessagesOutput{}, err
	}

	out := SearchMessagesOutput{Count: res.Count, Messages: make([]MessageInfo, 0, len(res.Items))}
	for _, m := range res.Items {
		out.Messages = append(out.Messages, messageInfo(m))
	}
	return nil, out, nil
}

func country(code string) (string, error) {
	cc := strings.ToUpper(strings.TrimSpace(code))
	if !msisdn.ValidCountryCode(cc) {
		return "", fmt.Errorf("%w: %q", msisdn.ErrInvalidCountry, code)
	}
	return cc, nil
}

func numbersOutput(nums []nexmo.Number) NumbersOutput {
	out := NumbersOutput{Count: len(nums), Numbers: make([]NumberInfo, 0, len(nums))}
	for _, n := range nums {
		out.Numbers = append(out.Numbers, NumberInfo{
			MSISDN:   string(n.MSISDN),
			Country:  n.Country,
			Type:     n.Type,
			Cost:     float64(n.Cost),
			Features: n.Features,
		})
	}
	return out
}

func messageInfo(m nexmo.Message) MessageInfo {
	return MessageInfo{
		ID:           m.MessageID,
		From:         m.From,
		To:           string(m.To),
		Network:      string(m.Network),
		Status:       m.FinalStatus,
		Price:        float64(m.Price),
		DateReceived: m.DateReceived,
		DateClosed:   m.DateClosed,
		Body:         m.Body,
	}
}

// --- Resource registration ---

func registerResources(s *mcp.Server, a Account) {
	s.AddResource(&mcp.Resource{
		URI:         "nexmo://numbers",
		Name:        "Owned Numbers",
		Description: "Phone numbers owned by the account, with type, cost, and features",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		nums, err := a.NumbersList(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource("nexmo://numbers", numbersOutput(nums))
	})

	s.AddResource(&mcp.Resource{
		URI:         "nexmo://balance",
		Name:        "Account Balance",
		Description: "Current account balance in EUR",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		v, err := a.Balance(ctx)
		if err != nil {
			return nil, err
		}
		return jsonResource("nexmo://balance", GetBalanceOutput{Value: v})
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			Text:     string(b),
			MIMEType: "application/json",
		}},
	}, nil
}

// --- Prompt registration ---

func registerPrompts(s *mcp.Server) {
	s.AddPrompt(&mcp.Prompt{
		Name:        "compare-pricing",
		Description: "Compare outbound SMS prices across countries",
		Arguments: []*mcp.PromptArgument{
			{Name: "countries", Description: "Comma-separated ISO country codes, e.g. GB,DE,US", Required: true},
		},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		countries := req.Params.Arguments["countries"]
		return &mcp.GetPromptResult{
			Description: "Compare SMS pricing: " + countries,
			Messages: []*mcp.PromptMessage{{
				Role: "user",
				Content: &mcp.TextContent{
					Text: fmt.Sprintf(
						"Call get_pricing for each of these countries: %s. "+
							"Summarize the per-message price, the cheapest and most expensive network in each, "+
							"and rank the countries from cheapest to most expensive.", countries),
				},
			}},
		}, nil
	})

	s.AddPrompt(&mcp.Prompt{
		Name:        "delivery-report",
		Description: "Summarize delivery of messages sent to one recipient on one day",
		Arguments: []*mcp.PromptArgument{
			{Name: "to", Description: "Recipient number", Required: true},
			{Name: "date", Description: "Day in YYYY-MM-DD", Required: true},
		},
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		to, date := req.Params.Arguments["to"], req.Params.Arguments["date"]
		return &mcp.GetPromptResult{
			Description: "Delivery report for " + to + " on " + date,
			Messages: []*mcp.PromptMessage{{
				Role: "user",
				Content: &mcp.TextContent{
					Text: fmt.Sprintf(
						"Use search_messages with to=%q and date=%q. Report how many messages were "+
							"delivered or failed, the total cost, and any message whose status is not DELIVRD.", to, date),
				},
			}},
		}, nil
	})
}
