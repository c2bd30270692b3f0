package nexmo

import (
	"fmt"
	"net/http"
	"strings"
)

// command names one endpoint of the account API.
type command string

const (
	cmdGetBalance     command = "get_balance"
	cmdGetPricing     command = "get_pricing"
	cmdGetOwnNumbers  command = "get_own_numbers"
	cmdSearchNumbers  command = "search_numbers"
	cmdBuyNumber      command = "buy_number"
	cmdCancelNumber   command = "cancel_number"
	cmdSearchMessage  command = "search_message"
	cmdSearchMessages command = "search_messages"
)

// descriptor pairs an HTTP method with a URL path template. Placeholders are
// written as {name}.
type descriptor struct {
	method   string
	template string
}

var commands = map[command]descriptor{
	cmdGetBalance:     {http.MethodGet, "/account/get-balance/{key}/{secret}"},
	cmdGetPricing:     {http.MethodGet, "/account/get-pricing/outbound/{key}/{secret}/{country_code}"},
	cmdGetOwnNumbers:  {http.MethodGet, "/account/numbers/{key}/{secret}"},
	cmdSearchNumbers:  {http.MethodGet, "/number/search/{key}/{secret}/{country_code}"},
	cmdBuyNumber:      {http.MethodPost, "/number/buy/{key}/{secret}/{country_code}/{msisdn}"},
	cmdCancelNumber:   {http.MethodPost, "/number/cancel/{key}/{secret}/{country_code}/{msisdn}"},
	cmdSearchMessage:  {http.MethodGet, "/search/message/{key}/{secret}/{id}"},
	cmdSearchMessages: {http.MethodGet, "/search/messages/{key}/{secret}"},
}

func init() {
	if err := validateCommands(commands); err != nil {
		panic(err)
	}
}

// validateCommands checks that every template carries the credential
// placeholders and uses a supported method.
func validateCommands(table map[command]descriptor) error {
	for name, d := range table {
		switch d.method {
		case http.MethodGet, http.MethodPost:
		default:
			return fmt.Errorf("nexmo: command %s: unsupported method %q", name, d.method)
		}
		if !strings.HasPrefix(d.template, "/") {
			return fmt.Errorf("nexmo: command %s: template must start with /", name)
		}
		for _, p := range []string{"{key}", "{secret}"} {
			if !strings.Contains(d.template, p) {
				return fmt.Errorf("nexmo: command %s: template missing %s", name, p)
			}
		}
		if strings.Count(d.template, "{") != strings.Count(d.template, "}") {
			return fmt.Errorf("nexmo: command %s: unbalanced placeholder braces", name)
		}
	}
	return nil
}
