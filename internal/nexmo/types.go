package nexmo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Amount is a decimal the API sends either as a JSON number or as a quoted
// string ("0.00570000").
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, err)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// Text is a string field the API sometimes sends unquoted (dialing prefixes,
// counts).
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*t = Text(n.String())
	}
	return nil
}

// BalanceResponse is the payload of get-balance.
type BalanceResponse struct {
	Value      Amount `json:"value"`
	AutoReload bool   `json:"autoReload"`
}

// Network is the per-carrier outbound price inside a pricing payload.
type Network struct {
	Code    Text   `json:"code"`
	Network string `json:"network"`
	MTPrice Amount `json:"mtPrice"`
}

// PricingResponse is the outbound pricing of one country.
type PricingResponse struct {
	Country  string    `json:"country"`
	Name     string    `json:"name"`
	Prefix   Text      `json:"prefix"`
	MT       *Amount   `json:"mt,omitempty"`
	Networks []Network `json:"networks,omitempty"`
}

// Number is an owned or purchasable phone number.
type Number struct {
	Country  string   `json:"country"`
	MSISDN   Text     `json:"msisdn"`
	Type     string   `json:"type"`
	Cost     Amount   `json:"cost,omitempty"`
	Features []string `json:"features,omitempty"`
}

// NumbersResponse is the payload of number listing and search.
type NumbersResponse struct {
	Count   int      `json:"count"`
	Numbers []Number `json:"numbers"`
}

// Message is a delivery record returned by message search.
type Message struct {
	MessageID    string `json:"message-id"`
	AccountID    Text   `json:"account-id"`
	Network      Text   `json:"network"`
	From         string `json:"from"`
	To           Text   `json:"to"`
	Body         string `json:"body"`
	Price        Amount `json:"price"`
	DateReceived string `json:"date-received"`
	FinalStatus  string `json:"final-status"`
	DateClosed   string `json:"date-closed"`
	Latency      int    `json:"latency"`
	Type         string `json:"type"`
}

// MessagesResponse is the payload of multi-message search.
type MessagesResponse struct {
	Count int       `json:"count"`
	Items []Message `json:"items"`
}
