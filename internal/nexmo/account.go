package nexmo

import (
	"context"
	"fmt"
	"strings"
)

// Balance returns the account balance in EUR. The first successful result
// is cached; later calls do not reach the API.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	if v, ok := c.cache.getBalance(); ok {
		return v, nil
	}

	resp, err := c.call(ctx, cmdGetBalance, nil, nil)
	if err != nil {
		return 0, err
	}
	if !resp.ok() {
		return 0, newAPIError(cmdGetBalance, resp)
	}
	if !resp.has("value") {
		return 0, fmt.Errorf("%w: %s: missing value", ErrNoData, cmdGetBalance)
	}

	var out BalanceResponse
	if err := resp.decode(&out); err != nil {
		return 0, fmt.Errorf("nexmo: %s: %w", cmdGetBalance, err)
	}
	return c.cache.setBalance(float64(out.Value)), nil
}

// Pricing returns the outbound SMS pricing for a country. The country code
// is uppercased; one request per code is made for the Client's lifetime.
func (c *Client) Pricing(ctx context.Context, countryCode string) (*PricingResponse, error) {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	if p, ok := c.cache.getPricing(cc); ok {
		return p, nil
	}

	resp, err := c.call(ctx, cmdGetPricing, []string{"country_code", cc}, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, newAPIError(cmdGetPricing, resp)
	}
	if len(resp.data) == 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrNoData, cmdGetPricing, cc)
	}

	var out PricingResponse
	if err := resp.decode(&out); err != nil {
		return nil, fmt.Errorf("nexmo: %s: %w", cmdGetPricing, err)
	}
	return c.cache.setPricing(cc, &out), nil
}

// SMSPricing returns the outbound price of one SMS to the given country.
func (c *Client) SMSPricing(ctx context.Context, countryCode string) (float64, error) {
	p, err := c.Pricing(ctx, countryCode)
	if err != nil {
		return 0, err
	}
	if p.MT == nil {
		return 0, fmt.Errorf("%w: %s: missing mt", ErrNoData, cmdGetPricing)
	}
	return float64(*p.MT), nil
}

// CountryDialingCode returns the international dialing prefix of a country,
// e.g. "44" for GB. It shares the cache entry of SMSPricing.
func (c *Client) CountryDialingCode(ctx context.Context, countryCode string) (string, error) {
	p, err := c.Pricing(ctx, countryCode)
	if err != nil {
		return "", err
	}
	if p.Prefix == "" {
		return "", fmt.Errorf("%w: %s: missing prefix", ErrNoData, cmdGetPricing)
	}
	return string(p.Prefix), nil
}
