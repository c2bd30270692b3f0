package nexmo

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// NumbersList returns the numbers owned by the account. A payload without
// a numbers field means the account owns none and yields an empty slice.
// The result is cached.
func (c *Client) NumbersList(ctx context.Context) ([]Number, error) {
	if nums, ok := c.cache.getNumbers(); ok {
		return slices.Clone(nums), nil
	}

	resp, err := c.call(ctx, cmdGetOwnNumbers, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, newAPIError(cmdGetOwnNumbers, resp)
	}
	if resp.data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, cmdGetOwnNumbers)
	}

	nums := []Number{}
	if resp.has("numbers") {
		var out NumbersResponse
		if err := resp.decode(&out); err != nil {
			return nil, fmt.Errorf("nexmo: %s: %w", cmdGetOwnNumbers, err)
		}
		if out.Numbers != nil {
			nums = out.Numbers
		}
	}
	return slices.Clone(c.cache.setNumbers(nums)), nil
}

// NumbersSearch lists purchasable numbers in a country. An empty pattern
// matches any number. Results are not cached.
func (c *Client) NumbersSearch(ctx context.Context, countryCode, pattern string) ([]Number, error) {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	var query []param
	if pattern != "" {
		query = append(query, param{key: "pattern", values: []string{pattern}})
	}

	resp, err := c.call(ctx, cmdSearchNumbers, []string{"country_code", cc}, query)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, newAPIError(cmdSearchNumbers, resp)
	}
	if !resp.has("numbers") {
		return nil, fmt.Errorf("%w: %s: %s", ErrNoData, cmdSearchNumbers, cc)
	}

	var out NumbersResponse
	if err := resp.decode(&out); err != nil {
		return nil, fmt.Errorf("nexmo: %s: %w", cmdSearchNumbers, err)
	}
	if out.Numbers == nil {
		out.Numbers = []Number{}
	}
	return out.Numbers, nil
}

// NumbersBuy purchases msisdn. It reports true only for HTTP 200.
func (c *Client) NumbersBuy(ctx context.Context, countryCode, msisdn string) (bool, error) {
	return c.numberAction(ctx, cmdBuyNumber, countryCode, msisdn)
}

// NumbersCancel releases msisdn. It reports true only for HTTP 200.
func (c *Client) NumbersCancel(ctx context.Context, countryCode, msisdn string) (bool, error) {
	return c.numberAction(ctx, cmdCancelNumber, countryCode, msisdn)
}

func (c *Client) numberAction(ctx context.Context, cmd command, countryCode, msisdn string) (bool, error) {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	resp, err := c.call(ctx, cmd, []string{"country_code", cc, "msisdn", msisdn}, nil)
	if err != nil {
		return false, err
	}
	if resp.status != http.StatusOK {
		return false, newAPIError(cmd, resp)
	}
	c.logger.Info("nexmo number updated", "command", string(cmd), "country", cc, "msisdn", msisdn)
	return true, nil
}
