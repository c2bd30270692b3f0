package nexmo

import (
	"context"
	"fmt"
	"net/http"
)

// SearchMessage looks up one message by id. Only HTTP 200 counts as found.
// Both outcomes are cached: a failed lookup returns the same error again
// without another request.
func (c *Client) SearchMessage(ctx context.Context, id string) (*Message, error) {
	if r, ok := c.cache.getMessage(id); ok {
		return r.msg, r.err
	}

	resp, err := c.call(ctx, cmdSearchMessage, []string{"id", id}, nil)
	if err != nil {
		// Transport failures are not a lookup result.
		return nil, err
	}

	var r messageResult
	if resp.status == http.StatusOK {
		var msg Message
		if err := resp.decode(&msg); err != nil {
			r.err = fmt.Errorf("nexmo: %s: %w", cmdSearchMessage, err)
		} else {
			r.msg = &msg
		}
	} else {
		r.err = newAPIError(cmdSearchMessage, resp)
	}

	r = c.cache.setMessage(id, r)
	return r.msg, r.err
}

// SearchMessages looks up several messages by id in one request.
func (c *Client) SearchMessages(ctx context.Context, ids []string) (*MessagesResponse, error) {
	return c.searchMessages(ctx, []param{{key: "ids", values: ids}})
}

// SearchMessagesByRecipient lists messages sent to an MSISDN on a date
// (YYYY-MM-DD).
func (c *Client) SearchMessagesByRecipient(ctx context.Context, to, date string) (*MessagesResponse, error) {
	return c.searchMessages(ctx, []param{
		{key: "date", values: []string{date}},
		{key: "to", values: []string{to}},
	})
}

func (c *Client) searchMessages(ctx context.Context, query []param) (*MessagesResponse, error) {
	resp, err := c.call(ctx, cmdSearchMessages, nil, query)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, newAPIError(cmdSearchMessages, resp)
	}

	var out MessagesResponse
	if err := resp.decode(&out); err != nil {
		return nil, fmt.Errorf("nexmo: %s: %w", cmdSearchMessages, err)
	}
	if out.Items == nil {
		out.Items = []Message{}
	}
	return &out, nil
}
