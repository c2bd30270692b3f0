package nexmo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// param is one query parameter. A parameter with several values renders as
// the key repeated once per value.
type param struct {
	key    string
	values []string
}

// response is the outcome of one dispatched request.
type response struct {
	status int
	body   []byte
	// data is the body decoded as a JSON object, nil when decoding failed.
	data map[string]any
}

// ok reports whether the status is 2xx.
func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// has reports whether the decoded payload carries a non-null key.
func (r *response) has(key string) bool {
	if r.data == nil {
		return false
	}
	v, found := r.data[key]
	return found && v != nil
}

// decode unmarshals the raw body into v.
func (r *response) decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrNoData, err)
	}
	return nil
}

// buildURL resolves the template of cmd against the credentials and the
// path substitutions (name, value pairs), then appends the query.
func (c *Client) buildURL(cmd command, path []string, query []param) (string, string, error) {
	d, ok := commands[cmd]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	if len(path)%2 != 0 {
		return "", "", fmt.Errorf("nexmo: %s: odd number of path substitutions", cmd)
	}

	// One pass over the template: substituted text is never rescanned.
	pairs := []string{
		"{key}", url.PathEscape(c.apiKey),
		"{secret}", url.PathEscape(c.apiSecret),
	}
	for i := 0; i < len(path); i += 2 {
		pairs = append(pairs, "{"+path[i]+"}", url.PathEscape(path[i+1]))
	}
	u := c.baseURL + strings.NewReplacer(pairs...).Replace(d.template)

	if q := encodeQuery(query); q != "" {
		u += "?" + q
	}
	return d.method, u, nil
}

// encodeQuery renders params in order as key=value pairs joined by '&'.
func encodeQuery(query []param) string {
	var b strings.Builder
	for _, p := range query {
		for _, v := range p.values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(p.key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// call dispatches cmd and returns the status, raw body and decoded payload.
// Only transport failures are errors here; status interpretation is left to
// the operation.
func (c *Client) call(ctx context.Context, cmd command, path []string, query []param) (*response, error) {
	method, u, err := c.buildURL(cmd, path, query)
	if err != nil {
		return nil, err
	}

	callID := uuid.NewString()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("nexmo: %s: build request: %w", cmd, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.Debug("nexmo request failed",
			"call_id", callID,
			"command", string(cmd),
			"method", method,
			"url", c.redact(u),
			"error", c.redact(err.Error()),
		)
		return nil, &transportError{cmd: cmd, msg: c.redact(err.Error()), err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{cmd: cmd, msg: "read response: " + err.Error(), err: err}
	}

	out := &response{status: resp.StatusCode, body: body}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err == nil {
		out.data = data
	}

	c.logger.Debug("nexmo request",
		"call_id", callID,
		"command", string(cmd),
		"method", method,
		"url", c.redact(u),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"body", c.redact(excerpt(body)),
	)
	return out, nil
}

// excerpt returns at most maxErrorBody bytes of body.
func excerpt(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}

// redact hides the API secret in s.
func (c *Client) redact(s string) string {
	if c.apiSecret == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.PathEscape(c.apiSecret), "***")
	return strings.ReplaceAll(s, c.apiSecret, "***")
}
