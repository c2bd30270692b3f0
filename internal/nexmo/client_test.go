package nexmo_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allyourbase/nexmoctl/internal/nexmo"
)

// newTestClient starts a server running handler and returns a client
// pointed at it together with a request counter.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*nexmo.Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return nexmo.New("K", "S", nexmo.WithBaseURL(srv.URL), nexmo.WithHTTPClient(srv.Client())), &hits
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestBalanceCachedAfterFirstCall(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/account/get-balance/K/S", r.URL.Path)
		w.Write([]byte(`{"value":3.14,"autoReload":false}`))
	})

	first, err := c.Balance(t.Context())
	require.NoError(t, err)
	second, err := c.Balance(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 3.14, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBalanceMissingValue(t *testing.T) {
	c, hits := newTestClient(t, reply(http.StatusOK, `{}`))

	_, err := c.Balance(t.Context())
	require.Error(t, err)
	assert.True(t, errors.Is(err, nexmo.ErrNoData))

	// Failures are not cached.
	_, err = c.Balance(t.Context())
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestBalanceHTTPError(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusInternalServerError, `<html>oops</html>`))

	_, err := c.Balance(t.Context())
	require.Error(t, err)
	var apiErr *nexmo.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "get_balance", apiErr.Command)
	assert.Equal(t, http.StatusInternalServerError, nexmo.StatusCode(err))
	assert.False(t, errors.Is(err, nexmo.ErrNoData))
}

func TestBalanceUndecodableBody(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusOK, `not json`))

	_, err := c.Balance(t.Context())
	assert.True(t, errors.Is(err, nexmo.ErrNoData))
}

func TestBalanceNetworkError(t *testing.T) {
	c := nexmo.New("K", "hunter2", nexmo.WithBaseURL("http://127.0.0.1:1"))
	_, err := c.Balance(t.Context())
	require.Error(t, err)
	assert.True(t, errors.Is(err, nexmo.ErrTransport))
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestBalanceContextCanceled(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusOK, `{"value":1}`))
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := c.Balance(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, nexmo.ErrTransport))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSMSPricingAndDialingCodeShareOneFetch(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/account/get-pricing/outbound/K/S/US", r.URL.Path)
		w.Write([]byte(`{"country":"US","name":"United States","prefix":"1","mt":"0.00570000",
			"networks":[{"code":"310004","network":"Verizon","mtPrice":"0.0057"}]}`))
	})

	price, err := c.SMSPricing(t.Context(), "us")
	require.NoError(t, err)
	assert.InDelta(t, 0.0057, price, 1e-9)

	prefix, err := c.CountryDialingCode(t.Context(), "US")
	require.NoError(t, err)
	assert.Equal(t, "1", prefix)

	price, err = c.SMSPricing(t.Context(), "US")
	require.NoError(t, err)
	assert.InDelta(t, 0.0057, price, 1e-9)

	assert.Equal(t, int32(1), hits.Load())

	p, err := c.Pricing(t.Context(), "us")
	require.NoError(t, err)
	assert.Equal(t, "United States", p.Name)
	require.Len(t, p.Networks, 1)
	assert.Equal(t, "Verizon", p.Networks[0].Network)
}

func TestPricingOneFetchPerCountry(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prefix":44,"mt":0.04}`))
	})

	for _, cc := range []string{"GB", "gb", "DE", "de", "GB"} {
		_, err := c.SMSPricing(t.Context(), cc)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())

	prefix, err := c.CountryDialingCode(t.Context(), "gb")
	require.NoError(t, err)
	assert.Equal(t, "44", prefix)
}

func TestSMSPricingMissingMT(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusOK, `{"prefix":"33"}`))

	_, err := c.SMSPricing(t.Context(), "FR")
	assert.True(t, errors.Is(err, nexmo.ErrNoData))

	prefix, err := c.CountryDialingCode(t.Context(), "FR")
	require.NoError(t, err)
	assert.Equal(t, "33", prefix)
}

func TestPricingEmptyPayload(t *testing.T) {
	c, hits := newTestClient(t, reply(http.StatusOK, `{}`))

	_, err := c.CountryDialingCode(t.Context(), "XX")
	assert.True(t, errors.Is(err, nexmo.ErrNoData))
	_, err = c.SMSPricing(t.Context(), "XX")
	assert.True(t, errors.Is(err, nexmo.ErrNoData))
	assert.Equal(t, int32(2), hits.Load())
}

func TestNumbersListCached(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/account/numbers/K/S", r.URL.Path)
		w.Write([]byte(`{"count":2,"numbers":[
			{"country":"GB","msisdn":"447700900000","type":"mobile-lvn","features":["SMS","VOICE"]},
			{"country":"US","msisdn":14155550100,"type":"landline"}]}`))
	})

	nums, err := c.NumbersList(t.Context())
	require.NoError(t, err)
	require.Len(t, nums, 2)
	assert.Equal(t, nexmo.Text("447700900000"), nums[0].MSISDN)
	assert.Equal(t, []string{"SMS", "VOICE"}, nums[0].Features)
	assert.Equal(t, nexmo.Text("14155550100"), nums[1].MSISDN)

	// Mutating the returned slice must not leak into the cache.
	nums[0].MSISDN = "changed"

	again, err := c.NumbersList(t.Context())
	require.NoError(t, err)
	assert.Equal(t, nexmo.Text("447700900000"), again[0].MSISDN)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNumbersListNoNumbers(t *testing.T) {
	c, hits := newTestClient(t, reply(http.StatusOK, `{"count":0}`))

	nums, err := c.NumbersList(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, nums)
	assert.Empty(t, nums)

	_, err = c.NumbersList(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNumbersListFailure(t *testing.T) {
	c, hits := newTestClient(t, reply(http.StatusUnauthorized, `{"error-code":"401"}`))

	_, err := c.NumbersList(t.Context())
	assert.Equal(t, http.StatusUnauthorized, nexmo.StatusCode(err))

	_, err = c.NumbersList(t.Context())
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNumbersListUndecodable(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusOK, ``))

	_, err := c.NumbersList(t.Context())
	assert.True(t, errors.Is(err, nexmo.ErrNoData))
}

func TestNumbersSearchNotCached(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/number/search/K/S/GB", r.URL.Path)
		assert.Equal(t, "pattern=4477", r.URL.RawQuery)
		w.Write([]byte(`{"count":1,"numbers":[{"country":"GB","msisdn":"447700900123","cost":"0.50","type":"mobile-lvn"}]}`))
	})

	for range 2 {
		nums, err := c.NumbersSearch(t.Context(), "gb", "4477")
		require.NoError(t, err)
		require.Len(t, nums, 1)
		assert.InDelta(t, 0.5, float64(nums[0].Cost), 1e-9)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestNumbersSearchWithoutPattern(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "", r.URL.RawQuery)
		w.Write([]byte(`{"count":0,"numbers":[]}`))
	})

	nums, err := c.NumbersSearch(t.Context(), "GB", "")
	require.NoError(t, err)
	assert.Empty(t, nums)
}

func TestNumbersSearchNoNumbers(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusOK, `{"count":0}`))

	_, err := c.NumbersSearch(t.Context(), "GB", "")
	assert.True(t, errors.Is(err, nexmo.ErrNoData))
}

func TestNumbersBuyAndCancelStatus(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, true},
		{http.StatusCreated, false},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				w.WriteHeader(tt.status)
			})

			ok, err := c.NumbersBuy(t.Context(), "gb", "447700900123")
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.want, err == nil)

			ok, err = c.NumbersCancel(t.Context(), "GB", "447700900123")
			assert.Equal(t, tt.want, ok)
			if !tt.want {
				assert.Equal(t, tt.status, nexmo.StatusCode(err))
			}
			assert.Equal(t, int32(2), hits.Load())
		})
	}
}

func TestNumbersBuyPath(t *testing.T) {
	var paths []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
	})

	_, err := c.NumbersBuy(t.Context(), "gb", "447700900123")
	require.NoError(t, err)
	_, err = c.NumbersCancel(t.Context(), "gb", "447700900123")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/number/buy/K/S/GB/447700900123",
		"/number/cancel/K/S/GB/447700900123",
	}, paths)
}

func TestNumbersBuyNetworkError(t *testing.T) {
	c := nexmo.New("K", "S", nexmo.WithBaseURL("http://127.0.0.1:1"))
	ok, err := c.NumbersBuy(t.Context(), "GB", "447700900123")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, nexmo.ErrTransport))
}

func TestSearchMessageFound(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/message/K/S/02000000DA7C52E7", r.URL.Path)
		w.Write([]byte(`{"message-id":"02000000DA7C52E7","account-id":"K","network":"23410",
			"from":"Acme","to":"447700900000","body":"hello","price":"0.03330000",
			"date-received":"2024-01-31 10:00:00","final-status":"DELIVRD","latency":2300,"type":"MT"}`))
	})

	msg, err := c.SearchMessage(t.Context(), "02000000DA7C52E7")
	require.NoError(t, err)
	assert.Equal(t, "DELIVRD", msg.FinalStatus)
	assert.Equal(t, nexmo.Text("447700900000"), msg.To)
	assert.InDelta(t, 0.0333, float64(msg.Price), 1e-9)

	again, err := c.SearchMessage(t.Context(), "02000000DA7C52E7")
	require.NoError(t, err)
	assert.Same(t, msg, again)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSearchMessageNotFoundIsCached(t *testing.T) {
	c, hits := newTestClient(t, reply(http.StatusNotFound, ``))

	_, err := c.SearchMessage(t.Context(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, nexmo.StatusCode(err))

	_, err = c.SearchMessage(t.Context(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, nexmo.StatusCode(err))
	assert.Equal(t, int32(1), hits.Load())

	// Other ids are still looked up.
	_, _ = c.SearchMessage(t.Context(), "other")
	assert.Equal(t, int32(2), hits.Load())
}

func TestSearchMessageTransportFailureNotCached(t *testing.T) {
	c := nexmo.New("K", "S", nexmo.WithBaseURL("http://127.0.0.1:1"))
	_, err := c.SearchMessage(t.Context(), "abc")
	assert.True(t, errors.Is(err, nexmo.ErrTransport))
	_, err = c.SearchMessage(t.Context(), "abc")
	assert.True(t, errors.Is(err, nexmo.ErrTransport))
}

func TestSearchMessagesByIDs(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/messages/K/S", r.URL.Path)
		assert.Equal(t, "ids=1&ids=2&ids=3", r.URL.RawQuery)
		w.Write([]byte(`{"count":2,"items":[{"message-id":"1"},{"message-id":"2"}]}`))
	})

	out, err := c.SearchMessages(t.Context(), []string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "2", out.Items[1].MessageID)

	_, err = c.SearchMessages(t.Context(), []string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestSearchMessagesByRecipient(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "date=2024-01-31&to=447700900000", r.URL.RawQuery)
		w.Write([]byte(`{"count":0}`))
	})

	out, err := c.SearchMessagesByRecipient(t.Context(), "447700900000", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Count)
	assert.NotNil(t, out.Items)
}

func TestSearchMessagesHTTPError(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusBadRequest, `{"error-code":"400","error-code-label":"bad date"}`))

	_, err := c.SearchMessagesByRecipient(t.Context(), "447700900000", "yesterday")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, nexmo.StatusCode(err))
	assert.Contains(t, err.Error(), "bad date")
}

func TestConcurrentCallersShareCache(t *testing.T) {
	c, hits := newTestClient(t, reply(http.StatusOK, `{"value":10.5,"prefix":"49","mt":"0.07","numbers":[]}`))

	// Warm the caches so every goroutine below is served locally.
	_, err := c.Balance(t.Context())
	require.NoError(t, err)
	_, err = c.Pricing(t.Context(), "DE")
	require.NoError(t, err)
	base := hits.Load()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Balance(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 10.5, v)
			p, err := c.CountryDialingCode(context.Background(), "de")
			assert.NoError(t, err)
			assert.Equal(t, "49", p)
		}()
	}
	wg.Wait()
	assert.Equal(t, base, hits.Load())
}

// TestConcurrentColdMissesAgreeOnFirstStored holds every request until all
// callers have missed the cache, answering each with a different payload.
// Every caller must see the same value: the first one stored.
func TestConcurrentColdMissesAgreeOnFirstStored(t *testing.T) {
	const callers = 8

	tests := []struct {
		name string
		body func(n int32) string
		get  func(c *nexmo.Client) (string, error)
	}{
		{
			name: "balance",
			body: func(n int32) string { return fmt.Sprintf(`{"value":%d}`, n) },
			get: func(c *nexmo.Client) (string, error) {
				v, err := c.Balance(context.Background())
				return fmt.Sprint(v), err
			},
		},
		{
			name: "pricing",
			body: func(n int32) string { return fmt.Sprintf(`{"country":"GB","prefix":"44","mt":"0.0%d"}`, n) },
			get: func(c *nexmo.Client) (string, error) {
				v, err := c.SMSPricing(context.Background(), "GB")
				return fmt.Sprint(v), err
			},
		},
		{
			name: "message",
			body: func(n int32) string { return fmt.Sprintf(`{"message-id":"m1","latency":%d}`, n) },
			get: func(c *nexmo.Client) (string, error) {
				m, err := c.SearchMessage(context.Background(), "m1")
				if err != nil {
					return "", err
				}
				return fmt.Sprint(m.Latency), nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			release := make(chan struct{})
			var seq atomic.Int32
			c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				n := seq.Add(1)
				<-release
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(tt.body(n)))
			})

			results := make([]string, callers)
			var wg sync.WaitGroup
			for i := range callers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					v, err := tt.get(c)
					assert.NoError(t, err)
					results[i] = v
				}()
			}

			// Nothing is stored before release, so every caller reaches the API.
			require.Eventually(t, func() bool { return hits.Load() == callers }, 5*time.Second, time.Millisecond)
			close(release)
			wg.Wait()

			for _, v := range results {
				assert.Equal(t, results[0], v)
			}
			again, err := tt.get(c)
			require.NoError(t, err)
			assert.Equal(t, results[0], again)
			assert.Equal(t, int32(callers), hits.Load())
		})
	}
}

func TestNewTrimsBaseURL(t *testing.T) {
	c := nexmo.New("K", "S", nexmo.WithBaseURL("https://rest.example.com///"))
	assert.Equal(t, "https://rest.example.com", c.BaseURL())

	c = nexmo.New("K", "S", nexmo.WithBaseURL(""))
	assert.Equal(t, nexmo.DefaultBaseURL, c.BaseURL())
}

func TestAPIErrorMessage(t *testing.T) {
	err := &nexmo.APIError{Command: "buy_number", StatusCode: 420}
	assert.Equal(t, "nexmo: buy_number: status 420", err.Error())
	assert.Equal(t, 0, nexmo.StatusCode(errors.New("plain")))
}
