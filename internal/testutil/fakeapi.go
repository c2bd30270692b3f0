package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeReply is a canned response of the fake account API.
type FakeReply struct {
	Status int
	Body   string
}

// FakeAPI is an httptest server standing in for the account API. Replies
// are matched by the longest registered path prefix; unmatched paths get a
// 404. Every request is recorded.
type FakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	replies  map[string]FakeReply
	requests []*http.Request
}

// NewFakeAPI starts a FakeAPI and closes it when the test ends.
func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	f := &FakeAPI{replies: make(map[string]FakeReply)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Reply registers the response for requests whose path starts with prefix.
func (f *FakeAPI) Reply(prefix string, status int, body string) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[prefix] = FakeReply{Status: status, Body: body}
	return f
}

// Requests returns the requests received so far.
func (f *FakeAPI) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

// Hits counts requests whose path starts with prefix.
func (f *FakeAPI) Hits(prefix string) int {
	n := 0
	for _, r := range f.Requests() {
		if strings.HasPrefix(r.URL.Path, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(r.Context()))
	var (
		best  string
		reply FakeReply
		found bool
	)
	for prefix, rep := range f.replies {
		if strings.HasPrefix(r.URL.Path, prefix) && len(prefix) >= len(best) {
			best, reply, found = prefix, rep, true
		}
	}
	f.mu.Unlock()

	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	w.Write([]byte(reply.Body))
}
