package testkit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RateServer imitates the CurrencyFreaks latest-rates endpoint. The response can
// be swapped between fetches; Hits counts requests that carried an API key.
type RateServer struct {
	*httptest.Server

	mu     sync.Mutex
	status int
	body   string
	hits   int
}

// NewRateServer serves body with 200 OK until Respond changes it.
func NewRateServer(t *testing.T, body string) *RateServer {
	t.Helper()
	rs := &RateServer{status: http.StatusOK, body: body}
	rs.Server = httptest.NewServer(http.HandlerFunc(rs.serve))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *RateServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v2.0/rates/latest" {
		http.NotFound(w, r)
		return
	}
	rs.mu.Lock()
	status, body := rs.status, rs.body
	if r.URL.Query().Get("apikey") != "" {
		rs.hits++
	}
	rs.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Respond sets the status and body of later responses.
func (rs *RateServer) Respond(status int, body string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.status, rs.body = status, body
}

// Hits returns the number of authenticated requests served so far.
func (rs *RateServer) Hits() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.hits
}
