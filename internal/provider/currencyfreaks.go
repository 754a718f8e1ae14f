// Package provider implements the remote rate source that produces raw snapshots.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ratematch/internal/rates"
)

var _ SnapshotSource = (*CurrencyFreaksSource)(nil)

// CurrencyFreaksSource fetches the latest rate table from the CurrencyFreaks API.
type CurrencyFreaksSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCurrencyFreaksSource creates a source for the given API root. A zero timeout
// leaves latency bounds to the caller's context.
func NewCurrencyFreaksSource(baseURL, apiKey string, timeoutSec int) *CurrencyFreaksSource {
	if baseURL == "" {
		baseURL = "https://api.currencyfreaks.com"
	}
	return &CurrencyFreaksSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// latestURL forms the endpoint URL; the API key travels as a query parameter.
func (p *CurrencyFreaksSource) latestURL() string {
	return fmt.Sprintf("%s/v2.0/rates/latest?apikey=%s", p.baseURL, url.QueryEscape(p.apiKey))
}

// Fetch performs a single request for the latest snapshot. It never retries.
func (p *CurrencyFreaksSource) Fetch(ctx context.Context) (*rates.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.latestURL(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("currencyfreaks request creation failed: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &rates.SourceUnavailableError{Err: redactKey(err, p.apiKey)}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		return nil, &rates.SourceUnavailableError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("currencyfreaks returned status %d", resp.StatusCode),
		}
	}

	return decodeSnapshot(resp.Body)
}

// redactKey strips the request URL from transport errors so the key is never logged.
func redactKey(err error, apiKey string) error {
	if uerr, ok := err.(*url.Error); ok && apiKey != "" {
		return fmt.Errorf("%s currencyfreaks: %w", uerr.Op, uerr.Err)
	}
	return err
}
