// Package sync implements the order import job: fetch pending package
// orders from the ordering API and feed them to the production engine.
package sync

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stocksync/pkg/logger"
	"stocksync/pkg/urlutil"
)

// FetcherConfig configures the ordering API client.
type FetcherConfig struct {
	URL       string
	Token     string
	UserAgent string
	Timeout   time.Duration
	VerifyTLS bool
}

// Fetcher pulls the raw order payload from the ordering API.
type Fetcher struct {
	cfg    FetcherConfig
	client *http.Client
}

// NewFetcher creates the API client.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// Fetch retrieves and decodes the order payload. Numbers are kept as
// json.Number so monetary values survive intact.
func (f *Fetcher) Fetch(ctx context.Context) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	if f.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.Token)
	}

	logger.Debug(ctx, "fetching order payload", "url", urlutil.Sanitize(f.cfg.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 700))
		return nil, fmt.Errorf("ordering API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode order payload: %w", err)
	}
	return payload, nil
}
