// Package urlutil provides URL helpers for outbound requests and logs.
package urlutil

import (
	"net/url"
	"strings"
)

// sensitiveQueryKeys are masked when a URL is rendered into a log line.
var sensitiveQueryKeys = map[string]struct{}{
	"token":        {},
	"access_token": {},
	"api_key":      {},
	"apikey":       {},
	"key":          {},
	"password":     {},
}

// WithQueryParam returns the URL with the query parameter set, replacing
// any existing values for that key.
func WithQueryParam(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Sanitize masks sensitive query parameter values for logging.
func Sanitize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for key := range q {
		if _, ok := sensitiveQueryKeys[strings.ToLower(key)]; ok {
			q.Set(key, "***")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
