package export

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stocksync/pkg/urlutil"
)

// responseBodyLimit caps how much of an upload response is kept in the
// audit record.
const responseBodyLimit = 8000

// metricKeys are lifted from a JSON upload response into the audit
// entry when present.
var metricKeys = []string{
	"products", "updated_lines", "inserted_lines", "created_lines",
	"errors", "ok", "status", "message",
}

// UploaderConfig configures the multipart CSV uploader.
type UploaderConfig struct {
	URL           string
	FieldName     string
	Token         string
	TokenQueryKey string // when set, the token travels as a query param instead of a bearer header
	UserAgent     string
	ExtraHeaders  map[string]string
	ExtraFields   map[string]string
	Timeout       time.Duration
	VerifyTLS     bool
}

// Uploader posts CSV files to the configured endpoint as
// multipart/form-data.
type Uploader struct {
	cfg    UploaderConfig
	client *http.Client
}

// UploadResponse captures what the endpoint answered.
type UploadResponse struct {
	StatusCode  int
	ContentType string
	Body        string
	Metrics     map[string]any
}

// NewUploader creates the uploader.
func NewUploader(cfg UploaderConfig) *Uploader {
	if cfg.FieldName == "" {
		cfg.FieldName = "file"
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Uploader{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// Upload posts the file. A non-2xx status is an error; the response is
// returned either way so the caller can audit it.
func (u *Uploader) Upload(ctx context.Context, filePath string) (*UploadResponse, string, error) {
	finalURL, err := u.finalURL()
	if err != nil {
		return nil, "", err
	}

	body, contentType, err := u.buildBody(filePath)
	if err != nil {
		return nil, finalURL, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, finalURL, body)
	if err != nil {
		return nil, finalURL, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if u.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", u.cfg.UserAgent)
	}
	if u.cfg.Token != "" && u.cfg.TokenQueryKey == "" {
		req.Header.Set("Authorization", "Bearer "+u.cfg.Token)
	}
	for k, v := range u.cfg.ExtraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, finalURL, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	parsed := parseResponse(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parsed, finalURL, fmt.Errorf("upload failed with HTTP %d: %s", resp.StatusCode, truncate(parsed.Body, 700))
	}
	return parsed, finalURL, nil
}

func (u *Uploader) finalURL() (string, error) {
	if strings.TrimSpace(u.cfg.URL) == "" {
		return "", fmt.Errorf("upload URL is empty")
	}
	if u.cfg.Token != "" && u.cfg.TokenQueryKey != "" {
		return urlutil.WithQueryParam(u.cfg.URL, u.cfg.TokenQueryKey, u.cfg.Token)
	}
	return u.cfg.URL, nil
}

func (u *Uploader) buildBody(filePath string) (io.Reader, string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range u.cfg.ExtraFields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field: %w", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, u.cfg.FieldName, filepath.Base(filePath)))
	header.Set("Content-Type", "text/csv")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy csv into form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

func parseResponse(resp *http.Response) *UploadResponse {
	out := &UploadResponse{
		StatusCode:  resp.StatusCode,
		ContentType: strings.TrimSpace(resp.Header.Get("Content-Type")),
	}
	if out.ContentType == "" {
		out.ContentType = "unknown"
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit+1))
	if err != nil {
		out.Body = "<unreadable response body>"
		return out
	}

	var payload map[string]any
	if json.Unmarshal(raw, &payload) == nil {
		compact, _ := json.Marshal(payload)
		out.Body = truncate(string(compact), responseBodyLimit)
		metrics := make(map[string]any)
		for _, key := range metricKeys {
			if v, ok := payload[key]; ok {
				metrics[key] = v
			}
		}
		if len(metrics) > 0 {
			out.Metrics = metrics
		}
		return out
	}

	out.Body = truncate(string(raw), responseBodyLimit)
	if out.Body == "" {
		out.Body = "<empty response body>"
	}
	return out
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
