package export

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stock_export_20260831_120000.csv")
	require.NoError(t, os.WriteFile(path, []byte("cod,stoc\n00000402,10.5\n"), 0o644))
	return path
}

func TestUploader_MultipartUpload(t *testing.T) {
	var gotAuth, gotFileName, gotPartType, gotExtra string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotExtra = r.FormValue("shop_id")

		file, header, err := r.FormFile("csv_file")
		require.NoError(t, err)
		defer file.Close()

		gotFileName = header.Filename
		gotPartType = header.Header.Get("Content-Type")
		gotBody, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "products": 1, "updated_lines": 1, "ignored": "x"}`))
	}))
	defer srv.Close()

	up := NewUploader(UploaderConfig{
		URL:         srv.URL,
		FieldName:   "csv_file",
		Token:       "secret-token",
		ExtraFields: map[string]string{"shop_id": "7"},
		Timeout:     5 * time.Second,
		VerifyTLS:   true,
	})

	path := writeTestCSV(t)
	resp, finalURL, err := up.Upload(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, srv.URL, finalURL)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "stock_export_20260831_120000.csv", gotFileName)
	assert.Equal(t, "text/csv", gotPartType)
	assert.Equal(t, "7", gotExtra)
	assert.Contains(t, string(gotBody), "00000402")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	require.NotNil(t, resp.Metrics)
	assert.Equal(t, true, resp.Metrics["ok"])
	assert.NotContains(t, resp.Metrics, "ignored")
}

func TestUploader_TokenAsQueryParam(t *testing.T) {
	var gotToken, gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("access_token")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up := NewUploader(UploaderConfig{
		URL:           srv.URL,
		Token:         "secret-token",
		TokenQueryKey: "access_token",
		Timeout:       5 * time.Second,
		VerifyTLS:     true,
	})

	resp, finalURL, err := up.Upload(context.Background(), writeTestCSV(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, finalURL, "access_token=secret-token")
	assert.Equal(t, "secret-token", gotToken)
	assert.Empty(t, gotAuth, "token must not also travel as a bearer header")
}

func TestUploader_ExtraHeaders(t *testing.T) {
	var gotHeader, gotAgent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Shop-Id")
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up := NewUploader(UploaderConfig{
		URL:          srv.URL,
		UserAgent:    "stocksync/1.0",
		ExtraHeaders: map[string]string{"X-Shop-Id": "7"},
		Timeout:      5 * time.Second,
		VerifyTLS:    true,
	})

	_, _, err := up.Upload(context.Background(), writeTestCSV(t))
	require.NoError(t, err)
	assert.Equal(t, "7", gotHeader)
	assert.Equal(t, "stocksync/1.0", gotAgent)
}

func TestUploader_HTTPErrorReturnsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	up := NewUploader(UploaderConfig{URL: srv.URL, Timeout: 5 * time.Second, VerifyTLS: true})

	resp, _, err := up.Upload(context.Background(), writeTestCSV(t))
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, resp.Body, "upstream unavailable")
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestUploader_EmptyURL(t *testing.T) {
	up := NewUploader(UploaderConfig{Timeout: time.Second})
	_, _, err := up.Upload(context.Background(), writeTestCSV(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload URL is empty")
}

func TestUploader_DefaultFieldName(t *testing.T) {
	var ok bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("file")
		ok = err == nil
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	up := NewUploader(UploaderConfig{URL: srv.URL, Timeout: 5 * time.Second, VerifyTLS: true})
	_, _, err := up.Upload(context.Background(), writeTestCSV(t))
	require.NoError(t, err)
	assert.True(t, ok, "file must land under the default 'file' field")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short  ", 100))
	long := truncate("aaaaaaaaaa", 4)
	assert.Equal(t, "aaaa...", long)
}
