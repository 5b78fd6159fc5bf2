package export

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotter struct {
	columns []string
	rows    [][]string
	err     error
	gotSQL  string
}

func (f *fakeSnapshotter) Snapshot(ctx context.Context, query string) ([]string, [][]string, error) {
	f.gotSQL = query
	return f.columns, f.rows, f.err
}

type fakeUploader struct {
	resp     *UploadResponse
	finalURL string
	err      error
	calls    int
	gotPath  string
}

func (f *fakeUploader) Upload(ctx context.Context, filePath string) (*UploadResponse, string, error) {
	f.calls++
	f.gotPath = filePath
	return f.resp, f.finalURL, f.err
}

func readAuditEntries(t *testing.T, dir string) []AuditEntry {
	t.Helper()
	matches, err := os.ReadDir(dir)
	require.NoError(t, err)
	if len(matches) == 0 {
		return nil
	}
	require.Len(t, matches, 1)

	data, err := os.ReadFile(dir + "/" + matches[0].Name())
	require.NoError(t, err)

	var entries []AuditEntry
	for _, line := range splitLines(data) {
		var entry AuditEntry
		require.NoError(t, json.Unmarshal(line, &entry))
		entries = append(entries, entry)
	}
	return entries
}

func splitLines(data []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				out = append(out, data[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func TestExportRun_UploadSuccess(t *testing.T) {
	csvDir := t.TempDir()
	auditDir := t.TempDir()

	snap := &fakeSnapshotter{
		columns: []string{"cod", "stoc"},
		rows:    [][]string{{"00000402", "10"}, {"00000403", "2"}},
	}
	up := &fakeUploader{
		resp:     &UploadResponse{StatusCode: http.StatusOK, ContentType: "application/json", Metrics: map[string]any{"products": 2}},
		finalURL: "https://erp.example.com/upload?token=abc",
	}

	svc := NewService(Config{
		StockSelectSQL: "SELECT cod, stoc FROM stocuri",
		CSVDirectory:   csvDir,
		UploadEnabled:  true,
	}, snap, up, NewAuditLog(auditDir))

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "SELECT cod, stoc FROM stocuri", snap.gotSQL)
	assert.Equal(t, 2, summary.RowCount)
	assert.True(t, summary.Uploaded)
	assert.Equal(t, summary.CSVPath, up.gotPath)

	entries := readAuditEntries(t, auditDir)
	require.Len(t, entries, 1)
	assert.Equal(t, AuditSuccess, entries[0].Status)
	assert.Equal(t, http.StatusOK, entries[0].HTTPStatus)
	assert.NotContains(t, entries[0].UploadURL, "token=abc")
}

func TestExportRun_UploadDisabled(t *testing.T) {
	csvDir := t.TempDir()
	auditDir := t.TempDir()

	snap := &fakeSnapshotter{columns: []string{"cod"}, rows: [][]string{{"1"}}}
	up := &fakeUploader{}

	svc := NewService(Config{
		StockSelectSQL: "SELECT 1",
		CSVDirectory:   csvDir,
	}, snap, up, NewAuditLog(auditDir))

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Uploaded)
	assert.Zero(t, up.calls)
	assert.Empty(t, readAuditEntries(t, auditDir))

	// The CSV is written regardless.
	_, statErr := os.Stat(summary.CSVPath)
	assert.NoError(t, statErr)
}

func TestExportRun_HTTPErrorAudited(t *testing.T) {
	auditDir := t.TempDir()

	snap := &fakeSnapshotter{columns: []string{"cod"}, rows: [][]string{{"1"}}}
	up := &fakeUploader{
		resp:     &UploadResponse{StatusCode: http.StatusBadGateway, ContentType: "text/html", Body: "boom"},
		finalURL: "https://erp.example.com/upload",
		err:      errors.New("upload failed with HTTP 502: boom"),
	}

	svc := NewService(Config{
		StockSelectSQL: "SELECT 1",
		CSVDirectory:   t.TempDir(),
		UploadEnabled:  true,
	}, snap, up, NewAuditLog(auditDir))

	summary, err := svc.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.False(t, summary.Uploaded)

	entries := readAuditEntries(t, auditDir)
	require.Len(t, entries, 1)
	assert.Equal(t, AuditHTTPError, entries[0].Status)
	assert.Equal(t, http.StatusBadGateway, entries[0].HTTPStatus)
	assert.Contains(t, entries[0].Error, "HTTP 502")
}

func TestExportRun_RequestErrorAudited(t *testing.T) {
	auditDir := t.TempDir()

	snap := &fakeSnapshotter{columns: []string{"cod"}, rows: [][]string{{"1"}}}
	up := &fakeUploader{
		finalURL: "https://erp.example.com/upload",
		err:      errors.New("connection refused"),
	}

	svc := NewService(Config{
		StockSelectSQL: "SELECT 1",
		CSVDirectory:   t.TempDir(),
		UploadEnabled:  true,
	}, snap, up, NewAuditLog(auditDir))

	_, err := svc.Run(context.Background())
	require.Error(t, err)

	entries := readAuditEntries(t, auditDir)
	require.Len(t, entries, 1)
	assert.Equal(t, AuditRequestError, entries[0].Status)
	assert.Zero(t, entries[0].HTTPStatus)
}

func TestExportRun_SnapshotError(t *testing.T) {
	snap := &fakeSnapshotter{err: errors.New("relation does not exist")}
	up := &fakeUploader{}

	svc := NewService(Config{
		StockSelectSQL: "SELECT 1",
		CSVDirectory:   t.TempDir(),
		UploadEnabled:  true,
	}, snap, up, nil)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, up.calls)
}
