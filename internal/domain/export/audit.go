package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stocksync/pkg/urlutil"
)

// Audit entry statuses.
const (
	AuditSuccess      = "success"
	AuditHTTPError    = "http_error"
	AuditRequestError = "request_error"
)

// AuditEntry is one line of the daily upload audit log.
type AuditEntry struct {
	Timestamp    string         `json:"timestamp"`
	Status       string         `json:"status"`
	UploadURL    string         `json:"upload_url"`
	CSVPath      string         `json:"csv_path"`
	CSVFileName  string         `json:"csv_file_name"`
	RowCount     int            `json:"row_count"`
	Error        string         `json:"error,omitempty"`
	HTTPStatus   int            `json:"http_status,omitempty"`
	ContentType  string         `json:"response_content_type,omitempty"`
	ResponseBody string         `json:"response_body,omitempty"`
	Metrics      map[string]any `json:"metrics,omitempty"`
}

// AuditLog appends JSONL entries to a per-day file under dir.
type AuditLog struct {
	dir string
}

// NewAuditLog creates an audit log rooted at dir.
func NewAuditLog(dir string) *AuditLog {
	return &AuditLog{dir: dir}
}

// Append writes one entry to today's audit file and returns its path.
// The upload URL is sanitized before it is persisted.
func (a *AuditLog) Append(entry AuditEntry) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create audit directory: %w", err)
	}

	now := time.Now()
	if entry.Timestamp == "" {
		entry.Timestamp = now.Format("2006-01-02T15:04:05")
	}
	entry.UploadURL = urlutil.Sanitize(entry.UploadURL)

	path := filepath.Join(a.dir, fmt.Sprintf("upload_audit_%s.jsonl", now.Format("20060102")))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("encode audit entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return "", fmt.Errorf("write audit entry: %w", err)
	}

	return path, nil
}
