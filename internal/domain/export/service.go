package export

import (
	"context"
	"path/filepath"

	"stocksync/pkg/logger"
	"stocksync/pkg/urlutil"
)

// Snapshotter reads the current inventory snapshot.
type Snapshotter interface {
	Snapshot(ctx context.Context, query string) (columns []string, rows [][]string, err error)
}

// FileUploader posts a CSV file to the upload endpoint.
type FileUploader interface {
	Upload(ctx context.Context, filePath string) (*UploadResponse, string, error)
}

// Config holds the per-run settings of the export job.
type Config struct {
	StockSelectSQL string
	CSVDirectory   string
	UploadEnabled  bool
}

// Service runs one full export: snapshot, CSV, upload, audit.
type Service struct {
	cfg      Config
	snapshot Snapshotter
	uploader FileUploader
	audit    *AuditLog
}

// NewService creates the export job.
func NewService(cfg Config, snapshot Snapshotter, uploader FileUploader, audit *AuditLog) *Service {
	return &Service{cfg: cfg, snapshot: snapshot, uploader: uploader, audit: audit}
}

// Summary describes the outcome of one export run.
type Summary struct {
	CSVPath  string `json:"csv_path"`
	RowCount int    `json:"row_count"`
	Uploaded bool   `json:"uploaded"`
}

// Run executes the export once. The CSV is always written; the upload
// happens when an uploader is configured. Upload failures are audited
// and returned; audit write failures are only logged, the export result
// stands.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	columns, rows, err := s.snapshot.Snapshot(ctx, s.cfg.StockSelectSQL)
	if err != nil {
		return nil, err
	}

	path, err := WriteCSV(s.cfg.CSVDirectory, columns, rows)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "csv generated", "path", path, "rows", len(rows))

	summary := &Summary{CSVPath: path, RowCount: len(rows)}
	if !s.cfg.UploadEnabled || s.uploader == nil {
		return summary, nil
	}

	resp, finalURL, err := s.uploader.Upload(ctx, path)
	entry := AuditEntry{
		UploadURL:   finalURL,
		CSVPath:     path,
		CSVFileName: filepath.Base(path),
		RowCount:    len(rows),
	}
	if resp != nil {
		entry.HTTPStatus = resp.StatusCode
		entry.ContentType = resp.ContentType
		entry.ResponseBody = resp.Body
		entry.Metrics = resp.Metrics
	}

	if err != nil {
		if resp != nil {
			entry.Status = AuditHTTPError
		} else {
			entry.Status = AuditRequestError
		}
		entry.Error = err.Error()
		s.appendAudit(ctx, entry)
		return summary, err
	}

	entry.Status = AuditSuccess
	s.appendAudit(ctx, entry)
	summary.Uploaded = true
	logger.Info(ctx, "csv uploaded",
		"url", urlutil.Sanitize(finalURL),
		"status", resp.StatusCode,
		"rows", len(rows),
	)
	return summary, nil
}

func (s *Service) appendAudit(ctx context.Context, entry AuditEntry) {
	if s.audit == nil {
		return
	}
	path, err := s.audit.Append(entry)
	if err != nil {
		logger.Warn(ctx, "could not write upload audit entry", "error", err)
		return
	}
	logger.Debug(ctx, "upload audit saved", "path", path)
}
