// Package stock_repo reads inventory snapshots for the export job.
package stock_repo

import (
	"context"
	"fmt"

	"stocksync/internal/core/apperror"
	"stocksync/internal/infrastructure/storage/postgres"
)

// Repository runs the operator-configured snapshot query.
type Repository struct {
	txm *postgres.TxManager
}

// New creates the repository.
func New(txm *postgres.TxManager) *Repository {
	return &Repository{txm: txm}
}

// Snapshot executes the configured SELECT and returns column names plus
// every row as strings. The query text comes from configuration; it is
// run read-only and never interpolated with user input.
func (r *Repository) Snapshot(ctx context.Context, query string) ([]string, [][]string, error) {
	var columns []string
	var records [][]string

	err := r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		q := r.txm.GetQuerier(ctx)

		rows, err := q.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("snapshot query: %w", err)
		}
		defer rows.Close()

		for _, fd := range rows.FieldDescriptions() {
			columns = append(columns, fd.Name)
		}

		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return fmt.Errorf("read snapshot row: %w", err)
			}
			record := make([]string, len(values))
			for i, v := range values {
				record[i] = formatValue(v)
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, apperror.NewDatabase(err)
	}

	return columns, records, nil
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
