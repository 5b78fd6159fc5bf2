package sync

import (
	"context"
	"fmt"
	"strings"

	"stocksync/internal/domain/produce"
	"stocksync/pkg/logger"
)

// PayloadFetcher retrieves the raw order payload.
type PayloadFetcher interface {
	Fetch(ctx context.Context) (any, error)
}

// Producer materializes one validated order.
type Producer interface {
	ProduceOrder(ctx context.Context, order *produce.Order) (*produce.Result, error)
}

// Runner executes one import pass: fetch, filter pending, produce.
type Runner struct {
	fetcher  PayloadFetcher
	producer Producer
}

// NewRunner creates the import job.
func NewRunner(fetcher PayloadFetcher, producer Producer) *Runner {
	return &Runner{fetcher: fetcher, producer: producer}
}

// Summary describes one import pass.
type Summary struct {
	Fetched   int               `json:"fetched"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []*produce.Result `json:"results"`
}

// RunOnce fetches the payload and processes every pending item. One
// failing order does not stop the rest; the pass reports an error when
// any order failed.
func (r *Runner) RunOnce(ctx context.Context) (*Summary, error) {
	payload, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	items := ExtractPendingItems(payload)
	logger.Info(ctx, "import pass fetched pending orders", "count", len(items))

	summary := &Summary{Fetched: len(items)}
	for i, item := range items {
		order, err := produce.ParseOrder(item)
		if err != nil {
			logger.Error(ctx, "order rejected by validation",
				"index", i+1,
				"error", err,
			)
			summary.Failed++
			summary.Results = append(summary.Results, produce.FailureResult(err))
			continue
		}

		logger.Info(ctx, "processing order",
			"index", fmt.Sprintf("%d/%d", i+1, len(items)),
			"id_doc", order.IDDoc,
			"denumire", order.Name,
		)

		result, err := r.producer.ProduceOrder(ctx, order)
		if err != nil {
			logger.Error(ctx, "order failed",
				"index", i+1,
				"id_doc", order.IDDoc,
				"error", err,
			)
			summary.Failed++
			summary.Results = append(summary.Results, produce.FailureResult(err))
			continue
		}

		summary.Succeeded++
		summary.Results = append(summary.Results, result)
		logger.Info(ctx, "order materialized",
			"id_doc", result.IDDoc,
			"nr_doc", result.DocNumber,
			"cod_pachet", result.PackageCode,
		)
	}

	logger.Info(ctx, "import pass finished",
		"success", summary.Succeeded,
		"failed", summary.Failed,
	)
	if summary.Failed > 0 {
		return summary, fmt.Errorf("import pass finished with errors: success=%d, failed=%d", summary.Succeeded, summary.Failed)
	}
	return summary, nil
}

// ExtractPendingItems normalizes the payload shapes the ordering API is
// known to return and keeps only items still waiting to be processed:
// items whose status is empty or pending. Malformed entries are
// dropped, not failed; the validator rejects anything subtler.
func ExtractPendingItems(payload any) []map[string]any {
	var source []any

	switch v := payload.(type) {
	case map[string]any:
		_, hasOrder := v["pachet"].(map[string]any)
		_, hasLines := v["produse"].([]any)
		if hasOrder && hasLines {
			source = []any{v}
			break
		}
		for _, key := range []string{"pachete", "items", "data", "results"} {
			if list, ok := v[key].([]any); ok {
				source = list
				break
			}
		}
	case []any:
		source = v
	}

	items := make([]map[string]any, 0, len(source))
	for _, raw := range source {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		header, ok := item["pachet"].(map[string]any)
		if !ok {
			continue
		}
		if _, ok := item["produse"].([]any); !ok {
			continue
		}
		status := strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", header["status"])))
		if header["status"] == nil {
			status = ""
		}
		if status != "" && status != produce.StatusPending {
			continue
		}
		items = append(items, item)
	}
	return items
}
