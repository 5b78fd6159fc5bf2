package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksync/internal/core/apperror"
	"stocksync/internal/domain/produce"
)

type fakeFetcher struct {
	payload any
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context) (any, error) {
	return f.payload, f.err
}

type fakeProducer struct {
	failIDs map[int64]error
	orders  []*produce.Order
}

func (p *fakeProducer) ProduceOrder(ctx context.Context, order *produce.Order) (*produce.Result, error) {
	p.orders = append(p.orders, order)
	if err, ok := p.failIDs[order.IDDoc]; ok {
		return nil, err
	}
	return &produce.Result{
		Success:     true,
		Message:     "producePachet executed successfully",
		PackageCode: "00000001",
		DocNumber:   1,
		IDDoc:       order.IDDoc,
	}, nil
}

func pendingItem(idDoc int64, status string) map[string]any {
	header := map[string]any{
		"id_doc":            idDoc,
		"data":              "2026-02-10",
		"denumire":          "PACHET #1010",
		"pret_vanz":         "500.0",
		"cota_tva":          "21",
		"cost_total":        "120.0",
		"gestiune":          "0001",
		"cantitate_produsa": "1.0",
	}
	if status != "" {
		header["status"] = status
	} else {
		header["status"] = "pending"
	}
	return map[string]any{
		"pachet": header,
		"produse": []any{
			map[string]any{"cod_articol": "00000402", "cantitate": "3.0", "val_produse": "120.0"},
		},
	}
}

func TestExtractPendingItems_Shapes(t *testing.T) {
	single := pendingItem(1, "pending")

	cases := []struct {
		name    string
		payload any
		want    int
	}{
		{name: "single object", payload: single, want: 1},
		{name: "bare list", payload: []any{pendingItem(1, "pending"), pendingItem(2, "pending")}, want: 2},
		{name: "wrapped pachete", payload: map[string]any{"pachete": []any{pendingItem(1, "pending")}}, want: 1},
		{name: "wrapped items", payload: map[string]any{"items": []any{pendingItem(1, "pending")}}, want: 1},
		{name: "wrapped data", payload: map[string]any{"data": []any{pendingItem(1, "pending")}}, want: 1},
		{name: "wrapped results", payload: map[string]any{"results": []any{pendingItem(1, "pending")}}, want: 1},
		{name: "scalar", payload: "nope", want: 0},
		{name: "empty object", payload: map[string]any{}, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, ExtractPendingItems(tc.payload), tc.want)
		})
	}
}

func TestExtractPendingItems_StatusFilter(t *testing.T) {
	done := pendingItem(3, "done")
	processing := pendingItem(4, "processing")
	noStatus := pendingItem(5, "")
	delete(noStatus["pachet"].(map[string]any), "status")

	items := ExtractPendingItems([]any{
		pendingItem(1, "pending"),
		pendingItem(2, "Pending "),
		done,
		processing,
		noStatus,
	})

	require.Len(t, items, 3)
	for _, item := range items {
		status := item["pachet"].(map[string]any)["status"]
		assert.NotEqual(t, "done", status)
		assert.NotEqual(t, "processing", status)
	}
}

func TestExtractPendingItems_DropsMalformed(t *testing.T) {
	items := ExtractPendingItems([]any{
		"not an object",
		map[string]any{"pachet": "not an object"},
		map[string]any{"pachet": map[string]any{}}, // no produse
		pendingItem(1, "pending"),
	})
	assert.Len(t, items, 1)
}

func TestRunOnce_AllSucceed(t *testing.T) {
	fetcher := &fakeFetcher{payload: []any{pendingItem(1, "pending"), pendingItem(2, "pending")}}
	producer := &fakeProducer{}

	summary, err := NewRunner(fetcher, producer).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	require.Len(t, summary.Results, 2)
	assert.Len(t, producer.orders, 2)
}

func TestRunOnce_PartialFailure(t *testing.T) {
	fetcher := &fakeFetcher{payload: []any{pendingItem(1, "pending"), pendingItem(2, "pending")}}
	producer := &fakeProducer{
		failIDs: map[int64]error{2: apperror.NewMissingArticle("PACHET #1010")},
	}

	summary, err := NewRunner(fetcher, producer).RunOnce(context.Background())
	require.Error(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, err.Error(), "success=1, failed=1")

	require.Len(t, summary.Results, 2)
	assert.True(t, summary.Results[0].Success)
	assert.False(t, summary.Results[1].Success)
}

func TestRunOnce_ValidationFailureDoesNotStopPass(t *testing.T) {
	bad := pendingItem(1, "pending")
	bad["pachet"].(map[string]any)["cota_tva"] = "19"

	fetcher := &fakeFetcher{payload: []any{bad, pendingItem(2, "pending")}}
	producer := &fakeProducer{}

	summary, err := NewRunner(fetcher, producer).RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	// The bad order never reaches the producer.
	require.Len(t, producer.orders, 1)
	assert.Equal(t, int64(2), producer.orders[0].IDDoc)
}

func TestRunOnce_FetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	producer := &fakeProducer{}

	summary, err := NewRunner(fetcher, producer).RunOnce(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Empty(t, producer.orders)
}

func TestRunOnce_NothingPending(t *testing.T) {
	fetcher := &fakeFetcher{payload: map[string]any{"pachete": []any{}}}
	producer := &fakeProducer{}

	summary, err := NewRunner(fetcher, producer).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Fetched)
	assert.Empty(t, producer.orders)
}
