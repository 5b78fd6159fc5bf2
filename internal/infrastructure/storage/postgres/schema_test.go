package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProbeTx answers the information_schema EXISTS probes. Keyed by
// "table" or "table.column".
type fakeProbeTx struct {
	pgx.Tx
	err     error
	answers map[string]bool
	queries int
}

func (f *fakeProbeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries++
	if f.err != nil {
		return probeRow{err: f.err}
	}
	key := args[0].(string)
	if len(args) > 1 {
		key += "." + args[1].(string)
	}
	return probeRow{exists: f.answers[key]}
}

type probeRow struct {
	err    error
	exists bool
}

func (r probeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*bool) = r.exists
	return nil
}

func probeCtx(ftx *fakeProbeTx) context.Context {
	return context.WithValue(context.Background(), txKey{}, &Tx{Tx: ftx})
}

func TestSchemaProbe_SuccessCached(t *testing.T) {
	ftx := &fakeProbeTx{answers: map[string]bool{
		"miscari.pret":      true,
		"miscari.nr_ordine": false,
		"bonuri_productie":  true,
	}}
	p := NewSchemaProbe(&TxManager{})

	caps, err := p.Capabilities(probeCtx(ftx))
	require.NoError(t, err)
	assert.True(t, caps.MovementPrice)
	assert.False(t, caps.MovementOrdinal)
	assert.True(t, caps.ProductionDetail)
	assert.Equal(t, 3, ftx.queries)

	// Second call answers from cache.
	again, err := p.Capabilities(probeCtx(ftx))
	require.NoError(t, err)
	assert.Equal(t, caps, again)
	assert.Equal(t, 3, ftx.queries)
}

func TestSchemaProbe_FailureNotCached(t *testing.T) {
	ftx := &fakeProbeTx{err: errors.New("context canceled")}
	p := NewSchemaProbe(&TxManager{})

	_, err := p.Capabilities(probeCtx(ftx))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe miscari.pret")

	// The failure must not stick: a healthy connection on the next
	// call probes again and succeeds.
	ftx.err = nil
	ftx.answers = map[string]bool{
		"miscari.pret":      true,
		"miscari.nr_ordine": true,
		"bonuri_productie":  true,
	}
	caps, err := p.Capabilities(probeCtx(ftx))
	require.NoError(t, err)
	assert.True(t, caps.MovementPrice)
	assert.True(t, caps.MovementOrdinal)
	assert.True(t, caps.ProductionDetail)
}
