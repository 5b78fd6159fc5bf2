package postgres

import (
	"context"
	"fmt"
	"sync"

	"stocksync/pkg/logger"
)

// SchemaProbe discovers optional parts of the legacy schema and caches
// the answer for the rest of the process. Deployments in the field differ: some
// carry a price column on the movement table, some an ordinal column,
// and some lack the production detail table entirely. Writers consult
// the probe instead of failing at insert time.
type SchemaProbe struct {
	txm *TxManager

	mu     sync.Mutex
	probed bool
	caps   Capabilities
}

// Capabilities describes which optional schema parts are present.
type Capabilities struct {
	MovementPrice    bool // miscari.pret
	MovementOrdinal  bool // miscari.nr_ordine
	ProductionDetail bool // bonuri_productie table
}

// NewSchemaProbe creates a probe bound to a transaction manager.
func NewSchemaProbe(txm *TxManager) *SchemaProbe {
	return &SchemaProbe{txm: txm}
}

// Capabilities returns the probed schema capabilities. Only a
// successful probe is cached; after a failure the next call probes
// again, so a transient error at startup does not stick for the
// lifetime of the process.
func (p *SchemaProbe) Capabilities(ctx context.Context) (Capabilities, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.probed {
		return p.caps, nil
	}

	caps, err := p.probe(ctx)
	if err != nil {
		return Capabilities{}, err
	}

	p.caps = caps
	p.probed = true
	logger.Info(ctx, "schema capabilities detected",
		"movement_price", caps.MovementPrice,
		"movement_ordinal", caps.MovementOrdinal,
		"production_detail", caps.ProductionDetail,
	)
	return p.caps, nil
}

func (p *SchemaProbe) probe(ctx context.Context) (Capabilities, error) {
	q := p.txm.GetQuerier(ctx)
	var caps Capabilities

	const columnExists = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = $1 AND column_name = $2
		)`

	if err := q.QueryRow(ctx, columnExists, "miscari", "pret").Scan(&caps.MovementPrice); err != nil {
		return caps, fmt.Errorf("probe miscari.pret: %w", err)
	}
	if err := q.QueryRow(ctx, columnExists, "miscari", "nr_ordine").Scan(&caps.MovementOrdinal); err != nil {
		return caps, fmt.Errorf("probe miscari.nr_ordine: %w", err)
	}

	const tableExists = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_name = $1
		)`

	if err := q.QueryRow(ctx, tableExists, "bonuri_productie").Scan(&caps.ProductionDetail); err != nil {
		return caps, fmt.Errorf("probe bonuri_productie: %w", err)
	}

	return caps, nil
}
