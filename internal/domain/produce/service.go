package produce

import (
	"context"

	"stocksync/internal/core/apperror"
	"stocksync/internal/core/tx"
	"stocksync/pkg/logger"
)

// maxAttempts bounds the conflict retry: the first run plus exactly one
// retry after a document number collision.
const maxAttempts = 2

// Service is the conflict-retry coordinator around one order. Each call
// opens its own transaction; no state is shared between invocations.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates the production engine.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// ProducePayload validates a raw payload and processes every order it
// contains, in order. Processing stops at the first validation failure
// of the payload itself; per-order failures are folded into the
// returned results so one bad order does not block the rest.
func (s *Service) ProducePayload(ctx context.Context, payload any) ([]*Result, error) {
	orders, err := ParseOrders(payload)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(orders))
	for _, order := range orders {
		result, err := s.ProduceOrder(ctx, order)
		if err != nil {
			logger.Error(ctx, "order failed",
				"id_doc", order.IDDoc,
				"error", err,
			)
			result = FailureResult(err)
		}
		results = append(results, result)
	}
	return results, nil
}

// ProduceOrder materializes one validated order. The whole pipeline
// (duplicate guard, article resolution, allocation, writing) runs
// inside one transaction. On a uniqueness violation of the allocated
// document number the transaction is rolled back and the pipeline rerun
// once from scratch; a second collision is fatal. Any other error rolls
// back and is surfaced immediately.
func (s *Service) ProduceOrder(ctx context.Context, order *Order) (*Result, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		var result *Result
		err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			r, err := s.executeOnce(ctx, order)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		if err == nil {
			if attempt > 0 {
				logger.Info(ctx, "retry after number collision succeeded",
					"id_doc", order.IDDoc,
					"nr_doc", result.DocNumber,
				)
			}
			return result, nil
		}

		lastErr = err
		if apperror.IsSequenceConflict(err) && attempt == 0 {
			logger.Warn(ctx, "document number collision, retrying once",
				"id_doc", order.IDDoc,
				"date", order.Date.Format("2006-01-02"),
			)
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

// executeOnce runs one full pass of the pipeline inside the active
// transaction.
func (s *Service) executeOnce(ctx context.Context, order *Order) (*Result, error) {
	// Duplicate guard: a document for this (external id, date) pair may
	// already exist from an earlier submission. Replay its identifiers.
	existing, err := s.repo.FindDocument(ctx, order.IDDoc, order.Date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info(ctx, "document already materialized, replaying result",
			"id_doc", order.IDDoc,
			"nr_doc", existing.DocNumber,
		)
		return &Result{
			Success:     true,
			Message:     "document already processed",
			PackageCode: TrimArticleCode(existing.ArticleCode),
			DocNumber:   existing.DocNumber,
			IDDoc:       order.IDDoc,
		}, nil
	}

	caps, err := s.repo.Capabilities(ctx)
	if err != nil {
		return nil, err
	}

	packageCode, err := s.resolveArticle(ctx, order)
	if err != nil {
		return nil, err
	}

	movementID, err := s.repo.NextMovementID(ctx)
	if err != nil {
		return nil, err
	}
	docNumber, err := s.repo.NextDocNumber(ctx, order.Date)
	if err != nil {
		return nil, err
	}

	if err := s.writeDocument(ctx, order, packageCode, movementID, docNumber, caps); err != nil {
		return nil, err
	}

	return &Result{
		Success:     true,
		Message:     "producePachet executed successfully",
		PackageCode: TrimArticleCode(packageCode),
		DocNumber:   docNumber,
		IDDoc:       order.IDDoc,
	}, nil
}

// FailureResult converts an error into the result shape callers expect.
func FailureResult(err error) *Result {
	if appErr, ok := apperror.AsAppError(err); ok {
		return &Result{Success: false, Message: appErr.Message}
	}
	return &Result{Success: false, Message: err.Error()}
}
