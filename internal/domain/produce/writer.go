package produce

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// writeDocument inserts the full row set of one document in the fixed
// order: every consumption line with its detail row first, then the
// production line, then the production detail. All inserts share the
// surrounding transaction; no partial document is ever visible.
//
// Quantity signs follow the document direction. A normal order records
// consumption as negative (stock leaving) and production as positive; a
// reversal inverts both.
func (s *Service) writeDocument(ctx context.Context, order *Order, packageCode string, movementID, docNumber int64, caps Capabilities) error {
	uniqueID := uuid.New()

	sign := decimal.NewFromInt(1)
	if order.IsReversal() {
		sign = decimal.NewFromInt(-1)
	}
	consumptionSign := sign.Neg()

	for i := range order.Lines {
		line := &order.Lines[i]
		qty := line.Quantity.Abs().Mul(consumptionSign)

		movement := &MovementLine{
			MovementID:  movementID,
			ExternalID:  order.IDDoc,
			Date:        order.Date,
			DocNumber:   docNumber,
			Kind:        KindConsumption,
			ArticleCode: line.Code,
			Quantity:    qty,
			Warehouse:   order.Warehouse,
		}
		if caps.MovementOrdinal {
			ordinal, err := s.repo.NextLineOrdinal(ctx)
			if err != nil {
				return err
			}
			movement.Ordinal = ordinal
		}
		if err := s.repo.InsertMovement(ctx, movement, caps); err != nil {
			return err
		}

		detail := &ConsumptionDetail{
			UniqueID:    uniqueID,
			MovementID:  movementID,
			ArticleCode: line.Code,
			Quantity:    qty,
			Value:       line.Value.Abs().Mul(consumptionSign),
		}
		if err := s.repo.InsertConsumptionDetail(ctx, detail); err != nil {
			return err
		}
	}

	production := &MovementLine{
		MovementID:  movementID,
		ExternalID:  order.IDDoc,
		Date:        order.Date,
		DocNumber:   docNumber,
		Kind:        KindProduction,
		ArticleCode: packageCode,
		Quantity:    order.Quantity,
		Warehouse:   order.Warehouse,
	}
	if caps.MovementPrice {
		production.Price = decimal.NewNullDecimal(order.SellPrice)
	}
	if caps.MovementOrdinal {
		ordinal, err := s.repo.NextLineOrdinal(ctx)
		if err != nil {
			return err
		}
		production.Ordinal = ordinal
	}
	if err := s.repo.InsertMovement(ctx, production, caps); err != nil {
		return err
	}

	if !caps.ProductionDetail {
		return nil
	}

	docSeq, err := s.repo.NextProductionSeq(ctx)
	if err != nil {
		return err
	}

	detail := &ProductionDetail{
		UniqueID:   uniqueID,
		MovementID: movementID,
		DocSeq:     docSeq,
		Validated:  true,
		Warehouse:  order.Warehouse,
		TypeName:   ArticleTypeName,
		TypeCode:   ArticleTypeCode,
		Price:      order.SellPrice,
		Value:      order.SellPrice.Mul(sign),
		Cost:       order.TotalCost.Mul(sign),
	}
	return s.repo.InsertProductionDetail(ctx, detail)
}
