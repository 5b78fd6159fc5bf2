package produce

import (
	"context"
	"time"
)

// Repository is the storage contract of the production engine. All
// methods run against the transaction carried in ctx; the engine never
// calls them outside one.
//
// Allocation methods implement read-then-increment against live table
// state. They are racy by design; the surrounding uniqueness
// constraints and the retry policy in Service make them safe.
type Repository interface {
	// Capabilities reports which optional schema parts are present.
	// Probed once per process, cached afterwards.
	Capabilities(ctx context.Context) (Capabilities, error)

	// FindDocument returns the production line already written for the
	// (external id, date) pair, or nil when none exists.
	FindDocument(ctx context.Context, externalID int64, date time.Time) (*ExistingDocument, error)

	// FindArticleByName looks a catalog article up by its trimmed
	// display name. Returns nil when absent.
	FindArticleByName(ctx context.Context, name string) (*Article, error)

	// NextArticleCode returns the highest 8-digit article code plus one.
	NextArticleCode(ctx context.Context) (int64, error)

	// InsertArticle writes a new catalog article. A unique violation on
	// the display name is classified as apperror.CodeDuplicate and must
	// leave the surrounding transaction usable.
	InsertArticle(ctx context.Context, article *Article) error

	// NextMovementID returns the highest movement document id plus one.
	NextMovementID(ctx context.Context) (int64, error)

	// NextDocNumber returns the next document number for the given date
	// and the production kind.
	NextDocNumber(ctx context.Context, date time.Time) (int64, error)

	// NextLineOrdinal returns the next per-row ordinal of the movement
	// table. Only called when Capabilities.MovementOrdinal is set.
	NextLineOrdinal(ctx context.Context) (int64, error)

	// InsertMovement writes one movement line. A unique violation on
	// the (date, kind, doc number) key is classified as
	// apperror.CodeSequenceConflict.
	InsertMovement(ctx context.Context, line *MovementLine, caps Capabilities) error

	// InsertConsumptionDetail writes one consumption detail row.
	InsertConsumptionDetail(ctx context.Context, detail *ConsumptionDetail) error

	// NextProductionSeq returns the next production detail sequence.
	// Only called when Capabilities.ProductionDetail is set.
	NextProductionSeq(ctx context.Context) (int64, error)

	// InsertProductionDetail writes the document's production detail
	// row. Only called when Capabilities.ProductionDetail is set.
	InsertProductionDetail(ctx context.Context, detail *ProductionDetail) error
}
