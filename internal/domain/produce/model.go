// Package produce implements the package-production transaction engine.
//
// One order payload is materialized as a consistent set of inventory
// movement rows inside a single database transaction: consumption lines
// for the raw materials, one production line for the finished good, and
// detail rows linking them. Duplicate submissions are detected before
// allocation and replay the prior result.
package produce

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stocksync/internal/core/types"
)

// Movement line kinds as stored in miscari.tip_doc.
const (
	KindConsumption = "BC"
	KindProduction  = "BP"
)

// Fixed catalog attributes for auto-created package articles.
const (
	ArticleUnit     = "BUC"
	ArticleTypeName = "Produse finite"
	ArticleTypeCode = "04"
)

// Statuses an order may arrive with and still be processed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
)

// Order is a normalized package-production order. Quantity sign carries
// the document direction: negative produced quantity marks a reversal.
type Order struct {
	IDDoc     int64
	Date      time.Time
	Name      string
	SellPrice types.Money
	VATRate   decimal.Decimal
	TotalCost types.Money
	Warehouse string
	Quantity  decimal.Decimal
	Status    string
	Lines     []OrderLine
}

// IsReversal reports whether the order undoes a prior production.
func (o *Order) IsReversal() bool {
	return o.Quantity.IsNegative()
}

// OrderLine is one raw-material consumption entry of an order.
type OrderLine struct {
	CodeRaw  string // as received, trimmed
	Code     string // normalized CHAR(16) form
	Quantity decimal.Decimal
	Value    types.Money
}

// Article is a stock catalog record (articole).
type Article struct {
	Code         string
	Name         string
	Unit         string
	VATRate      decimal.Decimal
	TypeName     string
	TypeCode     string
	SellPrice    decimal.NullDecimal
	SellPriceVAT decimal.NullDecimal
}

// ExistingDocument identifies an already materialized document for a
// given (external id, date) pair.
type ExistingDocument struct {
	MovementID  int64
	DocNumber   int64
	ArticleCode string
}

// MovementLine is one row of miscari. All lines of a document share
// MovementID and DocNumber.
type MovementLine struct {
	MovementID  int64
	ExternalID  int64
	Date        time.Time
	DocNumber   int64
	Kind        string
	ArticleCode string
	Quantity    decimal.Decimal
	Warehouse   string
	Price       decimal.NullDecimal // only when the schema carries miscari.pret
	Ordinal     int64               // only when the schema carries miscari.nr_ordine
}

// ConsumptionDetail is one row of bonuri_consum, mirroring a
// consumption movement line.
type ConsumptionDetail struct {
	UniqueID    uuid.UUID
	MovementID  int64
	ArticleCode string
	Quantity    decimal.Decimal
	Value       types.Money
}

// ProductionDetail is the single bonuri_productie row of a document.
type ProductionDetail struct {
	UniqueID   uuid.UUID
	MovementID int64
	DocSeq     int64
	Validated  bool
	Warehouse  string
	TypeName   string
	TypeCode   string
	Price      types.Money
	Value      types.Money
	Cost       types.Money
}

// Capabilities describes which optional schema parts the writer may use.
type Capabilities struct {
	MovementPrice    bool
	MovementOrdinal  bool
	ProductionDetail bool
}

// Result is returned to the caller for every processed order.
type Result struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	PackageCode string `json:"codPachet,omitempty"`
	DocNumber   int64  `json:"nrDoc,omitempty"`
	IDDoc       int64  `json:"idDoc,omitempty"`
}

const (
	codeDigits = 8
	codeWidth  = 16
)

// NormalizeArticleCode converts a human-entered article code into the
// fixed CHAR(16) storage form: 8 digits left-padded with zeros, then
// right-padded with spaces. A 16-character value whose first 8
// characters are digits is accepted as already normalized.
func NormalizeArticleCode(raw string) (string, error) {
	if len(raw) == codeWidth {
		if !isDigits(raw[:codeDigits]) {
			return "", fmt.Errorf("invalid cod_articol %q: first %d chars must be digits", raw, codeDigits)
		}
		return raw, nil
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("cod_articol cannot be empty")
	}
	if !isDigits(trimmed) {
		return "", fmt.Errorf("invalid cod_articol %q: only digits are allowed", trimmed)
	}
	if len(trimmed) > codeDigits {
		return "", fmt.Errorf("invalid cod_articol %q: expected max %d digits or fixed CHAR(%d)", trimmed, codeDigits, codeWidth)
	}

	return PadArticleCode(trimmed), nil
}

// PadArticleCode formats an up-to-8-digit code into the CHAR(16) form.
func PadArticleCode(digits string) string {
	if len(digits) < codeDigits {
		digits = strings.Repeat("0", codeDigits-len(digits)) + digits
	}
	return digits + strings.Repeat(" ", codeWidth-codeDigits)
}

// FormatArticleCode renders a numeric code in the CHAR(16) form.
func FormatArticleCode(n int64) string {
	return fmt.Sprintf("%0*d", codeDigits, n) + strings.Repeat(" ", codeWidth-codeDigits)
}

// TrimArticleCode strips the fixed-width padding for display.
func TrimArticleCode(code string) string {
	return strings.TrimRight(code, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
