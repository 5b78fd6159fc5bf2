package produce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stocksync/internal/core/apperror"
	"stocksync/internal/core/types"
)

// VAT rates accepted on incoming orders.
var validVATRates = []decimal.Decimal{
	decimal.Zero,
	decimal.NewFromInt(11),
	decimal.NewFromInt(21),
}

// Wrapper keys under which upstream systems nest the order list.
var listKeys = []string{"pachete", "items", "data", "results"}

// DecodeOrders reads a JSON payload and returns the normalized orders.
// Numbers are decoded with UseNumber so monetary values never pass
// through float64.
func DecodeOrders(r io.Reader) ([]*Order, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, apperror.NewValidation("payload is not valid JSON").WithCause(err)
	}
	return ParseOrders(payload)
}

// DecodeOrdersBytes is DecodeOrders over a byte slice.
func DecodeOrdersBytes(b []byte) ([]*Order, error) {
	return DecodeOrders(bytes.NewReader(b))
}

// ParseOrders normalizes the accepted payload shapes into orders:
// a single order object, a {"pachet": ..., "produse": [...]} pair,
// a wrapper object holding a list, or a bare list.
func ParseOrders(payload any) ([]*Order, error) {
	switch v := payload.(type) {
	case []any:
		return parseOrderList(v)
	case map[string]any:
		if _, ok := v["pachet"]; ok {
			order, err := ParseOrder(v)
			if err != nil {
				return nil, err
			}
			return []*Order{order}, nil
		}
		for _, key := range listKeys {
			if raw, ok := v[key]; ok {
				list, ok := raw.([]any)
				if !ok {
					return nil, apperror.NewValidationf("field '%s' must be an array", key)
				}
				return parseOrderList(list)
			}
		}
		// Flat single-order object.
		order, err := ParseOrder(v)
		if err != nil {
			return nil, err
		}
		return []*Order{order}, nil
	default:
		return nil, apperror.NewValidation("payload must be a JSON object or array")
	}
}

func parseOrderList(list []any) ([]*Order, error) {
	if len(list) == 0 {
		return nil, apperror.NewValidation("order list is empty")
	}
	orders := make([]*Order, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, apperror.NewValidationf("orders[%d] must be an object", i)
		}
		order, err := ParseOrder(obj)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// ParseOrder validates one order object, either the flat form or the
// {"pachet": ..., "produse": [...]} form, and returns a typed Order.
func ParseOrder(payload map[string]any) (*Order, error) {
	header := payload
	if raw, ok := payload["pachet"]; ok {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, apperror.NewValidation("field 'pachet' must be an object")
		}
		header = obj
	}

	linesRaw, ok := payload["produse"].([]any)
	if !ok || len(linesRaw) == 0 {
		return nil, apperror.NewValidation("field 'produse' is required and must be a non-empty array")
	}

	order := &Order{}
	var err error

	if order.IDDoc, err = parseInt(header["id_doc"], "pachet.id_doc"); err != nil {
		return nil, err
	}
	if order.IDDoc <= 0 {
		return nil, apperror.NewValidation("pachet.id_doc must be > 0")
	}

	if order.Date, err = parseDate(header["data"], "pachet.data"); err != nil {
		return nil, err
	}
	if order.Name, err = parseFixedChar(header["denumire"], "pachet.denumire", 255); err != nil {
		return nil, err
	}
	if order.Warehouse, err = parseFixedChar(header["gestiune"], "pachet.gestiune", 16); err != nil {
		return nil, err
	}

	if order.SellPrice, err = parseDecimalField(header["pret_vanz"], "pachet.pret_vanz"); err != nil {
		return nil, err
	}
	if order.VATRate, err = parseDecimalField(header["cota_tva"], "pachet.cota_tva"); err != nil {
		return nil, err
	}
	if order.TotalCost, err = parseDecimalField(header["cost_total"], "pachet.cost_total"); err != nil {
		return nil, err
	}
	if order.Quantity, err = parseDecimalField(header["cantitate_produsa"], "pachet.cantitate_produsa"); err != nil {
		return nil, err
	}

	order.Status = strings.ToLower(strings.TrimSpace(asString(header["status"])))

	if order.Status != StatusPending && order.Status != StatusProcessing {
		return nil, apperror.NewValidation("pachet.status must be 'processing' or 'pending'")
	}
	if order.Quantity.IsZero() {
		return nil, apperror.NewValidation("pachet.cantitate_produsa must be non-zero")
	}
	if order.SellPrice.IsNegative() {
		return nil, apperror.NewValidation("pachet.pret_vanz must be >= 0")
	}
	if order.TotalCost.IsNegative() {
		return nil, apperror.NewValidation("pachet.cost_total must be >= 0")
	}
	if !isValidVATRate(order.VATRate) {
		return nil, apperror.NewValidation("pachet.cota_tva must be one of: 0, 11, 21")
	}

	total := decimal.Zero
	order.Lines = make([]OrderLine, 0, len(linesRaw))
	for i, raw := range linesRaw {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, apperror.NewValidationf("produse[%d] must be an object", i+1)
		}

		line := OrderLine{}
		if line.Quantity, err = parseDecimalField(obj["cantitate"], "produse.cantitate"); err != nil {
			return nil, err
		}
		if line.Quantity.IsZero() {
			return nil, apperror.NewValidationf("produse[%d].cantitate must be non-zero", i+1)
		}
		if line.Value, err = parseDecimalField(obj["val_produse"], "produse.val_produse"); err != nil {
			return nil, err
		}
		if line.Value.IsNegative() {
			return nil, apperror.NewValidationf("produse[%d].val_produse must be >= 0", i+1)
		}

		line.CodeRaw = strings.TrimSpace(asString(obj["cod_articol"]))
		if line.Code, err = NormalizeArticleCode(asString(obj["cod_articol"])); err != nil {
			return nil, apperror.NewValidation(err.Error())
		}

		order.Lines = append(order.Lines, line)
		total = total.Add(line.Value)
	}

	if !types.EqualQuantized(total, order.TotalCost) {
		return nil, apperror.NewValidationf(
			"pachet.cost_total does not match SUM(produse[*].val_produse): expected %s, got %s",
			types.Quantize(total), types.Quantize(order.TotalCost))
	}

	return order, nil
}

func isValidVATRate(rate decimal.Decimal) bool {
	q := types.Quantize(rate)
	for _, valid := range validVATRates {
		if q.Equal(valid) {
			return true
		}
	}
	return false
}

// --- field parsers ---

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func parseInt(v any, field string) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			return 0, apperror.NewValidationf("field '%s' must be integer", field)
		}
		return parsed, nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, apperror.NewValidationf("field '%s' must be integer", field)
		}
		return parsed, nil
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, apperror.NewValidationf("field '%s' must be integer", field)
	}
}

func parseDate(v any, field string) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, apperror.NewValidationf("field '%s' must be a string in format YYYY-MM-DD", field)
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperror.NewValidationf("field '%s' has invalid date format, use YYYY-MM-DD", field)
	}
	return t, nil
}

func parseFixedChar(v any, field string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(asString(v))
	if trimmed == "" {
		return "", apperror.NewValidationf("field '%s' cannot be empty", field)
	}
	if len(trimmed) > maxLen {
		return "", apperror.NewValidationf("field '%s' exceeds max length %d", field, maxLen)
	}
	return trimmed, nil
}

func parseDecimalField(v any, field string) (decimal.Decimal, error) {
	d, err := types.ParseDecimal(v)
	if err != nil {
		return decimal.Zero, apperror.NewValidationf("field '%s' must be numeric", field)
	}
	return d, nil
}
