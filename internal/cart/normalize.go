package cart

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultName        = "Producto"
	SyntheticIDPrefix  = "tmp-"
	MaxDisplayQuantity = 10
	maxQuantity        = math.MaxInt32
)

// NormalizeID turns a loosely typed product id into the opaque string key used
// by the cart. Missing or blank ids get a synthetic id and synthetic=true.
func NormalizeID(raw any) (id string, synthetic bool) {
	switch v := raw.(type) {
	case nil:
	case string:
		id = strings.TrimSpace(v)
	case json.Number:
		id = strings.TrimSpace(v.String())
	case float64:
		if isFinite(v) {
			id = strconv.FormatFloat(v, 'f', -1, 64)
		}
	case float32:
		if isFinite(float64(v)) {
			id = strconv.FormatFloat(float64(v), 'f', -1, 32)
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		id = fmt.Sprint(v)
	case fmt.Stringer:
		id = strings.TrimSpace(v.String())
	default:
		id = strings.TrimSpace(fmt.Sprint(v))
	}
	if id == "" {
		return SyntheticIDPrefix + uuid.NewString(), true
	}
	return id, false
}

// IsSyntheticID reports whether id was minted by NormalizeID.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}

func NormalizeName(raw string) string {
	if name := strings.TrimSpace(raw); name != "" {
		return name
	}
	return DefaultName
}

func NormalizeVariant(raw string) string {
	return strings.TrimSpace(raw)
}

// NormalizePrice returns a finite, non-negative price. Numeric strings are
// parsed; anything else becomes 0.
func NormalizePrice(raw any) float64 {
	v, ok := toFloat(raw)
	if !ok || v < 0 {
		return 0
	}
	return v
}

// NormalizeQuantity truncates to an integer and floors at 1. Invalid input
// becomes 1.
func NormalizeQuantity(raw any) int {
	v, ok := toFloat(raw)
	if !ok {
		return 1
	}
	v = math.Trunc(v)
	if v < 1 {
		return 1
	}
	if v > maxQuantity {
		return maxQuantity
	}
	return int(v)
}

// ClampDisplayQuantity bounds a quantity to what list views offer, [1, 10].
func ClampDisplayQuantity(q int) int {
	if q < 1 {
		return 1
	}
	if q > MaxDisplayQuantity {
		return MaxDisplayQuantity
	}
	return q
}

// NormalizeItem builds a valid line item from a product descriptor and a raw
// quantity. It reports whether the id was synthesized.
func NormalizeItem(p ProductInput, qty any) (LineItem, bool) {
	id, synthetic := NormalizeID(p.ID)
	return LineItem{
		ID:        id,
		Name:      NormalizeName(p.Name),
		Variant:   NormalizeVariant(p.Variant),
		UnitPrice: NormalizePrice(p.Price),
		Quantity:  NormalizeQuantity(qty),
	}, synthetic
}

// normalizeStored rebuilds a line item from a decoded storage element. Older
// snapshots used "type", "price" and "qty"; those keys are honoured when the
// current ones are missing.
func normalizeStored(raw map[string]any) LineItem {
	name, _ := raw["name"].(string)
	variant, ok := raw["variant"].(string)
	if !ok {
		variant, _ = raw["type"].(string)
	}
	price, ok := raw["unitPrice"]
	if !ok {
		price = raw["price"]
	}
	qty, ok := raw["quantity"]
	if !ok {
		qty = raw["qty"]
	}
	item, _ := NormalizeItem(ProductInput{
		ID:      raw["id"],
		Name:    name,
		Variant: variant,
		Price:   price,
	}, qty)
	return item
}

func toFloat(raw any) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case uint:
		v = float64(n)
	case uint32:
		v = float64(n)
	case uint64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if !isFinite(v) {
		return 0, false
	}
	return v, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
