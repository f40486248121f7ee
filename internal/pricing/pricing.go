// Package pricing computes sale totals from authoritative line prices and a
// discount request. It performs no I/O.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"posledger/backend/internal/domain"
)

var (
	ErrInvalidDiscountType  = errors.New("invalid discount type, use 'percentage' or 'fixed'")
	ErrInvalidDiscountValue = errors.New("invalid discount value")
)

var hundred = decimal.NewFromInt(100)

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Totals struct {
	Subtotal       decimal.Decimal
	DiscountType   string
	DiscountValue  *decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// ParseDiscountType normalizes a client supplied discount type. Nil, empty
// and "none" all mean no discount.
func ParseDiscountType(raw *string) (string, error) {
	if raw == nil {
		return domain.DiscountNone, nil
	}
	switch strings.ToLower(strings.TrimSpace(*raw)) {
	case "", domain.DiscountNone:
		return domain.DiscountNone, nil
	case domain.DiscountPercentage:
		return domain.DiscountPercentage, nil
	case domain.DiscountFixed:
		return domain.DiscountFixed, nil
	default:
		return "", ErrInvalidDiscountType
	}
}

func LineTotal(l Line) decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Compute returns subtotal, discount and total for the given lines.
// A discount type without a value applies no discount. Discount amounts and
// the recorded discount value are kept to whole cents.
func Compute(lines []Line, discountType *string, discountValue *decimal.Decimal) (Totals, error) {
	kind, err := ParseDiscountType(discountType)
	if err != nil {
		return Totals{}, err
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l))
	}

	discount := decimal.Zero
	switch kind {
	case domain.DiscountPercentage:
		if discountValue != nil {
			v := *discountValue
			if v.IsNegative() || v.GreaterThan(hundred) {
				return Totals{}, fmt.Errorf("%w: discount percentage must be between 0 and 100", ErrInvalidDiscountValue)
			}
			discount = subtotal.Mul(v).Div(hundred).Round(2)
		}
	case domain.DiscountFixed:
		if discountValue != nil {
			v := *discountValue
			if v.IsNegative() {
				return Totals{}, fmt.Errorf("%w: discount amount cannot be negative", ErrInvalidDiscountValue)
			}
			discount = decimal.Min(v.Round(2), subtotal)
		}
	}

	totals := Totals{
		Subtotal:       subtotal,
		DiscountType:   kind,
		DiscountAmount: discount,
		Total:          subtotal.Sub(discount),
	}
	if kind != domain.DiscountNone && discountValue != nil {
		v := discountValue.Round(2)
		totals.DiscountValue = &v
	}
	return totals, nil
}
