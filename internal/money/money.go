// Package money fixes the decimal conventions for all monetary values:
// a fixed scale of two fractional digits and round-half-to-even. Division
// happens at scale 3 and is rounded back to scale 2 by the caller.
//
// Equality of amounts is always numerical (Cmp/IsZero), never by
// representation.
package money

import "github.com/shopspring/decimal"

const (
	// Scale is the number of fractional digits of every stored amount.
	Scale = 2
	// DivisionScale is the working scale of the quotient in share
	// computation, before rounding back to Scale.
	DivisionScale = 3
)

var two = decimal.NewFromInt(2)

// Round reduces d to Scale using round-half-to-even.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Scale)
}

// DivBank divides a by b at the given scale with round-half-to-even.
// The quotient/remainder split keeps the tie decision exact; rounding a
// high-precision Div result could misclassify a near-tie.
func DivBank(a, b decimal.Decimal, scale int32) decimal.Decimal {
	q, r := a.QuoRem(b, scale)
	if r.IsZero() {
		return q
	}
	// q truncates toward zero; the dropped part is |r| out of |b| units of
	// one ulp at this scale.
	ulp := decimal.New(1, -scale)
	away := ulp
	if a.Sign()*b.Sign() < 0 {
		away = ulp.Neg()
	}
	switch r.Abs().Mul(two).Cmp(b.Abs().Mul(ulp)) {
	case -1:
		return q
	case 1:
		return q.Add(away)
	}
	// exact tie: keep the even neighbour
	if q.Shift(scale).IntPart()%2 == 0 {
		return q
	}
	return q.Add(away)
}

// Normalize converts a scale-2 amount into its absolute integer value in
// cents.
func Normalize(d decimal.Decimal) int64 {
	return d.Abs().Shift(Scale).IntPart()
}

// Format renders d with exactly Scale fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
