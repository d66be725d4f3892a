package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/checkout-engine/internal/pricing"
)

// Calculator computes a shipping cost from the adjusted order cost.
// Implementations are pure and never return a negative amount.
type Calculator interface {
	Name() string
	Calculate(adjusted pricing.Money) pricing.Money
}

// Percentage charges Rate (a fraction, 0.05 for 5%) of the adjusted cost.
type Percentage struct {
	Label string
	Rate  pricing.Money
}

func (p Percentage) Name() string { return labelOr(p.Label, "percentage shipping") }

func (p Percentage) Calculate(adjusted pricing.Money) pricing.Money {
	return nonNegative(adjusted.Mul(p.Rate))
}

// PercentagePlusFee charges Rate of the adjusted cost plus a fixed Fee.
type PercentagePlusFee struct {
	Label string
	Rate  pricing.Money
	Fee   pricing.Money
}

func (p PercentagePlusFee) Name() string { return labelOr(p.Label, "percentage plus fee shipping") }

func (p PercentagePlusFee) Calculate(adjusted pricing.Money) pricing.Money {
	return nonNegative(adjusted.Mul(p.Rate)).Add(nonNegative(p.Fee))
}

// Flat charges Fee regardless of the order cost.
type Flat struct {
	Label string
	Fee   pricing.Money
}

func (f Flat) Name() string { return labelOr(f.Label, "flat shipping") }

func (f Flat) Calculate(pricing.Money) pricing.Money {
	return nonNegative(f.Fee)
}

func nonNegative(m pricing.Money) pricing.Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}
