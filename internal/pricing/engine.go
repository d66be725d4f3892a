package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value carried at full precision.
type Money = decimal.Decimal

// LineItem describes a purchased item used for pricing calculation.
type LineItem struct {
	Name  string `validate:"required"`
	Value Money
}

// NewLineItem builds a line item from a name and a decimal string such as "150.00".
func NewLineItem(name, value string) (LineItem, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return LineItem{}, fmt.Errorf("pricing: item %q value: %w", name, err)
	}
	return LineItem{Name: name, Value: v}, nil
}

// BaseCost sums item values. Empty input yields zero.
func BaseCost(items []LineItem) Money {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Value)
	}
	return total
}

// Display rounds an amount to two fractional digits for presentation.
func Display(m Money) string {
	return m.StringFixed(2)
}

// Modifier transforms a running cost into an adjusted cost.
type Modifier interface {
	Name() string
	Apply(cost Money, items []LineItem) Money
}

// PercentDiscount takes Percent percent off the running cost.
type PercentDiscount struct {
	Label   string
	Percent Money
}

func (d PercentDiscount) Name() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Percent.String() + "% discount"
}

func (d PercentDiscount) Apply(cost Money, _ []LineItem) Money {
	return cost.Sub(percentOf(cost, d.Percent))
}

// FlatSurcharge adds a fixed fee to the running cost.
type FlatSurcharge struct {
	Label string
	Fee   Money
}

func (s FlatSurcharge) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "surcharge " + Display(s.Fee)
}

func (s FlatSurcharge) Apply(cost Money, _ []LineItem) Money {
	return cost.Add(s.Fee)
}

// ThresholdDiscount takes Percent percent off the running cost when the
// base cost of the order is strictly greater than Threshold.
type ThresholdDiscount struct {
	Label     string
	Threshold Money
	Percent   Money
}

func (d ThresholdDiscount) Name() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Percent.String() + "% off orders over " + Display(d.Threshold)
}

func (d ThresholdDiscount) Apply(cost Money, items []LineItem) Money {
	if !BaseCost(items).GreaterThan(d.Threshold) {
		return cost
	}
	return cost.Sub(percentOf(cost, d.Percent))
}

// percentOf returns pct percent of cost. Shifting the decimal point keeps the
// result exact where Div would round to DivisionPrecision digits.
func percentOf(cost, pct Money) Money {
	return cost.Mul(pct).Shift(-2)
}

// Adjustment records the effect of one modifier in a chain.
type Adjustment struct {
	Modifier string
	Before   Money
	After    Money
	Delta    Money
}

// Chain folds modifiers left over base: each modifier receives the previous
// modifier's output. Declared order is preserved and the result is never clamped.
func Chain(base Money, items []LineItem, modifiers []Modifier) (Money, []Adjustment) {
	cost := base
	adjustments := make([]Adjustment, 0, len(modifiers))
	for _, m := range modifiers {
		if m == nil {
			continue
		}
		next := m.Apply(cost, items)
		adjustments = append(adjustments, Adjustment{
			Modifier: m.Name(),
			Before:   cost,
			After:    next,
			Delta:    next.Sub(cost),
		})
		cost = next
	}
	return cost, adjustments
}
