package order_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/order"
	"github.com/noah-isme/checkout-engine/internal/payment"
	"github.com/noah-isme/checkout-engine/internal/pricing"
	"github.com/noah-isme/checkout-engine/internal/shipping"
)

func item(name, value string) pricing.LineItem {
	return pricing.LineItem{Name: name, Value: decimal.RequireFromString(value)}
}

func TestNewRejectsInvalidWiring(t *testing.T) {
	t.Parallel()

	pix := payment.Instant{Channel: "pix"}
	standard := shipping.Percentage{Rate: decimal.RequireFromString("0.05")}
	items := []pricing.LineItem{item("cloak", "150")}

	cases := []struct {
		name  string
		build func() (order.Order, error)
	}{
		{"missing payment", func() (order.Order, error) { return order.New(items, nil, standard) }},
		{"missing shipping", func() (order.Order, error) { return order.New(items, pix, nil) }},
		{"nil modifier", func() (order.Order, error) { return order.New(items, pix, standard, nil) }},
		{"blank item name", func() (order.Order, error) {
			return order.New([]pricing.LineItem{item("", "1")}, pix, standard)
		}},
		{"whitespace item name", func() (order.Order, error) {
			return order.New([]pricing.LineItem{item("cloak", "1"), item(" \t", "1")}, pix, standard)
		}},
		{"negative item", func() (order.Order, error) {
			return order.New([]pricing.LineItem{item("refund", "-1")}, pix, standard)
		}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			o, err := tc.build()
			require.ErrorIs(t, err, common.ErrConfiguration)
			require.True(t, common.HasCode(err, common.CodeConfiguration))
			require.False(t, o.Valid())
		})
	}
}

func TestNewAcceptsEmptyOrder(t *testing.T) {
	t.Parallel()

	o, err := order.New(nil, payment.Instant{Channel: "pix"}, shipping.Flat{Fee: decimal.NewFromInt(50)})
	require.NoError(t, err)
	require.True(t, o.Valid())
	require.True(t, o.BaseCost().IsZero())
	require.Empty(t, o.Items())
	require.Empty(t, o.Modifiers())
}

func TestOrderIsNotAffectedByCallerMutation(t *testing.T) {
	t.Parallel()

	items := []pricing.LineItem{item("cloak", "150"), item("potion", "80")}
	mods := []pricing.Modifier{pricing.FlatSurcharge{Fee: decimal.NewFromInt(5)}}
	o, err := order.New(items, payment.Instant{Channel: "pix"}, shipping.Flat{}, mods...)
	require.NoError(t, err)

	items[0] = item("swapped", "1")
	mods[0] = pricing.PercentDiscount{Percent: decimal.NewFromInt(50)}

	require.Equal(t, "cloak", o.Items()[0].Name)
	require.IsType(t, pricing.FlatSurcharge{}, o.Modifiers()[0])

	got := o.Items()
	got[1] = item("mutated", "0")
	require.Equal(t, "potion", o.Items()[1].Name)
	require.True(t, decimal.NewFromInt(230).Equal(o.BaseCost()))
}

func TestOrdersDoNotShareModifiers(t *testing.T) {
	t.Parallel()

	first, err := order.New(nil, payment.Instant{}, shipping.Flat{})
	require.NoError(t, err)
	second, err := order.New(nil, payment.Instant{}, shipping.Flat{}, pricing.FlatSurcharge{Fee: decimal.NewFromInt(5)})
	require.NoError(t, err)

	require.Empty(t, first.Modifiers())
	require.Len(t, second.Modifiers(), 1)
	require.NotEqual(t, first.ID(), second.ID())
}
