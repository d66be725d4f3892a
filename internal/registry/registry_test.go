package registry_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/config"
	"github.com/noah-isme/checkout-engine/internal/payment"
	"github.com/noah-isme/checkout-engine/internal/pricing"
	"github.com/noah-isme/checkout-engine/internal/registry"
	"github.com/noah-isme/checkout-engine/internal/shipping"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadForTests(map[string]string{"CREDIT_LIMIT": "1000.00"})
	require.NoError(t, err)
	return cfg
}

func items(values ...int64) []pricing.LineItem {
	out := make([]pricing.LineItem, 0, len(values))
	for i, v := range values {
		out = append(out, pricing.LineItem{Name: string(rune('a' + i)), Value: decimal.NewFromInt(v)})
	}
	return out
}

func TestFromConfigResolvesSelection(t *testing.T) {
	reg := registry.FromConfig(testConfig(t))

	o, err := reg.NewOrder(items(150, 80), registry.Selection{
		Payment:   "PIX",
		Shipping:  " standard ",
		Modifiers: []string{registry.ModifierPixDiscount, registry.ModifierGiftWrap},
	})
	require.NoError(t, err)
	require.Equal(t, "pix", o.Payment().Method())
	require.IsType(t, shipping.Percentage{}, o.Shipping())

	mods := o.Modifiers()
	require.Len(t, mods, 2)
	require.Equal(t, "PIX discount", mods[0].Name())
	require.Equal(t, "gift wrap", mods[1].Name())
}

func TestPixDiscountIsNeverImpliedByPayment(t *testing.T) {
	reg := registry.FromConfig(testConfig(t))

	o, err := reg.NewOrder(items(100), registry.Selection{Payment: registry.PaymentPix, Shipping: registry.ShippingTeleport})
	require.NoError(t, err)
	require.Empty(t, o.Modifiers())
}

func TestCreditUsesConfiguredLimit(t *testing.T) {
	reg := registry.FromConfig(testConfig(t))
	o, err := reg.NewOrder(items(1), registry.Selection{Payment: registry.PaymentCredit, Shipping: registry.ShippingExpress})
	require.NoError(t, err)

	limited, ok := o.Payment().(payment.Limited)
	require.True(t, ok)
	require.Equal(t, "1000", limited.Limit.String())
}

func TestLargeOrderDiscountAppliesAboveThreshold(t *testing.T) {
	reg := registry.FromConfig(testConfig(t))
	o, err := reg.NewOrder(items(600), registry.Selection{
		Payment:   registry.PaymentCredit,
		Shipping:  registry.ShippingExpress,
		Modifiers: []string{registry.ModifierLargeOrder},
	})
	require.NoError(t, err)

	adjusted, _ := pricing.Chain(o.BaseCost(), o.Items(), o.Modifiers())
	require.Equal(t, "540", adjusted.String())
}

func TestUnknownNamesAreConfigurationErrors(t *testing.T) {
	reg := registry.FromConfig(testConfig(t))

	cases := []registry.Selection{
		{Payment: "bitcoin", Shipping: registry.ShippingStandard},
		{Payment: registry.PaymentPix, Shipping: "drone"},
		{Payment: registry.PaymentPix, Shipping: registry.ShippingStandard, Modifiers: []string{"coupon"}},
	}
	for _, sel := range cases {
		_, err := reg.NewOrder(items(1), sel)
		require.ErrorIs(t, err, common.ErrConfiguration)
	}
	_, err := reg.NewOrder(items(1), registry.Selection{Payment: "bitcoin"})
	require.ErrorContains(t, err, "known: credit, mana, pix")
}

func TestCustomRegistration(t *testing.T) {
	reg := registry.New()
	reg.RegisterPayment("voucher", payment.Instant{Channel: "voucher"})
	reg.RegisterShipping("pickup", shipping.Flat{Label: "pickup"})
	reg.RegisterModifier("vip", pricing.PercentDiscount{Percent: decimal.NewFromInt(20)})

	require.Equal(t, []string{"voucher"}, reg.PaymentMethods())
	require.Equal(t, []string{"pickup"}, reg.ShippingMethods())
	require.Equal(t, []string{"vip"}, reg.ModifierNames())

	o, err := reg.NewOrder(items(10), registry.Selection{Payment: "voucher", Shipping: "pickup", Modifiers: []string{"VIP"}})
	require.NoError(t, err)
	require.Len(t, o.Modifiers(), 1)
}
