// Package registry maps the option names a caller picks at checkout (payment
// method, shipping method, price modifiers) to configured strategies.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/config"
	"github.com/noah-isme/checkout-engine/internal/order"
	"github.com/noah-isme/checkout-engine/internal/payment"
	"github.com/noah-isme/checkout-engine/internal/pricing"
	"github.com/noah-isme/checkout-engine/internal/shipping"
)

// Option names understood by FromConfig.
const (
	ModifierPixDiscount = "pix_discount"
	ModifierGiftWrap    = "gift_wrap"
	ModifierLargeOrder  = "large_order"

	ShippingStandard = "standard"
	ShippingExpress  = "express"
	ShippingTeleport = "teleport"

	PaymentPix    = "pix"
	PaymentCredit = "credit"
	PaymentMana   = "mana"
)

// Selection names the options chosen for one order. Modifiers apply in the listed order.
type Selection struct {
	Payment   string
	Shipping  string
	Modifiers []string
}

// Registry holds named strategies. Strategies are stateless values, so one
// registry serves any number of orders.
type Registry struct {
	modifiers map[string]pricing.Modifier
	shipping  map[string]shipping.Calculator
	payments  map[string]payment.Authorizer
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		modifiers: map[string]pricing.Modifier{},
		shipping:  map[string]shipping.Calculator{},
		payments:  map[string]payment.Authorizer{},
	}
}

// FromConfig registers the standard options with amounts taken from cfg.
func FromConfig(cfg *config.Config) *Registry {
	r := New()
	r.RegisterModifier(ModifierPixDiscount, pricing.PercentDiscount{Label: "PIX discount", Percent: cfg.PixDiscountPercent})
	r.RegisterModifier(ModifierGiftWrap, pricing.FlatSurcharge{Label: "gift wrap", Fee: cfg.GiftWrapFee})
	r.RegisterModifier(ModifierLargeOrder, pricing.ThresholdDiscount{Label: "large order discount", Threshold: cfg.LargeOrderThreshold, Percent: cfg.LargeOrderPercent})

	r.RegisterShipping(ShippingStandard, shipping.Percentage{Label: "standard shipping", Rate: cfg.StandardShippingRate})
	r.RegisterShipping(ShippingExpress, shipping.PercentagePlusFee{Label: "express shipping", Rate: cfg.ExpressShippingRate, Fee: cfg.ExpressShippingFee})
	r.RegisterShipping(ShippingTeleport, shipping.Flat{Label: "teleport shipping", Fee: cfg.TeleportShippingFee})

	r.RegisterPayment(PaymentPix, payment.Instant{Channel: "pix"})
	r.RegisterPayment(PaymentCredit, payment.Limited{Channel: "credit", Limit: cfg.CreditLimit})
	r.RegisterPayment(PaymentMana, payment.Instant{Channel: "mana", SettleNote: cfg.ManaSettleNote})
	return r
}

// RegisterModifier makes m selectable as name. Names are case-insensitive.
func (r *Registry) RegisterModifier(name string, m pricing.Modifier) {
	r.modifiers[key(name)] = m
}

func (r *Registry) RegisterShipping(name string, c shipping.Calculator) {
	r.shipping[key(name)] = c
}

func (r *Registry) RegisterPayment(name string, a payment.Authorizer) {
	r.payments[key(name)] = a
}

// NewOrder resolves sel and builds an order. Unknown names are configuration errors.
func (r *Registry) NewOrder(items []pricing.LineItem, sel Selection) (order.Order, error) {
	pay, ok := r.payments[key(sel.Payment)]
	if !ok {
		return order.Order{}, unknown("payment method", sel.Payment, r.PaymentMethods())
	}
	ship, ok := r.shipping[key(sel.Shipping)]
	if !ok {
		return order.Order{}, unknown("shipping method", sel.Shipping, r.ShippingMethods())
	}
	mods := make([]pricing.Modifier, 0, len(sel.Modifiers))
	for _, name := range sel.Modifiers {
		m, ok := r.modifiers[key(name)]
		if !ok {
			return order.Order{}, unknown("modifier", name, r.ModifierNames())
		}
		mods = append(mods, m)
	}
	return order.New(items, pay, ship, mods...)
}

func (r *Registry) PaymentMethods() []string  { return sortedKeys(r.payments) }
func (r *Registry) ShippingMethods() []string { return sortedKeys(r.shipping) }
func (r *Registry) ModifierNames() []string   { return sortedKeys(r.modifiers) }

func unknown(kind, name string, known []string) error {
	return common.NewConfigurationError(fmt.Sprintf("unknown %s %q (known: %s)", kind, name, strings.Join(known, ", ")))
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
