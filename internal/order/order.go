package order

import (
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/payment"
	"github.com/noah-isme/checkout-engine/internal/pricing"
	"github.com/noah-isme/checkout-engine/internal/shipping"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Order is a checkout request. It is immutable once built by New.
type Order struct {
	id        uuid.UUID
	items     []pricing.LineItem
	payment   payment.Authorizer
	shipping  shipping.Calculator
	modifiers []pricing.Modifier
}

// New validates the wiring and builds an order. Invalid input yields a
// configuration error (common.ErrConfiguration).
func New(items []pricing.LineItem, pay payment.Authorizer, ship shipping.Calculator, modifiers ...pricing.Modifier) (Order, error) {
	if pay == nil {
		return Order{}, common.NewConfigurationError("payment method is required")
	}
	if ship == nil {
		return Order{}, common.NewConfigurationError("shipping method is required")
	}
	for i, it := range items {
		if err := validate.Struct(it); err != nil || strings.TrimSpace(it.Name) == "" {
			return Order{}, common.NewConfigurationError(fmt.Sprintf("item %d: name is required", i))
		}
		if it.Value.IsNegative() {
			return Order{}, common.NewConfigurationError(fmt.Sprintf("item %q: value must not be negative", it.Name))
		}
	}
	mods := make([]pricing.Modifier, 0, len(modifiers))
	for i, m := range modifiers {
		if m == nil {
			return Order{}, common.NewConfigurationError(fmt.Sprintf("modifier %d is nil", i))
		}
		mods = append(mods, m)
	}
	return Order{
		id:        uuid.New(),
		items:     append([]pricing.LineItem(nil), items...),
		payment:   pay,
		shipping:  ship,
		modifiers: mods,
	}, nil
}

// ID returns the order identifier assigned at construction.
func (o Order) ID() uuid.UUID { return o.id }

// Items returns a copy of the line items in declared order.
func (o Order) Items() []pricing.LineItem {
	return append([]pricing.LineItem(nil), o.items...)
}

// Modifiers returns a copy of the modifiers in declared order.
func (o Order) Modifiers() []pricing.Modifier {
	return append([]pricing.Modifier(nil), o.modifiers...)
}

func (o Order) Payment() payment.Authorizer   { return o.payment }
func (o Order) Shipping() shipping.Calculator { return o.shipping }

// BaseCost is the sum of item values.
func (o Order) BaseCost() pricing.Money { return pricing.BaseCost(o.items) }

// Valid reports whether the order was built through New.
func (o Order) Valid() bool {
	return o.payment != nil && o.shipping != nil
}
