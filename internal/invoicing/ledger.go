package invoicing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/order"
	"github.com/noah-isme/checkout-engine/internal/pricing"
)

// ErrAlreadyInvoiced is the cause attached when an order is invoiced twice.
var ErrAlreadyInvoiced = errors.New("order already invoiced")

// Invoice is the document recorded for a settled order.
type Invoice struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	Lines    []pricing.LineItem
	BaseCost pricing.Money
	IssuedAt time.Time
}

// Ledger keeps issued invoices in memory. It is safe for concurrent use.
type Ledger struct {
	Now func() time.Time

	mu       sync.Mutex
	invoices []Invoice
	byOrder  map[uuid.UUID]int
}

// Generate issues an invoice for o. A second invoice for the same order
// fails with a common.CodeInvoiceFailed error.
func (l *Ledger) Generate(ctx context.Context, o order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !o.Valid() {
		return common.NewInvoiceError(o.ID().String(), errors.New("order was not built with order.New"))
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.byOrder == nil {
		l.byOrder = make(map[uuid.UUID]int)
	}
	if _, ok := l.byOrder[o.ID()]; ok {
		return common.NewInvoiceError(o.ID().String(), ErrAlreadyInvoiced)
	}
	l.byOrder[o.ID()] = len(l.invoices)
	l.invoices = append(l.invoices, Invoice{
		ID:       uuid.New(),
		OrderID:  o.ID(),
		Lines:    o.Items(),
		BaseCost: o.BaseCost(),
		IssuedAt: now().UTC(),
	})
	return nil
}

// Invoices returns a snapshot of issued invoices.
func (l *Ledger) Invoices() []Invoice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Invoice(nil), l.invoices...)
}

// ForOrder returns the invoice issued for orderID, if any.
func (l *Ledger) ForOrder(orderID uuid.UUID) (Invoice, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx, ok := l.byOrder[orderID]
	if !ok {
		return Invoice{}, false
	}
	return l.invoices[idx], true
}
