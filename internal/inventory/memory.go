package inventory

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/checkout-engine/internal/common"
	"github.com/noah-isme/checkout-engine/internal/pricing"
)

// ErrOutOfStock is the cause attached to inventory errors for unavailable items.
var ErrOutOfStock = errors.New("out of stock")

// Memory tracks unit stock per item name. Each line item consumes one unit.
// It is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	stock map[string]int
}

// NewMemory seeds an inventory with the given stock levels.
func NewMemory(stock map[string]int) *Memory {
	m := &Memory{stock: make(map[string]int, len(stock))}
	for name, qty := range stock {
		m.stock[name] = qty
	}
	return m
}

// Restock adds qty units of name.
func (m *Memory) Restock(name string, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stock == nil {
		m.stock = make(map[string]int)
	}
	m.stock[name] += qty
}

// Available returns the units on hand for name.
func (m *Memory) Available(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[name]
}

// Update removes one unit per item. Either every item is taken or none is;
// the first unavailable item is reported as a common.CodeInventoryUnavailable error.
func (m *Memory) Update(ctx context.Context, items []pricing.LineItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	need := make(map[string]int, len(items))
	for _, it := range items {
		need[it.Name]++
		if m.stock[it.Name] < need[it.Name] {
			return common.NewInventoryError(it.Name, ErrOutOfStock)
		}
	}
	for name, qty := range need {
		m.stock[name] -= qty
	}
	return nil
}
