package service

import (
	"github.com/shopspring/decimal"
	"order-intake-service/internal/entity"
)

// Cart is the ordered list of line items of one customer session.
// Insertion order is display order. Adding a product twice keeps two
// separate lines.
type Cart struct {
	pricing *PricingEngine
	items   []entity.LineItem
}

func NewCart(pricing *PricingEngine) *Cart {
	return &Cart{pricing: pricing}
}

// RestoreCart rebuilds a cart from items persisted by a session store.
// Unit prices are kept as they were when the items were added.
func RestoreCart(pricing *PricingEngine, items []entity.LineItem) *Cart {
	c := NewCart(pricing)
	c.items = append(c.items, items...)
	return c
}

func (c *Cart) Add(product entity.Product, quantity int) (entity.LineItem, error) {
	if quantity < 1 {
		return entity.LineItem{}, ErrInvalidQuantity
	}

	unit := c.pricing.ResolvePrice(product, quantity)
	item := entity.LineItem{
		Product:     product.Name,
		Description: product.Description,
		Quantity:    quantity,
		UnitPrice:   unit,
		Subtotal:    Subtotal(unit, quantity),
	}
	c.items = append(c.items, item)
	return item, nil
}

// RemoveAt deletes the item at index; later items shift down by one.
func (c *Cart) RemoveAt(index int) error {
	if index < 0 || index >= len(c.items) {
		return ErrIndexOutOfRange
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) Len() int {
	return len(c.items)
}

// Items returns a copy of the line items.
func (c *Cart) Items() []entity.LineItem {
	out := make([]entity.LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Total() decimal.Decimal {
	return SumSubtotals(c.items)
}

func Subtotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

func SumSubtotals(items []entity.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total
}
