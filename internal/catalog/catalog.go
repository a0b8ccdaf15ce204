package catalog

import (
	"fmt"
	"order-intake-service/internal/entity"
	"sort"
	"strings"
)

// LoadError is returned when the catalog cannot be loaded. No orders can
// be taken without a catalog.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Catalog is an immutable product table keyed by product name.
type Catalog struct {
	products []entity.Product
	byName   map[string]int
}

func New(products []entity.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]entity.Product, 0, len(products)),
		byName:   make(map[string]int, len(products)),
	}
	for _, p := range products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("product without name")
		}
		if _, ok := c.byName[name]; ok {
			return nil, fmt.Errorf("duplicate product %q", name)
		}
		if p.Prices.Base.IsNegative() {
			return nil, fmt.Errorf("product %q has a negative price", name)
		}
		p.Name = name
		if p.Category == "" {
			p.Category = defaultCategory(name)
		}
		c.byName[name] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

func (c *Catalog) Get(name string) (entity.Product, bool) {
	i, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return entity.Product{}, false
	}
	return c.products[i], true
}

// Products returns all products in load order.
func (c *Catalog) Products() []entity.Product {
	out := make([]entity.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) ByCategory(category string) []entity.Product {
	var out []entity.Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// defaultCategory groups products without an explicit category by the
// first word of their name.
func defaultCategory(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
