package service

import (
	"fmt"
	"github.com/shopspring/decimal"
	"order-intake-service/internal/entity"
)

type PricingScheme string

const (
	PricingTiered PricingScheme = "tiered"
	PricingFlat   PricingScheme = "flat"
)

func ParsePricingScheme(s string) (PricingScheme, error) {
	switch PricingScheme(s) {
	case PricingTiered, PricingFlat:
		return PricingScheme(s), nil
	case "":
		return PricingTiered, nil
	}
	return "", fmt.Errorf("unknown pricing scheme %q", s)
}

// PricingEngine resolves the unit price for a quantity of a product.
type PricingEngine struct {
	scheme PricingScheme
}

func NewPricingEngine(scheme PricingScheme) *PricingEngine {
	return &PricingEngine{scheme: scheme}
}

// ResolvePrice picks the unit price for quantity, checking the 12, 6 and 3
// unit breaks from the highest down. An undefined tier falls back to the
// next lower one, so flat-priced products resolve to Base everywhere.
func (e *PricingEngine) ResolvePrice(product entity.Product, quantity int) decimal.Decimal {
	p := product.Prices
	if e.scheme == PricingFlat {
		return p.Base
	}

	tiers := []struct {
		min   int
		price decimal.NullDecimal
	}{
		{12, p.Tier12},
		{6, p.Tier6},
		{3, p.Tier3},
	}
	for i, t := range tiers {
		if quantity < t.min {
			continue
		}
		for _, lower := range tiers[i:] {
			if lower.price.Valid {
				return lower.price.Decimal
			}
		}
		break
	}
	return p.Base
}
