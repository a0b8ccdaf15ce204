package catalog

import (
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"order-intake-service/internal/entity"
	"strings"
	"unicode"
)

// Schema names the column set of a catalog spreadsheet.
type Schema string

const (
	// SchemaTiered has PrecioBase, PrecioX3, PrecioX6 and PrecioX12 columns.
	SchemaTiered Schema = "tiered"
	// SchemaFlat has a single Precio column.
	SchemaFlat Schema = "flat"
)

func ParseSchema(s string) (Schema, error) {
	switch Schema(s) {
	case SchemaTiered, SchemaFlat:
		return Schema(s), nil
	case "":
		return SchemaTiered, nil
	}
	return "", fmt.Errorf("unknown catalog schema %q", s)
}

const (
	colProduct     = "producto"
	colCategory    = "categoria"
	colDescription = "descripcion"
	colImage       = "imagen"
	colPrice       = "precio"
	colPriceBase   = "preciobase"
	colPriceX3     = "preciox3"
	colPriceX6     = "preciox6"
	colPriceX12    = "preciox12"
)

func normalizeHeader(h string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), strings.TrimSpace(h))
	if err != nil {
		folded = strings.TrimSpace(h)
	}
	return strings.ToLower(strings.ReplaceAll(folded, " ", ""))
}

// LoadXLSX reads the first sheet of the spreadsheet at path.
func LoadXLSX(path string, schema Schema) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}

	products, err := ParseRows(rows, schema)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}

	c, err := New(products)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	return c, nil
}

// ParseRows turns a header row plus data rows into products. Blank rows
// are skipped.
func ParseRows(rows [][]string, schema Schema) ([]entity.Product, error) {
	if len(rows) == 0 {
		return nil, errors.New("catalog sheet is empty")
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		index[normalizeHeader(h)] = i
	}

	required := []string{colProduct, colDescription}
	switch schema {
	case SchemaFlat:
		required = append(required, colPrice)
	default:
		required = append(required, colPriceBase, colPriceX3, colPriceX6, colPriceX12)
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var products []entity.Product
	for n, row := range rows[1:] {
		line := n + 2
		name := cell(row, colProduct)
		if name == "" {
			continue
		}

		p := entity.Product{
			Name:        name,
			Category:    cell(row, colCategory),
			Description: cell(row, colDescription),
			Image:       cell(row, colImage),
		}

		var err error
		if schema == SchemaFlat {
			p.Prices.Base, err = parseMoney(cell(row, colPrice))
			if err != nil {
				return nil, fmt.Errorf("row %d: Precio: %w", line, err)
			}
		} else {
			p.Prices.Base, err = parseMoney(cell(row, colPriceBase))
			if err != nil {
				return nil, fmt.Errorf("row %d: PrecioBase: %w", line, err)
			}
			tiers := []struct {
				col string
				dst *decimal.NullDecimal
			}{
				{colPriceX3, &p.Prices.Tier3},
				{colPriceX6, &p.Prices.Tier6},
				{colPriceX12, &p.Prices.Tier12},
			}
			for _, t := range tiers {
				raw := cell(row, t.col)
				if raw == "" {
					continue
				}
				v, err := parseMoney(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d: %s: %w", line, t.col, err)
				}
				*t.dst = decimal.NewNullDecimal(v)
			}
		}
		products = append(products, p)
	}
	return products, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, errors.New("empty price")
	}
	return decimal.NewFromString(s)
}
