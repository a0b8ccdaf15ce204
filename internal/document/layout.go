package document

import (
	"fmt"
	"github.com/shopspring/decimal"
	"order-intake-service/internal/entity"
)

const (
	productNameWidth = 30
	descriptionWidth = 40
	totalLabel       = "TOTAL"
)

// Column is one column of the line-item table.
type Column struct {
	Title string
	Width float64
	value func(entity.LineItem) string
}

// Layout is the column set of the line-item table.
type Layout struct {
	Name    string
	Columns []Column
}

// PricedLayout shows the unit price applied to each line.
var PricedLayout = Layout{
	Name: "priced",
	Columns: []Column{
		{Title: "Producto", Width: 60, value: func(i entity.LineItem) string { return truncate(i.Product, productNameWidth) }},
		{Title: "Cant", Width: 30, value: func(i entity.LineItem) string { return fmt.Sprint(i.Quantity) }},
		{Title: "Precio", Width: 40, value: func(i entity.LineItem) string { return FormatMoney(i.UnitPrice) }},
		{Title: "Subtotal", Width: 40, value: func(i entity.LineItem) string { return FormatMoney(i.Subtotal) }},
	},
}

// DescribedLayout replaces the unit price with the product description.
var DescribedLayout = Layout{
	Name: "described",
	Columns: []Column{
		{Title: "Producto", Width: 40, value: func(i entity.LineItem) string { return truncate(i.Product, productNameWidth) }},
		{Title: "Descripción", Width: 80, value: func(i entity.LineItem) string { return truncate(i.Description, descriptionWidth) }},
		{Title: "Cantidad", Width: 30, value: func(i entity.LineItem) string { return fmt.Sprint(i.Quantity) }},
		{Title: "Subtotal", Width: 40, value: func(i entity.LineItem) string { return FormatMoney(i.Subtotal) }},
	},
}

func ParseLayout(name string) (Layout, error) {
	switch name {
	case "", PricedLayout.Name:
		return PricedLayout, nil
	case DescribedLayout.Name:
		return DescribedLayout, nil
	}
	return Layout{}, fmt.Errorf("unknown document layout %q", name)
}

// FooterWidth is the span of the TOTAL label: every column but the last.
func (l Layout) FooterWidth() float64 {
	var w float64
	for _, c := range l.Columns[:len(l.Columns)-1] {
		w += c.Width
	}
	return w
}

// Table is the cell grid of the line-item table.
type Table struct {
	Header []string
	Rows   [][]string
	Footer [2]string
}

func (l Layout) Table(order *entity.Order) Table {
	t := Table{Header: make([]string, len(l.Columns))}
	for i, c := range l.Columns {
		t.Header[i] = c.Title
	}
	for _, item := range order.Items {
		row := make([]string, len(l.Columns))
		for i, c := range l.Columns {
			row[i] = c.value(item)
		}
		t.Rows = append(t.Rows, row)
	}
	t.Footer = [2]string{totalLabel, FormatMoney(order.Total)}
	return t
}

func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
