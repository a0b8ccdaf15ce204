package catalog

import (
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-intake-service/internal/entity"
	"testing"
)

func product(name, category string) entity.Product {
	return entity.Product{Name: name, Category: category, Prices: entity.Prices{Base: decimal.NewFromInt(1)}}
}

func TestNew_IndexesByName(t *testing.T) {
	c, err := New([]entity.Product{
		product("Filtro de aceite", "Filtros"),
		product(" Tapete de caucho ", "Accesorios"),
	})
	require.NoError(t, err)

	p, ok := c.Get("Tapete de caucho")
	require.True(t, ok)
	assert.Equal(t, "Accesorios", p.Category)

	_, ok = c.Get("Bujía")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New([]entity.Product{product("Filtro", "A"), product("Filtro", "B")})
	assert.Error(t, err)
}

func TestNew_RejectsNamelessProducts(t *testing.T) {
	_, err := New([]entity.Product{product("  ", "A")})
	assert.Error(t, err)
}

func TestCatalog_Categories(t *testing.T) {
	c, err := New([]entity.Product{
		product("Filtro de aceite", "Filtros"),
		product("Tapete de caucho", "Accesorios"),
		product("Filtro de aire", "Filtros"),
		product("Moldura cromada", ""),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Accesorios", "Filtros", "Moldura"}, c.Categories())

	filtros := c.ByCategory("Filtros")
	require.Len(t, filtros, 2)
	assert.Equal(t, "Filtro de aceite", filtros[0].Name)
	assert.Equal(t, "Filtro de aire", filtros[1].Name)
}

func TestCatalog_ProductsKeepsLoadOrder(t *testing.T) {
	c, err := New([]entity.Product{product("B", "x"), product("A", "x"), product("C", "x")})
	require.NoError(t, err)

	var names []string
	for _, p := range c.Products() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"B", "A", "C"}, names)
}
