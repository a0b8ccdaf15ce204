package repository

import (
	"context"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"order-intake-service/internal/entity"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func sampleOrder(nombre, cedula, total string) *entity.Order {
	return &entity.Order{
		ID: "order-" + cedula,
		Customer: entity.Customer{
			Nombre:     nombre,
			Cedula:     cedula,
			Telefono:   "0991234567",
			Correo:     "cliente@example.com",
			Comentario: "",
		},
		Items: []entity.LineItem{{
			Product:   "Filtro de aceite",
			Quantity:  4,
			UnitPrice: decimal.RequireFromString("4.50"),
			Subtotal:  decimal.RequireFromString(total),
		}},
		SubmittedAt: time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
		Total:       decimal.RequireFromString(total),
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	return rows
}

func TestExcelOrderLog_AppendCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedidos.xlsx")
	log := NewExcelOrderLog(path)

	require.NoError(t, log.Append(context.Background(), sampleOrder("Juan Pérez", "1102223344", "18.00")))

	rows := readRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, OrderLogColumns, rows[0])
	assert.Equal(t, "2025-03-14 10:30:00", rows[1][0])
	assert.Equal(t, "Juan Pérez", rows[1][1])
	assert.Equal(t, "1102223344", rows[1][2])
	assert.Equal(t, "18", rows[1][6])
}

func TestExcelOrderLog_AppendNeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedidos.xlsx")
	log := NewExcelOrderLog(path)
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, sampleOrder("Juan Pérez", "1102223344", "18.00")))
	require.NoError(t, log.Append(ctx, sampleOrder("Ana Torres", "1100000001", "12.50")))

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Juan Pérez", entries[0].Nombre)
	assert.Equal(t, "Ana Torres", entries[1].Nombre)
	assert.True(t, decimal.RequireFromString("12.5").Equal(entries[1].Total))
}

func TestExcelOrderLog_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pedidos.xlsx")
	log := NewExcelOrderLog(path)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, log.Append(ctx, sampleOrder("Cliente", "110000000", "1.00")))
		}()
	}
	wg.Wait()

	entries, err := log.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestExcelOrderLog_CorruptFileIsMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pedidos.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	log := NewExcelOrderLog(path)
	log.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, log.Append(context.Background(), sampleOrder("Juan Pérez", "1102223344", "18.00")))

	aside := path + ".corrupt-1700000000000000000"
	data, err := os.ReadFile(aside)
	require.NoError(t, err)
	assert.Equal(t, "not a workbook", string(data))

	rows := readRows(t, path)
	assert.Len(t, rows, 2)
}

func TestExcelOrderLog_ForeignHeaderIsMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pedidos.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]interface{}{"Producto", "Precio"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	log := NewExcelOrderLog(path)
	log.now = func() time.Time { return time.Unix(1700000000, 0) }
	require.NoError(t, log.Append(context.Background(), sampleOrder("Juan Pérez", "1102223344", "18.00")))

	assert.FileExists(t, path+".corrupt-1700000000000000000")
	rows := readRows(t, path)
	assert.Equal(t, OrderLogColumns, rows[0])
}

func TestExcelOrderLog_QuarantineKeepsEarlierCopies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pedidos.xlsx")
	log := NewExcelOrderLog(path)
	log.now = func() time.Time { return time.Unix(1700000000, 0) }

	for _, garbage := range []string{"first garbage", "second garbage"} {
		require.NoError(t, os.WriteFile(path, []byte(garbage), 0o644))
		require.NoError(t, log.Append(context.Background(), sampleOrder("Juan Pérez", "1102223344", "18.00")))
	}

	first, err := os.ReadFile(path + ".corrupt-1700000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "first garbage", string(first))

	second, err := os.ReadFile(path + ".corrupt-1700000000000000000-1")
	require.NoError(t, err)
	assert.Equal(t, "second garbage", string(second))
}

func TestExcelOrderLog_EntriesByCedula(t *testing.T) {
	ctx := context.Background()
	log := NewExcelOrderLog(filepath.Join(t.TempDir(), "pedidos.xlsx"))

	entries, err := log.EntriesByCedula(ctx, "1102223344")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, log.Append(ctx, sampleOrder("Juan Pérez", "1102223344", "18.00")))
	require.NoError(t, log.Append(ctx, sampleOrder("Ana Torres", "0705556677", "12.00")))
	require.NoError(t, log.Append(ctx, sampleOrder("Juan Pérez", "1102223344", "9.00")))

	entries, err = log.EntriesByCedula(ctx, "1102223344")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, decimal.RequireFromString("18.00").Equal(entries[0].Total))
	assert.True(t, decimal.RequireFromString("9.00").Equal(entries[1].Total))
}

func TestExcelOrderLog_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	log := NewExcelOrderLog(filepath.Join(blocker, "pedidos.xlsx"))
	err := log.Append(context.Background(), sampleOrder("Juan Pérez", "1102223344", "18.00"))

	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}
