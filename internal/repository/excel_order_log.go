package repository

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"order-intake-service/internal/entity"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// ExcelOrderLog keeps the order log in an xlsx workbook. Every append reads
// the workbook, adds a row and writes the whole file back through a temp
// file and rename. Appends are serialized inside the process; separate
// processes sharing one file still race on the rewrite.
type ExcelOrderLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewExcelOrderLog(path string) *ExcelOrderLog {
	return &ExcelOrderLog{path: path, now: time.Now}
}

func (l *ExcelOrderLog) Path() string {
	return l.path
}

func (l *ExcelOrderLog) Append(ctx context.Context, order *entity.Order) error {
	if err := ctx.Err(); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, sheet, rows, err := l.open()
	if err != nil {
		return &PersistenceError{Op: "open", Err: err}
	}
	defer f.Close()

	e := order.LogEntry()
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	row := []interface{}{e.Fecha, e.Nombre, e.Cedula, e.Telefono, e.Correo, e.Comentario, e.Total.Round(2).InexactFloat64()}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}

	if err := l.replace(f); err != nil {
		return &PersistenceError{Op: "write", Err: err}
	}

	logger.Info().Str("order_id", order.ID).Str("cedula", e.Cedula).Msgf("Order appended to %s", l.path)
	return nil
}

// Entries reads back every logged row.
func (l *ExcelOrderLog) Entries() ([]entity.OrderLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}

	var entries []entity.OrderLogEntry
	for i, row := range rows {
		if i == 0 {
			continue
		}
		padded := make([]string, len(OrderLogColumns))
		copy(padded, row)
		total, err := decimal.NewFromString(padded[6])
		if err != nil {
			return nil, &PersistenceError{Op: "read", Err: fmt.Errorf("row %d: total: %w", i+1, err)}
		}
		entries = append(entries, entity.OrderLogEntry{
			Fecha:      padded[0],
			Nombre:     padded[1],
			Cedula:     padded[2],
			Telefono:   padded[3],
			Correo:     padded[4],
			Comentario: padded[5],
			Total:      total,
		})
	}
	return entries, nil
}

// EntriesByCedula returns the logged orders of one customer, oldest first.
// A log that was never written holds no orders.
func (l *ExcelOrderLog) EntriesByCedula(ctx context.Context, cedula string) ([]entity.OrderLogEntry, error) {
	if !exists(l.path) {
		return nil, nil
	}
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}

	var out []entity.OrderLogEntry
	for _, e := range entries {
		if e.Cedula == cedula {
			out = append(out, e)
		}
	}
	return out, nil
}

// open returns the existing workbook, or a new one with the header row
// when the file is absent. A workbook that cannot be read or carries a
// different header is moved aside rather than overwritten.
func (l *ExcelOrderLog) open() (*excelize.File, string, [][]string, error) {
	_, err := os.Stat(l.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return newOrderLogFile()
	case err != nil:
		return nil, "", nil, err
	}

	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return l.quarantine(err)
	}

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		f.Close()
		return l.quarantine(err)
	}
	if len(rows) == 0 {
		f.Close()
		return newOrderLogFile()
	}
	if !sameHeader(rows[0]) {
		f.Close()
		return l.quarantine(fmt.Errorf("unexpected header %v", rows[0]))
	}
	return f, sheet, rows, nil
}

func (l *ExcelOrderLog) quarantine(cause error) (*excelize.File, string, [][]string, error) {
	stamp := l.now().UnixNano()
	aside := fmt.Sprintf("%s.corrupt-%d", l.path, stamp)
	for i := 1; exists(aside); i++ {
		aside = fmt.Sprintf("%s.corrupt-%d-%d", l.path, stamp, i)
	}
	if err := os.Rename(l.path, aside); err != nil {
		return nil, "", nil, fmt.Errorf("order log unreadable (%v) and could not be moved aside: %w", cause, err)
	}
	logger.Error().Err(cause).Msgf("Order log %s unreadable, moved to %s", l.path, aside)
	return newOrderLogFile()
}

func (l *ExcelOrderLog) replace(f *excelize.File) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".order-log-*.xlsx")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := f.SaveAs(tmpName); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func newOrderLogFile() (*excelize.File, string, [][]string, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(OrderLogColumns))
	for i, c := range OrderLogColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, "", nil, err
	}
	return f, sheet, [][]string{OrderLogColumns}, nil
}

func sameHeader(row []string) bool {
	if len(row) < len(OrderLogColumns) {
		return false
	}
	for i, c := range OrderLogColumns {
		if row[i] != c {
			return false
		}
	}
	return true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
