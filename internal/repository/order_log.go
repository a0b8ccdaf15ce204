package repository

import (
	"context"
	"fmt"
	"order-intake-service/internal/entity"
)

// OrderLogColumns is the header of the order log table.
var OrderLogColumns = []string{"Fecha", "Nombre", "Cédula", "Teléfono", "Correo", "Comentario", "Total"}

// OrderLog is the append-only summary store of submitted orders.
type OrderLog interface {
	Append(ctx context.Context, order *entity.Order) error
	EntriesByCedula(ctx context.Context, cedula string) ([]entity.OrderLogEntry, error)
}

// PersistenceError wraps a failed order log write. An order whose append
// failed must not be reported as submitted.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order log %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
