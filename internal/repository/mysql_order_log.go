package repository

import (
	"context"
	"database/sql"
	"order-intake-service/internal/entity"
	"order-intake-service/internal/sharding"
)

// MySQLOrderLog appends order summaries to the order_log table. With
// several databases configured, rows are spread by cédula.
type MySQLOrderLog struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewMySQLOrderLog(dbShards []*sql.DB, router *sharding.ShardRouter) *MySQLOrderLog {
	return &MySQLOrderLog{dbShards, router}
}

func (r *MySQLOrderLog) Append(ctx context.Context, order *entity.Order) error {
	e := order.LogEntry()
	db := r.dbShards[r.router.GetShard(e.Cedula)]

	query := `INSERT INTO order_log (order_id, fecha, nombre, cedula, telefono, correo, comentario, total) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, order.ID, order.SubmittedAt, e.Nombre, e.Cedula, e.Telefono, e.Correo, e.Comentario, e.Total.Round(2))
	if err != nil {
		logger.Error().Err(err).Msgf("Error appending order %s", order.ID)
		return &PersistenceError{Op: "insert", Err: err}
	}

	return nil
}

// EntriesByCedula returns the logged orders of one customer, oldest first.
func (r *MySQLOrderLog) EntriesByCedula(ctx context.Context, cedula string) ([]entity.OrderLogEntry, error) {
	db := r.dbShards[r.router.GetShard(cedula)]

	query := `SELECT fecha, nombre, cedula, telefono, correo, comentario, total FROM order_log WHERE cedula = ? ORDER BY id`
	rows, err := db.QueryContext(ctx, query, cedula)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	defer rows.Close()

	var entries []entity.OrderLogEntry
	for rows.Next() {
		var e entity.OrderLogEntry
		var fecha sql.NullTime
		if err := rows.Scan(&fecha, &e.Nombre, &e.Cedula, &e.Telefono, &e.Correo, &e.Comentario, &e.Total); err != nil {
			return nil, &PersistenceError{Op: "read", Err: err}
		}
		if fecha.Valid {
			e.Fecha = fecha.Time.Format(entity.TimestampLayout)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
