package repository

import (
	"context"
	"database/sql"
	"errors"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-intake-service/internal/sharding"
	"regexp"
	"testing"
	"time"
)

func mockShards(t *testing.T, n int) ([]*sql.DB, []sqlmock.Sqlmock) {
	t.Helper()
	dbs := make([]*sql.DB, n)
	mocks := make([]sqlmock.Sqlmock, n)
	for i := range dbs {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		dbs[i], mocks[i] = db, mock
	}
	return dbs, mocks
}

const insertOrderLog = `INSERT INTO order_log (order_id, fecha, nombre, cedula, telefono, correo, comentario, total) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func TestMySQLOrderLog_Append(t *testing.T) {
	dbs, mocks := mockShards(t, 2)
	router := sharding.NewShardRouter(2)
	log := NewMySQLOrderLog(dbs, router)

	order := sampleOrder("Juan Pérez", "1102223344", "18.00")
	order.Customer.Comentario = "Entregar en la tarde"
	shard := router.GetShard("1102223344")

	mocks[shard].ExpectExec(regexp.QuoteMeta(insertOrderLog)).
		WithArgs(order.ID, order.SubmittedAt, "Juan Pérez", "1102223344", "0991234567", "cliente@example.com", "Entregar en la tarde", "18").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, log.Append(context.Background(), order))

	for _, mock := range mocks {
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestMySQLOrderLog_AppendFailure(t *testing.T) {
	dbs, mocks := mockShards(t, 1)
	log := NewMySQLOrderLog(dbs, sharding.NewShardRouter(1))

	mocks[0].ExpectExec(regexp.QuoteMeta(insertOrderLog)).WillReturnError(errors.New("table is read only"))

	err := log.Append(context.Background(), sampleOrder("Juan Pérez", "1102223344", "18.00"))
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "insert", perr.Op)
}

func TestMySQLOrderLog_EntriesByCedula(t *testing.T) {
	dbs, mocks := mockShards(t, 3)
	router := sharding.NewShardRouter(3)
	log := NewMySQLOrderLog(dbs, router)

	fecha := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"fecha", "nombre", "cedula", "telefono", "correo", "comentario", "total"}).
		AddRow(fecha, "Juan Pérez", "1102223344", "0991234567", "cliente@example.com", "", "18.00").
		AddRow(nil, "Juan Pérez", "1102223344", "0991234567", "cliente@example.com", "otra vez", "9.50")
	mocks[router.GetShard("1102223344")].ExpectQuery(regexp.QuoteMeta(`SELECT fecha, nombre, cedula, telefono, correo, comentario, total FROM order_log WHERE cedula = ?`)).
		WithArgs("1102223344").
		WillReturnRows(rows)

	entries, err := log.EntriesByCedula(context.Background(), "1102223344")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-03-14 10:30:00", entries[0].Fecha)
	assert.Equal(t, "9.5", entries[1].Total.String())
	assert.Empty(t, entries[1].Fecha)

	for _, mock := range mocks {
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}
