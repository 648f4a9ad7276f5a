package testfixtures

import (
	"context"
	"database/sql"
	"errors"

	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
)

// FailingCommitDB источник транзакций, чьи транзакции падают при фиксации с заданной ошибкой.
// Запросы внутри транзакции не поддерживаются: тест должен работать с хранилищем в памяти.
type FailingCommitDB struct {
	CommitErr error
}

func (d *FailingCommitDB) BeginTx(context.Context, *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	return &failingCommitTx{commitErr: d.CommitErr}, nil
}

type failingCommitTx struct {
	commitErr error
}

var errNoQueries = errors.New("testfixtures: queries are not supported")

func (t *failingCommitTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoQueries
}

func (t *failingCommitTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoQueries
}

func (t *failingCommitTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (t *failingCommitTx) Commit() error   { return t.commitErr }
func (t *failingCommitTx) Rollback() error { return nil }
