package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
)

type fakeTx struct {
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	tx   *fakeTx
	opts *sql.TxOptions
}

func (d *fakeDB) BeginTx(_ context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error) {
	d.opts = opts
	return d.tx, nil
}

func TestDoSerializable_CommitSerializationFailure(t *testing.T) {
	db := &fakeDB{tx: &fakeTx{commitErr: &pq.Error{Code: "40001", Message: "could not serialize access"}}}
	m := NewTransactionManager(db)

	err := m.DoSerializable(context.Background(), func(ctx context.Context) error {
		assert.True(t, dbmetrics.IsInTransaction(ctx))
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSerialization)
	assert.NotErrorIs(t, err, ErrTransaction)
	assert.Equal(t, sql.LevelSerializable, db.opts.Isolation)

	var pqErr *pq.Error
	require.True(t, errors.As(err, &pqErr))
	assert.Equal(t, pq.ErrorCode("40001"), pqErr.Code)
}

func TestDo_CommitFailureKeepsDriverError(t *testing.T) {
	driverErr := &pq.Error{Code: "08006", Message: "connection failure"}
	m := NewTransactionManager(&fakeDB{tx: &fakeTx{commitErr: driverErr}})

	err := m.Do(context.Background(), func(context.Context) error { return nil })

	assert.ErrorIs(t, err, ErrTransaction)
	assert.NotErrorIs(t, err, ErrSerialization)
	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
}

func TestDo_RollsBackOnError(t *testing.T) {
	tx := &fakeTx{}
	m := NewTransactionManager(&fakeDB{tx: tx})
	fnErr := errors.New("boom")

	err := m.Do(context.Background(), func(context.Context) error { return fnErr })

	assert.ErrorIs(t, err, fnErr)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestDo_NestedReusesOuterTransaction(t *testing.T) {
	db := &fakeDB{tx: &fakeTx{}}
	m := NewTransactionManager(db)

	err := m.Do(context.Background(), func(ctx context.Context) error {
		outer, _ := dbmetrics.TxFromContext(ctx)
		return m.DoSerializable(ctx, func(inner context.Context) error {
			tx, _ := dbmetrics.TxFromContext(inner)
			assert.Same(t, outer, tx)
			return nil
		})
	})

	require.NoError(t, err)
	assert.True(t, db.tx.committed)
	assert.Equal(t, sql.IsolationLevel(0), db.opts.Isolation)
}
