package database

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoTransaction is returned when committing or rolling back a context without a transaction.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

// txState is the transaction carried by a context. Only the owner ends it.
type txState struct {
	tx    Transaction
	owner bool
}

func withTx(ctx context.Context, tx Transaction, owner bool) context.Context {
	return context.WithValue(ctx, txKey{}, txState{tx: tx, owner: owner})
}

func txFrom(ctx context.Context) (txState, bool) {
	state, ok := ctx.Value(txKey{}).(txState)
	return state, ok && state.tx != nil
}

// TxFromContext returns the transaction carried by ctx, or nil.
func TxFromContext(ctx context.Context) Transaction {
	state, _ := txFrom(ctx)
	return state.tx
}

// ExecutorFromContext returns the context's transaction when there is one, otherwise conn.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}

// InTx runs fn on the context's transaction, or on a new one that is committed
// when fn succeeds. Multi-statement writes use it to stay atomic on their own
// while still joining a caller's unit of work.
func InTx(ctx context.Context, conn Connection, fn func(Executor) error) error {
	if tx := TxFromContext(ctx); tx != nil {
		return fn(tx)
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// UnitOfWork carries a transaction through the context.
// Begin on a context that already holds one joins it, and only the outermost
// unit commits or rolls back.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work over conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin starts or joins a transaction.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if state, ok := txFrom(ctx); ok {
		return withTx(ctx, state.tx, false), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return withTx(ctx, tx, true), nil
}

// Commit commits the transaction if this unit started it.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	state, ok := txFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !state.owner {
		return nil
	}
	return state.tx.Commit(ctx)
}

// Rollback rolls back the transaction if this unit started it.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	state, ok := txFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !state.owner {
		return nil
	}
	return state.tx.Rollback(ctx)
}
