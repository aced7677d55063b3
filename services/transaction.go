package services

import (
	"context"

	"github.com/DianaTao/solace/repositories"
)

// WithTransaction executes fn inside a database transaction. The context
// handed to fn carries the transaction, so repository calls made with it
// join the same unit of work. Commits on success, rolls back on error or
// panic.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) error) error {
	_, err := WithTransactionResult(ctx, txMgr, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// WithTransactionResult is WithTransaction for functions that produce a value.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	err := txMgr.InTransaction(ctx, func(txCtx context.Context, tx repositories.Transaction) (err error) {
		defer func() {
			if p := recover(); p != nil {
				_ = tx.Rollback()
				panic(p)
			}
		}()

		result, err = fn(txCtx)
		return err
	})
	if err != nil {
		if GetErrorType(err) != "" {
			return result, err
		}
		return result, NewDomainError(ErrorTypeInternal, "transaction failed", err)
	}

	return result, nil
}
