package tr

import (
	"context"

	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/jackc/pgx/v5"
)

type ctxKey struct{}

// TxKey — ключ, под которым транзакция кладётся в контекст.
var TxKey = ctxKey{}

// WithTx кладёт объект транзакции (pgx.Tx) в контекст.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

// TxFromCtx извлекает объект транзакции (pgx.Tx) из контекста.
func TxFromCtx(ctx context.Context) (pgx.Tx, error) {
	tx, ok := ctx.Value(TxKey).(pgx.Tx)
	if !ok {
		return nil, e.ErrTransactionNotFound
	}
	return tx, nil
}
