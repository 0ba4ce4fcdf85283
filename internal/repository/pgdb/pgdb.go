package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/softvape/shop-bot/pkg/tr"
)

// executor — общий контракт пула и транзакции pgx. Через него выполняют
// запросы репозитории, участвующие в транзакциях уровня usecase.
type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// executorFromCtx возвращает транзакцию из контекста, если она открыта, иначе пул.
func executorFromCtx(ctx context.Context, pool *pgxpool.Pool) executor {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}
	return pool
}
