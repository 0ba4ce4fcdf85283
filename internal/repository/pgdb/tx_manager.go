package pgdb

import (
	"context"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"

	"github.com/softvape/shop-bot/pkg/e"
)

// TxManager открывает транзакции PostgreSQL для сценариев usecase-уровня.
// Открытая транзакция кладётся в контекст, откуда её забирают репозитории.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTransaction выполняет fn в одной транзакции: ошибка fn откатывает
// все сделанные внутри записи.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, m.pool)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = fn(ctx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
