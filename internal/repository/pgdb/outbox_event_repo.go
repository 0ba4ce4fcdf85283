package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"

	"github.com/softvape/shop-bot/internal/repository/pgdb/converter"
	"github.com/softvape/shop-bot/internal/usecase"
	"github.com/softvape/shop-bot/pkg/e"
	"github.com/softvape/shop-bot/pkg/tr"
)

// Канал NOTIFY, по которому вставка события будит фонового обработчика.
const OutboxChannel = "outbox_events"

// OutboxEventRepo хранит исходящие события заказов до их доставки в брокер.
type OutboxEventRepo struct {
	pool *pgxpool.Pool
	conv converter.OutboxEventConverter
}

func NewOutboxEventRepo(pool *pgxpool.Pool, conv converter.OutboxEventConverter) *OutboxEventRepo {
	return &OutboxEventRepo{
		pool: pool,
		conv: conv,
	}
}

// Create фиксирует событие в открытой транзакции из контекста: событие и
// породившее его изменение заказа либо записываются вместе, либо не
// записываются вовсе. Уведомление уходит подписчикам при коммите.
func (o *OutboxEventRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := o.conv.ToModel(event)
	query := `
		INSERT INTO outbox_events (event_id, event_type, order_id, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err = tx.QueryRow(ctx, query,
		model.EventID, model.EventType, model.OrderID,
		model.Payload, model.Status, model.CreatedAt,
	).Scan(&model.ID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := tx.Exec(ctx, "NOTIFY "+OutboxChannel); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing забирает пачку недоставленных событий и помечает их
// обрабатываемыми. FOR UPDATE SKIP LOCKED исключает выдачу одной записи двум
// обработчикам. Записи, зависшие в обработке дольше минуты (процесс упал
// посреди доставки), забираются повторно.
func (o *OutboxEventRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = now()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = $2
			   OR (status = $1 AND processing_started_at < now() - interval '1 minute')
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_id, event_type, order_id, payload, status, created_at, processed_at
	`

	rows, err := tx.Query(ctx, query, usecase.Processing, usecase.Pending, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []*converter.OutboxEventModel
	for rows.Next() {
		var model converter.OutboxEventModel
		err = rows.Scan(
			&model.ID, &model.EventID, &model.EventType, &model.OrderID,
			&model.Payload, &model.Status, &model.CreatedAt, &model.ProcessedAt,
		)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, &model)
	}
	if err = rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToArrEntity(models), nil
}

// MarkAsProcessed помечает событие доставленным. Нулевое число затронутых
// строк означает, что событие уже обработано после повторного забора — это
// не ошибка.
func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = now()
		WHERE id = $2 AND status = $3
	`

	if _, err := o.pool.Exec(ctx, query, usecase.Processed, id, usecase.Processing); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
