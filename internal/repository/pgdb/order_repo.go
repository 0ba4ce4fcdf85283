package pgdb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/internal/repository/pgdb/converter"
	"github.com/softvape/shop-bot/pkg/e"
)

// OrderRepo реализует журнал заказов поверх PostgreSQL.
// Записи не удаляются; после создания меняется только статус.
type OrderRepo struct {
	pool *pgxpool.Pool
	conv converter.OrderConverter
}

func NewOrderRepo(pool *pgxpool.Pool, conv converter.OrderConverter) *OrderRepo {
	return &OrderRepo{
		pool: pool,
		conv: conv,
	}
}

// Create сохраняет заказ и возвращает присвоенный идентификатор.
// Выполняется в транзакции из контекста, если она открыта: заказ и событие
// о его создании фиксируются вместе.
func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (int64, error) {
	model, err := o.conv.ToModel(order)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO orders (user_id, user_name, order_data, total_price, location, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err = executorFromCtx(ctx, o.pool).QueryRow(ctx, query,
		model.UserID, model.UserName, model.OrderData,
		model.TotalPrice, model.Location, model.Comment, model.Status,
	).Scan(&id)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return id, nil
}

// GetAll возвращает заказы от новых к старым.
// Пустой статус означает выборку без фильтра.
func (o *OrderRepo) GetAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	query := `
		SELECT id, user_id, user_name, order_data, total_price, location, comment, status, created_at
		FROM orders
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC
	`

	rows, err := o.pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Order, 0)
	for rows.Next() {
		var model converter.OrderModel
		err := rows.Scan(
			&model.ID, &model.UserID, &model.UserName, &model.OrderData,
			&model.TotalPrice, &model.Location, &model.Comment, &model.Status, &model.CreatedAt,
		)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		order, err := o.conv.ToEntity(&model)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *order)
	}

	return result, rows.Err()
}

// GetByID возвращает заказ по идентификатору; nil, если заказа нет.
func (o *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, user_id, user_name, order_data, total_price, location, comment, status, created_at
		FROM orders
		WHERE id = $1
	`

	var model converter.OrderModel
	err := o.pool.QueryRow(ctx, query, id).Scan(
		&model.ID, &model.UserID, &model.UserName, &model.OrderData,
		&model.TotalPrice, &model.Location, &model.Comment, &model.Status, &model.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(&model)
}

// UpdateStatus записывает новый статус заказа.
// Возвращает false, если заказ не найден и статус не записан.
// Выполняется в транзакции из контекста, если она открыта.
func (o *OrderRepo) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (bool, error) {
	tag, err := executorFromCtx(ctx, o.pool).Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected() > 0, nil
}
