package pgdb

import (
	"context"
	"errors"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/internal/repository/pgdb/converter"
	"github.com/softvape/shop-bot/pkg/e"
	"github.com/softvape/shop-bot/pkg/tr"
)

// ProductRepo реализует репозиторий каталога поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// GetAll возвращает весь каталог, упорядоченный по (категория, имя).
func (p *ProductRepo) GetAll(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, category, name, cost, quantity, image_path, description
		FROM products
		ORDER BY category, name
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	return p.scanProducts(rows)
}

// GetByCategory возвращает товары категории с положительным остатком.
func (p *ProductRepo) GetByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	query := `
		SELECT id, category, name, cost, quantity, image_path, description
		FROM products
		WHERE category = $1 AND quantity > 0
		ORDER BY name
	`

	rows, err := p.pool.Query(ctx, query, category)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	return p.scanProducts(rows)
}

// GetByName возвращает товар по точному имени; nil, если товара нет.
func (p *ProductRepo) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	query := `
		SELECT id, category, name, cost, quantity, image_path, description
		FROM products
		WHERE name = $1
	`

	var model converter.ProductModel
	err := p.pool.QueryRow(ctx, query, name).Scan(
		&model.ID, &model.Category, &model.Name, &model.Cost,
		&model.Quantity, &model.ImagePath, &model.Description,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// GetCategories возвращает категории, в которых есть товары в наличии.
func (p *ProductRepo) GetCategories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category
		FROM products
		WHERE quantity > 0
		ORDER BY category
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// DecrementStock условно уменьшает остаток товара.
// Возвращает false, если товара нет или остатка недостаточно.
func (p *ProductRepo) DecrementStock(ctx context.Context, name string, quantity int) (bool, error) {
	query := `
		UPDATE products
		SET quantity = quantity - $2
		WHERE name = $1 AND quantity >= $2
	`

	tag, err := p.pool.Exec(ctx, query, name, quantity)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected() > 0, nil
}

// ReplaceAll атомарно заменяет каталог: удаление старых записей и вставка
// новых выполняются в одной транзакции, частичной замены не бывает.
func (p *ProductRepo) ReplaceAll(ctx context.Context, products []domain.Product) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.pool)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = p.deleteAllTx(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	for i := range products {
		if err = p.insertTx(ctx, &products[i]); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteAll удаляет все товары и возвращает число удалённых записей.
func (p *ProductRepo) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM products`)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected(), nil
}

func (p *ProductRepo) deleteAllTx(ctx context.Context) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM products`); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (p *ProductRepo) insertTx(ctx context.Context, product *domain.Product) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (category, name, cost, quantity, image_path, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	model := p.conv.ToModel(product)
	_, err = tx.Exec(ctx, query,
		model.Category, model.Name, model.Cost,
		model.Quantity, model.ImagePath, model.Description,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (p *ProductRepo) scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	result := make([]domain.Product, 0)
	for rows.Next() {
		var model converter.ProductModel
		err := rows.Scan(
			&model.ID, &model.Category, &model.Name, &model.Cost,
			&model.Quantity, &model.ImagePath, &model.Description,
		)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *p.conv.ToEntity(&model))
	}

	return result, rows.Err()
}
