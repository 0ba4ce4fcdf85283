package pgdb

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/internal/repository/pgdb/converter"
)

// testPool подключается к базе из TEST_DB_DSN (URL вида postgres://...),
// применяет миграции и очищает таблицы. Без переменной тесты пропускаются.
func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	m, err := migrate.New("file://../../../db/migrations", dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("apply migrations: %v", err)
	}
	m.Close()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `TRUNCATE products, orders, outbox_events RESTART IDENTITY`)
	require.NoError(t, err)

	return pool
}

// Списание остатка условно: проходит только при достаточном остатке
// и никогда не уводит количество в минус.
func TestProductRepoDecrementStock(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := NewProductRepo(pool, converter.NewProductConverter())

	require.NoError(t, repo.ReplaceAll(ctx, []domain.Product{
		*domain.NewProduct("Одноразки", "Elf Bar", 1000, 5, "", ""),
	}))

	ok, err := repo.DecrementStock(ctx, "Elf Bar", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	product, err := repo.GetByName(ctx, "Elf Bar")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, 2, product.Quantity)

	// Запрошено больше остатка: отказ, количество не меняется.
	ok, err = repo.DecrementStock(ctx, "Elf Bar", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	product, err = repo.GetByName(ctx, "Elf Bar")
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, 2, product.Quantity)

	// Списание в ноль допустимо, дальше — только отказ.
	ok, err = repo.DecrementStock(ctx, "Elf Bar", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, "Elf Bar", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// Неизвестный товар.
	ok, err = repo.DecrementStock(ctx, "Нет такого", 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
