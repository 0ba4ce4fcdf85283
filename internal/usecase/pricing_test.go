package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/pkg/logger"
)

func testCatalog() []domain.Product {
	return []domain.Product{
		*domain.NewProduct("Одноразки", "Elf Bar", 1000, 10, "", ""),
		*domain.NewProduct("Одноразки", "Elf Bar BC5000 Манго", 1500, 5, "", ""),
		*domain.NewProduct("Жидкости", "Pod Salt 20mg Манго", 800, 25, "", ""),
	}
}

func TestComputeTotal(t *testing.T) {
	pricer := NewPricer(logger.NewNopLogger())

	cart := domain.CartItems{
		"Elf Bar":             2,
		"Pod Salt 20mg Манго": 3,
	}

	total := pricer.ComputeTotal(cart, testCatalog())
	assert.Equal(t, 4400.0, total)
}

// Точное совпадение имени всегда побеждает подстрочное, даже если
// подстрочный кандидат стоит раньше в каталоге.
func TestComputeTotalExactMatchWins(t *testing.T) {
	pricer := NewPricer(logger.NewNopLogger())

	cart := domain.CartItems{"Elf Bar BC5000 Манго": 2}

	total := pricer.ComputeTotal(cart, testCatalog())
	assert.Equal(t, 3000.0, total)
}

// Позиция корзины без совпадения в каталоге даёт нулевой вклад
// и не блокирует расчёт остальных позиций.
func TestComputeTotalUnmatchedItemContributesZero(t *testing.T) {
	pricer := NewPricer(logger.NewNopLogger())

	cart := domain.CartItems{
		"Снятый с продажи товар": 4,
		"Elf Bar": 1,
	}

	total := pricer.ComputeTotal(cart, testCatalog())
	assert.Equal(t, 1000.0, total)
}

func TestComputeTotalRounding(t *testing.T) {
	pricer := NewPricer(logger.NewNopLogger())

	catalog := []domain.Product{
		*domain.NewProduct("Жидкости", "Сироп", 10.555, 100, "", ""),
	}
	cart := domain.CartItems{"Сироп": 2}

	total := pricer.ComputeTotal(cart, catalog)
	assert.Equal(t, 21.11, total)
}

// Сумма не зависит от порядка товаров в снимке каталога,
// пока множество точных совпадений не меняется.
func TestComputeTotalOrderIndependence(t *testing.T) {
	pricer := NewPricer(logger.NewNopLogger())

	cart := domain.CartItems{
		"Elf Bar":              1,
		"Elf Bar BC5000 Манго": 1,
		"Pod Salt 20mg Манго":  1,
	}

	forward := testCatalog()
	reversed := []domain.Product{forward[2], forward[1], forward[0]}

	assert.Equal(t, pricer.ComputeTotal(cart, forward), pricer.ComputeTotal(cart, reversed))
}

func TestRenderOrderSummary(t *testing.T) {
	pricer := NewPricer(logger.NewNopLogger())

	cart := domain.CartItems{
		"Elf Bar":             2,
		"Pod Salt 20mg Манго": 1,
	}

	summary := pricer.RenderOrderSummary(cart, testCatalog(), "55.75, 37.62", "Оплата наличными")

	require.Contains(t, summary, "• Elf Bar x2 - 2000 руб.")
	require.Contains(t, summary, "• Pod Salt 20mg Манго x1 - 800 руб.")
	require.Contains(t, summary, "💰 *Итого: 2800 руб.*")
	require.Contains(t, summary, "📍 *Локация:* 55.75, 37.62")
	require.Contains(t, summary, "📝 *Комментарий:* Оплата наличными")
}

func TestRenderAdminNote(t *testing.T) {
	pricer := NewPricer(logger.NewNopLogger())

	note := pricer.RenderAdminNote(7, 1001, "ivan", "итог заказа")

	require.Contains(t, note, "Новый заказ #7")
	require.Contains(t, note, "ivan")
	require.Contains(t, note, "1001")
	require.Contains(t, note, "итог заказа")
}
