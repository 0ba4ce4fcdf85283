package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/pkg/logger"
)

// Pricer рассчитывает стоимость заказа и строит его текстовое представление.
// Никаких сохраняемых побочных эффектов: только чтение снимка каталога.
type Pricer struct {
	logger logger.Logger
}

func NewPricer(logger logger.Logger) *Pricer {
	return &Pricer{logger: logger}
}

// ComputeTotal суммирует «количество × цена» по позициям корзины.
// Имя позиции сопоставляется с каталогом сначала точно, затем по вхождению
// подстроки в любую сторону. Несопоставленная позиция даёт нулевой вклад
// и предупреждение в логе — оформление заказа она не блокирует.
// Результат округляется до двух знаков и не зависит от порядка позиций.
func (p *Pricer) ComputeTotal(cart domain.CartItems, products []domain.Product) float64 {
	total := decimal.Zero

	for name, quantity := range cart {
		product := matchProduct(name, products)
		if product == nil {
			p.logger.Warnf("cart item %q not found in catalog, contributes 0 to total", name)
			continue
		}

		total = total.Add(lineSubtotal(product.Cost, quantity))
	}

	result, _ := total.Round(2).Float64()
	return result
}

// RenderOrderSummary строит построчное описание заказа с теми же правилами
// сопоставления и округления, что и ComputeTotal. Текст используется
// и для подтверждения пользователю, и для уведомления администратора.
func (p *Pricer) RenderOrderSummary(cart domain.CartItems, products []domain.Product, location, comment string) string {
	var b strings.Builder
	b.WriteString("✅ *Ваш заказ подтверждён!*\n\n")
	b.WriteString("📦 *Состав заказа:*\n")

	total := decimal.Zero
	for _, name := range sortedItemNames(cart) {
		product := matchProduct(name, products)
		if product == nil {
			p.logger.Warnf("cart item %q not found in catalog, omitted from summary", name)
			continue
		}

		quantity := cart[name]
		subtotal := lineSubtotal(product.Cost, quantity)
		total = total.Add(subtotal)

		fmt.Fprintf(&b, "• %s x%d - %s руб.\n", product.Name, quantity, subtotal.Round(2).String())
	}

	fmt.Fprintf(&b, "\n💰 *Итого: %s руб.*\n", total.Round(2).String())
	fmt.Fprintf(&b, "📍 *Локация:* %s\n", location)
	fmt.Fprintf(&b, "📝 *Комментарий:* %s\n\n", comment)
	b.WriteString("⏳ *Мы свяжемся с вами в ближайшее время для подтверждения заказа!*")

	return b.String()
}

// RenderAdminNote добавляет к тексту заказа идентификацию покупателя.
func (p *Pricer) RenderAdminNote(orderID int64, userID int64, userName, summary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *Новый заказ #%d*\n\n", orderID)
	fmt.Fprintf(&b, "👤 Пользователь: %s\n", userName)
	fmt.Fprintf(&b, "📞 ID: %d\n\n", userID)
	b.WriteString(summary)
	return b.String()
}

// matchProduct ищет товар по имени позиции корзины: сначала точное совпадение,
// затем первое вхождение подстроки в любую сторону в порядке снимка каталога.
// Точное совпадение всегда имеет приоритет над подстрочным.
func matchProduct(name string, products []domain.Product) *domain.Product {
	for i := range products {
		if products[i].Name == name {
			return &products[i]
		}
	}

	for i := range products {
		if strings.Contains(products[i].Name, name) || strings.Contains(name, products[i].Name) {
			return &products[i]
		}
	}

	return nil
}

func lineSubtotal(cost float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(cost).Mul(decimal.NewFromInt(int64(quantity)))
}

func sortedItemNames(cart domain.CartItems) []string {
	names := make([]string, 0, len(cart))
	for name := range cart {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
