package domain

import "time"

// CartItems — отображение «имя товара → количество». Количество всегда >= 1.
type CartItems map[string]int

// Cart — эфемерная корзина пользователя до оформления заказа.
// На одного пользователя существует не более одной корзины,
// запись корзины полностью заменяет предыдущую (replace-on-write).
type Cart struct {
	UserID    int64
	Items     CartItems
	UpdatedAt time.Time
}

func NewCart(userID int64) *Cart {
	return &Cart{
		UserID: userID,
		Items:  make(CartItems),
	}
}

// Put записывает количество товара, заменяя прежнее значение для этого имени.
func (c *Cart) Put(productName string, quantity int) {
	if c.Items == nil {
		c.Items = make(CartItems)
	}
	c.Items[productName] = quantity
}

// IsEmpty сообщает, пуста ли корзина.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Snapshot возвращает независимую копию содержимого корзины.
// Заказ хранит именно копию, а не живую ссылку на корзину.
func (c *Cart) Snapshot() CartItems {
	snapshot := make(CartItems, len(c.Items))
	for name, qty := range c.Items {
		snapshot[name] = qty
	}
	return snapshot
}
