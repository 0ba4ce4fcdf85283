package domain

import "time"

// OrderStatus — статус заказа. Единственное изменяемое поле заказа после создания.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid проверяет, что статус принадлежит закрытому множеству значений.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo описывает допустимые рёбра графа статусов:
// pending → completed, pending → cancelled, completed → pending, cancelled → pending.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusCompleted || next == OrderStatusCancelled
	case OrderStatusCompleted, OrderStatusCancelled:
		return next == OrderStatusPending
	default:
		return false
	}
}

// Order — оформленный заказ. Содержимое неизменно после создания,
// меняться может только статус.
type Order struct {
	ID         int64
	UserID     int64
	UserName   string
	Items      CartItems // снимок корзины на момент оформления
	TotalPrice float64   // рассчитана при оформлении и больше не пересчитывается
	Location   string
	Comment    string
	Status     OrderStatus
	CreatedAt  time.Time
}

func NewOrder(userID int64, userName string, items CartItems, totalPrice float64, location, comment string) *Order {
	return &Order{
		UserID:     userID,
		UserName:   userName,
		Items:      items,
		TotalPrice: totalPrice,
		Location:   location,
		Comment:    comment,
		Status:     OrderStatusPending,
	}
}
