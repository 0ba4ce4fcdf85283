package usecase

import (
	"context"

	"github.com/softvape/shop-bot/internal/domain"
)

// OrderEventProducer фиксирует события жизненного цикла заказа для доставки
// во внешний канал. Вызывается внутри той же транзакции, что и изменение
// заказа, которое породило событие.
type OrderEventProducer interface {
	OrderCreated(ctx context.Context, order *domain.Order) error
	OrderStatusChanged(ctx context.Context, orderID int64, from, to domain.OrderStatus) error
}

// MessageProducer отправляет сериализованные события во внешний брокер.
type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// Transactor выполняет функцию в одной транзакции базы данных.
// Открытая транзакция кладётся в контекст, репозитории подхватывают её оттуда.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
