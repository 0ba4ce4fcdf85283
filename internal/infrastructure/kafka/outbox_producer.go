package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jimlawless/whereami"

	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/internal/usecase"
	"github.com/softvape/shop-bot/pkg/e"
)

// OutboxProducer публикует события жизненного цикла заказов через таблицу
// исходящих событий: запись фиксируется в той же транзакции, что и изменение
// заказа, а доставкой в Kafka занимается OutboxWorker. Событие не теряется
// при недоступности брокера.
type OutboxProducer struct {
	repo usecase.OutboxRepository
}

func NewOutboxProducer(repo usecase.OutboxRepository) *OutboxProducer {
	return &OutboxProducer{repo: repo}
}

type orderCreatedEvent struct {
	EventID        string           `json:"event_id"`
	EventType      string           `json:"event_type"`
	EventTimestamp int64            `json:"event_timestamp"`
	OrderID        int64            `json:"order_id"`
	UserID         int64            `json:"user_id"`
	UserName       string           `json:"user_name"`
	Items          domain.CartItems `json:"items"`
	TotalPrice     float64          `json:"total_price"`
	Status         string           `json:"status"`
}

type orderStatusChangedEvent struct {
	EventID        string `json:"event_id"`
	EventType      string `json:"event_type"`
	EventTimestamp int64  `json:"event_timestamp"`
	OrderID        int64  `json:"order_id"`
	FromStatus     string `json:"from_status"`
	ToStatus       string `json:"to_status"`
}

// OrderCreated фиксирует событие о новом заказе.
func (p *OutboxProducer) OrderCreated(ctx context.Context, order *domain.Order) error {
	event := orderCreatedEvent{
		EventID:        uuid.NewString(),
		EventType:      "order_created",
		EventTimestamp: time.Now().UnixNano(),
		OrderID:        order.ID,
		UserID:         order.UserID,
		UserName:       order.UserName,
		Items:          order.Items,
		TotalPrice:     order.TotalPrice,
		Status:         string(order.Status),
	}

	return p.enqueue(ctx, event.EventID, event.EventType, order.ID, event)
}

// OrderStatusChanged фиксирует событие о переводе заказа в новый статус.
func (p *OutboxProducer) OrderStatusChanged(ctx context.Context, orderID int64, from, to domain.OrderStatus) error {
	event := orderStatusChangedEvent{
		EventID:        uuid.NewString(),
		EventType:      "order_status_changed",
		EventTimestamp: time.Now().UnixNano(),
		OrderID:        orderID,
		FromStatus:     string(from),
		ToStatus:       string(to),
	}

	return p.enqueue(ctx, event.EventID, event.EventType, orderID, event)
}

func (p *OutboxProducer) enqueue(ctx context.Context, eventID, eventType string, orderID int64, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := p.repo.Create(ctx, usecase.NewOutboxEvent(eventID, eventType, orderID, payload)); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
