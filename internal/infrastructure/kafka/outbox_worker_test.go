package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/internal/usecase"
	"github.com/softvape/shop-bot/pkg/logger"
)

// Заглушка таблицы исходящих событий в памяти. Create не требует транзакции:
// атомарность с записью заказа — забота реального репозитория.
type fakeOutboxRepo struct {
	events    []*usecase.OutboxEvent
	processed []int64
}

func (f *fakeOutboxRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	event.ID = int64(len(f.events) + 1)
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	var out []*usecase.OutboxEvent
	for _, event := range f.events {
		if event.Status == usecase.Pending && len(out) < limit {
			event.Status = usecase.Processing
			out = append(out, event)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	for _, event := range f.events {
		if event.ID == id && event.Status == usecase.Processing {
			event.Status = usecase.Processed
			f.processed = append(f.processed, id)
		}
	}
	return nil
}

type fakeSender struct {
	sent    []*usecase.WriteRawMessageReq
	failFor map[int64]bool
}

func (f *fakeSender) WriteRawMessage(ctx context.Context, req *usecase.WriteRawMessageReq) error {
	if f.failFor[req.OrderID] {
		return errors.New("broker not available")
	}
	f.sent = append(f.sent, req)
	return nil
}

func TestOutboxProducerOrderCreated(t *testing.T) {
	repo := &fakeOutboxRepo{}
	producer := NewOutboxProducer(repo)

	order := domain.NewOrder(1001, "ivan", domain.CartItems{"Elf Bar": 2}, 2000, "55.75, 37.62", "к подъезду")
	order.ID = 7

	require.NoError(t, producer.OrderCreated(context.Background(), order))

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, "order_created", event.EventType)
	assert.Equal(t, int64(7), event.OrderID)
	assert.Equal(t, usecase.Pending, event.Status)
	assert.NotEmpty(t, event.EventID)

	var payload orderCreatedEvent
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, event.EventID, payload.EventID)
	assert.Equal(t, int64(7), payload.OrderID)
	assert.Equal(t, int64(1001), payload.UserID)
	assert.Equal(t, 2000.0, payload.TotalPrice)
	assert.Equal(t, "pending", payload.Status)
}

func TestOutboxProducerOrderStatusChanged(t *testing.T) {
	repo := &fakeOutboxRepo{}
	producer := NewOutboxProducer(repo)

	err := producer.OrderStatusChanged(context.Background(), 7, domain.OrderStatusPending, domain.OrderStatusCompleted)
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	event := repo.events[0]
	assert.Equal(t, "order_status_changed", event.EventType)
	assert.Equal(t, int64(7), event.OrderID)

	var payload orderStatusChangedEvent
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "pending", payload.FromStatus)
	assert.Equal(t, "completed", payload.ToStatus)
}

// Пачка доставляется в брокер, доставленные события помечаются обработанными.
func TestOutboxWorkerProcessBatch(t *testing.T) {
	repo := &fakeOutboxRepo{}
	sender := &fakeSender{}
	producer := NewOutboxProducer(repo)
	ctx := context.Background()

	first := domain.NewOrder(1001, "ivan", domain.CartItems{"Elf Bar": 1}, 1000, "-", "-")
	first.ID = 1
	require.NoError(t, producer.OrderCreated(ctx, first))
	require.NoError(t, producer.OrderStatusChanged(ctx, 2, domain.OrderStatusPending, domain.OrderStatusCancelled))

	worker := NewOutboxWorker(repo, sender, "", logger.NewNopLogger())

	hasMore, err := worker.processBatch(ctx)
	require.NoError(t, err)
	assert.True(t, hasMore)

	require.Len(t, sender.sent, 2)
	assert.ElementsMatch(t, []int64{1, 2}, repo.processed)

	// Таблица пуста — следующий забор сообщает об отсутствии работы.
	hasMore, err = worker.processBatch(ctx)
	require.NoError(t, err)
	assert.False(t, hasMore)
}

// Недоставленное событие не помечается обработанным и будет забрано повторно.
func TestOutboxWorkerDeliveryFailureKeepsEvent(t *testing.T) {
	repo := &fakeOutboxRepo{}
	sender := &fakeSender{failFor: map[int64]bool{1: true}}
	producer := NewOutboxProducer(repo)
	ctx := context.Background()

	broken := domain.NewOrder(1001, "ivan", domain.CartItems{"Elf Bar": 1}, 1000, "-", "-")
	broken.ID = 1
	require.NoError(t, producer.OrderCreated(ctx, broken))
	require.NoError(t, producer.OrderStatusChanged(ctx, 2, domain.OrderStatusPending, domain.OrderStatusCompleted))

	worker := NewOutboxWorker(repo, sender, "", logger.NewNopLogger())

	_, err := worker.processBatch(ctx)
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, repo.processed)
	assert.Equal(t, usecase.Processing, repo.events[0].Status)
	assert.Equal(t, usecase.Processed, repo.events[1].Status)
}
