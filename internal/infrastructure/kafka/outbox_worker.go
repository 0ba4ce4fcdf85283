package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/softvape/shop-bot/internal/repository/pgdb"
	"github.com/softvape/shop-bot/internal/usecase"
	"github.com/softvape/shop-bot/pkg/jitter"
	"github.com/softvape/shop-bot/pkg/logger"
)

const (
	outboxBatchSize   = 10
	listenWaitTimeout = 30 * time.Second
	reconnectBase     = 2 * time.Second
	reconnectMax      = 30 * time.Second
)

// OutboxWorker доставляет зафиксированные в outbox_events события в Kafka.
// При старте выгребаются накопившиеся записи, дальше обработчик ждёт NOTIFY
// от вставок новых событий. Событие помечается доставленным только после
// успешной записи в брокер; зависшие в обработке записи репозиторий выдаёт
// повторно.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	producer  usecase.MessageProducer
	dbConnStr string
	logger    logger.Logger
	stop      chan struct{}
	wg        sync.WaitGroup
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	producer usecase.MessageProducer,
	dbConnStr string,
	logger logger.Logger,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		producer:  producer,
		dbConnStr: dbConnStr,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.drain(ctx)
		w.listen(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

// drain обрабатывает события пачками, пока таблица не опустеет.
func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("outbox batch failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

// listen ждёт уведомлений о новых событиях на выделенном соединении.
// Потеря соединения лечится переподключением с экспоненциальным отступлением.
func (w *OutboxWorker) listen(ctx context.Context) {
	var conn *pgx.Conn
	attempt := 0

	for {
		select {
		case <-ctx.Done():
			if conn != nil {
				conn.Close(context.Background())
			}
			return
		case <-w.stop:
			if conn != nil {
				conn.Close(context.Background())
			}
			return
		default:
		}

		if conn == nil {
			var err error
			conn, err = w.subscribe(ctx)
			if err != nil {
				wait := jitter.ExponentialBackoff(reconnectBase, reconnectMax, attempt, jitter.DefaultJitter)
				attempt++
				w.logger.Warnf("outbox listener connect failed (retry in %s): %v", wait, err)
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return
				case <-w.stop:
					return
				}
				continue
			}
			attempt = 0
		}

		waitCtx, cancel := context.WithTimeout(ctx, listenWaitTimeout)
		_, err := conn.WaitForNotification(waitCtx)
		cancel()

		switch {
		case err == nil:
			w.drain(ctx)
		case errors.Is(err, context.DeadlineExceeded):
			// Таймаут ожидания служит периодическим проходом: он подбирает
			// события с потерянным уведомлением и зависшие записи.
			w.drain(ctx)
		case errors.Is(err, context.Canceled):
		default:
			w.logger.Warnf("outbox listener connection lost: %v", err)
			conn.Close(context.Background())
			conn = nil
		}
	}
}

func (w *OutboxWorker) subscribe(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, w.dbConnStr)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgdb.OutboxChannel); err != nil {
		conn.Close(ctx)
		return nil, err
	}

	w.logger.Infof("outbox worker subscribed to %q notifications", pgdb.OutboxChannel)
	return conn, nil
}

// processBatch забирает очередную пачку событий и отправляет их в брокер.
// Неудачная отправка оставляет событие в статусе processing: репозиторий
// вернёт его при следующем заборе как зависшее.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, outboxBatchSize)
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		if err := w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.OrderID, event.Payload)); err != nil {
			w.logger.Warnf("outbox event %s delivery failed: %v", event.EventID, err)
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("outbox event %s mark processed failed: %v", event.EventID, err)
		}
	}

	return true, nil
}
