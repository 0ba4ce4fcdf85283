package usecase

import (
	"context"

	"github.com/softvape/shop-bot/internal/domain"
)

// ProductRepository — хранилище каталога товаров.
type ProductRepository interface {
	// GetAll возвращает весь каталог, упорядоченный по (категория, имя).
	// Порядок фиксирован: от него зависит детерминизм подстрочного поиска в прайсинге.
	GetAll(ctx context.Context) ([]domain.Product, error)
	// GetByCategory возвращает только товары категории с положительным остатком.
	GetByCategory(ctx context.Context, category string) ([]domain.Product, error)
	GetByName(ctx context.Context, name string) (*domain.Product, error)
	// GetCategories возвращает категории, в которых есть товары в наличии.
	GetCategories(ctx context.Context) ([]string, error)
	// DecrementStock условно уменьшает остаток; false, если остатка недостаточно.
	DecrementStock(ctx context.Context, name string, quantity int) (bool, error)
	// ReplaceAll атомарно заменяет каталог целиком: удаление и вставка в одной транзакции.
	ReplaceAll(ctx context.Context, products []domain.Product) error
	// DeleteAll удаляет все товары и возвращает число удалённых записей.
	DeleteAll(ctx context.Context) (int64, error)
}

// CartRepository — хранилище корзин. Запись полностью заменяет прежнюю корзину
// пользователя (last-writer-wins, без слияния).
type CartRepository interface {
	Save(ctx context.Context, cart *domain.Cart) error
	// Get возвращает пустую корзину, если сохранённой нет.
	Get(ctx context.Context, userID int64) (*domain.Cart, error)
	Clear(ctx context.Context, userID int64) error
}

// OrderRepository — журнал заказов. Заказы не удаляются; после создания
// меняться может только статус.
type OrderRepository interface {
	// Create сохраняет заказ и возвращает присвоенный идентификатор.
	Create(ctx context.Context, order *domain.Order) (int64, error)
	// GetAll возвращает заказы от новых к старым; пустой статус — без фильтра.
	GetAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// UpdateStatus возвращает false, если заказ не найден и статус не записан.
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (bool, error)
}

// SessionRepository — хранилище контекстов диалогов, по одному на пользователя.
type SessionRepository interface {
	// Get возвращает nil, если сессии нет.
	Get(ctx context.Context, userID int64) (*Session, error)
	Set(ctx context.Context, session *Session) error
	Clear(ctx context.Context, userID int64) error
}

// BackupRepository — долговременное хранилище резервных копий каталога.
type BackupRepository interface {
	Store(ctx context.Context, objectName string, data []byte) error
}

// OutboxRepository — таблица исходящих событий заказов.
type OutboxRepository interface {
	// Create фиксирует событие в открытой транзакции из контекста:
	// событие записывается атомарно с породившим его изменением заказа.
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	// GetAndMarkAsProcessing забирает пачку недоставленных событий,
	// помечая их обрабатываемыми. Конкурирующие обработчики не получают
	// одни и те же записи.
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	// MarkAsProcessed помечает событие доставленным. Повторный вызов безвреден.
	MarkAsProcessed(ctx context.Context, id int64) error
}
