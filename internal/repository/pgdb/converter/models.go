package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID          int64   `db:"id"`
	Category    string  `db:"category"`
	Name        string  `db:"name"`
	Cost        float64 `db:"cost"`
	Quantity    int     `db:"quantity"`
	ImagePath   string  `db:"image_path"`
	Description string  `db:"description"`
}

// OrderModel представляет запись таблицы orders в PostgreSQL.
// Состав заказа хранится как JSONB-снимок корзины.
type OrderModel struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	UserName   string    `db:"user_name"`
	OrderData  []byte    `db:"order_data"`
	TotalPrice float64   `db:"total_price"`
	Location   string    `db:"location"`
	Comment    string    `db:"comment"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	OrderID     int64      `db:"order_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
