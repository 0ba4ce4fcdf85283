package usecase

import (
	"time"

	"github.com/softvape/shop-bot/internal/domain"
)

// State — состояние диалога пользователя. Хранится в сессии между сообщениями.
type State string

const (
	StateMainMenu          State = "main_menu"
	StateCategorySelection State = "category_selection"
	StateProductSelection  State = "product_selection"
	StateQuantitySelection State = "quantity_selection"
	StateAwaitLocation     State = "await_location"
	StateAwaitComment      State = "await_comment"

	StateAdminPanel        State = "admin_panel"
	StateAdminOrders       State = "admin_orders"
	StateAdminOrderDetail  State = "admin_order_detail"
	StateAdminProducts     State = "admin_products"
	StateAdminClearConfirm State = "admin_clear_confirm"
	StateAdminAwaitCSV     State = "admin_await_csv"
)

// IsAdmin сообщает, относится ли состояние к админ-панели.
func (s State) IsAdmin() bool {
	switch s {
	case StateAdminPanel, StateAdminOrders, StateAdminOrderDetail,
		StateAdminProducts, StateAdminClearConfirm, StateAdminAwaitCSV:
		return true
	default:
		return false
	}
}

// CSVMode — назначение ожидаемого CSV-файла в админ-панели.
type CSVMode string

const (
	CSVModeUpdate  CSVMode = "update"
	CSVModeReplace CSVMode = "replace"
)

// Session — явный контекст диалога одного пользователя.
// Создаётся при первом сообщении, уничтожается на терминальном переходе
// или по явной отмене. Потеря сессии не имеет побочных эффектов,
// кроме потери незавершённого выбора.
type Session struct {
	UserID   int64  `json:"user_id"`
	State    State  `json:"state"`
	Category string `json:"category,omitempty"`

	// Текущий выбор в диалоге заказа
	Product  *domain.Product `json:"product,omitempty"`
	Quantity int             `json:"quantity,omitempty"`
	Location string          `json:"location,omitempty"`

	// Контекст админ-панели
	OrderIDs    []int64            `json:"order_ids,omitempty"` // нумерованный список, показанный админу
	OrderStatus domain.OrderStatus `json:"order_status,omitempty"`
	OrderID     int64              `json:"order_id,omitempty"`
	CSVMode     CSVMode            `json:"csv_mode,omitempty"`
}

func NewSession(userID int64) *Session {
	return &Session{
		UserID: userID,
		State:  StateMainMenu,
	}
}

// ResetSelection сбрасывает незавершённый выбор, сохраняя состояние диалога.
func (s *Session) ResetSelection() {
	s.Category = ""
	s.Product = nil
	s.Quantity = 0
	s.Location = ""
}

// GeoPoint — структурная геолокация из транспорта.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// Update — входящее событие диалога: текст, геолокация или загруженный файл.
type Update struct {
	UserID   int64
	UserName string
	Text     string
	Location *GeoPoint
	Document []byte // содержимое загруженного CSV-файла
}

// Button — кнопка клавиатуры ответа.
type Button struct {
	Label           string
	RequestLocation bool
}

// Reply — исходящее сообщение с необязательной клавиатурой.
type Reply struct {
	Text           string
	Keyboard       [][]Button
	RemoveKeyboard bool
	Markdown       bool
}

// HandleRes — результат обработки одного события: ответы пользователю
// и необязательное уведомление в админ-чат.
type HandleRes struct {
	Replies   []Reply
	AdminNote *Reply
}

func newTextReply(text string) Reply {
	return Reply{Text: text}
}

func newKeyboardReply(text string, keyboard [][]Button, markdown bool) Reply {
	return Reply{Text: text, Keyboard: keyboard, Markdown: markdown}
}

func buttonRow(labels ...string) []Button {
	row := make([]Button, 0, len(labels))
	for _, label := range labels {
		row = append(row, Button{Label: label})
	}
	return row
}

// OutboxStatus — статус записи в таблице исходящих событий.
type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

// OutboxEvent — событие жизненного цикла заказа, зафиксированное в базе данных
// вместе с породившим его изменением. До успешной доставки в брокер запись
// остаётся в таблице, поэтому событие переживает недоступность брокера.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   string
	OrderID     int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func NewOutboxEvent(eventID, eventType string, orderID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		OrderID:   orderID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now(),
	}
}

// WriteRawMessageReq — запрос на отправку уже сериализованного события в брокер.
type WriteRawMessageReq struct {
	OrderID int64
	Payload []byte
}

func NewWriteRawMessageReq(orderID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{OrderID: orderID, Payload: payload}
}
