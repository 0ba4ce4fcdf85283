package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/pkg/logger"
)

// Заглушки хранилищ в памяти. Поведение повторяет контракты интерфейсов:
// каталог упорядочен, корзина перезаписывается целиком, заказы не удаляются.

type stubProducts struct {
	products   []domain.Product
	replaceErr error
}

func (s *stubProducts) GetAll(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *stubProducts) GetByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range s.products {
		if p.Category == category && p.InStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProducts) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	for i := range s.products {
		if s.products[i].Name == name {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (s *stubProducts) GetCategories(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.products {
		if p.InStock() && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out, nil
}

func (s *stubProducts) DecrementStock(ctx context.Context, name string, quantity int) (bool, error) {
	for i := range s.products {
		if s.products[i].Name == name && s.products[i].Quantity >= quantity {
			s.products[i].Quantity -= quantity
			return true, nil
		}
	}
	return false, nil
}

func (s *stubProducts) ReplaceAll(ctx context.Context, products []domain.Product) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.products = make([]domain.Product, len(products))
	copy(s.products, products)
	return nil
}

func (s *stubProducts) DeleteAll(ctx context.Context) (int64, error) {
	deleted := int64(len(s.products))
	s.products = nil
	return deleted, nil
}

type stubCarts struct {
	carts map[int64]*domain.Cart
}

func newStubCarts() *stubCarts {
	return &stubCarts{carts: make(map[int64]*domain.Cart)}
}

func (s *stubCarts) Save(ctx context.Context, cart *domain.Cart) error {
	saved := &domain.Cart{UserID: cart.UserID, Items: cart.Snapshot(), UpdatedAt: cart.UpdatedAt}
	s.carts[cart.UserID] = saved
	return nil
}

func (s *stubCarts) Get(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, ok := s.carts[userID]
	if !ok {
		return domain.NewCart(userID), nil
	}
	return &domain.Cart{UserID: cart.UserID, Items: cart.Snapshot(), UpdatedAt: cart.UpdatedAt}, nil
}

func (s *stubCarts) Clear(ctx context.Context, userID int64) error {
	delete(s.carts, userID)
	return nil
}

type stubOrders struct {
	orders    []domain.Order
	createErr error
}

func (s *stubOrders) Create(ctx context.Context, order *domain.Order) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	saved := *order
	saved.ID = int64(len(s.orders) + 1)
	saved.CreatedAt = time.Now()
	s.orders = append(s.orders, saved)
	return saved.ID, nil
}

func (s *stubOrders) GetAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	var out []domain.Order
	for i := len(s.orders) - 1; i >= 0; i-- {
		if status == "" || s.orders[i].Status == status {
			out = append(out, s.orders[i])
		}
	}
	return out, nil
}

func (s *stubOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	for i := range s.orders {
		if s.orders[i].ID == id {
			order := s.orders[i]
			return &order, nil
		}
	}
	return nil, nil
}

func (s *stubOrders) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (bool, error) {
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

type stubSessions struct {
	sessions map[int64]Session
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: make(map[int64]Session)}
}

func (s *stubSessions) Get(ctx context.Context, userID int64) (*Session, error) {
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	out := sess
	return &out, nil
}

func (s *stubSessions) Set(ctx context.Context, session *Session) error {
	s.sessions[session.UserID] = *session
	return nil
}

func (s *stubSessions) Clear(ctx context.Context, userID int64) error {
	delete(s.sessions, userID)
	return nil
}

type producedEvent struct {
	kind    string
	orderID int64
	from    domain.OrderStatus
	to      domain.OrderStatus
}

type stubProducer struct {
	events []producedEvent
	err    error
}

func (s *stubProducer) OrderCreated(ctx context.Context, order *domain.Order) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, producedEvent{kind: "created", orderID: order.ID})
	return nil
}

func (s *stubProducer) OrderStatusChanged(ctx context.Context, orderID int64, from, to domain.OrderStatus) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, producedEvent{kind: "status_changed", orderID: orderID, from: from, to: to})
	return nil
}

// stubTransactor выполняет функцию напрямую, считая вызовы транзакционных блоков.
type stubTransactor struct {
	calls int
	err   error
}

func (s *stubTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.err != nil {
		return s.err
	}
	s.calls++
	return fn(ctx)
}

type stubBackups struct {
	objects map[string][]byte
	err     error
}

func newStubBackups() *stubBackups {
	return &stubBackups{objects: make(map[string][]byte)}
}

func (s *stubBackups) Store(ctx context.Context, objectName string, data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.objects[objectName] = data
	return nil
}

var errStorage = errors.New("storage unavailable")

type botFixture struct {
	uc       *SessionUseCase
	admin    *AdminUseCase
	products *stubProducts
	carts    *stubCarts
	orders   *stubOrders
	sessions *stubSessions
	producer *stubProducer
	txm      *stubTransactor
	backups  *stubBackups
}

const testAdminID int64 = 42

func newBotFixture(products []domain.Product) *botFixture {
	f := &botFixture{
		products: &stubProducts{products: products},
		carts:    newStubCarts(),
		orders:   &stubOrders{},
		sessions: newStubSessions(),
		producer: &stubProducer{},
		txm:      &stubTransactor{},
		backups:  newStubBackups(),
	}

	log := logger.NewNopLogger()
	pricer := NewPricer(log)

	f.admin = NewAdminUC(f.products, f.orders, f.sessions, f.backups, f.producer, f.txm, testAdminID, log)
	f.admin.now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 30, 45, 0, time.UTC)
	}

	f.uc = NewSessionUC(f.products, f.carts, f.orders, f.sessions, f.producer, f.txm, pricer, f.admin, testAdminID, log)
	return f
}

func (f *botFixture) setSession(sess *Session) {
	f.sessions.sessions[sess.UserID] = *sess
}

func (f *botFixture) session(userID int64) *Session {
	sess, ok := f.sessions.sessions[userID]
	if !ok {
		return nil
	}
	out := sess
	return &out
}
