package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/jimlawless/whereami"
	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/pkg/e"
	"github.com/softvape/shop-bot/pkg/logger"
)

// SessionUseCase — конечный автомат диалога заказа.
// Каждое входящее событие обрабатывается целиком: загрузка сессии,
// переход (состояние, команда) → (новое состояние, ответы), сохранение сессии.
// Перекрытия шагов внутри одной сессии нет — события пользователя строго последовательны.
type SessionUseCase struct {
	products ProductRepository
	carts    CartRepository
	orders   OrderRepository
	sessions SessionRepository
	producer OrderEventProducer
	txm      Transactor
	pricer   *Pricer
	admin    *AdminUseCase
	adminID  int64
	logger   logger.Logger
}

func NewSessionUC(
	products ProductRepository,
	carts CartRepository,
	orders OrderRepository,
	sessions SessionRepository,
	producer OrderEventProducer,
	txm Transactor,
	pricer *Pricer,
	admin *AdminUseCase,
	adminID int64,
	logger logger.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		products: products,
		carts:    carts,
		orders:   orders,
		sessions: sessions,
		producer: producer,
		txm:      txm,
		pricer:   pricer,
		admin:    admin,
		adminID:  adminID,
		logger:   logger,
	}
}

// Handle обрабатывает одно событие диалога.
func (s *SessionUseCase) Handle(ctx context.Context, upd *Update) (*HandleRes, error) {
	const op = "SessionUseCase.Handle"

	sess, err := s.sessions.Get(ctx, upd.UserID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if sess == nil {
		sess = NewSession(upd.UserID)
	}

	cmd := ParseCommand(upd.Text)

	// /start из любого состояния начинает диалог заново.
	if cmd == CmdStart {
		return s.handleStart(ctx, sess)
	}

	if sess.State.IsAdmin() {
		return s.admin.HandleState(ctx, sess, upd, cmd)
	}

	switch sess.State {
	case StateMainMenu:
		return s.handleMainMenu(ctx, sess, upd, cmd)
	case StateCategorySelection:
		return s.handleCategorySelection(ctx, sess, cmd)
	case StateProductSelection:
		return s.handleProductSelection(ctx, sess, upd, cmd)
	case StateQuantitySelection:
		return s.handleQuantitySelection(ctx, sess, cmd)
	case StateAwaitLocation:
		return s.handleAwaitLocation(ctx, sess, upd, cmd)
	case StateAwaitComment:
		return s.handleAwaitComment(ctx, sess, upd, cmd)
	default:
		// Незнакомое состояние не должно заклинивать диалог — начинаем заново.
		s.logger.Warnf("user %d has unknown session state %q, restarting", upd.UserID, sess.State)
		return s.handleStart(ctx, sess)
	}
}

// handleStart очищает корзину и контекст и показывает главное меню.
func (s *SessionUseCase) handleStart(ctx context.Context, sess *Session) (*HandleRes, error) {
	const op = "SessionUseCase.handleStart"

	if err := s.carts.Clear(ctx, sess.UserID); err != nil {
		return nil, e.Wrap(op, err)
	}

	fresh := NewSession(sess.UserID)
	if err := s.sessions.Set(ctx, fresh); err != nil {
		return nil, e.Wrap(op, err)
	}

	menu, err := s.mainMenuReply(ctx, sess.UserID, greeting)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &HandleRes{Replies: []Reply{menu}}, nil
}

func (s *SessionUseCase) handleMainMenu(ctx context.Context, sess *Session, upd *Update, cmd Command) (*HandleRes, error) {
	const op = "SessionUseCase.handleMainMenu"

	if cmd == CmdAdminPanel {
		return s.admin.EnterPanel(ctx, sess, upd)
	}
	if cmd == CmdCancel {
		return s.cancelOrder(ctx, sess)
	}

	categories, err := s.products.GetCategories(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	for _, category := range categories {
		if category == upd.Text {
			return s.showCategory(ctx, sess, category)
		}
	}

	return &HandleRes{Replies: []Reply{newTextReply("Пожалуйста, выберите категорию из меню:")}}, nil
}

// showCategory загружает живой список товаров категории (только в наличии)
// и переводит диалог к выбору товара.
func (s *SessionUseCase) showCategory(ctx context.Context, sess *Session, category string) (*HandleRes, error) {
	const op = "SessionUseCase.showCategory"

	products, err := s.products.GetByCategory(ctx, category)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	sess.Category = category
	sess.Product = nil
	sess.Quantity = 0

	if len(products) == 0 {
		sess.State = StateCategorySelection
		if err := s.sessions.Set(ctx, sess); err != nil {
			return nil, e.Wrap(op, err)
		}

		reply := newKeyboardReply(
			"😔 В категории '"+category+"' пока нет товаров в наличии.",
			[][]Button{buttonRow(BtnBackToMenu)},
			false,
		)
		return &HandleRes{Replies: []Reply{reply}}, nil
	}

	sess.State = StateProductSelection
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &HandleRes{Replies: []Reply{categoryReply(category, products)}}, nil
}

func (s *SessionUseCase) handleCategorySelection(ctx context.Context, sess *Session, cmd Command) (*HandleRes, error) {
	if cmd == CmdBackToMenu {
		return s.backToMenu(ctx, sess)
	}

	// Любой другой ввод — повторяем подсказку, состояние не меняется.
	reply := newKeyboardReply(
		"😔 В категории '"+sess.Category+"' пока нет товаров в наличии.",
		[][]Button{buttonRow(BtnBackToMenu)},
		false,
	)
	return &HandleRes{Replies: []Reply{reply}}, nil
}

func (s *SessionUseCase) handleProductSelection(ctx context.Context, sess *Session, upd *Update, cmd Command) (*HandleRes, error) {
	const op = "SessionUseCase.handleProductSelection"

	switch cmd {
	case CmdBackToMenu:
		return s.backToMenu(ctx, sess)
	case CmdCancel:
		return s.cancelOrder(ctx, sess)
	}

	product, err := s.products.GetByName(ctx, upd.Text)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Требуется точное совпадение с предлагаемым товаром; всё остальное — повторная подсказка.
	if product == nil || !product.InStock() {
		return &HandleRes{Replies: []Reply{newTextReply("❌ Товар не найден. Выберите из списка:")}}, nil
	}

	sess.Product = product
	sess.Quantity = 1
	sess.State = StateQuantitySelection
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &HandleRes{Replies: []Reply{productCardReply(sess)}}, nil
}

func (s *SessionUseCase) handleQuantitySelection(ctx context.Context, sess *Session, cmd Command) (*HandleRes, error) {
	const op = "SessionUseCase.handleQuantitySelection"

	if sess.Product == nil {
		return s.handleStart(ctx, sess)
	}

	switch cmd {
	case CmdBackToMenu:
		return s.backToMenu(ctx, sess)

	case CmdBackToProducts:
		return s.showCategory(ctx, sess, sess.Category)

	case CmdIncrease:
		// Верхняя граница — текущий остаток; попытки превысить молча игнорируются.
		if sess.Quantity < sess.Product.Quantity {
			sess.Quantity++
		}
		if err := s.sessions.Set(ctx, sess); err != nil {
			return nil, e.Wrap(op, err)
		}
		return &HandleRes{Replies: []Reply{productCardReply(sess)}}, nil

	case CmdDecrease:
		if sess.Quantity > 1 {
			sess.Quantity--
		}
		if err := s.sessions.Set(ctx, sess); err != nil {
			return nil, e.Wrap(op, err)
		}
		return &HandleRes{Replies: []Reply{productCardReply(sess)}}, nil

	case CmdConfirm:
		if err := s.putInCart(ctx, sess); err != nil {
			return nil, e.Wrap(op, err)
		}

		sess.State = StateAwaitLocation
		if err := s.sessions.Set(ctx, sess); err != nil {
			return nil, e.Wrap(op, err)
		}

		return &HandleRes{Replies: []Reply{locationReply("📍 *Отправьте вашу геолокацию для доставки:*\n\nНажмите кнопку ниже 👇")}}, nil

	case CmdAddMore:
		if err := s.putInCart(ctx, sess); err != nil {
			return nil, e.Wrap(op, err)
		}

		sess.State = StateMainMenu
		sess.Product = nil
		sess.Quantity = 0
		if err := s.sessions.Set(ctx, sess); err != nil {
			return nil, e.Wrap(op, err)
		}

		menu, err := s.mainMenuReply(ctx, sess.UserID, "✅ Товар добавлен в корзину! Продолжайте покупки.")
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		return &HandleRes{Replies: []Reply{menu}}, nil

	case CmdCancel:
		return s.cancelOrder(ctx, sess)

	default:
		return &HandleRes{Replies: []Reply{productCardReply(sess)}}, nil
	}
}

func (s *SessionUseCase) handleAwaitLocation(ctx context.Context, sess *Session, upd *Update, cmd Command) (*HandleRes, error) {
	const op = "SessionUseCase.handleAwaitLocation"

	switch cmd {
	case CmdCancel:
		return s.cancelOrder(ctx, sess)
	case CmdBackToProducts:
		return s.showCategory(ctx, sess, sess.Category)
	}

	if upd.Location == nil {
		return &HandleRes{Replies: []Reply{locationReply("❌ Пожалуйста, отправьте вашу геолокацию с помощью кнопки ниже:")}}, nil
	}

	sess.Location = formatGeoPoint(upd.Location)
	sess.State = StateAwaitComment
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, e.Wrap(op, err)
	}

	reply := Reply{
		Text: "📝 *Напишите комментарий к заказу:*\n\n" +
			"• Место встречи\n• Удобное время\n• Способ оплаты\n• Другие пожелания",
		RemoveKeyboard: true,
		Markdown:       true,
	}
	return &HandleRes{Replies: []Reply{reply}}, nil
}

// handleAwaitComment — терминальный переход: получение комментария запускает
// оформление заказа, и диалог завершается независимо от исхода.
func (s *SessionUseCase) handleAwaitComment(ctx context.Context, sess *Session, upd *Update, cmd Command) (*HandleRes, error) {
	if cmd == CmdCancel {
		return s.cancelOrder(ctx, sess)
	}

	return s.checkout(ctx, sess, upd)
}

// checkout выполняет оформление заказа: расчёт суммы по снимку каталога,
// запись заказа, подтверждение пользователю, уведомление админа и очистка корзины.
func (s *SessionUseCase) checkout(ctx context.Context, sess *Session, upd *Update) (*HandleRes, error) {
	const op = "SessionUseCase.checkout"

	cart, err := s.carts.Get(ctx, sess.UserID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Пустая корзина — терминальная ошибка этой сессии; заказ не создаётся.
	if cart.IsEmpty() {
		if err := s.sessions.Clear(ctx, sess.UserID); err != nil {
			s.logger.Warnf("failed to clear session for user %d: %v", sess.UserID, err)
		}

		reply := newKeyboardReply("❌ Корзина пуста. Пожалуйста, начните заново.", startKeyboard(), false)
		return &HandleRes{Replies: []Reply{reply}}, nil
	}

	snapshot, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	location := sess.Location
	if location == "" {
		location = "Не указана"
	}

	total := s.pricer.ComputeTotal(cart.Items, snapshot)

	order := domain.NewOrder(upd.UserID, upd.UserName, cart.Snapshot(), total, location, upd.Text)

	// Заказ и событие о его создании записываются в одной транзакции:
	// событие не может потеряться между записью заказа и публикацией.
	err = s.txm.WithinTransaction(ctx, func(ctx context.Context) error {
		id, err := s.orders.Create(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id

		return s.producer.OrderCreated(ctx, order)
	})
	if err != nil {
		// Корзина сохраняется: пользователь может повторить попытку, ничего не потеряв.
		s.logger.Errorf(e.Wrap(whereami.WhereAmI(), err), "failed to save order for user %d", upd.UserID)
		reply := newKeyboardReply("❌ Произошла ошибка при сохранении заказа. Попробуйте еще раз.", startKeyboard(), false)
		return &HandleRes{Replies: []Reply{reply}}, nil
	}

	s.logger.Infof("order #%d saved for user %d, total %.2f", order.ID, upd.UserID, total)

	summary := s.pricer.RenderOrderSummary(cart.Items, snapshot, location, upd.Text)

	if err := s.carts.Clear(ctx, sess.UserID); err != nil {
		s.logger.Warnf("failed to clear cart for user %d: %v", sess.UserID, err)
	}
	if err := s.sessions.Clear(ctx, sess.UserID); err != nil {
		s.logger.Warnf("failed to clear session for user %d: %v", sess.UserID, err)
	}

	adminNote := newTextReply(s.pricer.RenderAdminNote(order.ID, upd.UserID, upd.UserName, summary))
	adminNote.Markdown = true

	return &HandleRes{
		Replies:   []Reply{newKeyboardReply(summary, startKeyboard(), true)},
		AdminNote: &adminNote,
	}, nil
}

// cancelOrder — универсальный путь отмены: корзина и контекст очищаются,
// диалог возвращается в главное меню.
func (s *SessionUseCase) cancelOrder(ctx context.Context, sess *Session) (*HandleRes, error) {
	const op = "SessionUseCase.cancelOrder"

	if err := s.carts.Clear(ctx, sess.UserID); err != nil {
		return nil, e.Wrap(op, err)
	}

	fresh := NewSession(sess.UserID)
	if err := s.sessions.Set(ctx, fresh); err != nil {
		return nil, e.Wrap(op, err)
	}

	menu, err := s.mainMenuReply(ctx, sess.UserID, "❌ Заказ отменен. Корзина очищена.")
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &HandleRes{Replies: []Reply{menu}}, nil
}

// backToMenu возвращает диалог в главное меню, сохраняя корзину.
func (s *SessionUseCase) backToMenu(ctx context.Context, sess *Session) (*HandleRes, error) {
	const op = "SessionUseCase.backToMenu"

	sess.State = StateMainMenu
	sess.ResetSelection()
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, e.Wrap(op, err)
	}

	menu, err := s.mainMenuReply(ctx, sess.UserID, "Выберите категорию:")
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &HandleRes{Replies: []Reply{menu}}, nil
}

// putInCart записывает текущий выбор в корзину, заменяя прежнее количество
// для этого товара.
func (s *SessionUseCase) putInCart(ctx context.Context, sess *Session) error {
	cart, err := s.carts.Get(ctx, sess.UserID)
	if err != nil {
		return err
	}

	cart.Put(sess.Product.Name, sess.Quantity)
	return s.carts.Save(ctx, cart)
}

// mainMenuReply строит главное меню из живого набора категорий каталога.
func (s *SessionUseCase) mainMenuReply(ctx context.Context, userID int64, text string) (Reply, error) {
	categories, err := s.products.GetCategories(ctx)
	if err != nil {
		return Reply{}, err
	}

	return newKeyboardReply(text, mainMenuKeyboard(categories, userID == s.adminID), true), nil
}

// mainMenuKeyboard раскладывает категории по три в ряд; администратору
// добавляется ряд с кнопкой админ-панели.
func mainMenuKeyboard(categories []string, admin bool) [][]Button {
	const perRow = 3
	var keyboard [][]Button
	for i := 0; i < len(categories); i += perRow {
		end := i + perRow
		if end > len(categories) {
			end = len(categories)
		}
		keyboard = append(keyboard, buttonRow(categories[i:end]...))
	}

	if admin {
		keyboard = append(keyboard, buttonRow(BtnAdminPanel))
	}

	return keyboard
}

const greeting = "------------------------------------\n" +
	"🚬 *Soft Vape* - магазин вейпов и аксессуаров\n" +
	"------------------------------------\n\n" +
	"Выберите категорию:"

func categoryReply(category string, products []domain.Product) Reply {
	var keyboard [][]Button
	for _, p := range products {
		keyboard = append(keyboard, buttonRow(p.Name))
	}
	keyboard = append(keyboard, buttonRow(BtnBackToMenu))

	var b strings.Builder
	b.WriteString("🏷️ *" + category + "*:\n\n")
	b.WriteString("-------------------------------------\n")
	for _, p := range products {
		b.WriteString("• " + p.Name + " - " + formatPrice(p.Cost) + " руб. (" + strconv.Itoa(p.Quantity) + " шт.)\n")
	}
	b.WriteString("-------------------------------------\n\nВыберите товар:")

	return newKeyboardReply(b.String(), keyboard, true)
}

func productCardReply(sess *Session) Reply {
	keyboard := [][]Button{
		buttonRow(BtnDecrease, BtnIncrease),
		buttonRow(BtnConfirm, BtnCancel),
		buttonRow(BtnAddMore),
		buttonRow(BtnBackToProducts, BtnBackToMenu),
	}

	total := sess.Product.Cost * float64(sess.Quantity)

	text := "------------------------------------------\n" +
		"🎯 *Вы выбрали:* " + sess.Product.Name + "\n" +
		"📦 *Количество:* " + strconv.Itoa(sess.Quantity) + " шт.\n" +
		"💰 *Итоговая цена:* " + formatPrice(total) + " руб.\n" +
		"------------------------------------------\n\n" +
		"Выберите действие:"

	return newKeyboardReply(text, keyboard, true)
}

func locationReply(text string) Reply {
	keyboard := [][]Button{
		{{Label: BtnSendLocation, RequestLocation: true}},
		buttonRow(BtnCancel, BtnBackToProducts),
	}
	return newKeyboardReply(text, keyboard, true)
}

func startKeyboard() [][]Button {
	return [][]Button{buttonRow("/start")}
}

func formatGeoPoint(point *GeoPoint) string {
	return strconv.FormatFloat(point.Latitude, 'f', -1, 64) + ", " +
		strconv.FormatFloat(point.Longitude, 'f', -1, 64)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
