package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/softvape/shop-bot/internal/catalog"
	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/pkg/e"
	"github.com/softvape/shop-bot/pkg/logger"
)

// AdminUseCase — конечный автомат админ-панели: просмотр заказов по статусу,
// переводы статусов и управление каталогом (список, очистка с резервной копией,
// массовая замена из CSV). Доступ разрешён единственному настроенному администратору.
type AdminUseCase struct {
	products ProductRepository
	orders   OrderRepository
	sessions SessionRepository
	backups  BackupRepository
	producer OrderEventProducer
	txm      Transactor
	adminID  int64
	logger   logger.Logger
	now      func() time.Time
}

func NewAdminUC(
	products ProductRepository,
	orders OrderRepository,
	sessions SessionRepository,
	backups BackupRepository,
	producer OrderEventProducer,
	txm Transactor,
	adminID int64,
	logger logger.Logger,
) *AdminUseCase {
	return &AdminUseCase{
		products: products,
		orders:   orders,
		sessions: sessions,
		backups:  backups,
		producer: producer,
		txm:      txm,
		adminID:  adminID,
		logger:   logger,
		now:      time.Now,
	}
}

const accessDeniedText = "❌ Доступ только для администратора."

// EnterPanel открывает админ-панель. Любой пользователь, кроме настроенного
// администратора, получает отказ без смены состояния.
func (a *AdminUseCase) EnterPanel(ctx context.Context, sess *Session, upd *Update) (*HandleRes, error) {
	if upd.UserID != a.adminID {
		return &HandleRes{Replies: []Reply{newTextReply(accessDeniedText)}}, nil
	}

	return a.showPanel(ctx, sess)
}

// HandleState обрабатывает событие в одном из состояний админ-панели.
func (a *AdminUseCase) HandleState(ctx context.Context, sess *Session, upd *Update, cmd Command) (*HandleRes, error) {
	if upd.UserID != a.adminID {
		return &HandleRes{Replies: []Reply{newTextReply(accessDeniedText)}}, nil
	}

	if cmd == CmdMainMenu {
		return a.exitToMainMenu(ctx, sess)
	}

	switch sess.State {
	case StateAdminPanel:
		return a.handlePanel(ctx, sess, cmd)
	case StateAdminOrders:
		return a.handleOrderSelection(ctx, sess, upd, cmd)
	case StateAdminOrderDetail:
		return a.handleOrderDetail(ctx, sess, cmd)
	case StateAdminProducts:
		return a.handleProductManagement(ctx, sess, cmd)
	case StateAdminClearConfirm:
		return a.handleClearConfirm(ctx, sess, cmd)
	case StateAdminAwaitCSV:
		return a.handleCSVUpload(ctx, sess, upd, cmd)
	default:
		return a.showPanel(ctx, sess)
	}
}

func (a *AdminUseCase) handlePanel(ctx context.Context, sess *Session, cmd Command) (*HandleRes, error) {
	switch cmd {
	case CmdPendingOrders:
		return a.showOrders(ctx, sess, domain.OrderStatusPending)
	case CmdCompletedOrders:
		return a.showOrders(ctx, sess, domain.OrderStatusCompleted)
	case CmdCancelledOrders:
		return a.showOrders(ctx, sess, domain.OrderStatusCancelled)
	case CmdUpdateProducts:
		return a.awaitCSV(ctx, sess, CSVModeUpdate)
	case CmdManageProducts:
		return a.showProductManagement(ctx, sess)
	default:
		return a.showPanel(ctx, sess)
	}
}

// showOrders выводит нумерованный список заказов выбранного статуса,
// от новых к старым.
func (a *AdminUseCase) showOrders(ctx context.Context, sess *Session, status domain.OrderStatus) (*HandleRes, error) {
	const op = "AdminUseCase.showOrders"

	orders, err := a.orders.GetAll(ctx, status)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(orders) == 0 {
		sess.State = StateAdminPanel
		if err := a.sessions.Set(ctx, sess); err != nil {
			return nil, e.Wrap(op, err)
		}

		reply := newKeyboardReply(
			fmt.Sprintf("📭 Нет заказов со статусом '%s'", status),
			[][]Button{buttonRow(BtnBackToAdmin)},
			false,
		)
		return &HandleRes{Replies: []Reply{reply}}, nil
	}

	sess.OrderIDs = make([]int64, 0, len(orders))
	sess.OrderStatus = status
	sess.OrderID = 0
	sess.State = StateAdminOrders

	var b strings.Builder
	fmt.Fprintf(&b, "📦 *Заказы (%s):*\n\n", status)

	var keyboard [][]Button
	for i, order := range orders {
		sess.OrderIDs = append(sess.OrderIDs, order.ID)
		fmt.Fprintf(&b, "%d. #%d - %s, %dшт, %sруб\n",
			i+1, order.ID, order.UserName, len(order.Items), formatPrice(order.TotalPrice))

		if i%2 == 0 {
			keyboard = append(keyboard, buttonRow(strconv.Itoa(i+1)))
		} else {
			keyboard[len(keyboard)-1] = append(keyboard[len(keyboard)-1], Button{Label: strconv.Itoa(i + 1)})
		}
	}
	keyboard = append(keyboard, buttonRow(BtnBackToAdmin))

	if err := a.sessions.Set(ctx, sess); err != nil {
		return nil, e.Wrap(op, err)
	}

	b.WriteString("\nВыберите номер заказа:")
	return &HandleRes{Replies: []Reply{newKeyboardReply(b.String(), keyboard, true)}}, nil
}

func (a *AdminUseCase) handleOrderSelection(ctx context.Context, sess *Session, upd *Update, cmd Command) (*HandleRes, error) {
	const op = "AdminUseCase.handleOrderSelection"

	if cmd == CmdBackToAdmin {
		return a.showPanel(ctx, sess)
	}

	number, err := strconv.Atoi(upd.Text)
	if err != nil {
		return &HandleRes{Replies: []Reply{newTextReply("❌ Пожалуйста, выберите номер заказа:")}}, nil
	}

	// Номер проверяется по границам показанного списка.
	if number < 1 || number > len(sess.OrderIDs) {
		return &HandleRes{Replies: []Reply{newTextReply("❌ Неверный номер заказа. Выберите из списка:")}}, nil
	}

	order, err := a.orders.GetByID(ctx, sess.OrderIDs[number-1])
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if order == nil {
		return &HandleRes{Replies: []Reply{newTextReply("❌ Заказ не найден. Выберите из списка:")}}, nil
	}

	sess.OrderID = order.ID
	sess.State = StateAdminOrderDetail
	if err := a.sessions.Set(ctx, sess); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &HandleRes{Replies: []Reply{newKeyboardReply(renderOrderDetails(order), orderDetailKeyboard(order.Status), true)}}, nil
}

func (a *AdminUseCase) handleOrderDetail(ctx context.Context, sess *Session, cmd Command) (*HandleRes, error) {
	switch cmd {
	case CmdBackToList:
		return a.showOrders(ctx, sess, sess.OrderStatus)
	case CmdCompleteOrder:
		return a.transitionOrder(ctx, sess, domain.OrderStatusCompleted, "✅ Заказ отмечен как выполненный")
	case CmdCancel:
		return a.transitionOrder(ctx, sess, domain.OrderStatusCancelled, "❌ Заказ отменен")
	case CmdRevertOrder:
		return a.transitionOrder(ctx, sess, domain.OrderStatusPending, "🔄 Заказ возвращен в ожидание")
	case CmdRestoreOrder:
		return a.transitionOrder(ctx, sess, domain.OrderStatusPending, "✅ Заказ восстановлен")
	default:
		return &HandleRes{Replies: []Reply{newTextReply("❌ Пожалуйста, выберите действие из меню:")}}, nil
	}
}

// transitionOrder переводит выбранный заказ в новый статус. Допустимы ровно
// четыре перехода графа статусов; смена статуса не трогает ни склад, ни корзины.
// Новый статус и событие о переходе записываются в одной транзакции.
func (a *AdminUseCase) transitionOrder(ctx context.Context, sess *Session, next domain.OrderStatus, successText string) (*HandleRes, error) {
	const op = "AdminUseCase.transitionOrder"

	order, err := a.orders.GetByID(ctx, sess.OrderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if order == nil || !order.Status.CanTransitionTo(next) {
		res, err := a.showPanel(ctx, sess)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		res.Replies = append([]Reply{newTextReply("❌ Ошибка при обновлении статуса заказа")}, res.Replies...)
		return res, nil
	}

	var updated bool
	err = a.txm.WithinTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		updated, txErr = a.orders.UpdateStatus(ctx, order.ID, next)
		if txErr != nil || !updated {
			return txErr
		}

		return a.producer.OrderStatusChanged(ctx, order.ID, order.Status, next)
	})
	if err != nil || !updated {
		// Администратору сообщается, что операция не применилась.
		if err != nil {
			a.logger.Errorf(err, "failed to update status of order #%d", order.ID)
		}
		res, panelErr := a.showPanel(ctx, sess)
		if panelErr != nil {
			return nil, e.Wrap(op, panelErr)
		}
		res.Replies = append([]Reply{newTextReply("❌ Ошибка при обновлении статуса заказа")}, res.Replies...)
		return res, nil
	}

	a.logger.Infof("order #%d: %s -> %s", order.ID, order.Status, next)

	res, err := a.showPanel(ctx, sess)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	res.Replies = append([]Reply{newTextReply(successText)}, res.Replies...)
	return res, nil
}

func (a *AdminUseCase) showProductManagement(ctx context.Context, sess *Session) (*HandleRes, error) {
	const op = "AdminUseCase.showProductManagement"

	sess.State = StateAdminProducts
	if err := a.sessions.Set(ctx, sess); err != nil {
		return nil, e.Wrap(op, err)
	}

	keyboard := [][]Button{
		buttonRow(BtnClearProducts, BtnReplaceProducts),
		buttonRow(BtnShowProducts, BtnBackToAdmin),
	}
	reply := newKeyboardReply("🛍️ *Управление товарами*\n\nВыберите действие:", keyboard, true)
	return &HandleRes{Replies: []Reply{reply}}, nil
}

func (a *AdminUseCase) handleProductManagement(ctx context.Context, sess *Session, cmd Command) (*HandleRes, error) {
	const op = "AdminUseCase.handleProductManagement"

	switch cmd {
	case CmdBackToAdmin:
		return a.showPanel(ctx, sess)

	case CmdShowProducts:
		products, err := a.products.GetAll(ctx)
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		if len(products) == 0 {
			return &HandleRes{Replies: []Reply{newTextReply("📭 Товары не найдены в базе данных")}}, nil
		}

		reply := newKeyboardReply(renderProductsList(products), [][]Button{buttonRow(BtnBackToAdmin)}, true)
		return &HandleRes{Replies: []Reply{reply}}, nil

	case CmdClearProducts:
		sess.State = StateAdminClearConfirm
		if err := a.sessions.Set(ctx, sess); err != nil {
			return nil, e.Wrap(op, err)
		}

		reply := newKeyboardReply(
			"⚠️ *ВНИМАНИЕ!*\n\n"+
				"Вы уверены, что хотите очистить ВСЕ товары из базы данных?\n"+
				"Это действие нельзя отменить!",
			[][]Button{buttonRow(BtnConfirmClear, BtnDeclineClear)},
			true,
		)
		return &HandleRes{Replies: []Reply{reply}}, nil

	case CmdReplaceProducts:
		return a.awaitCSV(ctx, sess, CSVModeReplace)

	default:
		return a.showProductManagement(ctx, sess)
	}
}

// handleClearConfirm — двухшаговая защита перед разрушительной очисткой каталога.
// Резервная копия снимается безусловно до удаления.
func (a *AdminUseCase) handleClearConfirm(ctx context.Context, sess *Session, cmd Command) (*HandleRes, error) {
	const op = "AdminUseCase.handleClearConfirm"

	switch cmd {
	case CmdConfirmClear:
		if err := a.backupCatalog(ctx); err != nil {
			a.logger.Errorf(err, "catalog backup failed, clear aborted")
			res, panelErr := a.showPanel(ctx, sess)
			if panelErr != nil {
				return nil, e.Wrap(op, panelErr)
			}
			res.Replies = append([]Reply{newTextReply("❌ Не удалось создать резервную копию, очистка отменена")}, res.Replies...)
			return res, nil
		}

		deleted, err := a.products.DeleteAll(ctx)
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		a.logger.Infof("catalog cleared, %d product(s) removed", deleted)

		res, err := a.showPanel(ctx, sess)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		res.Replies = append([]Reply{newTextReply(fmt.Sprintf(
			"✅ Все товары удалены из базы данных\n📦 Удалено товаров: %d\n💾 Резервная копия сохранена", deleted,
		))}, res.Replies...)
		return res, nil

	case CmdDeclineClear:
		res, err := a.showPanel(ctx, sess)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		res.Replies = append([]Reply{newTextReply("❌ Очистка отменена")}, res.Replies...)
		return res, nil

	default:
		reply := newKeyboardReply(
			"Пожалуйста, подтвердите или отмените очистку:",
			[][]Button{buttonRow(BtnConfirmClear, BtnDeclineClear)},
			false,
		)
		return &HandleRes{Replies: []Reply{reply}}, nil
	}
}

func (a *AdminUseCase) awaitCSV(ctx context.Context, sess *Session, mode CSVMode) (*HandleRes, error) {
	const op = "AdminUseCase.awaitCSV"

	sess.State = StateAdminAwaitCSV
	sess.CSVMode = mode
	if err := a.sessions.Set(ctx, sess); err != nil {
		return nil, e.Wrap(op, err)
	}

	text := "📦 Отправьте CSV файл с товарами.\n\n" +
		"Формат: category,name,cost,quantity,image_path,description\n" +
		"Пример: Одноразки,Elf Bar,1500,25,,Вкус манго\n\n" +
		"Или нажмите /cancel для отмены"
	if mode == CSVModeReplace {
		text += "\n\n⚠️ *ВНИМАНИЕ!* Все старые товары будут удалены!"
	}

	reply := newKeyboardReply(text, [][]Button{buttonRow(BtnBackToAdmin)}, mode == CSVModeReplace)
	return &HandleRes{Replies: []Reply{reply}}, nil
}

// handleCSVUpload разбирает присланный CSV и атомарно заменяет каталог.
// Любая ошибка разбора отклоняет импорт целиком — каталог остаётся прежним.
func (a *AdminUseCase) handleCSVUpload(ctx context.Context, sess *Session, upd *Update, cmd Command) (*HandleRes, error) {
	const op = "AdminUseCase.handleCSVUpload"

	if upd.Document == nil {
		if cmd == CmdBackToAdmin || cmd == CmdCancel {
			return a.showPanel(ctx, sess)
		}
		return &HandleRes{Replies: []Reply{newTextReply("📦 Отправьте CSV файл с товарами или нажмите /cancel")}}, nil
	}

	products, err := catalog.Parse(upd.Document)
	if err != nil {
		a.logger.Warnf("catalog import rejected: %v", err)

		res, panelErr := a.showPanel(ctx, sess)
		if panelErr != nil {
			return nil, e.Wrap(op, panelErr)
		}
		res.Replies = append([]Reply{newTextReply("❌ Ошибка при обработке CSV файла. Каталог не изменён.")}, res.Replies...)
		return res, nil
	}

	// Замена удаляет весь прежний каталог, поэтому копия снимается и здесь.
	if err := a.backupCatalog(ctx); err != nil {
		a.logger.Errorf(err, "catalog backup failed, import aborted")
		res, panelErr := a.showPanel(ctx, sess)
		if panelErr != nil {
			return nil, e.Wrap(op, panelErr)
		}
		res.Replies = append([]Reply{newTextReply("❌ Не удалось создать резервную копию, импорт отменён")}, res.Replies...)
		return res, nil
	}

	if err := a.products.ReplaceAll(ctx, products); err != nil {
		a.logger.Errorf(err, "catalog replace failed")
		res, panelErr := a.showPanel(ctx, sess)
		if panelErr != nil {
			return nil, e.Wrap(op, panelErr)
		}
		res.Replies = append([]Reply{newTextReply("❌ Ошибка при замене товаров. Каталог не изменён.")}, res.Replies...)
		return res, nil
	}

	a.logger.Infof("catalog replaced with %d product(s)", len(products))

	text := "✅ Товары успешно заменены из CSV файла!"
	if sess.CSVMode == CSVModeUpdate {
		text = "✅ База данных успешно обновлена из CSV файла!"
	}

	res, err := a.showPanel(ctx, sess)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	res.Replies = append([]Reply{newTextReply(text)}, res.Replies...)
	return res, nil
}

// backupCatalog сериализует текущий каталог и кладёт его в долговременное
// хранилище под именем backup_products_<timestamp>.csv.
func (a *AdminUseCase) backupCatalog(ctx context.Context) error {
	products, err := a.products.GetAll(ctx)
	if err != nil {
		return err
	}

	data, err := catalog.Serialize(products)
	if err != nil {
		return err
	}

	name := catalog.BackupObjectName(a.now())
	if err := a.backups.Store(ctx, name, data); err != nil {
		return err
	}

	a.logger.Infof("catalog backup stored: %s (%d product(s))", name, len(products))
	return nil
}

func (a *AdminUseCase) showPanel(ctx context.Context, sess *Session) (*HandleRes, error) {
	const op = "AdminUseCase.showPanel"

	sess.State = StateAdminPanel
	sess.OrderIDs = nil
	sess.OrderStatus = ""
	sess.OrderID = 0
	sess.CSVMode = ""
	if err := a.sessions.Set(ctx, sess); err != nil {
		return nil, e.Wrap(op, err)
	}

	keyboard := [][]Button{
		buttonRow(BtnPendingOrders, BtnCompletedOrders),
		buttonRow(BtnCancelledOrders, BtnUpdateProducts),
		buttonRow(BtnManageProducts),
		buttonRow(BtnMainMenu),
	}
	reply := newKeyboardReply("👑 *Админ-панель Soft Vape*\n\nВыберите действие:", keyboard, true)
	return &HandleRes{Replies: []Reply{reply}}, nil
}

// exitToMainMenu возвращает администратора в пользовательское главное меню.
func (a *AdminUseCase) exitToMainMenu(ctx context.Context, sess *Session) (*HandleRes, error) {
	const op = "AdminUseCase.exitToMainMenu"

	fresh := NewSession(sess.UserID)
	if err := a.sessions.Set(ctx, fresh); err != nil {
		return nil, e.Wrap(op, err)
	}

	categories, err := a.products.GetCategories(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Меню идентично тому, что видит администратор после /start.
	return &HandleRes{Replies: []Reply{newKeyboardReply(greeting, mainMenuKeyboard(categories, true), true)}}, nil
}

func renderOrderDetails(order *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *Заказ #%d*\n\n", order.ID)
	fmt.Fprintf(&b, "👤 *Клиент:* %s\n", order.UserName)
	fmt.Fprintf(&b, "📞 *ID:* %d\n", order.UserID)
	fmt.Fprintf(&b, "💰 *Сумма:* %s руб.\n", formatPrice(order.TotalPrice))
	fmt.Fprintf(&b, "📋 *Статус:* %s\n", order.Status)
	fmt.Fprintf(&b, "⏰ *Дата:* %s\n\n", order.CreatedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("🛍️ *Состав заказа:*\n")
	for _, name := range sortedItemNames(order.Items) {
		fmt.Fprintf(&b, "• %s x%d\n", name, order.Items[name])
	}

	fmt.Fprintf(&b, "\n📍 *Локация:* %s\n", order.Location)
	fmt.Fprintf(&b, "📝 *Комментарий:* %s\n", order.Comment)
	return b.String()
}

func orderDetailKeyboard(status domain.OrderStatus) [][]Button {
	switch status {
	case domain.OrderStatusPending:
		return [][]Button{
			buttonRow(BtnCompleteOrder, BtnCancel),
			buttonRow(BtnBackToList),
		}
	case domain.OrderStatusCompleted:
		return [][]Button{buttonRow(BtnRevertOrder, BtnBackToList)}
	case domain.OrderStatusCancelled:
		return [][]Button{buttonRow(BtnRestoreOrder, BtnBackToList)}
	default:
		return [][]Button{buttonRow(BtnBackToList)}
	}
}

func renderProductsList(products []domain.Product) string {
	grouped := make(map[string][]domain.Product)
	var categories []string
	for _, p := range products {
		if _, ok := grouped[p.Category]; !ok {
			categories = append(categories, p.Category)
		}
		grouped[p.Category] = append(grouped[p.Category], p)
	}

	var b strings.Builder
	b.WriteString("🛍️ *Список товаров:*\n\n")
	for _, category := range categories {
		fmt.Fprintf(&b, "📂 *%s:*\n", category)
		for _, p := range grouped[category] {
			fmt.Fprintf(&b, "• %s - %s руб. (остаток: %d шт.)\n", p.Name, formatPrice(p.Cost), p.Quantity)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "📊 *Всего товаров:* %d\n", len(products))
	fmt.Fprintf(&b, "📂 *Категорий:* %d", len(categories))
	return b.String()
}
