package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softvape/shop-bot/internal/domain"
)

func adminUpdate(text string) *Update {
	return &Update{UserID: testAdminID, UserName: "admin", Text: text}
}

func seedOrder(t *testing.T, f *botFixture, userID int64, status domain.OrderStatus) int64 {
	t.Helper()

	order := domain.NewOrder(userID, "ivan", domain.CartItems{"Elf Bar": 1}, 1000, "55.75, 37.62", "-")
	id, err := f.orders.Create(context.Background(), order)
	require.NoError(t, err)

	if status != domain.OrderStatusPending {
		ok, err := f.orders.UpdateStatus(context.Background(), id, status)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return id
}

// Админ-панель недоступна никому, кроме настроенного администратора,
// даже если в сессии уже стоит админское состояние.
func TestAdminAccessDenied(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()
	const userID int64 = 1001

	f.setSession(&Session{UserID: userID, State: StateMainMenu})

	res, err := f.uc.Handle(ctx, textUpdate(userID, BtnAdminPanel))
	require.NoError(t, err)
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0].Text, "Доступ только для администратора")
	assert.Equal(t, StateMainMenu, f.session(userID).State)

	f.setSession(&Session{UserID: userID, State: StateAdminPanel})

	res, err = f.uc.Handle(ctx, textUpdate(userID, BtnManageProducts))
	require.NoError(t, err)
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0].Text, "Доступ только для администратора")
	assert.Equal(t, StateAdminPanel, f.session(userID).State)
}

func TestEnterPanel(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()

	f.setSession(&Session{UserID: testAdminID, State: StateMainMenu})

	res, err := f.uc.Handle(ctx, adminUpdate(BtnAdminPanel))
	require.NoError(t, err)

	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0].Text, "Админ-панель")
	assert.Equal(t, StateAdminPanel, f.session(testAdminID).State)
}

// Список заказов по статусу и выбор заказа по номеру из показанного списка.
func TestShowOrdersAndSelect(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()

	first := seedOrder(t, f, 1001, domain.OrderStatusPending)
	second := seedOrder(t, f, 1002, domain.OrderStatusPending)
	seedOrder(t, f, 1003, domain.OrderStatusCompleted)

	f.setSession(&Session{UserID: testAdminID, State: StateAdminPanel})

	res, err := f.uc.Handle(ctx, adminUpdate(BtnPendingOrders))
	require.NoError(t, err)

	sess := f.session(testAdminID)
	require.Equal(t, StateAdminOrders, sess.State)
	// От новых к старым, завершённый заказ не попадает в список.
	require.Equal(t, []int64{second, first}, sess.OrderIDs)
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0].Text, "Выберите номер заказа")

	res, err = f.uc.Handle(ctx, adminUpdate("2"))
	require.NoError(t, err)

	sess = f.session(testAdminID)
	require.Equal(t, StateAdminOrderDetail, sess.State)
	assert.Equal(t, first, sess.OrderID)
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0].Text, "Заказ #1")
}

func TestOrderSelectionBounds(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()

	id := seedOrder(t, f, 1001, domain.OrderStatusPending)

	f.setSession(&Session{
		UserID:      testAdminID,
		State:       StateAdminOrders,
		OrderIDs:    []int64{id},
		OrderStatus: domain.OrderStatusPending,
	})

	res, err := f.uc.Handle(ctx, adminUpdate("5"))
	require.NoError(t, err)
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0].Text, "Неверный номер заказа")
	assert.Equal(t, StateAdminOrders, f.session(testAdminID).State)

	res, err = f.uc.Handle(ctx, adminUpdate("не число"))
	require.NoError(t, err)
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0].Text, "выберите номер заказа")
	assert.Equal(t, StateAdminOrders, f.session(testAdminID).State)
}

// Перевод статуса по допустимому ребру графа публикует событие
// и возвращает админа в панель.
func TestOrderStatusTransition(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()

	id := seedOrder(t, f, 1001, domain.OrderStatusPending)

	f.setSession(&Session{
		UserID:      testAdminID,
		State:       StateAdminOrderDetail,
		OrderStatus: domain.OrderStatusPending,
		OrderID:     id,
	})

	res, err := f.uc.Handle(ctx, adminUpdate(BtnCompleteOrder))
	require.NoError(t, err)

	order, err := f.orders.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)

	require.NotEmpty(t, res.Replies)
	assert.Contains(t, res.Replies[0].Text, "Заказ отмечен как выполненный")
	assert.Equal(t, StateAdminPanel, f.session(testAdminID).State)

	require.Len(t, f.producer.events, 1)
	event := f.producer.events[0]
	assert.Equal(t, "status_changed", event.kind)
	assert.Equal(t, domain.OrderStatusPending, event.from)
	assert.Equal(t, domain.OrderStatusCompleted, event.to)
}

// Смена статуса и запись события выполняются в одном транзакционном блоке;
// сбой записи события проваливает операцию, а не остаётся незамеченным.
func TestOrderStatusChangeEventFailure(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()

	id := seedOrder(t, f, 1001, domain.OrderStatusPending)
	f.producer.err = errStorage

	f.setSession(&Session{
		UserID:      testAdminID,
		State:       StateAdminOrderDetail,
		OrderStatus: domain.OrderStatusPending,
		OrderID:     id,
	})

	res, err := f.uc.Handle(ctx, adminUpdate(BtnCompleteOrder))
	require.NoError(t, err)

	require.NotEmpty(t, res.Replies)
	assert.Contains(t, res.Replies[0].Text, "Ошибка при обновлении статуса")
	assert.Empty(t, f.producer.events)
}

// Выход из админ-панели показывает то же главное меню, что и /start:
// категории по три в ряд плюс кнопка админ-панели.
func TestAdminExitToMainMenu(t *testing.T) {
	catalog := []domain.Product{
		*domain.NewProduct("Аксессуары", "Зарядка USB-C", 300, 10, "", ""),
		*domain.NewProduct("Жидкости", "Pod Salt 20mg Манго", 800, 25, "", ""),
		*domain.NewProduct("Одноразки", "Elf Bar", 1000, 10, "", ""),
		*domain.NewProduct("Поды", "Xros 3", 2500, 7, "", ""),
	}

	f := newBotFixture(catalog)
	ctx := context.Background()

	f.setSession(&Session{UserID: testAdminID, State: StateAdminPanel})

	res, err := f.uc.Handle(ctx, adminUpdate(BtnMainMenu))
	require.NoError(t, err)

	require.Len(t, res.Replies, 1)
	reply := res.Replies[0]
	assert.Contains(t, reply.Text, "Выберите категорию")

	require.Len(t, reply.Keyboard, 3)
	assert.Len(t, reply.Keyboard[0], 3)
	assert.Len(t, reply.Keyboard[1], 1)
	require.Len(t, reply.Keyboard[2], 1)
	assert.Equal(t, BtnAdminPanel, reply.Keyboard[2][0].Label)

	assert.Equal(t, StateMainMenu, f.session(testAdminID).State)
}

// Недопустимый переход отклоняется, статус заказа не меняется.
func TestOrderStatusInvalidTransition(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()

	id := seedOrder(t, f, 1001, domain.OrderStatusCompleted)

	f.setSession(&Session{
		UserID:      testAdminID,
		State:       StateAdminOrderDetail,
		OrderStatus: domain.OrderStatusCompleted,
		OrderID:     id,
	})

	res, err := f.uc.Handle(ctx, adminUpdate(BtnCompleteOrder))
	require.NoError(t, err)

	order, err := f.orders.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)

	require.NotEmpty(t, res.Replies)
	assert.Contains(t, res.Replies[0].Text, "Ошибка при обновлении статуса")
	assert.Empty(t, f.producer.events)
}

// Очистка каталога снимает ровно одну резервную копию перед удалением.
func TestClearProductsCreatesBackup(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()

	f.setSession(&Session{UserID: testAdminID, State: StateAdminClearConfirm})

	res, err := f.uc.Handle(ctx, adminUpdate(BtnConfirmClear))
	require.NoError(t, err)

	require.Len(t, f.backups.objects, 1)
	data, ok := f.backups.objects["backup_products_20250615_123045.csv"]
	require.True(t, ok)
	assert.Contains(t, string(data), "category,name,cost,quantity,image_path,description")
	assert.Contains(t, string(data), "Elf Bar")

	remaining, err := f.products.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	require.NotEmpty(t, res.Replies)
	assert.Contains(t, res.Replies[0].Text, "Удалено товаров: 3")
	assert.Equal(t, StateAdminPanel, f.session(testAdminID).State)
}

func TestClearProductsDeclined(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()

	f.setSession(&Session{UserID: testAdminID, State: StateAdminClearConfirm})

	res, err := f.uc.Handle(ctx, adminUpdate(BtnDeclineClear))
	require.NoError(t, err)

	remaining, err := f.products.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
	assert.Empty(t, f.backups.objects)
	require.NotEmpty(t, res.Replies)
	assert.Contains(t, res.Replies[0].Text, "Очистка отменена")
}

func TestCSVReplace(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()

	f.setSession(&Session{UserID: testAdminID, State: StateAdminAwaitCSV, CSVMode: CSVModeReplace})

	csv := "category,name,cost,quantity,image_path,description\n" +
		"Жидкости,Husky Malaysian,950,12,,Лимонад\n"

	res, err := f.uc.Handle(ctx, &Update{UserID: testAdminID, UserName: "admin", Document: []byte(csv)})
	require.NoError(t, err)

	products, err := f.products.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Husky Malaysian", products[0].Name)
	assert.Equal(t, 950.0, products[0].Cost)

	// Старый каталог сохранён в резервной копии до замены.
	require.Len(t, f.backups.objects, 1)
	require.NotEmpty(t, res.Replies)
	assert.Contains(t, res.Replies[0].Text, "успешно заменены")
	assert.Equal(t, StateAdminPanel, f.session(testAdminID).State)
}

// Ошибка разбора отклоняет импорт целиком: каталог остаётся прежним.
func TestCSVMalformedLeavesCatalogIntact(t *testing.T) {
	f := newBotFixture(testCatalog())
	ctx := context.Background()

	f.setSession(&Session{UserID: testAdminID, State: StateAdminAwaitCSV, CSVMode: CSVModeUpdate})

	csv := "category,name,cost,quantity,image_path,description\n" +
		"Жидкости,Битая строка,не цена,12,,\n"

	res, err := f.uc.Handle(ctx, &Update{UserID: testAdminID, UserName: "admin", Document: []byte(csv)})
	require.NoError(t, err)

	products, err := f.products.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
	assert.Empty(t, f.backups.objects)
	require.NotEmpty(t, res.Replies)
	assert.Contains(t, res.Replies[0].Text, "Ошибка при обработке CSV")
}
