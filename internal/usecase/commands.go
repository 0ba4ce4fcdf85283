package usecase

// Подписи кнопок диалога. Распознавание команд собрано в одном месте:
// обработчики состояний оперируют только закрытым перечислением Command.
const (
	BtnBackToMenu     = "⬅️ Назад в меню"
	BtnBackToProducts = "⬅️ Назад к товарам"
	BtnIncrease       = "➕ Увеличить"
	BtnDecrease       = "➖ Уменьшить"
	BtnConfirm        = "✅ Подтвердить"
	BtnCancel         = "❌ Отменить заказ"
	BtnAddMore        = "🛒 Добавить к заказу"
	BtnSendLocation   = "📍 Отправить локацию"

	BtnAdminPanel      = "👑 Админ-панель"
	BtnMainMenu        = "⬅️ Главное меню"
	BtnBackToAdmin     = "⬅️ Назад в админ-панель"
	BtnBackToList      = "⬅️ Назад к списку"
	BtnPendingOrders   = "📦 Активные заказы"
	BtnCompletedOrders = "✅ Завершенные"
	BtnCancelledOrders = "❌ Отмененные"
	BtnUpdateProducts  = "🔄 Обновить товары"
	BtnManageProducts  = "🗑️ Управление товарами"
	BtnClearProducts   = "🗑️ Очистить все товары"
	BtnReplaceProducts = "📦 Заменить товары"
	BtnShowProducts    = "📋 Показать товары"
	BtnConfirmClear    = "✅ Да, очистить"
	BtnDeclineClear    = "❌ Нет, отмена"
	BtnCompleteOrder   = "✅ Выполнить заказ"
	BtnRevertOrder     = "❌ Вернуть в ожидание"
	BtnRestoreOrder    = "✅ Восстановить заказ"
)

// Command — закрытое перечисление распознанных команд диалога.
// Любой другой текст — CmdUnknown, его трактовка зависит от состояния.
type Command int

const (
	CmdUnknown Command = iota
	CmdStart
	CmdBackToMenu
	CmdBackToProducts
	CmdIncrease
	CmdDecrease
	CmdConfirm
	CmdCancel
	CmdAddMore

	CmdAdminPanel
	CmdMainMenu
	CmdBackToAdmin
	CmdBackToList
	CmdPendingOrders
	CmdCompletedOrders
	CmdCancelledOrders
	CmdUpdateProducts
	CmdManageProducts
	CmdClearProducts
	CmdReplaceProducts
	CmdShowProducts
	CmdConfirmClear
	CmdDeclineClear
	CmdCompleteOrder
	CmdRevertOrder
	CmdRestoreOrder
)

var commandByLabel = map[string]Command{
	"/start":  CmdStart,
	"/cancel": CmdCancel,
	"/admin":  CmdAdminPanel,

	BtnBackToMenu:     CmdBackToMenu,
	BtnBackToProducts: CmdBackToProducts,
	BtnIncrease:       CmdIncrease,
	BtnDecrease:       CmdDecrease,
	BtnConfirm:        CmdConfirm,
	BtnCancel:         CmdCancel,
	BtnAddMore:        CmdAddMore,

	BtnAdminPanel:      CmdAdminPanel,
	BtnMainMenu:        CmdMainMenu,
	BtnBackToAdmin:     CmdBackToAdmin,
	BtnBackToList:      CmdBackToList,
	BtnPendingOrders:   CmdPendingOrders,
	BtnCompletedOrders: CmdCompletedOrders,
	BtnCancelledOrders: CmdCancelledOrders,
	BtnUpdateProducts:  CmdUpdateProducts,
	BtnManageProducts:  CmdManageProducts,
	BtnClearProducts:   CmdClearProducts,
	BtnReplaceProducts: CmdReplaceProducts,
	BtnShowProducts:    CmdShowProducts,
	BtnConfirmClear:    CmdConfirmClear,
	BtnDeclineClear:    CmdDeclineClear,
	BtnCompleteOrder:   CmdCompleteOrder,
	BtnRevertOrder:     CmdRevertOrder,
	BtnRestoreOrder:    CmdRestoreOrder,
}

// ParseCommand сопоставляет текст сообщения с командой диалога.
func ParseCommand(text string) Command {
	if cmd, ok := commandByLabel[text]; ok {
		return cmd
	}
	return CmdUnknown
}
