package usecase

import "context"

// BotUC — единая точка входа диалоговой логики: одно входящее событие
// обрабатывается до конца, без перекрытия шагов внутри одной сессии.
type BotUC interface {
	Handle(ctx context.Context, upd *Update) (*HandleRes, error)
}
