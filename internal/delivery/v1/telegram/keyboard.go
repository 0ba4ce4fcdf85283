package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/softvape/shop-bot/internal/usecase"
)

// replyMarkup переводит клавиатуру ответа в формат Telegram.
// Возвращает nil, если клавиатуру менять не нужно.
func replyMarkup(reply *usecase.Reply) any {
	if reply.RemoveKeyboard {
		return tgbotapi.NewRemoveKeyboard(false)
	}

	if len(reply.Keyboard) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Keyboard))
	for _, row := range reply.Keyboard {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, btn := range row {
			if btn.RequestLocation {
				buttons = append(buttons, tgbotapi.NewKeyboardButtonLocation(btn.Label))
				continue
			}
			buttons = append(buttons, tgbotapi.NewKeyboardButton(btn.Label))
		}
		rows = append(rows, buttons)
	}

	return tgbotapi.NewReplyKeyboard(rows...)
}
