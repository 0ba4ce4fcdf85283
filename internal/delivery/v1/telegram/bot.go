package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jimlawless/whereami"

	"github.com/softvape/shop-bot/internal/cfg"
	"github.com/softvape/shop-bot/internal/usecase"
	"github.com/softvape/shop-bot/pkg/e"
	"github.com/softvape/shop-bot/pkg/jitter"
	"github.com/softvape/shop-bot/pkg/logger"
)

const (
	pollBackoffBase = time.Second
	pollBackoffMax  = 30 * time.Second

	// Каталог на сотни позиций умещается в сотни килобайт; лимит с запасом.
	maxDocumentSize = 5 << 20
)

// Bot принимает сообщения Telegram через long polling и передаёт их
// диалоговой логике. События одного пользователя обрабатываются по порядку.
type Bot struct {
	api    *tgbotapi.BotAPI
	uc     usecase.BotUC
	cfg    *cfg.BotCfg
	client *http.Client
	logger logger.Logger
}

func NewBot(uc usecase.BotUC, cfg *cfg.BotCfg, logger logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	api.Debug = cfg.Debug

	logger.Infof("authorized on telegram account %s", api.Self.UserName)

	return &Bot{
		api:    api,
		uc:     uc,
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}, nil
}

// Run крутит цикл long polling до отмены контекста.
// Ошибки опроса гасятся экспоненциальным отступлением с джиттером.
func (b *Bot) Run(ctx context.Context) error {
	offset := 0
	attempt := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		updateCfg := tgbotapi.NewUpdate(offset)
		updateCfg.Timeout = int(b.cfg.PollTimeout.Seconds())

		updates, err := b.api.GetUpdates(updateCfg)
		if err != nil {
			delay := jitter.ExponentialBackoff(pollBackoffBase, pollBackoffMax, attempt, jitter.DefaultJitter)
			attempt++
			b.logger.Warnf("telegram poll failed (attempt %d), retrying in %v: %v", attempt, delay, err)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			continue
		}
		attempt = 0

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	upd := &usecase.Update{
		UserID:   msg.From.ID,
		UserName: userName(msg.From),
		Text:     msg.Text,
	}

	if msg.Location != nil {
		upd.Location = &usecase.GeoPoint{
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
		}
	}

	if msg.Document != nil {
		data, err := b.downloadDocument(ctx, msg.Document)
		if err != nil {
			b.logger.Warnf("failed to download document from user %d: %v", msg.From.ID, err)
			b.sendErrorReply(msg.Chat.ID)
			return
		}
		upd.Document = data
	}

	res, err := b.uc.Handle(ctx, upd)
	if err != nil {
		b.logger.Errorf(err, "failed to handle update from user %d", msg.From.ID)
		b.sendErrorReply(msg.Chat.ID)
		return
	}

	for i := range res.Replies {
		b.send(msg.Chat.ID, &res.Replies[i])
	}

	if res.AdminNote != nil {
		b.send(b.cfg.AdminID, res.AdminNote)
	}
}

func (b *Bot) send(chatID int64, reply *usecase.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if markup := replyMarkup(reply); markup != nil {
		msg.ReplyMarkup = markup
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warnf("failed to send message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) sendErrorReply(chatID int64) {
	reply := usecase.Reply{
		Text:     "❌ Произошла ошибка. Попробуйте еще раз.",
		Keyboard: [][]usecase.Button{{{Label: "/start"}}},
	}
	b.send(chatID, &reply)
}

// downloadDocument скачивает присланный файл через Telegram File API.
func (b *Bot) downloadDocument(ctx context.Context, doc *tgbotapi.Document) ([]byte, error) {
	if doc.FileSize > maxDocumentSize {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("document too large: %d bytes", doc.FileSize))
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("unexpected status %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(data) > maxDocumentSize {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("document exceeds %d bytes", maxDocumentSize))
	}

	return data, nil
}

func userName(user *tgbotapi.User) string {
	if user.UserName != "" {
		return user.UserName
	}

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name != "" {
		return name
	}

	return fmt.Sprintf("id%d", user.ID)
}
