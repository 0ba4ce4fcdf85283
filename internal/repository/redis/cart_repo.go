package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	r "github.com/redis/go-redis/v9"

	"github.com/jimlawless/whereami"
	"github.com/softvape/shop-bot/internal/domain"
	"github.com/softvape/shop-bot/pkg/clients"
	"github.com/softvape/shop-bot/pkg/e"
)

// CartRepo хранит корзины пользователей в Redis.
// Запись полностью заменяет прежнюю корзину (last-writer-wins, без слияния).
type CartRepo struct {
	client *clients.RedisClient
}

func NewCartRepo(client *clients.RedisClient) *CartRepo {
	return &CartRepo{client: client}
}

type cartModel struct {
	UserID    int64            `json:"user_id"`
	Items     domain.CartItems `json:"items"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (c *CartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	model := cartModel{
		UserID:    cart.UserID,
		Items:     cart.Items,
		UpdatedAt: time.Now(),
	}

	data, err := json.Marshal(model)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	// Корзины не истекают: пользователь может вернуться к незавершённому заказу.
	if err := c.client.Client.Set(ctx, cartKey(cart.UserID), data, 0).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Get возвращает пустую корзину, если сохранённой нет.
func (c *CartRepo) Get(ctx context.Context, userID int64) (*domain.Cart, error) {
	data, err := c.client.Client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, r.Nil) {
		return domain.NewCart(userID), nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model cartModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &domain.Cart{
		UserID:    model.UserID,
		Items:     model.Items,
		UpdatedAt: model.UpdatedAt,
	}, nil
}

func (c *CartRepo) Clear(ctx context.Context, userID int64) error {
	if err := c.client.Client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func cartKey(userID int64) string {
	return fmt.Sprintf("cart:%d", userID)
}
