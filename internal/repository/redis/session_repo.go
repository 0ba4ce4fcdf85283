package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	r "github.com/redis/go-redis/v9"

	"github.com/jimlawless/whereami"
	"github.com/softvape/shop-bot/internal/cfg"
	"github.com/softvape/shop-bot/internal/usecase"
	"github.com/softvape/shop-bot/pkg/clients"
	"github.com/softvape/shop-bot/pkg/e"
)

// SessionRepo хранит контексты диалогов в Redis, по одному на пользователя.
// Перезапуск процесса не теряет незавершённые диалоги.
type SessionRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
}

func NewSessionRepo(client *clients.RedisClient, cfg *cfg.RedisCfg) *SessionRepo {
	return &SessionRepo{
		client: client,
		cfg:    cfg,
	}
}

// Get возвращает nil, если сессии нет.
func (s *SessionRepo) Get(ctx context.Context, userID int64) (*usecase.Session, error) {
	data, err := s.client.Client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var session usecase.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &session, nil
}

func (s *SessionRepo) Set(ctx context.Context, session *usecase.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	// SessionTTL == 0 — сессии не истекают.
	if err := s.client.Client.Set(ctx, sessionKey(session.UserID), data, s.cfg.SessionTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (s *SessionRepo) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}
