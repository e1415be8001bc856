// Package cache holds the redis-backed session store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"isdn/internal/config"
	"isdn/internal/domain"
	"isdn/internal/repos"
)

// RedisSessions keeps each session as a JSON blob plus a per-user index set used for
// invalidating every session of a deleted user.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessions(cfg config.RedisConfig) *RedisSessions {
	return &RedisSessions{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: cfg.SessionTTL,
	}
}

func SessionKey(sid string) string                      { return fmt.Sprintf("isdn:session:%s", sid) }
func UserIndexKey(uid string) string                    { return fmt.Sprintf("isdn:user-sessions:%s", uid) }
func (r *RedisSessions) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }
func (r *RedisSessions) Close() error                   { return r.client.Close() }

func (r *RedisSessions) Put(ctx context.Context, s domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, SessionKey(s.ID), data, r.ttl)
		p.SAdd(ctx, UserIndexKey(s.UserID), s.ID)
		return nil
	})
	return err
}

func (r *RedisSessions) Get(ctx context.Context, sid string) (domain.Session, error) {
	data, err := r.client.Get(ctx, SessionKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, repos.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Session{}, fmt.Errorf("session %s: %w", sid, err)
	}
	if _, err := domain.ParseRole(string(s.Role)); err != nil {
		return domain.Session{}, fmt.Errorf("session %s: %w", sid, err)
	}
	return s, nil
}

func (r *RedisSessions) Delete(ctx context.Context, sid string) error {
	s, err := r.Get(ctx, sid)
	if errors.Is(err, repos.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, SessionKey(sid))
		p.SRem(ctx, UserIndexKey(s.UserID), sid)
		return nil
	})
	return err
}

func (r *RedisSessions) DeleteUser(ctx context.Context, userID string) error {
	sids, err := r.client.SMembers(ctx, UserIndexKey(userID)).Result()
	if err != nil {
		return err
	}
	keys := []string{UserIndexKey(userID)}
	for _, sid := range sids {
		keys = append(keys, SessionKey(sid))
	}
	return r.client.Del(ctx, keys...).Err()
}
