package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smart-resume-analyzer/internal/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound token 不存在或已过期
var ErrSessionNotFound = errors.New("会话不存在或已过期")

// DefaultSessionTTL 未配置时的会话有效期
const DefaultSessionTTL = 30 * time.Minute

// Session 一个管理员会话
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore 管理员会话存储
type SessionStore interface {
	Create(ctx context.Context, username string) (*Session, error)
	Validate(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// KeyValueStore storage.Redis 满足该接口
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Del(ctx context.Context, key string) (bool, error)
}

// RedisSessionStore 以随机 token 为键、用户名为值保存会话，依靠 TTL 过期
type RedisSessionStore struct {
	kv  KeyValueStore
	ttl time.Duration
	now func() time.Time
}

var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore ttl <= 0 时使用 DefaultSessionTTL
func NewRedisSessionStore(kv KeyValueStore, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{kv: kv, ttl: ttl, now: time.Now}
}

func sessionKey(token string) string {
	return fmt.Sprintf(constants.KeyAdminSession, token)
}

// Create 生成新 token
func (s *RedisSessionStore) Create(ctx context.Context, username string) (*Session, error) {
	token := uuid.NewString()
	if err := s.kv.Set(ctx, sessionKey(token), username, s.ttl); err != nil {
		return nil, fmt.Errorf("保存会话失败: %w", err)
	}
	return &Session{Token: token, Username: username, ExpiresAt: s.now().Add(s.ttl)}, nil
}

// Validate 返回 token 对应的用户名
func (s *RedisSessionStore) Validate(ctx context.Context, token string) (string, error) {
	if _, err := uuid.Parse(token); err != nil {
		return "", ErrSessionNotFound
	}
	username, err := s.kv.Get(ctx, sessionKey(token))
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("读取会话失败: %w", err)
	}
	return username, nil
}

// Revoke 删除会话；token 不存在时返回 ErrSessionNotFound
func (s *RedisSessionStore) Revoke(ctx context.Context, token string) error {
	deleted, err := s.kv.Del(ctx, sessionKey(token))
	if err != nil {
		return fmt.Errorf("删除会话失败: %w", err)
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}
