// cache реализует Revocation Store — обёртку над общим key-value
// хранилищем (Redis), в котором живёт всё межзапросное состояние сервиса:
//
//   - refresh_token:{userID} — текущий действительный refresh-токен
//     пользователя (ровно один на пользователя; новая запись перекрывает
//     старую — last-write-wins, это намеренная семантика «одной активной
//     цепочки сессии»);
//   - blacklist:{accessToken} — denylist access-токенов, отозванных до
//     естественного истечения (TTL = остаток жизни токена);
//   - {purpose}:{identity} — 6-значные коды подтверждения (TTL 600s).
//
// Все операции — одиночные обращения к хранилищу; транзакции не нужны,
// так как каждый ключ принадлежит ровно одному пользователю/токену.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Ключи хранилища. Формат зафиксирован: его читают и внешние
// инструменты отладки.
const (
	refreshKeyPrefix  = "refresh_token:"
	denylistKeyPrefix = "blacklist:"
)

// denylistSentinel — значение-заглушка для записей denylist;
// важен лишь факт существования ключа.
const denylistSentinel = "1"

// SessionCache — контракт Revocation Store.
type SessionCache interface {
	// SetRefreshToken сохраняет refresh-токен пользователя с TTL,
	// перекрывая предыдущий (старый токен перестаёт быть валидным).
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error
	// RefreshToken возвращает сохранённый refresh-токен и признак наличия.
	RefreshToken(ctx context.Context, userID uuid.UUID) (string, bool, error)
	// DeleteRefreshToken удаляет refresh-токен; возвращает, существовал ли он.
	DeleteRefreshToken(ctx context.Context, userID uuid.UUID) (bool, error)

	// DenylistAccessToken помещает access-токен в denylist на ttl.
	DenylistAccessToken(ctx context.Context, token string, ttl time.Duration) error
	// IsDenylisted проверяет членство access-токена в denylist.
	IsDenylisted(ctx context.Context, token string) (bool, error)

	// SetVerificationCode сохраняет код подтверждения; новый код
	// перекрывает прежний для той же пары (purpose, identity).
	SetVerificationCode(ctx context.Context, purpose, identity, code string, ttl time.Duration) error
	// VerificationCode возвращает код и признак наличия.
	VerificationCode(ctx context.Context, purpose, identity string) (string, bool, error)
	// DeleteVerificationCode удаляет код (одноразовое использование).
	DeleteVerificationCode(ctx context.Context, purpose, identity string) error

	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb *redis.Client
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
func NewRedisCache(ctx context.Context, redisURL string) (SessionCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb}, nil
}

func refreshKey(userID uuid.UUID) string { return refreshKeyPrefix + userID.String() }
func denylistKey(token string) string    { return denylistKeyPrefix + token }
func codeKey(purpose, identity string) string {
	return purpose + ":" + identity
}

func (c *redisCache) SetRefreshToken(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, refreshKey(userID), token, ttl).Err()
}

func (c *redisCache) RefreshToken(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	val, err := c.rdb.Get(ctx, refreshKey(userID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return val, true, nil
}

func (c *redisCache) DeleteRefreshToken(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := c.rdb.Del(ctx, refreshKey(userID)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (c *redisCache) DenylistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, denylistKey(token), denylistSentinel, ttl).Err()
}

func (c *redisCache) IsDenylisted(ctx context.Context, token string) (bool, error) {
	n, err := c.rdb.Exists(ctx, denylistKey(token)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (c *redisCache) SetVerificationCode(ctx context.Context, purpose, identity, code string, ttl time.Duration) error {
	return c.rdb.Set(ctx, codeKey(purpose, identity), code, ttl).Err()
}

func (c *redisCache) VerificationCode(ctx context.Context, purpose, identity string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, codeKey(purpose, identity)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return val, true, nil
}

func (c *redisCache) DeleteVerificationCode(ctx context.Context, purpose, identity string) error {
	return c.rdb.Del(ctx, codeKey(purpose, identity)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
