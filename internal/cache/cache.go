package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrCacheMiss возвращается, когда ключ отсутствует в кэше.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache описывает контракт сессионного кэша: быстрый key-value слой с TTL,
// множествами и атомарным инкрементом. Хранилище истины — всегда Postgres,
// кэш используется как ускоритель чтения и как журнал отзыва токенов.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithExpire(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	AddToSet(ctx context.Context, key string, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	RemoveFromSet(ctx context.Context, key string, members ...string) error
	RefreshExpire(ctx context.Context, key string, ttl time.Duration) error
	Increment(ctx context.Context, key string, delta int64) (int64, error)
}

// Префиксы ключей. Формат ключа: {namespace}:{id}.
const (
	prefixStudent    = "student:"
	prefixReputation = "student:reputation:"
	prefixBan        = "student:ban:"
	prefixBlacklist  = "blacklist:"
	prefixUserTokens = "token:user:"
	prefixCollector  = "collector:orders:"
)

// StudentKey - снимок профиля студента.
func StudentKey(studentID string) string {
	return prefixStudent + studentID
}

// ReputationKey - текущий рейтинг студента.
func ReputationKey(studentID string) string {
	return prefixReputation + studentID
}

// BanKey - запись о блокировке с TTL до конца срока.
func BanKey(studentID string) string {
	return prefixBan + studentID
}

// BlacklistKey - отозванный токен; значение хранит причину отзыва.
func BlacklistKey(token string) string {
	return prefixBlacklist + token
}

// UserTokensKey - множество живых токенов пользователя.
func UserTokensKey(userID uuid.UUID) string {
	return prefixUserTokens + userID.String()
}

// CollectorOrdersKey - счётчик принятых заказов сборщика.
func CollectorOrdersKey(collectorID string) string {
	return prefixCollector + collectorID
}
