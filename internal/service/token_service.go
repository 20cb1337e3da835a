package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campusbooks/bookcycle-backend/internal/cache"
	"github.com/campusbooks/bookcycle-backend/internal/logger"
	"github.com/campusbooks/bookcycle-backend/internal/pkg/apperror"
)

// Причина отзыва токена при обновлении.
const revokeReasonRefreshed = "refreshed"

// TokenClaims - полезная нагрузка сессионного токена.
type TokenClaims struct {
	UserID   uuid.UUID
	Username string
	Roles    string
}

// TokenService выпускает, проверяет и отзывает сессионные токены.
// Чёрный список и индекс живых токенов пользователя живут в сессионном
// кэше с TTL: запись в чёрном списке не обязана переживать естественное
// истечение самого токена.
type TokenService struct {
	cache  cache.Cache
	secret []byte
	ttl    time.Duration
}

// NewTokenService создаёт сервис токенов.
func NewTokenService(c cache.Cache, secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		cache:  c,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL возвращает срок жизни выпускаемых токенов.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue выпускает подписанный токен и регистрирует его в индексе живых
// токенов пользователя. Без записи в индекс токен невозможно отозвать
// через RevokeAllForUser, поэтому сбой индекса - это отказ выпуска.
func (s *TokenService) Issue(ctx context.Context, claims TokenClaims) (string, error) {
	now := time.Now()
	// Уникальный jti: два токена с одинаковыми claims в одну секунду
	// не должны совпадать побайтно, иначе refresh отзывает сам себя.
	jwtClaims := jwt.MapClaims{
		"sub":      claims.UserID.String(),
		"username": claims.Username,
		"roles":    claims.Roles,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims).SignedString(s.secret)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось подписать токен")
	}

	indexKey := cache.UserTokensKey(claims.UserID)
	if err := s.cache.AddToSet(ctx, indexKey, token); err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeUnavailable, "кэш сессий недоступен")
	}
	if err := s.cache.RefreshExpire(ctx, indexKey, s.ttl); err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeUnavailable, "кэш сессий недоступен")
	}

	return token, nil
}

// Verify проверяет токен и возвращает его полезную нагрузку.
// Чёрный список проверяется до подписи: это дешевле и отлавливает
// отозванные, но ещё не истёкшие токены.
func (s *TokenService) Verify(ctx context.Context, token string) (*TokenClaims, error) {
	blacklisted, err := s.cache.Has(ctx, cache.BlacklistKey(token))
	if err != nil {
		// Журнал отзыва недоступен - пропускать токен нельзя.
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "кэш сессий недоступен")
	}
	if blacklisted {
		return nil, apperror.ErrTokenInvalid
	}

	return s.parse(token)
}

// Refresh выпускает новый токен взамен старого. Старый токен попадает в
// чёрный список, чтобы украденную копию нельзя было переиграть после
// обновления.
func (s *TokenService) Refresh(ctx context.Context, oldToken string) (string, error) {
	claims, err := s.Verify(ctx, oldToken)
	if err != nil {
		return "", err
	}

	if err := s.cache.SetWithExpire(ctx, cache.BlacklistKey(oldToken), revokeReasonRefreshed, s.ttl); err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeUnavailable, "кэш сессий недоступен")
	}
	if err := s.cache.RemoveFromSet(ctx, cache.UserTokensKey(claims.UserID), oldToken); err != nil {
		// Индекс подчистит TTL; токен уже в чёрном списке.
		logger.Log.WithError(err).Warn("token service: не удалось убрать токен из индекса")
	}

	return s.Issue(ctx, *claims)
}

// RevokeAllForUser заносит в чёрный список все живые токены пользователя.
// Сбой отзыва отдельного токена (например, уже истёк) считается и
// пропускается, но не валит операцию целиком.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string, ttl time.Duration) (int, error) {
	indexKey := cache.UserTokensKey(userID)
	tokens, err := s.cache.SetMembers(ctx, indexKey)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeUnavailable, "кэш сессий недоступен")
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	revoked := 0
	for _, token := range tokens {
		if err := s.cache.SetWithExpire(ctx, cache.BlacklistKey(token), reason, ttl); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("token service: не удалось отозвать токен")
			continue
		}
		revoked++
	}

	if revoked < len(tokens) {
		return revoked, apperror.New(apperror.ErrCodeUnavailable, "не все токены отозваны")
	}

	if err := s.cache.Delete(ctx, indexKey); err != nil {
		logger.Log.WithError(err).Warn("token service: не удалось очистить индекс токенов")
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"revoked": revoked,
		"reason":  reason,
	}).Info("token service: токены пользователя отозваны")

	return revoked, nil
}

// Logout заносит один токен в чёрный список.
func (s *TokenService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	if err := s.cache.SetWithExpire(ctx, cache.BlacklistKey(token), "logout", s.ttl); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeUnavailable, "кэш сессий недоступен")
	}
	if err := s.cache.RemoveFromSet(ctx, cache.UserTokensKey(claims.UserID), token); err != nil {
		logger.Log.WithError(err).Warn("token service: не удалось убрать токен из индекса")
	}
	return nil
}

// parse проверяет подпись и срок действия и извлекает claims.
func (s *TokenService) parse(token string) (*TokenClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperror.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperror.ErrTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, apperror.ErrTokenInvalid
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, apperror.ErrTokenInvalid
	}

	username, _ := claims["username"].(string)
	roles, _ := claims["roles"].(string)

	return &TokenClaims{
		UserID:   userID,
		Username: username,
		Roles:    roles,
	}, nil
}
