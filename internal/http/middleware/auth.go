package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusbooks/bookcycle-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey    = "userID"
	ContextUsernameKey  = "username"
	ContextRoleKey      = "role"
	ContextProfileIDKey = "profileID"
)

// TokenVerifier проверяет сессионный токен.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*service.TokenClaims, error)
}

// SuspensionChecker сообщает, заблокирован ли студент.
type SuspensionChecker interface {
	IsSuspended(ctx context.Context, studentID string) (bool, error)
}

// ProfileResolver находит профиль по идентификатору учётной записи.
type ProfileResolver interface {
	StudentIDByUser(ctx context.Context, userID uuid.UUID) (string, error)
	CollectorIDByUser(ctx context.Context, userID uuid.UUID) (string, error)
}

// AuthMiddleware проверяет сессионный токен. Отозванный токен не проходит,
// даже если подпись и срок в порядке.
func AuthMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		claims, err := tokens.Verify(c.Request.Context(), raw)
		if err != nil || claims.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "токен невалиден"})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextRoleKey, claims.Roles)
		c.Next()
	}
}

// RequireRole пропускает только пользователей с указанной ролью.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(ContextRoleKey)
		if !exists || raw.(string) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "доступ запрещён"})
			return
		}
		c.Next()
	}
}

// RequireActiveStudent находит профиль студента и отклоняет заблокированных.
// Блокировка может случиться уже после выпуска токена, поэтому статус
// проверяется на каждом запросе.
func RequireActiveStudent(profiles ProfileResolver, suspensions SuspensionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		studentID, err := profiles.StudentIDByUser(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "профиль студента не найден"})
			return
		}

		suspended, err := suspensions.IsSuspended(c.Request.Context(), studentID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "сервис временно недоступен"})
			return
		}
		if suspended {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "аккаунт заблокирован"})
			return
		}

		c.Set(ContextProfileIDKey, studentID)
		c.Next()
	}
}

// RequireCollector находит профиль сборщика.
func RequireCollector(profiles ProfileResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		collectorID, err := profiles.CollectorIDByUser(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "профиль сборщика не найден"})
			return
		}

		c.Set(ContextProfileIDKey, collectorID)
		c.Next()
	}
}

func contextUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := raw.(uuid.UUID)
	return userID, ok
}
