package middleware

import (
	"jobportal_backend/internal/logger"
	"jobportal_backend/pkg/apperrors"
	"jobportal_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SubscriptionChecker - то, что нужно middleware от сервиса подписок
type SubscriptionChecker interface {
	HasCurrent(db *gorm.DB, userID string) (bool, error)
}

// RequireActiveSubscription пропускает только пользователей с действующей подпиской.
// Подписка с expires_at <= now считается недействующей даже при is_active = true.
// Должен стоять после AuthMiddleware и DBMiddleware.
func RequireActiveSubscription(checker SubscriptionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Not authenticated"))
			return
		}

		db, ok := c.MustGet(string(contextkeys.DBContextKey)).(*gorm.DB)
		if !ok {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Subscription check unavailable"))
			return
		}

		active, err := checker.HasCurrent(db, userID)
		if err != nil {
			logger.CtxWithError(c.Request.Context(), "subscription check failed", err)
			apperrors.HandleError(c, err)
			return
		}
		if !active {
			logger.CtxInfo(c.Request.Context(), "access denied: no active subscription")
			apperrors.HandleError(c, apperrors.ErrSubscriptionRequired)
			return
		}
		c.Next()
	}
}
