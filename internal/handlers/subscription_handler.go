package handlers

import (
	"net/http"

	"jobportal_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
	}
}

func (h *SubscriptionHandler) RegisterRoutes(r *gin.RouterGroup, guards Guards) {
	subscriptions := r.Group("/subscriptions")
	subscriptions.Use(guards.Auth)
	{
		subscriptions.GET("/my", h.GetMySubscription)
		subscriptions.GET("/history", h.GetHistory)
		// Для фронтенда: 204, если премиум-функции доступны, иначе 402
		subscriptions.GET("/access", guards.ActiveSubscription, h.CheckAccess)
	}
}

// GetMySubscription godoc
// @Summary      Current subscription
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SubscriptionResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /subscriptions/my [get]
func (h *SubscriptionHandler) GetMySubscription(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	subscription, err := h.subscriptionService.GetCurrent(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, subscription)
}

// GetHistory godoc
// @Summary      Subscription history
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.SubscriptionResponse
// @Router       /subscriptions/history [get]
func (h *SubscriptionHandler) GetHistory(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	history, err := h.subscriptionService.ListHistory(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptions": history,
		"total":         len(history),
	})
}

// CheckAccess godoc
// @Summary      Check premium access
// @Tags         subscriptions
// @Security     BearerAuth
// @Success      204
// @Failure      402 {object} apperrors.ErrorResponse
// @Router       /subscriptions/access [get]
func (h *SubscriptionHandler) CheckAccess(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
