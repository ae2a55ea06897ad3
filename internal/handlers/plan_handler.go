package handlers

import (
	"net/http"

	"jobportal_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type PlanHandler struct {
	*BaseHandler
	planService services.PlanService
}

func NewPlanHandler(base *BaseHandler, planService services.PlanService) *PlanHandler {
	return &PlanHandler{
		BaseHandler: base,
		planService: planService,
	}
}

// RegisterRoutes - список планов публичный
func (h *PlanHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/plan", h.GetPlans)
}

// GetPlans godoc
// @Summary      List purchasable plans
// @Tags         plans
// @Produce      json
// @Success      200 {object} dto.PlansListResponse
// @Failure      404 {object} apperrors.ErrorResponse
// @Router       /plan [get]
func (h *PlanHandler) GetPlans(c *gin.Context) {
	plans, err := h.planService.ListActive(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, plans)
}
