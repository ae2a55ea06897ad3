package dto

import (
	"jobportal_backend/internal/models"
)

type PlanResponse struct {
	ID          string `json:"id"`
	PlanName    string `json:"plan_name"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	ValidFor    int    `json:"valid_for"`
	Description string `json:"description,omitempty"`
}

type PlansListResponse struct {
	Plans []*PlanResponse `json:"plans"`
}

func NewPlanResponse(p *models.Plan) *PlanResponse {
	if p == nil {
		return nil
	}
	return &PlanResponse{
		ID:          p.ID,
		PlanName:    string(p.PlanName),
		Price:       p.Price.StringFixed(2),
		Currency:    p.Currency,
		ValidFor:    p.ValidFor,
		Description: p.Description,
	}
}
