package dto

import (
	"time"

	"jobportal_backend/internal/models"
)

type SubscriptionResponse struct {
	ID            string        `json:"id"`
	Plan          *PlanResponse `json:"plan,omitempty"`
	TransactionID string        `json:"transaction_id"`
	StartedAt     time.Time     `json:"started_at"`
	ExpiresAt     time.Time     `json:"expires_at"`
	IsActive      bool          `json:"is_active"`
	DaysRemaining int           `json:"days_remaining"`
}

func NewSubscriptionResponse(s *models.UserSubscription, now time.Time) *SubscriptionResponse {
	resp := &SubscriptionResponse{
		ID:            s.ID,
		Plan:          NewPlanResponse(s.Plan),
		TransactionID: s.TransactionID,
		StartedAt:     s.StartedAt,
		ExpiresAt:     s.ExpiresAt,
		IsActive:      s.IsCurrent(now),
	}
	if resp.IsActive {
		resp.DaysRemaining = int(s.ExpiresAt.Sub(now).Hours() / 24)
	}
	return resp
}
