package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Plan struct {
	BaseModel
	PlanName    PlanName        `gorm:"type:varchar(20);uniqueIndex;not null" json:"plan_name"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'NPR'" json:"currency"`
	ValidFor    int             `gorm:"not null;check:valid_for >= 0" json:"valid_for"` // дни
	Description string          `json:"description,omitempty"`
	IsActive    bool            `gorm:"not null;index" json:"is_active"`
}

type UserSubscription struct {
	BaseModel
	UserID        string    `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID        string    `gorm:"type:uuid;not null;index" json:"plan_id"`
	TransactionID string    `gorm:"type:uuid;not null;uniqueIndex" json:"transaction_id"`
	StartedAt     time.Time `gorm:"not null" json:"started_at"`
	ExpiresAt     time.Time `gorm:"not null;index" json:"expires_at"`
	IsActive      bool      `gorm:"not null;index" json:"is_active"`

	// Relations
	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// IsCurrent - подписка действует в момент now.
// Подписка с expires_at == started_at (valid_for = 0) не действует никогда.
func (s *UserSubscription) IsCurrent(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
