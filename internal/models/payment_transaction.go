package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentTransaction - одна попытка оплаты.
// Строка создается при инициации (pending) и служит явной связкой transaction_uuid -> user_id.
// Статус меняется только вперед: pending -> completed | failed | cancelled.
type PaymentTransaction struct {
	BaseModel
	TransactionUUID string            `gorm:"type:varchar(128);uniqueIndex;not null" json:"transaction_uuid"`
	UserID          string            `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID          string            `gorm:"type:uuid;not null;index" json:"plan_id"`
	Amount          decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status          TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	EsewaRefID      *string           `gorm:"type:varchar(128)" json:"esewa_ref_id,omitempty"`
	ProductCode     string            `gorm:"type:varchar(64)" json:"product_code"`
	ErrorMessage    *string           `json:"error_message,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`

	// Relations
	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// PaymentCallbackLog - журнал входящих callback'ов и проверок статуса.
// Пишется вне транзакции активации и на результат не влияет.
type PaymentCallbackLog struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Kind            CallbackKind   `gorm:"type:varchar(20);not null;index" json:"kind"`
	TransactionUUID string         `gorm:"type:varchar(128);index" json:"transaction_uuid"`
	Outcome         string         `gorm:"type:varchar(64);not null" json:"outcome"`
	Payload         datatypes.JSON `json:"payload"`
	CreatedAt       time.Time      `json:"created_at"`
}
