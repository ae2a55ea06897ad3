package repositories

import (
	"encoding/json"

	"jobportal_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CallbackLogRepository interface {
	Record(db *gorm.DB, kind models.CallbackKind, transactionUUID, outcome string, payload interface{}) error
	ListByTransaction(db *gorm.DB, transactionUUID string) ([]models.PaymentCallbackLog, error)
}

type CallbackLogRepositoryImpl struct{}

func NewCallbackLogRepository() CallbackLogRepository {
	return &CallbackLogRepositoryImpl{}
}

func (r *CallbackLogRepositoryImpl) Record(db *gorm.DB, kind models.CallbackKind, transactionUUID, outcome string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	entry := &models.PaymentCallbackLog{
		Kind:            kind,
		TransactionUUID: transactionUUID,
		Outcome:         outcome,
		Payload:         datatypes.JSON(raw),
	}
	return db.Create(entry).Error
}

func (r *CallbackLogRepositoryImpl) ListByTransaction(db *gorm.DB, transactionUUID string) ([]models.PaymentCallbackLog, error) {
	var logs []models.PaymentCallbackLog
	err := db.Where("transaction_uuid = ?", transactionUUID).Order("id ASC").Find(&logs).Error
	return logs, err
}
