package repositories

import (
	"errors"
	"time"

	"jobportal_backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CompletedTransactionParams - данные подтвержденного платежа для GetOrCreate
type CompletedTransactionParams struct {
	TransactionUUID string
	UserID          string
	PlanID          string
	RefID           string
	Amount          decimal.Decimal
	ProductCode     string
}

type TransactionRepository interface {
	CreatePending(db *gorm.DB, tx *models.PaymentTransaction) error
	FindByUUID(db *gorm.DB, transactionUUID string) (*models.PaymentTransaction, error)
	ListByUser(db *gorm.DB, userID string) ([]models.PaymentTransaction, error)

	// GetOrCreate возвращает существующую строку без изменений или вставляет новую
	// со статусом completed. created=true только для вставки.
	GetOrCreate(db *gorm.DB, params CompletedTransactionParams) (tx *models.PaymentTransaction, created bool, err error)

	// MarkCompleted переводит pending -> completed; false, если строка уже не pending
	MarkCompleted(db *gorm.DB, transactionUUID, refID string, at time.Time) (bool, error)

	// MarkFailed переводит pending -> failed. Повтор для failed - no-op,
	// из completed/cancelled - ErrInvalidTransition.
	MarkFailed(db *gorm.DB, transactionUUID, reason string) error

	FindStalePending(db *gorm.DB, createdBefore time.Time, limit int) ([]models.PaymentTransaction, error)
}

type TransactionRepositoryImpl struct{}

func NewTransactionRepository() TransactionRepository {
	return &TransactionRepositoryImpl{}
}

func (r *TransactionRepositoryImpl) CreatePending(db *gorm.DB, tx *models.PaymentTransaction) error {
	tx.Status = models.TransactionPending
	if err := db.Create(tx).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

func (r *TransactionRepositoryImpl) FindByUUID(db *gorm.DB, transactionUUID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := db.Where("transaction_uuid = ?", transactionUUID).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *TransactionRepositoryImpl) ListByUser(db *gorm.DB, userID string) ([]models.PaymentTransaction, error) {
	var txs []models.PaymentTransaction
	err := db.Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

func (r *TransactionRepositoryImpl) GetOrCreate(db *gorm.DB, params CompletedTransactionParams) (*models.PaymentTransaction, bool, error) {
	existing, err := r.FindByUUID(db, params.TransactionUUID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrTransactionNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	tx := &models.PaymentTransaction{
		TransactionUUID: params.TransactionUUID,
		UserID:          params.UserID,
		PlanID:          params.PlanID,
		Amount:          params.Amount,
		Status:          models.TransactionCompleted,
		ProductCode:     params.ProductCode,
		CompletedAt:     &now,
	}
	if params.RefID != "" {
		ref := params.RefID
		tx.EsewaRefID = &ref
	}

	if err := db.Create(tx).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, false, ErrDuplicateTransaction
		}
		return nil, false, err
	}
	return tx, true, nil
}

func (r *TransactionRepositoryImpl) MarkCompleted(db *gorm.DB, transactionUUID, refID string, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":       models.TransactionCompleted,
		"completed_at": at,
	}
	if refID != "" {
		updates["esewa_ref_id"] = refID
	}

	result := db.Model(&models.PaymentTransaction{}).
		Where("transaction_uuid = ? AND status = ?", transactionUUID, models.TransactionPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *TransactionRepositoryImpl) MarkFailed(db *gorm.DB, transactionUUID, reason string) error {
	updates := map[string]interface{}{
		"status": models.TransactionFailed,
	}
	if reason != "" {
		updates["error_message"] = reason
	}

	result := db.Model(&models.PaymentTransaction{}).
		Where("transaction_uuid = ? AND status = ?", transactionUUID, models.TransactionPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	current, err := r.FindByUUID(db, transactionUUID)
	if err != nil {
		return err
	}
	if current.Status == models.TransactionFailed {
		return nil
	}
	return ErrInvalidTransition
}

func (r *TransactionRepositoryImpl) FindStalePending(db *gorm.DB, createdBefore time.Time, limit int) ([]models.PaymentTransaction, error) {
	var txs []models.PaymentTransaction
	err := db.Where("status = ? AND created_at < ?", models.TransactionPending, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
