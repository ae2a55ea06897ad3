package repositories

import (
	"errors"
	"time"

	"jobportal_backend/internal/models"

	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Create(db *gorm.DB, sub *models.UserSubscription) error
	FindByTransactionID(db *gorm.DB, transactionID string) (*models.UserSubscription, error)
	// FindCurrent - активная и не истекшая на момент now подписка
	FindCurrent(db *gorm.DB, userID string, now time.Time) (*models.UserSubscription, error)
	ListByUser(db *gorm.DB, userID string) ([]models.UserSubscription, error)
	CountActive(db *gorm.DB, userID string) (int64, error)

	// DeactivateActive снимает is_active со всех активных подписок пользователя одним UPDATE
	DeactivateActive(db *gorm.DB, userID string) (int64, error)
	// ExpireLapsed снимает is_active с подписок, у которых expires_at <= now
	ExpireLapsed(db *gorm.DB, now time.Time) (int64, error)
}

type SubscriptionRepositoryImpl struct{}

func NewSubscriptionRepository() SubscriptionRepository {
	return &SubscriptionRepositoryImpl{}
}

func (r *SubscriptionRepositoryImpl) Create(db *gorm.DB, sub *models.UserSubscription) error {
	return db.Create(sub).Error
}

func (r *SubscriptionRepositoryImpl) FindByTransactionID(db *gorm.DB, transactionID string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := db.Where("transaction_id = ?", transactionID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindCurrent(db *gorm.DB, userID string, now time.Time) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := db.Preload("Plan").
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now).
		Order("expires_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) ListByUser(db *gorm.DB, userID string) ([]models.UserSubscription, error) {
	var subs []models.UserSubscription
	err := db.Preload("Plan").
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepositoryImpl) CountActive(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.UserSubscription{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *SubscriptionRepositoryImpl) DeactivateActive(db *gorm.DB, userID string) (int64, error) {
	result := db.Model(&models.UserSubscription{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

func (r *SubscriptionRepositoryImpl) ExpireLapsed(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.UserSubscription{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}
