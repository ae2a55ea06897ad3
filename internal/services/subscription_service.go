package services

import (
	"errors"
	"fmt"
	"time"

	"jobportal_backend/internal/dto"
	"jobportal_backend/internal/metrics"
	"jobportal_backend/internal/models"
	"jobportal_backend/internal/repositories"
	"jobportal_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type SubscriptionService interface {
	// Activate идемпотентно создает подписку по оплаченной транзакции.
	// Деактивация старых подписок, создание новой и повышение роли коммитятся вместе;
	// внутри внешней транзакции выполняется как savepoint.
	Activate(db *gorm.DB, userID string, plan *models.Plan, transactionID string) (*models.UserSubscription, error)

	GetCurrent(db *gorm.DB, userID string) (*dto.SubscriptionResponse, error)
	HasCurrent(db *gorm.DB, userID string) (bool, error)
	ListHistory(db *gorm.DB, userID string) ([]*dto.SubscriptionResponse, error)
	ExpireLapsed(db *gorm.DB) (int64, error)
}

type subscriptionService struct {
	subRepo  repositories.SubscriptionRepository
	userRepo repositories.UserRepository
	now      func() time.Time
}

func NewSubscriptionService(
	subRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
) SubscriptionService {
	return &subscriptionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *subscriptionService) Activate(db *gorm.DB, userID string, plan *models.Plan, transactionID string) (*models.UserSubscription, error) {
	var (
		result  *models.UserSubscription
		created bool
	)

	err := db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.subRepo.FindByTransactionID(tx, transactionID)
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return err
		}

		// пользователь должен существовать до любых изменений
		if _, err := s.userRepo.FindByID(tx, userID); err != nil {
			return err
		}

		if _, err := s.subRepo.DeactivateActive(tx, userID); err != nil {
			return err
		}

		startedAt := s.now()
		sub := &models.UserSubscription{
			UserID:        userID,
			PlanID:        plan.ID,
			TransactionID: transactionID,
			StartedAt:     startedAt,
			ExpiresAt:     startedAt.AddDate(0, 0, plan.ValidFor),
			IsActive:      true,
		}
		if err := s.subRepo.Create(tx, sub); err != nil {
			return err
		}
		active, err := s.subRepo.CountActive(tx, userID)
		if err != nil {
			return err
		}
		if active != 1 {
			return fmt.Errorf("user %s has %d active subscriptions after activation", userID, active)
		}

		if _, err := s.userRepo.PromoteRole(tx, userID, models.UserRoleBoth); err != nil {
			return err
		}

		result = sub
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		metrics.SubscriptionsActivated.WithLabelValues(string(plan.PlanName)).Inc()
	}
	return result, nil
}

func (s *subscriptionService) GetCurrent(db *gorm.DB, userID string) (*dto.SubscriptionResponse, error) {
	now := s.now()
	sub, err := s.subRepo.FindCurrent(db, userID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	return dto.NewSubscriptionResponse(sub, now), nil
}

func (s *subscriptionService) HasCurrent(db *gorm.DB, userID string) (bool, error) {
	_, err := s.subRepo.FindCurrent(db, userID, s.now())
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repositories.ErrSubscriptionNotFound) {
		return false, nil
	}
	return false, apperrors.DatabaseError(err)
}

func (s *subscriptionService) ListHistory(db *gorm.DB, userID string) ([]*dto.SubscriptionResponse, error) {
	subs, err := s.subRepo.ListByUser(db, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	now := s.now()
	resp := make([]*dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		resp = append(resp, dto.NewSubscriptionResponse(&subs[i], now))
	}
	return resp, nil
}

func (s *subscriptionService) ExpireLapsed(db *gorm.DB) (int64, error) {
	return s.subRepo.ExpireLapsed(db, s.now())
}
