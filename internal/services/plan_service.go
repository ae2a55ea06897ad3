package services

import (
	"errors"

	"jobportal_backend/internal/dto"
	"jobportal_backend/internal/models"
	"jobportal_backend/internal/repositories"
	"jobportal_backend/pkg/apperrors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PlanService interface {
	ListActive(db *gorm.DB) (*dto.PlansListResponse, error)
	// Resolve находит активный план по ID или имени
	Resolve(db *gorm.DB, planID string, name models.PlanName) (*models.Plan, error)
	SeedDefaults(db *gorm.DB) error
}

type planService struct {
	planRepo repositories.PlanRepository
}

func NewPlanService(planRepo repositories.PlanRepository) PlanService {
	return &planService{planRepo: planRepo}
}

func (s *planService) ListActive(db *gorm.DB) (*dto.PlansListResponse, error) {
	plans, err := s.planRepo.ListActive(db)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if len(plans) == 0 {
		return nil, apperrors.ErrNoActivePlans
	}

	resp := &dto.PlansListResponse{Plans: make([]*dto.PlanResponse, 0, len(plans))}
	for i := range plans {
		resp.Plans = append(resp.Plans, dto.NewPlanResponse(&plans[i]))
	}
	return resp, nil
}

func (s *planService) Resolve(db *gorm.DB, planID string, name models.PlanName) (*models.Plan, error) {
	var (
		plan *models.Plan
		err  error
	)
	if planID != "" {
		plan, err = s.planRepo.FindByID(db, planID)
	} else {
		plan, err = s.planRepo.FindActiveByName(db, name)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}
	if !plan.IsActive {
		return nil, apperrors.ErrPlanNotFound
	}
	return plan, nil
}

// SeedDefaults создает или обновляет стандартные планы
func (s *planService) SeedDefaults(db *gorm.DB) error {
	defaults := []models.Plan{
		{
			PlanName:    models.PlanStandard,
			Price:       decimal.RequireFromString("999.00"),
			Currency:    "NPR",
			ValidFor:    30,
			Description: "Post jobs and apply to jobs for 30 days",
			IsActive:    true,
		},
		{
			PlanName:    models.PlanPremium,
			Price:       decimal.RequireFromString("2499.00"),
			Currency:    "NPR",
			ValidFor:    90,
			Description: "Everything in standard for 90 days",
			IsActive:    true,
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i := range defaults {
			if err := s.planRepo.Upsert(tx, &defaults[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
