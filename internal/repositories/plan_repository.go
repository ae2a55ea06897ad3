package repositories

import (
	"errors"

	"jobportal_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository interface {
	FindByID(db *gorm.DB, id string) (*models.Plan, error)
	FindActiveByName(db *gorm.DB, name models.PlanName) (*models.Plan, error)
	ListActive(db *gorm.DB) ([]models.Plan, error)
	// Upsert создает план или обновляет цену/срок/описание существующего по имени
	Upsert(db *gorm.DB, plan *models.Plan) error
}

type PlanRepositoryImpl struct{}

func NewPlanRepository() PlanRepository {
	return &PlanRepositoryImpl{}
}

func (r *PlanRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Plan, error) {
	var plan models.Plan
	if err := db.First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepositoryImpl) FindActiveByName(db *gorm.DB, name models.PlanName) (*models.Plan, error) {
	var plan models.Plan
	err := db.Where("plan_name = ? AND is_active = ?", name, true).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepositoryImpl) ListActive(db *gorm.DB) ([]models.Plan, error) {
	var plans []models.Plan
	err := db.Where("is_active = ?", true).Order("plan_name ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepositoryImpl) Upsert(db *gorm.DB, plan *models.Plan) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "currency", "valid_for", "description", "is_active", "updated_at"}),
	}).Create(plan).Error
}
