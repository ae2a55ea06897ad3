package validator

import (
	"fmt"

	"jobportal_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует кастомные теги в экземпляре валидатора.
func registerCustomRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		// 'is-plan-name': standard | premium
		"is-plan-name": func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return value == "" || models.PlanName(value).Valid()
		},
	}

	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register validation tag %q: %w", tag, err)
		}
	}
	return nil
}
