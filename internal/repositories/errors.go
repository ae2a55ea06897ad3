package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrTransactionNotFound  = errors.New("payment transaction not found")
	ErrDuplicateTransaction = errors.New("payment transaction already exists")
	ErrInvalidTransition    = errors.New("payment transaction status cannot move backwards")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// isDuplicateKey распознает нарушение уникального индекса.
// gorm.ErrDuplicatedKey приходит при TranslateError: true, строковая проверка
// нужна для соединений, открытых без трансляции ошибок.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}
