package models

type UserRole string
type PlanName string
type TransactionStatus string
type CallbackKind string

const (
	UserRoleEmployee UserRole = "employee"
	UserRoleEmployer UserRole = "employer"
	// UserRoleBoth - привилегированная роль, выдается после первой успешной оплаты
	UserRoleBoth UserRole = "both"

	PlanStandard PlanName = "standard"
	PlanPremium  PlanName = "premium"

	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCancelled TransactionStatus = "cancelled"

	CallbackSuccess     CallbackKind = "success"
	CallbackFailure     CallbackKind = "failure"
	CallbackStatusCheck CallbackKind = "status_check"
	CallbackReconcile   CallbackKind = "reconcile"
)

func (p PlanName) Valid() bool {
	return p == PlanStandard || p == PlanPremium
}
