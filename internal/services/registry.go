package services

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	PlanService         PlanService
	SubscriptionService SubscriptionService
	PaymentService      PaymentService
}
