package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	PlanHandler         *PlanHandler
	PaymentHandler      *PaymentHandler
	SubscriptionHandler *SubscriptionHandler
}
