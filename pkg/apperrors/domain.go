package apperrors

import (
	"net/http"
)

/*
Предопределенные ошибки платежного домена.
Сервисы возвращают их напрямую или через WithDetails/WithError.
*/

// --- Plans ---

// ErrPlanNotFound - план не найден или деактивирован.
var ErrPlanNotFound = New(
	CodeNotFound,
	"plan",
	"Plan not found or inactive",
	http.StatusNotFound, // 404
)

// ErrNoActivePlans - в системе нет ни одного активного плана.
var ErrNoActivePlans = New(
	CodeNotFound,
	"plan",
	"No active plans found",
	http.StatusNotFound,
)

// --- Payments ---

// ErrInvalidPaymentAmount - сумма в запросе не совпадает с ценой плана.
var ErrInvalidPaymentAmount = New(
	CodeValidationFailed,
	"payment",
	"Amount does not match plan price",
	http.StatusBadRequest, // 400
)

// ErrTransactionNotFound - транзакция с таким transaction_uuid не найдена.
var ErrTransactionNotFound = New(
	CodeNotFound,
	"payment",
	"Transaction not found",
	http.StatusNotFound,
)

// ErrTransactionAccessDenied - транзакция принадлежит другому пользователю.
var ErrTransactionAccessDenied = New(
	CodeForbidden,
	"payment",
	"Transaction belongs to another user",
	http.StatusForbidden, // 403
)

// ErrGatewayUnavailable - платежный шлюз не ответил или вернул ошибку.
// Никогда не трактуется как успешная оплата.
var ErrGatewayUnavailable = New(
	CodeExternalServiceError,
	"payment",
	"Payment gateway is unavailable",
	http.StatusServiceUnavailable, // 503
)

// --- Subscriptions ---

// ErrSubscriptionNotFound - у пользователя нет действующей подписки.
var ErrSubscriptionNotFound = New(
	CodeNotFound,
	"subscription",
	"No active subscription",
	http.StatusNotFound,
)

// ErrSubscriptionRequired - для доступа к ресурсу нужна действующая подписка.
var ErrSubscriptionRequired = New(
	CodeNoSubscription,
	"subscription",
	"Active subscription required",
	http.StatusPaymentRequired, // 402
)

// --- Auth & Users ---

// ErrUserNotFound - пользователь не найден.
var ErrUserNotFound = New(
	CodeNotFound,
	"user",
	"User not found",
	http.StatusNotFound,
)

// ErrInvalidToken - неверный или просроченный токен.
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized, // 401
)

// ErrTooManyRequests - превышен лимит запросов.
var ErrTooManyRequests = New(
	CodeRateLimited,
	"request",
	"Too many requests",
	http.StatusTooManyRequests, // 429
)
