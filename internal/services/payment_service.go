package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobportal_backend/internal/config"
	"jobportal_backend/internal/dto"
	"jobportal_backend/internal/esewa"
	"jobportal_backend/internal/logger"
	"jobportal_backend/internal/metrics"
	"jobportal_backend/internal/models"
	"jobportal_backend/internal/repositories"
	"jobportal_backend/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatusChecker - проверка статуса транзакции во внешнем шлюзе
type StatusChecker interface {
	CheckStatus(ctx context.Context, transactionUUID, totalAmount, productCode string) (*esewa.StatusResult, error)
}

type PaymentService interface {
	Initiate(ctx context.Context, db *gorm.DB, userID string, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error)
	CheckStatus(ctx context.Context, db *gorm.DB, userID string, req *dto.StatusCheckRequest) (*dto.StatusCheckResponse, error)
	ListTransactions(db *gorm.DB, userID string) ([]*dto.TransactionResponse, error)

	HandleSuccessCallback(ctx context.Context, db *gorm.DB, req esewa.CallbackRequest) CallbackOutcome
	HandleFailureCallback(ctx context.Context, db *gorm.DB, req esewa.CallbackRequest) CallbackOutcome

	// Reconcile сверяет зависшую pending-транзакцию со шлюзом
	Reconcile(ctx context.Context, db *gorm.DB, record *models.PaymentTransaction) (models.TransactionStatus, error)
}

type paymentService struct {
	cfg                 *config.Config
	signer              *esewa.Signer
	gateway             StatusChecker
	planService         PlanService
	subscriptionService SubscriptionService
	txRepo              repositories.TransactionRepository
	userRepo            repositories.UserRepository
	planRepo            repositories.PlanRepository
	logRepo             repositories.CallbackLogRepository
	now                 func() time.Time
}

func NewPaymentService(
	cfg *config.Config,
	gateway StatusChecker,
	planService PlanService,
	subscriptionService SubscriptionService,
	txRepo repositories.TransactionRepository,
	userRepo repositories.UserRepository,
	planRepo repositories.PlanRepository,
	logRepo repositories.CallbackLogRepository,
) PaymentService {
	return &paymentService{
		cfg:                 cfg,
		signer:              esewa.NewSigner(cfg.Esewa.SecretKey),
		gateway:             gateway,
		planService:         planService,
		subscriptionService: subscriptionService,
		txRepo:              txRepo,
		userRepo:            userRepo,
		planRepo:            planRepo,
		logRepo:             logRepo,
		now:                 func() time.Time { return time.Now().UTC() },
	}
}

// =======================
// Initiate
// =======================

func (s *paymentService) Initiate(ctx context.Context, db *gorm.DB, userID string, req *dto.InitiatePaymentRequest) (*dto.InitiatePaymentResponse, error) {
	if _, err := s.userRepo.FindByID(db, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.DatabaseError(err)
	}

	plan, err := s.planService.Resolve(db, req.PlanID, models.PlanName(req.Plan))
	if err != nil {
		return nil, err
	}

	// сервер - источник истины по цене
	if req.Amount != nil && !req.Amount.Equal(plan.Price) {
		return nil, apperrors.ErrInvalidPaymentAmount.WithDetails(map[string]string{
			"expected": esewa.FormatAmount(plan.Price),
			"received": req.Amount.String(),
		})
	}

	transactionUUID := fmt.Sprintf("%s_%s", userID, uuid.NewString())
	amounts := esewa.Amounts{Amount: plan.Price}
	successURL, failureURL := esewa.CallbackURLs(s.cfg.Server.BackendURL, transactionUUID, string(plan.PlanName), userID)

	form := esewa.BuildForm(s.signer, esewa.FormRequest{
		TransactionUUID: transactionUUID,
		ProductCode:     s.cfg.Esewa.ProductCode,
		Amounts:         amounts,
		SuccessURL:      successURL,
		FailureURL:      failureURL,
	})

	record := &models.PaymentTransaction{
		TransactionUUID: transactionUUID,
		UserID:          userID,
		PlanID:          plan.ID,
		Amount:          amounts.Total(),
		ProductCode:     s.cfg.Esewa.ProductCode,
	}
	if err := s.txRepo.CreatePending(db, record); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	metrics.PaymentsInitiated.WithLabelValues(string(plan.PlanName)).Inc()
	logger.CtxInfo(logger.WithTransactionUUID(ctx, transactionUUID), "payment initiated",
		"plan", plan.PlanName,
		"total_amount", form.TotalAmount,
	)

	return &dto.InitiatePaymentResponse{
		URL:             s.cfg.Esewa.InitiateURL,
		TransactionUUID: transactionUUID,
		Parameters:      form,
	}, nil
}

// =======================
// Status check
// =======================

func (s *paymentService) CheckStatus(ctx context.Context, db *gorm.DB, userID string, req *dto.StatusCheckRequest) (*dto.StatusCheckResponse, error) {
	ctx = logger.WithTransactionUUID(ctx, req.TransactionUUID)

	record, err := s.txRepo.FindByUUID(db, req.TransactionUUID)
	switch {
	case err == nil:
		if record.UserID != userID {
			return nil, apperrors.ErrTransactionAccessDenied
		}
	case errors.Is(err, repositories.ErrTransactionNotFound):
		// транзакции до появления pending-записей узнаем только по префиксу
		if legacyUserID(req.TransactionUUID) != userID {
			return nil, apperrors.ErrTransactionNotFound
		}
		record = nil
	default:
		return nil, apperrors.DatabaseError(err)
	}

	total := req.TotalAmount
	if total == "" {
		if record == nil {
			return nil, apperrors.NewBadRequestError("total_amount is required for unknown transactions")
		}
		total = esewa.FormatAmount(record.Amount)
	}
	productCode := req.ProductCode
	if productCode == "" {
		productCode = s.cfg.Esewa.ProductCode
	}

	result, err := s.checkGateway(ctx, req.TransactionUUID, total, productCode)
	if err != nil {
		logger.CtxWithError(ctx, "status check failed", err)
		s.record(ctx, db, models.CallbackStatusCheck, req.TransactionUUID, "unavailable", map[string]any{"error": err.Error()})
		return nil, apperrors.ErrGatewayUnavailable.WithError(err)
	}
	s.record(ctx, db, models.CallbackStatusCheck, req.TransactionUUID, result.Status, statusPayload(result))

	resp := &dto.StatusCheckResponse{
		TransactionUUID: req.TransactionUUID,
		Status:          result.Status,
		ReferenceID:     result.RefID,
		TotalAmount:     result.TotalAmount,
		Message:         result.Message,
	}
	if record == nil {
		return resp, nil
	}

	// шлюз подтвердил оплату, а callback до нас не дошел
	if record.Status == models.TransactionPending && result.IsComplete() {
		status, err := s.settleRecord(ctx, db, record, result, total)
		if errors.Is(err, errAmountMismatch) {
			resp.LocalStatus = string(record.Status)
			return resp, nil
		}
		if err != nil {
			logger.CtxWithError(ctx, "failed to settle transaction after status check", err)
			return nil, apperrors.InternalError(err)
		}
		resp.LocalStatus = string(status)
		return resp, nil
	}
	resp.LocalStatus = string(record.Status)
	return resp, nil
}

func (s *paymentService) ListTransactions(db *gorm.DB, userID string) ([]*dto.TransactionResponse, error) {
	txs, err := s.txRepo.ListByUser(db, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	resp := make([]*dto.TransactionResponse, 0, len(txs))
	for i := range txs {
		resp = append(resp, dto.NewTransactionResponse(&txs[i]))
	}
	return resp, nil
}

// =======================
// Helpers
// =======================

func (s *paymentService) checkGateway(ctx context.Context, transactionUUID, totalAmount, productCode string) (*esewa.StatusResult, error) {
	start := time.Now()
	result, err := s.gateway.CheckStatus(ctx, transactionUUID, totalAmount, productCode)
	metrics.ObserveStatusCheck(start, err)
	return result, err
}

// record пишет запись в журнал callback'ов. Ошибка журнала не влияет на результат.
func (s *paymentService) record(ctx context.Context, db *gorm.DB, kind models.CallbackKind, transactionUUID, outcome string, payload any) {
	if err := s.logRepo.Record(db, kind, transactionUUID, outcome, payload); err != nil {
		logger.CtxWithError(ctx, "failed to write callback log", err, "kind", kind)
	}
}

func statusPayload(r *esewa.StatusResult) map[string]any {
	if r.Raw != nil {
		return r.Raw
	}
	return map[string]any{"raw_text": r.RawText, "status": r.Status}
}

// legacyUserID достает user ID из transaction_uuid вида "{userID}_{uuid}".
// Используется только когда нет pending-записи.
func legacyUserID(transactionUUID string) string {
	prefix, _, ok := strings.Cut(transactionUUID, "_")
	if !ok {
		return ""
	}
	if _, err := uuid.Parse(prefix); err != nil {
		return ""
	}
	return prefix
}

// parseAmount понимает суммы вида "1,000.0", которые присылает шлюз
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
