package services

import (
	"context"
	"errors"
	"strings"

	"jobportal_backend/internal/esewa"
	"jobportal_backend/internal/logger"
	"jobportal_backend/internal/metrics"
	"jobportal_backend/internal/models"
	"jobportal_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	errTransactionClosed = errors.New("payment transaction is already failed or cancelled")
	errAmountMismatch    = errors.New("gateway confirmed a different amount")
)

// settlement - подтвержденная оплата, готовая к записи и активации
type settlement struct {
	TransactionUUID string
	UserID          string
	RefID           string
	ProductCode     string
	Plan            *models.Plan
	Amount          decimal.Decimal
}

// =======================
// Success callback
// =======================

// HandleSuccessCallback: parse -> correlate -> verify -> persist -> activate.
// Любой исход превращается в CallbackOutcome, ошибки наружу не уходят.
func (s *paymentService) HandleSuccessCallback(ctx context.Context, db *gorm.DB, req esewa.CallbackRequest) CallbackOutcome {
	query := esewa.NormalizeQuery(req.Query)
	audit := map[string]any{"query": query}

	// 1. Parse
	parsed, err := esewa.ParseCallback(req)
	if err != nil {
		logger.CtxWarn(ctx, "callback payload could not be parsed", "error", err)
		return s.finish(ctx, db, models.CallbackSuccess, failed(query.Get("transaction_uuid"), CodeParseError), audit)
	}
	audit["source"] = esewa.SourceOf(parsed)

	payload, _ := parsed.(*esewa.Structured)
	if payload != nil {
		audit["fields"] = payload.Fields
	} else if raw, ok := parsed.(*esewa.RawText); ok {
		audit["raw_text"] = raw.Text
	}

	// 2. Correlate
	transactionUUID := query.Get("transaction_uuid")
	if payload != nil && payload.TransactionUUID != "" {
		transactionUUID = payload.TransactionUUID
	}
	if transactionUUID == "" {
		return s.finish(ctx, db, models.CallbackSuccess, failed("", CodeMissingTransaction), audit)
	}
	ctx = logger.WithTransactionUUID(ctx, transactionUUID)

	record, err := s.txRepo.FindByUUID(db, transactionUUID)
	if err != nil && !errors.Is(err, repositories.ErrTransactionNotFound) {
		logger.CtxWithError(ctx, "failed to load transaction", err)
		return s.finish(ctx, db, models.CallbackSuccess, failed(transactionUUID, CodeProcessingFailed), audit)
	}

	// оплата уже записана: повтор callback'а не зависит от шлюза
	if record != nil && record.Status == models.TransactionCompleted {
		refID := ""
		if record.EsewaRefID != nil {
			refID = *record.EsewaRefID
		}
		logger.CtxInfo(ctx, "callback for an already completed transaction")
		return s.finish(ctx, db, models.CallbackSuccess, succeeded(transactionUUID, refID, true), audit)
	}

	userID := s.correlateUser(ctx, record, transactionUUID, query.Get("user_id"))
	if userID == "" {
		return s.finish(ctx, db, models.CallbackSuccess, failed(transactionUUID, CodeUserNotFound), audit)
	}
	if _, err := s.userRepo.FindByID(db, userID); err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxWithError(ctx, "failed to load user", err)
			return s.finish(ctx, db, models.CallbackSuccess, failed(transactionUUID, CodeProcessingFailed), audit)
		}
		return s.finish(ctx, db, models.CallbackSuccess, failed(transactionUUID, CodeUserNotFound), audit)
	}

	plan, code := s.correlatePlan(ctx, db, record, query.Get("plan"))
	if code != "" {
		return s.finish(ctx, db, models.CallbackSuccess, failed(transactionUUID, code), audit)
	}

	expected := plan.Price
	if record != nil {
		expected = record.Amount
	}

	// 3. Verify
	trusted := false
	if payload != nil && payload.Signature != "" {
		trusted = s.signer.Verify(payload.Fields, payload.SignedFieldNames, payload.Signature)
		if !trusted {
			logger.CtxWarn(ctx, "callback signature mismatch", "signed_field_names", payload.SignedFieldNames)
			if s.cfg.Esewa.StrictSignature {
				return s.finish(ctx, db, models.CallbackSuccess, failed(transactionUUID, CodeInvalidSignature), audit)
			}
		}
	} else {
		logger.CtxWarn(ctx, "callback carries no signature, falling back to status check")
	}
	audit["signature_valid"] = trusted

	var (
		payloadStatus string
		refID         string
		verified      decimal.Decimal
		haveVerified  bool
	)
	if payload != nil {
		payloadStatus = strings.ToUpper(strings.TrimSpace(payload.Status))
		refID = payload.Reference()
		if trusted {
			verified, haveVerified = parseAmount(payload.TotalAmount)
		}
	}

	if !trusted || payloadStatus != esewa.StatusComplete || s.cfg.Esewa.AlwaysVerifyStatus {
		total := esewa.FormatAmount(expected)
		if payload != nil && payload.TotalAmount != "" {
			total = strings.ReplaceAll(payload.TotalAmount, ",", "")
		}

		result, err := s.checkGateway(ctx, transactionUUID, total, s.cfg.Esewa.ProductCode)
		if err != nil {
			logger.CtxWithError(ctx, "status check unavailable during callback", err)
			return s.finish(ctx, db, models.CallbackSuccess, failed(transactionUUID, CodeVerificationUnavailable), audit)
		}
		audit["status_check"] = statusPayload(result)

		if !result.IsComplete() {
			outcome := failed(transactionUUID, CodePaymentNotComplete)
			outcome.Reason = result.Status
			return s.finish(ctx, db, models.CallbackSuccess, outcome, audit)
		}
		if result.RefID != "" {
			refID = result.RefID
		}
		if amount, ok := parseAmount(result.TotalAmount); ok {
			verified, haveVerified = amount, true
		} else if !haveVerified {
			// шлюз подтвердил именно ту сумму, которую мы запросили
			verified, haveVerified = parseAmount(total)
		}
	}

	if haveVerified && !verified.Equal(expected) {
		logger.CtxWarn(ctx, "verified amount differs from expected",
			"expected", esewa.FormatAmount(expected),
			"verified", verified.String(),
		)
		return s.finish(ctx, db, models.CallbackSuccess, failed(transactionUUID, CodeAmountMismatch), audit)
	}

	// 4-5. Persist + Activate
	replay, err := s.settle(ctx, db, settlement{
		TransactionUUID: transactionUUID,
		UserID:          userID,
		RefID:           refID,
		ProductCode:     s.cfg.Esewa.ProductCode,
		Plan:            plan,
		Amount:          expected,
	})
	switch {
	case errors.Is(err, errTransactionClosed):
		logger.CtxError(ctx, "verified payment arrived for a closed transaction, manual review required", "ref_id", refID)
		return s.finish(ctx, db, models.CallbackSuccess, failed(transactionUUID, CodeTransactionClosed), audit)
	case err != nil:
		logger.CtxWithError(ctx, "payment settlement rolled back", err)
		return s.finish(ctx, db, models.CallbackSuccess, failed(transactionUUID, CodeProcessingFailed), audit)
	}

	if refID == "" && record != nil && record.EsewaRefID != nil {
		refID = *record.EsewaRefID
	}
	return s.finish(ctx, db, models.CallbackSuccess, succeeded(transactionUUID, refID, replay), audit)
}

// correlateUser: pending-запись -> префикс transaction_uuid -> параметр user_id
func (s *paymentService) correlateUser(ctx context.Context, record *models.PaymentTransaction, transactionUUID, queryUserID string) string {
	if record != nil {
		return record.UserID
	}
	if id := legacyUserID(transactionUUID); id != "" {
		logger.CtxDebug(ctx, "user resolved from transaction_uuid prefix")
		return id
	}
	return queryUserID
}

// correlatePlan: план из pending-записи, иначе по имени из query
func (s *paymentService) correlatePlan(ctx context.Context, db *gorm.DB, record *models.PaymentTransaction, planName string) (*models.Plan, CallbackCode) {
	if record != nil {
		plan, err := s.planRepo.FindByID(db, record.PlanID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlanNotFound) {
				return nil, CodePlanNotFound
			}
			logger.CtxWithError(ctx, "failed to load plan", err)
			return nil, CodeProcessingFailed
		}
		return plan, ""
	}

	name := models.PlanName(strings.ToLower(strings.TrimSpace(planName)))
	if !name.Valid() {
		return nil, CodeInvalidPlan
	}
	plan, err := s.planRepo.FindActiveByName(db, name)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, CodePlanNotFound
		}
		logger.CtxWithError(ctx, "failed to load plan", err)
		return nil, CodeProcessingFailed
	}
	return plan, ""
}

// =======================
// Failure callback
// =======================

func (s *paymentService) HandleFailureCallback(ctx context.Context, db *gorm.DB, req esewa.CallbackRequest) CallbackOutcome {
	query := esewa.NormalizeQuery(req.Query)
	transactionUUID := query.Get("transaction_uuid")
	audit := map[string]any{"query": query}

	outcome := CallbackOutcome{TransactionUUID: transactionUUID, Reason: ReasonUserCancelled}
	if transactionUUID == "" {
		return s.finish(ctx, db, models.CallbackFailure, outcome, audit)
	}
	ctx = logger.WithTransactionUUID(ctx, transactionUUID)

	err := s.txRepo.MarkFailed(db, transactionUUID, ReasonUserCancelled)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrTransactionNotFound):
		logger.CtxWarn(ctx, "failure callback for unknown transaction")
	case errors.Is(err, repositories.ErrInvalidTransition):
		// success обогнал failure: оплата уже прошла
		record, findErr := s.txRepo.FindByUUID(db, transactionUUID)
		if findErr == nil && record.Status == models.TransactionCompleted {
			refID := ""
			if record.EsewaRefID != nil {
				refID = *record.EsewaRefID
			}
			logger.CtxInfo(ctx, "failure callback after completed payment, keeping success")
			return s.finish(ctx, db, models.CallbackFailure, succeeded(transactionUUID, refID, true), audit)
		}
	default:
		logger.CtxWithError(ctx, "failed to mark transaction as failed", err)
	}
	return s.finish(ctx, db, models.CallbackFailure, outcome, audit)
}

// =======================
// Reconcile
// =======================

func (s *paymentService) Reconcile(ctx context.Context, db *gorm.DB, record *models.PaymentTransaction) (models.TransactionStatus, error) {
	ctx = logger.WithTransactionUUID(ctx, record.TransactionUUID)

	productCode := record.ProductCode
	if productCode == "" {
		productCode = s.cfg.Esewa.ProductCode
	}
	requested := esewa.FormatAmount(record.Amount)
	result, err := s.checkGateway(ctx, record.TransactionUUID, requested, productCode)
	if err != nil {
		return record.Status, err
	}
	s.record(ctx, db, models.CallbackReconcile, record.TransactionUUID, result.Status, statusPayload(result))

	switch {
	case result.IsComplete():
		status, err := s.settleRecord(ctx, db, record, result, requested)
		if errors.Is(err, errAmountMismatch) {
			return record.Status, nil
		}
		return status, err
	case result.IsTerminalFailure():
		if err := s.txRepo.MarkFailed(db, record.TransactionUUID, "gateway: "+result.Status); err != nil {
			if errors.Is(err, repositories.ErrInvalidTransition) {
				current, findErr := s.txRepo.FindByUUID(db, record.TransactionUUID)
				if findErr == nil {
					return current.Status, nil
				}
			}
			return record.Status, err
		}
		return models.TransactionFailed, nil
	}
	return models.TransactionPending, nil
}

// settleRecord завершает известную pending-транзакцию, подтвержденную шлюзом.
// requested - сумма, с которой шлюз опрашивали; она должна совпасть с суммой записи.
func (s *paymentService) settleRecord(ctx context.Context, db *gorm.DB, record *models.PaymentTransaction, result *esewa.StatusResult, requested string) (models.TransactionStatus, error) {
	confirmed, ok := parseAmount(result.TotalAmount)
	if !ok {
		confirmed, ok = parseAmount(requested)
	}
	if !ok || !confirmed.Equal(record.Amount) {
		logger.CtxWarn(ctx, "gateway confirmed a different amount, transaction left pending",
			"expected", esewa.FormatAmount(record.Amount),
			"confirmed", result.TotalAmount,
			"requested", requested,
		)
		return record.Status, errAmountMismatch
	}

	plan, err := s.planRepo.FindByID(db, record.PlanID)
	if err != nil {
		return record.Status, err
	}
	_, err = s.settle(ctx, db, settlement{
		TransactionUUID: record.TransactionUUID,
		UserID:          record.UserID,
		RefID:           result.RefID,
		ProductCode:     record.ProductCode,
		Plan:            plan,
		Amount:          record.Amount,
	})
	if errors.Is(err, errTransactionClosed) {
		logger.CtxError(ctx, "gateway reports completion for a closed transaction, manual review required")
		current, findErr := s.txRepo.FindByUUID(db, record.TransactionUUID)
		if findErr != nil {
			return record.Status, findErr
		}
		return current.Status, nil
	}
	if err != nil {
		return record.Status, err
	}
	return models.TransactionCompleted, nil
}

// =======================
// Saga
// =======================

// settle выполняет запись транзакции и активацию подписки в одной транзакции БД.
// Если параллельный callback успел вставить ту же транзакцию, повторяем один раз:
// повтор увидит запись победителя и станет replay.
func (s *paymentService) settle(ctx context.Context, db *gorm.DB, st settlement) (bool, error) {
	replay, err := s.settleOnce(db, st)
	if errors.Is(err, repositories.ErrDuplicateTransaction) {
		logger.CtxWarn(ctx, "concurrent insert of the same transaction, retrying once")
		replay, err = s.settleOnce(db, st)
	}
	return replay, err
}

func (s *paymentService) settleOnce(db *gorm.DB, st settlement) (replay bool, err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return false, tx.Error
	}
	defer tx.Rollback()

	record, created, err := s.txRepo.GetOrCreate(tx, repositories.CompletedTransactionParams{
		TransactionUUID: st.TransactionUUID,
		UserID:          st.UserID,
		PlanID:          st.Plan.ID,
		RefID:           st.RefID,
		Amount:          st.Amount,
		ProductCode:     st.ProductCode,
	})
	if err != nil {
		return false, err
	}

	if !created {
		switch record.Status {
		case models.TransactionCompleted:
			return true, nil
		case models.TransactionPending:
			moved, err := s.txRepo.MarkCompleted(tx, st.TransactionUUID, st.RefID, s.now())
			if err != nil {
				return false, err
			}
			if !moved {
				// другой обработчик закрыл строку между чтением и UPDATE
				current, err := s.txRepo.FindByUUID(tx, st.TransactionUUID)
				if err != nil {
					return false, err
				}
				if current.Status == models.TransactionCompleted {
					return true, nil
				}
				return false, errTransactionClosed
			}
		default:
			return false, errTransactionClosed
		}
	}

	if _, err := s.subscriptionService.Activate(tx, record.UserID, st.Plan, record.ID); err != nil {
		return false, err
	}

	if err := tx.Commit().Error; err != nil {
		return false, err
	}
	return false, nil
}

// finish пишет метрики и журнал и возвращает исход
func (s *paymentService) finish(ctx context.Context, db *gorm.DB, kind models.CallbackKind, outcome CallbackOutcome, audit map[string]any) CallbackOutcome {
	label := outcome.Label()
	metrics.CallbackOutcomes.WithLabelValues(string(kind), label).Inc()

	if outcome.Success {
		logger.CtxInfo(ctx, "payment callback processed", "kind", kind, "outcome", label, "ref_id", outcome.RefID)
	} else {
		logger.CtxWarn(ctx, "payment callback rejected", "kind", kind, "outcome", label, "reason", outcome.Reason)
	}

	s.record(ctx, db, kind, outcome.TransactionUUID, label, audit)
	return outcome
}
